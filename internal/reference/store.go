// Package reference serves the static hexagram texts (name, judgment,
// description, line glosses) loaded from hexagrams.json. The data is an
// external asset the core only reads; missing ordinals degrade to a
// placeholder entry so a lookup never fails.
package reference

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"liuyao/internal/filestore"
	"liuyao/internal/models"
)

type Store struct {
	path string

	mu      sync.RWMutex
	entries map[int]*models.ReferenceEntry
}

// NewStore loads the reference data from path. If the file is absent a
// minimal default is written first, matching the bootstrap behavior users
// expect on a fresh install.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, entries: map[int]*models.ReferenceEntry{}}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("📦 [REFERENCE] %s not found, writing default data", path)
		if err := filestore.WriteJSON(path, defaultData()); err != nil {
			return nil, fmt.Errorf("failed to bootstrap reference data: %w", err)
		}
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the asset file. Kept entries survive a failed reload.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read reference data: %w", err)
	}

	raw := map[string]models.ReferenceEntry{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse reference data: %w", err)
	}

	entries := make(map[int]*models.ReferenceEntry, len(raw))
	for key, entry := range raw {
		number, err := strconv.Atoi(key)
		if err != nil || number < 1 || number > 64 {
			log.Printf("⚠️  [REFERENCE] Skipping entry with bad ordinal key %q", key)
			continue
		}
		e := entry
		e.Number = number
		entries[number] = &e
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	if len(entries) < 64 {
		log.Printf("⚠️  [REFERENCE] Loaded %d/64 hexagram entries; missing ordinals use placeholders", len(entries))
	} else {
		log.Printf("✅ [REFERENCE] Loaded %d hexagram entries", len(entries))
	}
	return nil
}

// Get returns the entry for a King Wen number, or a synthetic placeholder if
// the asset has no such entry. Never nil, never an error.
func (s *Store) Get(number int) *models.ReferenceEntry {
	s.mu.RLock()
	entry, ok := s.entries[number]
	s.mu.RUnlock()
	if ok {
		return entry
	}
	return placeholder(number)
}

// Count returns how many entries are currently loaded.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Watch hot-reloads the asset when the file changes on disk. It blocks until
// the watcher fails, so call it from its own goroutine.
func (s *Store) Watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  [REFERENCE] Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		log.Printf("⚠️  [REFERENCE] Failed to resolve %s: %v", s.path, err)
		return
	}

	// Watch the directory, not the file — editors and atomic writers replace
	// the file and would break a direct watch.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		log.Printf("⚠️  [REFERENCE] Failed to watch %s: %v", filepath.Dir(absPath), err)
		return
	}

	log.Printf("👁️  [REFERENCE] Watching %s for changes (hot-reload enabled)", s.path)

	var debounce *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(absPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				if err := s.Reload(); err != nil {
					log.Printf("❌ [REFERENCE] Reload after file change failed: %v", err)
				} else {
					log.Printf("🔄 [REFERENCE] Reloaded hexagram data from %s", s.path)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  [REFERENCE] File watcher error: %v", err)
		}
	}
}

func placeholder(number int) *models.ReferenceEntry {
	lines := make([]string, 7)
	for i := range lines {
		lines[i] = "无爻辞。"
	}
	return &models.ReferenceEntry{
		Number:      number,
		Name:        fmt.Sprintf("未知卦象(%d)", number),
		Verse:       "无卦辞。",
		Description: "暂无描述。",
		Lines:       lines,
	}
}

// defaultData is the minimal bootstrap asset: the first two hexagrams. A
// full deployment ships the complete 64-entry file alongside the binary.
func defaultData() map[string]models.ReferenceEntry {
	return map[string]models.ReferenceEntry{
		"1": {
			Name:        "乾为天",
			Verse:       "元亨利贞。",
			Description: "乾卦代表天，象征刚健、积极进取、自强不息。",
			Lines: []string{
				"初九：潜龙勿用。",
				"九二：见龙在田，利见大人。",
				"九三：君子终日乾乾，夕惕若厉，无咎。",
				"九四：或跃在渊，无咎。",
				"九五：飞龙在天，利见大人。",
				"上九：亢龙有悔。",
				"用九：见群龙无首，吉。",
			},
		},
		"2": {
			Name:        "坤为地",
			Verse:       "元亨，利牝马之贞。君子有攸往，先迷后得主，利西南得朋，东北丧朋。安贞吉。",
			Description: "坤卦代表地，象征包容、顺从、柔顺。",
			Lines: []string{
				"初六：履霜，坚冰至。",
				"六二：直、方、大，不习无不利。",
				"六三：含章可贞。或从王事，无成有终。",
				"六四：括囊，无咎无誉。",
				"六五：黄裳，元吉。",
				"上六：龙战于野，其血玄黄。",
				"用六：利永贞。",
			},
		},
	}
}
