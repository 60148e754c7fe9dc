// Package history keeps a bounded per-user log of past divinations. Each
// user has one JSON file holding records oldest to newest, capped at
// MaxRecords; the file is rewritten in full on every append.
package history

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"liuyao/internal/divination"
	"liuyao/internal/filestore"
	"liuyao/internal/models"
)

// MaxRecords is the per-user retention cap; the oldest records are dropped
// on overflow.
const MaxRecords = 20

type Store struct {
	dir         string
	lockTimeout time.Duration

	now func() time.Time
}

// NewStore creates a history store writing one file per user under dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:         dir,
		lockTimeout: filestore.DefaultLockTimeout,
		now:         time.Now,
	}
}

// Append adds a record to the user's log, truncating to the newest
// MaxRecords. A missing or corrupt file is treated as an empty log.
func (s *Store) Append(userID string, record models.HistoryRecord) error {
	path := s.userFile(userID)
	return filestore.WithLock(path, s.lockTimeout, func() error {
		var records []models.HistoryRecord
		if _, err := filestore.ReadJSON(path, &records); err != nil {
			records = nil
		}

		records = append(records, record)
		if len(records) > MaxRecords {
			records = records[len(records)-MaxRecords:]
		}
		return filestore.WriteJSON(path, records)
	})
}

// Recent returns up to limit records, newest first. A user with no history
// gets an empty slice, never an error.
func (s *Store) Recent(userID string, limit int) ([]models.HistoryRecord, error) {
	if limit <= 0 || limit > MaxRecords {
		limit = MaxRecords
	}

	path := s.userFile(userID)
	var records []models.HistoryRecord
	err := filestore.WithLock(path, s.lockTimeout, func() error {
		if _, err := filestore.ReadJSON(path, &records); err != nil {
			records = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	// Reverse: stored oldest→newest, returned newest first.
	out := make([]models.HistoryRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

// ByIndex returns a single record by 1-based position in the newest-first
// ordering, or nil if out of range.
func (s *Store) ByIndex(userID string, index int) (*models.HistoryRecord, error) {
	records, err := s.Recent(userID, MaxRecords)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(records) {
		return nil, nil
	}
	return &records[index-1], nil
}

// Clear removes the user's entire log.
func (s *Store) Clear(userID string) error {
	path := s.userFile(userID)
	return filestore.WithLock(path, s.lockTimeout, func() error {
		return filestore.WriteJSON(path, []models.HistoryRecord{})
	})
}

// BuildRecord assembles the persisted record for one finished divination,
// including the human-readable result summary.
func (s *Store) BuildRecord(question string, hexagram *models.HexagramResult, interp *models.Interpretation) models.HistoryRecord {
	originalName := divination.Name(hexagram.OriginalNumber)
	changedName := divination.Name(hexagram.ChangedNumber)

	var summary string
	if hexagram.HasMoving() {
		summary = fmt.Sprintf("%s变%s，%s。%s", originalName, changedName, interp.Fortune, interp.Advice)
	} else {
		summary = fmt.Sprintf("%s，%s。%s", originalName, interp.Fortune, interp.Advice)
	}

	return models.HistoryRecord{
		Timestamp:             s.now().Format("2006-01-02 15:04:05"),
		Question:              question,
		HexagramOriginal:      hexagram.OriginalNumber,
		HexagramChanged:       hexagram.ChangedNumber,
		Moving:                hexagram.Moving,
		ResultSummary:         summary,
		InterpretationSummary: interp.OverallMeaning,
	}
}

// userFile maps a user ID to its log file, stripping anything that could
// escape the history directory.
func (s *Store) userFile(userID string) string {
	id := strings.TrimSpace(userID)
	id = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', ':':
			return '_'
		}
		return r
	}, id)
	if id == "" {
		id = "unknown"
	}
	return filepath.Join(s.dir, id+".json")
}
