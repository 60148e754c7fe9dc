package reference

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAsset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hexagrams.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEntries(t *testing.T) {
	path := writeAsset(t, `{
		"1": {"name": "乾为天", "gua_ci": "元亨利贞。", "description": "刚健。", "lines": ["a","b","c","d","e","f"]},
		"64": {"name": "火水未济", "gua_ci": "亨。", "description": "未完成。", "lines": ["a","b","c","d","e","f"]}
	}`)

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if store.Count() != 2 {
		t.Errorf("count = %d, want 2", store.Count())
	}

	entry := store.Get(1)
	if entry.Name != "乾为天" || entry.Verse != "元亨利贞。" {
		t.Errorf("entry 1 wrong: %+v", entry)
	}
	if len(entry.Lines) != 6 {
		t.Errorf("entry 1 should have 6 lines, got %d", len(entry.Lines))
	}
}

// TestMissingOrdinalPlaceholder checks lookups never fail: absent ordinals
// yield a synthetic entry with placeholder text.
func TestMissingOrdinalPlaceholder(t *testing.T) {
	path := writeAsset(t, `{"1": {"name": "乾为天", "gua_ci": "元亨利贞。", "description": "刚健。", "lines": []}}`)

	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}

	entry := store.Get(33)
	if entry == nil {
		t.Fatal("Get must never return nil")
	}
	if entry.Name != "未知卦象(33)" {
		t.Errorf("placeholder name = %q", entry.Name)
	}
	if len(entry.Lines) != 7 {
		t.Errorf("placeholder should carry 7 gloss lines, got %d", len(entry.Lines))
	}
}

func TestBadOrdinalKeysSkipped(t *testing.T) {
	path := writeAsset(t, `{
		"1": {"name": "乾为天", "gua_ci": "", "description": "", "lines": []},
		"abc": {"name": "bogus", "gua_ci": "", "description": "", "lines": []},
		"99": {"name": "bogus", "gua_ci": "", "description": "", "lines": []}
	}`)

	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if store.Count() != 1 {
		t.Errorf("count = %d, want 1 (bad keys skipped)", store.Count())
	}
}

// TestBootstrapDefault verifies a missing asset file is created with the
// built-in minimal data.
func TestBootstrapDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexagrams.json")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore should bootstrap a missing asset: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("bootstrap should write the asset file: %v", err)
	}
	if store.Get(1).Name != "乾为天" || store.Get(2).Name != "坤为地" {
		t.Error("bootstrap data should contain hexagrams 1 and 2")
	}
}

func TestReloadPicksUpChanges(t *testing.T) {
	path := writeAsset(t, `{"1": {"name": "乾为天", "gua_ci": "", "description": "", "lines": []}}`)

	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}

	updated := `{
		"1": {"name": "乾为天", "gua_ci": "", "description": "", "lines": []},
		"2": {"name": "坤为地", "gua_ci": "", "description": "", "lines": []}
	}`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); err != nil {
		t.Fatal(err)
	}
	if store.Count() != 2 {
		t.Errorf("count after reload = %d, want 2", store.Count())
	}
}
