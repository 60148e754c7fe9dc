package quota

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T, dailyMax int) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), dailyMax, 0, "Asia/Shanghai")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestLimitExhaustion(t *testing.T) {
	store := newTestStore(t, 3)

	for i := 0; i < 3; i++ {
		allowed, err := store.CheckAllowed("user-1")
		if err != nil {
			t.Fatalf("CheckAllowed failed: %v", err)
		}
		if !allowed {
			t.Fatalf("use %d should be allowed", i+1)
		}
		if err := store.RecordUse("user-1"); err != nil {
			t.Fatalf("RecordUse failed: %v", err)
		}
	}

	allowed, err := store.CheckAllowed("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if allowed {
		t.Error("fourth use should be denied")
	}

	remaining, err := store.Remaining("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	store := newTestStore(t, 3)

	if err := store.RecordUse("user-a"); err != nil {
		t.Fatal(err)
	}

	remaining, err := store.Remaining("user-b")
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 3 {
		t.Errorf("untouched user remaining = %d, want 3", remaining)
	}
}

// TestDailyRollover advances the injected clock past midnight and checks all
// counters reset, regardless of prior count.
func TestDailyRollover(t *testing.T) {
	store := newTestStore(t, 3)

	day1 := time.Date(2025, 3, 1, 23, 50, 0, 0, store.loc)
	store.now = func() time.Time { return day1 }

	for i := 0; i < 3; i++ {
		if err := store.RecordUse("user-1"); err != nil {
			t.Fatal(err)
		}
	}
	if allowed, _ := store.CheckAllowed("user-1"); allowed {
		t.Fatal("limit should be exhausted before rollover")
	}

	day2 := day1.Add(20 * time.Minute) // past midnight
	store.now = func() time.Time { return day2 }

	allowed, err := store.CheckAllowed("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !allowed {
		t.Error("counters should reset after the date advances")
	}
	remaining, _ := store.Remaining("user-1")
	if remaining != 3 {
		t.Errorf("remaining after rollover = %d, want 3", remaining)
	}
}

// TestConcurrentRecordUse checks the serialized increment invariant: N
// goroutines × M increments must land exactly N*M.
func TestConcurrentRecordUse(t *testing.T) {
	store := newTestStore(t, 100000)

	const goroutines = 10
	const perGoroutine = 5

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if err := store.RecordUse("shared-user"); err != nil {
					t.Errorf("RecordUse failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	stats, err := store.Statistics()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalUsage != goroutines*perGoroutine {
		t.Errorf("total usage = %d, want %d", stats.TotalUsage, goroutines*perGoroutine)
	}
	if stats.TotalUsers != 1 {
		t.Errorf("total users = %d, want 1", stats.TotalUsers)
	}
}

func TestResetUser(t *testing.T) {
	store := newTestStore(t, 3)

	for i := 0; i < 3; i++ {
		if err := store.RecordUse("user-1"); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.ResetUser("user-1"); err != nil {
		t.Fatal(err)
	}

	remaining, err := store.Remaining("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 3 {
		t.Errorf("remaining after reset = %d, want 3", remaining)
	}
}

// TestCanonicalUserKeys verifies whitespace variants of an ID share one
// record.
func TestCanonicalUserKeys(t *testing.T) {
	store := newTestStore(t, 3)

	if err := store.RecordUse("user-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordUse("  user-1  "); err != nil {
		t.Fatal(err)
	}

	stats, err := store.Statistics()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalUsers != 1 {
		t.Errorf("total users = %d, want 1 canonical user", stats.TotalUsers)
	}
	if stats.TotalUsage != 2 {
		t.Errorf("total usage = %d, want 2", stats.TotalUsage)
	}
}

func TestCorruptFileSelfHeals(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 3, 0, "Asia/Shanghai")
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, usageFileName), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	allowed, err := store.CheckAllowed("user-1")
	if err != nil {
		t.Fatalf("corrupt file should self-heal, got %v", err)
	}
	if !allowed {
		t.Error("fresh table should allow use")
	}
}

func TestNextResetTime(t *testing.T) {
	store := newTestStore(t, 3)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, store.loc)
	store.now = func() time.Time { return fixed }

	next := store.NextResetTime()
	want := time.Date(2025, 3, 2, 0, 0, 0, 0, store.loc)
	if !next.Equal(want) {
		t.Errorf("next reset = %v, want %v", next, want)
	}
	if !next.After(fixed) {
		t.Error("next reset must be strictly after now")
	}
}
