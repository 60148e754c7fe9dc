package filestore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"liuyao/internal/models"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")

	in := map[string]int{"a": 1, "b": 2}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	out := map[string]int{}
	found, err := ReadJSON(path, &out)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if !found {
		t.Fatal("file should exist after write")
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Errorf("round trip lost data: %v", out)
	}
}

func TestReadMissingFile(t *testing.T) {
	found, err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &map[string]int{})
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if found {
		t.Error("missing file reported as found")
	}
}

func TestReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadJSON(path, &map[string]int{})
	var storageErr *models.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError for corrupt file, got %v", err)
	}
}

// TestWithLockSerializes runs many concurrent locked increments and checks
// none are lost.
func TestWithLockSerializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(path, time.Second, func() error {
				counter++
				return nil
			})
			if err != nil {
				t.Errorf("WithLock failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

// TestWithLockTimeout verifies a stuck holder surfaces a StorageError
// instead of blocking forever.
func TestWithLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "held.json")

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		WithLock(path, time.Second, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := WithLock(path, 50*time.Millisecond, func() error { return nil })
	close(release)

	var storageErr *models.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError on lock timeout, got %v", err)
	}
	if storageErr.Op != "lock" {
		t.Errorf("storage error op = %q, want lock", storageErr.Op)
	}
}
