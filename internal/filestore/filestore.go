// Package filestore provides the locked read-modify-write primitive shared
// by the quota and history stores. Each persisted file is one logical table:
// every mutation loads the file, changes it in memory and rewrites it in
// full while holding the per-path lock, so readers never observe a partial
// write.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"liuyao/internal/models"
)

// DefaultLockTimeout bounds how long a caller waits for a file lock. A
// holder stuck past this is reported as a StorageError instead of blocking
// the request forever.
const DefaultLockTimeout = 5 * time.Second

// The lock registry holds one entry per distinct path for the life of the
// process and is never pruned. It grows with the user population (one history
// file per user) at a few dozen bytes per entry, which stays negligible at
// this deployment's scale.
var (
	locksMu sync.Mutex
	locks   = make(map[string]chan struct{})
)

func lockFor(path string) chan struct{} {
	locksMu.Lock()
	defer locksMu.Unlock()

	l, ok := locks[path]
	if !ok {
		l = make(chan struct{}, 1)
		locks[path] = l
	}
	return l
}

// WithLock runs fn while holding the exclusive lock for path, waiting at
// most timeout to acquire it.
func WithLock(path string, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	l := lockFor(path)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case l <- struct{}{}:
		defer func() { <-l }()
		return fn()
	case <-timer.C:
		return &models.StorageError{
			Path: path,
			Op:   "lock",
			Err:  fmt.Errorf("timed out after %v waiting for file lock", timeout),
		}
	}
}

// ReadJSON loads path into v. A missing file returns found=false with no
// error; a corrupt file is reported so the caller can decide to self-heal.
func ReadJSON(path string, v interface{}) (found bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &models.StorageError{Path: path, Op: "read", Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &models.StorageError{Path: path, Op: "decode", Err: err}
	}
	return true, nil
}

// WriteJSON writes v to path atomically: marshal, write a temp file in the
// same directory, then rename over the target.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &models.StorageError{Path: path, Op: "encode", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &models.StorageError{Path: path, Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return &models.StorageError{Path: path, Op: "write", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &models.StorageError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &models.StorageError{Path: path, Op: "write", Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &models.StorageError{Path: path, Op: "rename", Err: err}
	}
	return nil
}
