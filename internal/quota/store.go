// Package quota enforces the per-user daily divination limit. Counters live
// in a single JSON file and reset once per calendar day in the configured
// timezone. The rollover check runs at the start of every public method, so
// the store heals itself even if no request arrives at the reset boundary —
// no background timer is required for correctness.
package quota

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"liuyao/internal/filestore"
	"liuyao/internal/models"
)

const usageFileName = "daily_usage.json"

// Store is safe for concurrent use; every read-modify-write runs under the
// file lock as one atomic unit.
type Store struct {
	path        string
	dailyMax    int
	resetHour   int
	loc         *time.Location
	lockTimeout time.Duration

	now func() time.Time
}

// NewStore creates a quota store persisting to dir/daily_usage.json.
// timezone is an IANA name such as "Asia/Shanghai"; resetHour is the local
// hour (0-23) at which counters roll over.
func NewStore(dir string, dailyMax, resetHour int, timezone string) (*Store, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid quota timezone %q: %w", timezone, err)
	}
	if dailyMax < 1 {
		dailyMax = 3
	}
	if resetHour < 0 || resetHour > 23 {
		resetHour = 0
	}
	return &Store{
		path:        filepath.Join(dir, usageFileName),
		dailyMax:    dailyMax,
		resetHour:   resetHour,
		loc:         loc,
		lockTimeout: filestore.DefaultLockTimeout,
		now:         time.Now,
	}, nil
}

// DailyMax returns the configured per-user daily limit.
func (s *Store) DailyMax() int { return s.dailyMax }

// CheckAllowed reports whether the user may divine again today.
func (s *Store) CheckAllowed(userID string) (bool, error) {
	allowed := false
	err := s.withTable(func(table *models.QuotaTable) bool {
		record := table.Users[canonicalID(userID)]
		allowed = record.Count < s.dailyMax
		return false
	})
	return allowed, err
}

// RecordUse increments the user's counter and stamps the usage time. Callers
// are expected to have passed CheckAllowed in the same request; the store
// itself does not enforce that ordering.
func (s *Store) RecordUse(userID string) error {
	return s.withTable(func(table *models.QuotaTable) bool {
		id := canonicalID(userID)
		record := table.Users[id]
		record.Count++
		record.LastUsage = s.now().In(s.loc).Format("2006-01-02 15:04:05")
		table.Users[id] = record
		return true
	})
}

// Remaining returns how many divinations the user has left today.
func (s *Store) Remaining(userID string) (int, error) {
	remaining := 0
	err := s.withTable(func(table *models.QuotaTable) bool {
		record := table.Users[canonicalID(userID)]
		remaining = s.dailyMax - record.Count
		if remaining < 0 {
			remaining = 0
		}
		return false
	})
	return remaining, err
}

// ResetUser clears one user's counter. The record is deleted and recreated
// so no duplicate entries can survive from historically inconsistent keys.
func (s *Store) ResetUser(userID string) error {
	return s.withTable(func(table *models.QuotaTable) bool {
		id := canonicalID(userID)
		delete(table.Users, id)
		table.Users[id] = models.QuotaRecord{
			Count:     0,
			LastUsage: s.now().In(s.loc).Format("2006-01-02 15:04:05"),
		}
		return true
	})
}

// Statistics summarizes the whole table.
func (s *Store) Statistics() (*models.QuotaStatistics, error) {
	stats := &models.QuotaStatistics{}
	err := s.withTable(func(table *models.QuotaTable) bool {
		stats.TotalUsers = len(table.Users)
		for _, record := range table.Users {
			stats.TotalUsage += record.Count
		}
		stats.LastReset = table.LastReset
		return false
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// NextResetTime returns the next occurrence of the configured reset hour
// strictly after now, in the configured timezone.
func (s *Store) NextResetTime() time.Time {
	now := s.now().In(s.loc)
	reset := time.Date(now.Year(), now.Month(), now.Day(), s.resetHour, 0, 0, 0, s.loc)
	if !reset.After(now) {
		reset = reset.AddDate(0, 0, 1)
	}
	return reset
}

// withTable runs fn on the loaded table under the file lock, persisting when
// fn reports a mutation. A corrupt or missing file is treated as an empty
// table; the daily rollover is applied before fn runs.
func (s *Store) withTable(fn func(table *models.QuotaTable) (dirty bool)) error {
	return filestore.WithLock(s.path, s.lockTimeout, func() error {
		table := &models.QuotaTable{Users: map[string]models.QuotaRecord{}}
		if _, err := filestore.ReadJSON(s.path, table); err != nil {
			// Self-heal: a corrupt quota file starts over empty.
			log.Printf("⚠️  [QUOTA] Unreadable usage file, starting fresh: %v", err)
			table = &models.QuotaTable{Users: map[string]models.QuotaRecord{}}
		}
		if table.Users == nil {
			table.Users = map[string]models.QuotaRecord{}
		}
		canonicalizeKeys(table)

		dirty := false
		today := s.currentDate()
		if table.LastReset != today {
			table.Users = map[string]models.QuotaRecord{}
			table.LastReset = today
			dirty = true
		}

		if fn(table) {
			dirty = true
		}
		if !dirty {
			return nil
		}
		return filestore.WriteJSON(s.path, table)
	})
}

// currentDate is the quota-day key: the calendar date in the configured
// timezone.
func (s *Store) currentDate() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

// canonicalID maps every external identifier to the single string form used
// as the table key.
func canonicalID(userID string) string {
	return strings.TrimSpace(userID)
}

// canonicalizeKeys folds legacy keys written with stray whitespace into
// their canonical form.
func canonicalizeKeys(table *models.QuotaTable) {
	for key, record := range table.Users {
		canonical := canonicalID(key)
		if canonical == key {
			continue
		}
		existing := table.Users[canonical]
		existing.Count += record.Count
		if record.LastUsage > existing.LastUsage {
			existing.LastUsage = record.LastUsage
		}
		delete(table.Users, key)
		table.Users[canonical] = existing
	}
}
