// Package history persists the bounded calculation history and derives
// summary statistics from it.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	applog "protiq/internal/log"
	"protiq/models"
)

// DefaultLimit bounds how many records one owner keeps; the oldest entries
// are dropped silently on overflow.
const DefaultLimit = 100

var (
	// ErrUnavailable reports that the backing store cannot be used.
	ErrUnavailable = errors.New("history: store unavailable")
	// ErrMalformedHistory reports an import payload that is not a valid
	// history list. The store is left untouched.
	ErrMalformedHistory = errors.New("history: malformed history payload")
)

var nowFunc = time.Now

// Store is the persisted calculation history, scoped per owner token.
type Store struct {
	db    *gorm.DB
	limit int
}

// NewStore builds a store over the given database handle with the default
// per-owner bound.
func NewStore(db *gorm.DB) *Store {
	return NewStoreWithLimit(db, DefaultLimit)
}

// NewStoreWithLimit builds a store with an explicit per-owner bound.
// Non-positive limits fall back to DefaultLimit.
func NewStoreWithLimit(db *gorm.DB, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{db: db, limit: limit}
}

// Save persists a record and enforces the per-owner bound. A blank id gets a
// fresh UUID and a zero timestamp is stamped with the current time.
func (s *Store) Save(ctx context.Context, record *models.CalculationRecord) error {
	if s.db == nil {
		return ErrUnavailable
	}
	if record.OwnerToken == "" {
		return fmt.Errorf("history: record owner token must not be empty")
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = nowFunc().UTC()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		return s.enforceLimit(tx, record.OwnerToken)
	})
}

// All returns the owner's records newest-first.
func (s *Store) All(ctx context.Context, owner string) ([]models.CalculationRecord, error) {
	return s.query(ctx, owner, nil)
}

// AllInRange returns the owner's records whose timestamp lies within the
// inclusive [from, to] range, newest-first.
func (s *Store) AllInRange(ctx context.Context, owner string, from, to time.Time) ([]models.CalculationRecord, error) {
	return s.query(ctx, owner, func(db *gorm.DB) *gorm.DB {
		return db.Where("timestamp >= ? AND timestamp <= ?", from, to)
	})
}

// ForSource returns the owner's records that used the given source id,
// newest-first.
func (s *Store) ForSource(ctx context.Context, owner, sourceID string) ([]models.CalculationRecord, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}
	sub := s.db.Model(&models.RecordSource{}).Select("record_id").Where("source_id = ?", sourceID)
	return s.query(ctx, owner, func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)", sub)
	})
}

func (s *Store) query(ctx context.Context, owner string, scope func(*gorm.DB) *gorm.DB) ([]models.CalculationRecord, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}

	db := s.db.WithContext(ctx).
		Preload("Sources").
		Where("owner_token = ?", owner).
		Order("timestamp desc")
	if scope != nil {
		db = scope(db)
	}

	var records []models.CalculationRecord
	if err := db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return records, nil
}

// Delete removes one record by id. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	if s.db == nil {
		return ErrUnavailable
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Scope the child delete to the owner's own record so a foreign id
		// cannot strip another owner's source snapshots.
		sub := tx.Model(&models.CalculationRecord{}).Select("id").Where("owner_token = ? AND id = ?", owner, id)
		if err := tx.Where("record_id IN (?)", sub).Delete(&models.RecordSource{}).Error; err != nil {
			return fmt.Errorf("delete record sources: %w", err)
		}
		if err := tx.Where("owner_token = ? AND id = ?", owner, id).Delete(&models.CalculationRecord{}).Error; err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
		return nil
	})
}

// Clear removes every record belonging to the owner.
func (s *Store) Clear(ctx context.Context, owner string) error {
	if s.db == nil {
		return ErrUnavailable
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.clearOwner(tx, owner)
	})
}

func (s *Store) clearOwner(tx *gorm.DB, owner string) error {
	sub := tx.Model(&models.CalculationRecord{}).Select("id").Where("owner_token = ?", owner)
	if err := tx.Where("record_id IN (?)", sub).Delete(&models.RecordSource{}).Error; err != nil {
		return fmt.Errorf("clear record sources: %w", err)
	}
	if err := tx.Where("owner_token = ?", owner).Delete(&models.CalculationRecord{}).Error; err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

// Export serializes the owner's full history as a pretty-printed JSON array,
// newest-first.
func (s *Store) Export(ctx context.Context, owner string) ([]byte, error) {
	records, err := s.All(ctx, owner)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.CalculationRecord{}
	}

	blob, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return blob, nil
}

// Import parses an exported blob and loads it for the owner. With replace it
// overwrites the existing history outright; otherwise records whose ids are
// already present are skipped and the merged result is re-capped. Any parse
// or validation failure returns ErrMalformedHistory and leaves the store
// untouched. The returned count is the number of records written.
func (s *Store) Import(ctx context.Context, owner string, blob []byte, replace bool) (int, error) {
	if s.db == nil {
		return 0, ErrUnavailable
	}

	var incoming []models.CalculationRecord
	if err := json.Unmarshal(blob, &incoming); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedHistory, err)
	}

	now := nowFunc().UTC()
	for idx := range incoming {
		if incoming[idx].StatedProtein < 0 {
			return 0, fmt.Errorf("%w: record %d has negative stated protein", ErrMalformedHistory, idx)
		}
		if incoming[idx].ID == "" {
			incoming[idx].ID = uuid.NewString()
		}
		if incoming[idx].Timestamp.IsZero() {
			incoming[idx].Timestamp = now
		}
		incoming[idx].OwnerToken = owner
		for srcIdx := range incoming[idx].Sources {
			incoming[idx].Sources[srcIdx].SerialID = 0
			incoming[idx].Sources[srcIdx].RecordID = incoming[idx].ID
		}
	}

	imported := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replace {
			if err := s.clearOwner(tx, owner); err != nil {
				return err
			}
		}

		existing := make(map[string]bool)
		if !replace {
			var ids []string
			if err := tx.Model(&models.CalculationRecord{}).Where("owner_token = ?", owner).Pluck("id", &ids).Error; err != nil {
				return fmt.Errorf("load existing ids: %w", err)
			}
			for _, id := range ids {
				existing[id] = true
			}
		}

		// Newest-first so a capped replace keeps the most recent entries.
		sort.SliceStable(incoming, func(i, j int) bool {
			return incoming[i].Timestamp.After(incoming[j].Timestamp)
		})

		for idx := range incoming {
			if existing[incoming[idx].ID] {
				continue
			}
			if err := tx.Create(&incoming[idx]).Error; err != nil {
				return fmt.Errorf("import record %s: %w", incoming[idx].ID, err)
			}
			imported++
		}

		return s.enforceLimit(tx, owner)
	})
	if err != nil {
		return 0, err
	}

	applog.Debug(ctx, "history import complete", "owner", owner, "imported", imported, "replace", replace)
	return imported, nil
}

// Available probes the backing store with a harmless write and delete.
func (s *Store) Available(ctx context.Context) bool {
	if s.db == nil {
		return false
	}

	probe := models.CalculationRecord{
		ID:                uuid.NewString(),
		OwnerToken:        "availability-probe",
		StatedProtein:     1,
		DigestibleProtein: 1,
		CalculationMethod: "DIAAS",
		Timestamp:         nowFunc().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&probe).Error; err != nil {
			return err
		}
		return tx.Delete(&probe).Error
	})
	if err != nil {
		applog.Error(ctx, "history store availability probe failed", "error", err)
		return false
	}
	return true
}

// enforceLimit drops the owner's oldest records beyond the configured bound.
func (s *Store) enforceLimit(tx *gorm.DB, owner string) error {
	var ids []string
	if err := tx.Model(&models.CalculationRecord{}).
		Where("owner_token = ?", owner).
		Order("timestamp desc").
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("load ids for limit: %w", err)
	}

	if len(ids) <= s.limit {
		return nil
	}

	evicted := ids[s.limit:]
	if err := tx.Where("record_id IN ?", evicted).Delete(&models.RecordSource{}).Error; err != nil {
		return fmt.Errorf("evict record sources: %w", err)
	}
	if err := tx.Where("id IN ?", evicted).Delete(&models.CalculationRecord{}).Error; err != nil {
		return fmt.Errorf("evict records: %w", err)
	}
	return nil
}
