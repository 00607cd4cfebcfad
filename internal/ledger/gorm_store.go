// internal/ledger/gorm_store.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StateRecord holds the current value of a key. Keys are stored as bytes because composite
// keys contain U+0000, which postgres text columns reject.
type StateRecord struct {
	StateKey  []byte    `gorm:"primaryKey"`
	Value     []byte    `gorm:"not null"`
	Version   uint64    `gorm:"not null"`
	TxID      string    `gorm:"size:64;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (StateRecord) TableName() string { return "ledger_states" }

// HistoryRecord is one committed version of a key. Rows are never updated or deleted.
type HistoryRecord struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	StateKey  []byte    `gorm:"not null;index"`
	Value     []byte    `gorm:"not null"`
	Version   uint64    `gorm:"not null"`
	TxID      string    `gorm:"size:64;not null;index"`
	Timestamp time.Time `gorm:"not null"`
}

func (HistoryRecord) TableName() string { return "ledger_history" }

// GormStore persists ledger state through gorm (postgres in production, sqlite for local
// runs and tests).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the ledger tables.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&StateRecord{}, &HistoryRecord{}); err != nil {
		return fmt.Errorf("failed to migrate ledger tables: %w", err)
	}
	return nil
}

func (s *GormStore) Load(ctx context.Context, key string) (Versioned, error) {
	var rec StateRecord
	if err := s.db.WithContext(ctx).Where("state_key = ?", []byte(key)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Versioned{}, nil
		}
		return Versioned{}, fmt.Errorf("database error: %w", err)
	}
	return Versioned{Value: rec.Value, Version: rec.Version}, nil
}

func (s *GormStore) Range(ctx context.Context, start, end string) ([]KV, error) {
	var recs []StateRecord
	if err := s.db.WithContext(ctx).
		Where("state_key >= ? AND state_key < ?", []byte(start), []byte(end)).
		Order("state_key ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	out := make([]KV, 0, len(recs))
	for _, r := range recs {
		out = append(out, KV{Key: string(r.StateKey), Value: r.Value})
	}
	return out, nil
}

func (s *GormStore) Versions(ctx context.Context, key string) ([]Modification, error) {
	var recs []HistoryRecord
	if err := s.db.WithContext(ctx).
		Where("state_key = ?", []byte(key)).
		Order("id ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	out := make([]Modification, 0, len(recs))
	for _, r := range recs {
		out = append(out, Modification{TxID: r.TxID, Value: r.Value, Timestamp: r.Timestamp})
	}
	return out, nil
}

func (s *GormStore) Commit(ctx context.Context, txID string, ts time.Time, reads map[string]uint64, writes []KV) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		written := make(map[string]struct{}, len(writes))
		for _, w := range writes {
			written[w.Key] = struct{}{}
		}

		for key, seen := range reads {
			if _, ok := written[key]; ok {
				continue
			}
			current, err := currentVersion(tx, key)
			if err != nil {
				return err
			}
			if current != seen {
				return fmt.Errorf("%w: %q read at version %d, now %d", ErrConflict, key, seen, current)
			}
		}

		for _, w := range writes {
			current, err := currentVersion(tx, w.Key)
			if err != nil {
				return err
			}
			if seen, ok := reads[w.Key]; ok && seen != current {
				return fmt.Errorf("%w: %q read at version %d, now %d", ErrConflict, w.Key, seen, current)
			}

			next := current + 1
			if current == 0 {
				rec := StateRecord{StateKey: []byte(w.Key), Value: w.Value, Version: next, TxID: txID, UpdatedAt: ts}
				if err := tx.Create(&rec).Error; err != nil {
					return fmt.Errorf("failed to insert state: %w", err)
				}
			} else {
				res := tx.Model(&StateRecord{}).
					Where("state_key = ? AND version = ?", []byte(w.Key), current).
					Updates(map[string]interface{}{
						"value":      w.Value,
						"version":    next,
						"tx_id":      txID,
						"updated_at": ts,
					})
				if res.Error != nil {
					return fmt.Errorf("failed to update state: %w", res.Error)
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("%w: %q changed during commit", ErrConflict, w.Key)
				}
			}

			hist := HistoryRecord{StateKey: []byte(w.Key), Value: w.Value, Version: next, TxID: txID, Timestamp: ts}
			if err := tx.Create(&hist).Error; err != nil {
				return fmt.Errorf("failed to append history: %w", err)
			}
		}
		return nil
	})
}

func currentVersion(tx *gorm.DB, key string) (uint64, error) {
	var rec StateRecord
	err := tx.Select("version").Where("state_key = ?", []byte(key)).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return rec.Version, nil
}
