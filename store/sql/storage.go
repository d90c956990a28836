package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Storage keeps wallet blobs in the wallet_state table, one row per
// storage key.
type Storage struct {
	db   *bun.DB
	repo repository.Repository[*walletStateRecord]
	now  func() time.Time
}

func NewStorage(db *bun.DB) (*Storage, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*walletStateRecord](db, walletStateHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid wallet state repository wiring: %w", err)
		}
	}
	return &Storage{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Storage) Save(ctx context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("sqlstore: storage key is required")
	}
	record := newWalletStateRecord(uuid.NewString(), key, value, s.now())
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (storage_key) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Storage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.repo == nil {
		return nil, false, fmt.Errorf("sqlstore: storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("sqlstore: storage key is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("storage_key", "=", key),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return append([]byte(nil), records[0].Payload...), true, nil
}

func (s *Storage) Clear(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("sqlstore: storage key is required")
	}
	_, err := s.db.NewDelete().
		Model((*walletStateRecord)(nil)).
		Where("storage_key = ?", key).
		Exec(ctx)
	return err
}

// Keys lists the stored keys in name order.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: storage is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("storage_key ASC"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, record.StorageKey)
	}
	return keys, nil
}
