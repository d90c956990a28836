package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type walletStateRecord struct {
	bun.BaseModel `bun:"table:wallet_state,alias:ws"`

	ID         string    `bun:"id,pk"`
	StorageKey string    `bun:"storage_key,notnull"`
	Payload    []byte    `bun:"payload,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newWalletStateRecord(id string, key string, payload []byte, now time.Time) *walletStateRecord {
	return &walletStateRecord{
		ID:         id,
		StorageKey: key,
		Payload:    append([]byte(nil), payload...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
