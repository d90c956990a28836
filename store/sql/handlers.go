package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func walletStateHandlers() repository.ModelHandlers[*walletStateRecord] {
	return repository.ModelHandlers[*walletStateRecord]{
		NewRecord: func() *walletStateRecord {
			return &walletStateRecord{}
		},
		GetID: func(record *walletStateRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *walletStateRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "storage_key"
		},
		GetIdentifierValue: func(record *walletStateRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.StorageKey)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
