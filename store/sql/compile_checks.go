package sqlstore

import "github.com/goliatone/go-wallets/core"

var (
	_ core.Storage = (*Storage)(nil)
	_ core.Storage = (*CachedStorage)(nil)
)
