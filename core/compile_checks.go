package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ ChainCache    = (*ConnectorBase)(nil)
	_ WalletService = (*Service)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
