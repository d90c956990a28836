package wallets

import (
	"fmt"

	walletcommand "github.com/goliatone/go-wallets/command"
	"github.com/goliatone/go-wallets/core"
	walletquery "github.com/goliatone/go-wallets/query"
)

type Commands struct {
	Connect             *walletcommand.ConnectCommand
	Disconnect          *walletcommand.DisconnectCommand
	AutoConnect         *walletcommand.AutoConnectCommand
	SwitchChain         *walletcommand.SwitchChainCommand
	SwitchAccount       *walletcommand.SwitchAccountCommand
	AddCustomNetwork    *walletcommand.AddCustomNetworkCommand
	RemoveCustomNetwork *walletcommand.RemoveCustomNetworkCommand
	ToggleNetwork       *walletcommand.ToggleNetworkCommand
	SetCurrentNetwork   *walletcommand.SetCurrentNetworkCommand
	InitializeNamespace *walletcommand.InitializeNamespaceCommand
}

type Queries struct {
	ConnectionState *walletquery.ConnectionStateQuery
	GetNetwork      *walletquery.GetNetworkQuery
	ListNetworks    *walletquery.ListNetworksQuery
	EnabledNetworks *walletquery.EnabledNetworksQuery
	CurrentNetwork  *walletquery.CurrentNetworkQuery
}

// Facade bundles the command and query handlers bound to one service.
type Facade struct {
	service  core.WalletService
	commands Commands
	queries  Queries
}

func NewFacade(service core.WalletService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("wallets: wallet service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		Connect:             walletcommand.NewConnectCommand(service),
		Disconnect:          walletcommand.NewDisconnectCommand(service),
		AutoConnect:         walletcommand.NewAutoConnectCommand(service),
		SwitchChain:         walletcommand.NewSwitchChainCommand(service),
		SwitchAccount:       walletcommand.NewSwitchAccountCommand(service),
		AddCustomNetwork:    walletcommand.NewAddCustomNetworkCommand(service),
		RemoveCustomNetwork: walletcommand.NewRemoveCustomNetworkCommand(service),
		ToggleNetwork:       walletcommand.NewToggleNetworkCommand(service),
		SetCurrentNetwork:   walletcommand.NewSetCurrentNetworkCommand(service),
		InitializeNamespace: walletcommand.NewInitializeNamespaceCommand(service),
	}
	facade.queries = Queries{
		ConnectionState: walletquery.NewConnectionStateQuery(service),
		GetNetwork:      walletquery.NewGetNetworkQuery(service),
		ListNetworks:    walletquery.NewListNetworksQuery(service),
		EnabledNetworks: walletquery.NewEnabledNetworksQuery(service),
		CurrentNetwork:  walletquery.NewCurrentNetworkQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() core.WalletService {
	if f == nil {
		return nil
	}
	return f.service
}
