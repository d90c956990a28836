package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver

	connections *ConnectionManager
	networks    *NetworkManager
	integration *IntegratedManager
	unsubscribe []func()
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
}

type ConnectRequest struct {
	ConnectorID string
	ChainID     int64
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("wallets", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("wallets"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = func() time.Time { return time.Now().UTC() }
	}
	if builder.eventContext == nil {
		builder.eventContext = context.Background()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	connectionStorage := builder.connectionStorage
	if connectionStorage == nil {
		connectionStorage = builder.storage
	}
	networkStorage := builder.networkStorage
	if networkStorage == nil {
		networkStorage = builder.storage
	}
	if connectionStorage == nil || networkStorage == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: storage is required"))
	}

	var builtIns []NetworkConfig
	switch {
	case finalConfig.Networks.SkipBuiltIns:
	case builder.builtInsSet:
		builtIns = builder.builtInNetworks
	default:
		builtIns = BuiltInNetworks()
	}

	networks := NewNetworkManager(networkStorage,
		WithNetworkStorageKey(finalConfig.Storage.NetworkKey),
		WithNetworkLogger(namedLogger(provider, logger, "wallets.networks")),
		WithNetworkClock(builder.clock),
		WithBuiltInNetworks(builtIns...),
	)
	connections := NewConnectionManager(connectionStorage,
		WithConnectionStorageKey(finalConfig.Storage.ConnectionKey),
		WithSessionTTL(finalConfig.Session.TTL),
		WithConnectionLogger(namedLogger(provider, logger, "wallets.connections")),
		WithConnectionClock(builder.clock),
	)
	integration, err := NewIntegratedManager(connections, networks, finalConfig.Namespace,
		WithIntegrationLogger(namedLogger(provider, logger, "wallets.integration")),
		WithIntegrationContext(builder.eventContext),
	)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	for _, connector := range builder.connectors {
		if err := integration.RegisterConnector(connector); err != nil {
			integration.Close()
			return nil, mapBuildError(builder.errorMapper, err)
		}
	}

	svc := &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		connections:     connections,
		networks:        networks,
		integration:     integration,
	}
	svc.watchSession(builder.eventContext)
	return svc, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func namedLogger(provider LoggerProvider, fallback Logger, name string) Logger {
	if provider != nil {
		if named := provider.GetLogger(name); named != nil {
			return named
		}
	}
	return glog.Ensure(fallback)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
	}
}

func (s *Service) ConnectionManager() *ConnectionManager { return s.connections }

func (s *Service) NetworkManager() *NetworkManager { return s.networks }

func (s *Service) IntegratedManager() *IntegratedManager { return s.integration }

func (s *Service) Start(ctx context.Context) (restored bool, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"namespace": s.config.Namespace}
	defer func() {
		fields["restored"] = restored
		s.observeOperation(ctx, startedAt, "start", err, fields)
	}()

	restored, err = s.integration.Initialize(ctx, !s.config.Session.DisableAutoConnect, s.config.Networks.DefaultChainIDs...)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}
	return restored, nil
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
	if s.integration != nil {
		s.integration.Close()
	}
}

func (s *Service) RegisterConnector(connector Connector) error {
	if err := s.integration.RegisterConnector(connector); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) Connect(ctx context.Context, req ConnectRequest) (state ConnectionState, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"connector_id": req.ConnectorID,
		"chain_id":     req.ChainID,
	}
	defer func() {
		if state.ChainID > 0 {
			fields["chain_id"] = state.ChainID
		}
		s.observeOperation(ctx, startedAt, "connect", err, fields)
	}()

	if strings.TrimSpace(req.ConnectorID) == "" {
		err = s.mapError(fmt.Errorf("core: connector id is required"))
		return s.connections.State(), err
	}
	state, err = s.integration.Connect(ctx, req.ConnectorID, req.ChainID)
	if err != nil {
		err = s.mapError(err)
		return state, err
	}
	return state, nil
}

func (s *Service) Disconnect(ctx context.Context) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"connector_id": s.connections.State().ConnectorID()}
	defer func() {
		s.observeOperation(ctx, startedAt, "disconnect", err, fields)
	}()
	if err = s.integration.Disconnect(ctx); err != nil {
		err = s.mapError(err)
	}
	return err
}

func (s *Service) AutoConnect(ctx context.Context) bool {
	startedAt := time.Now().UTC()
	restored := s.integration.AutoConnect(ctx)
	s.observeOperation(ctx, startedAt, "auto_connect", nil, map[string]any{
		"restored":     restored,
		"connector_id": s.connections.State().ConnectorID(),
	})
	return restored
}

func (s *Service) SwitchChain(ctx context.Context, chainID int64) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"connector_id": s.connections.State().ConnectorID(),
		"chain_id":     chainID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "switch_chain", err, fields)
	}()
	if err = s.integration.SwitchChain(ctx, chainID); err != nil {
		err = s.mapError(err)
	}
	return err
}

func (s *Service) SwitchAccount(ctx context.Context, address string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"connector_id": s.connections.State().ConnectorID(),
		"address":      NormalizeAddress(address),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "switch_account", err, fields)
	}()
	if err = s.integration.SwitchAccount(ctx, address); err != nil {
		err = s.mapError(err)
	}
	return err
}

func (s *Service) ConnectionState() ConnectionState {
	return s.connections.State()
}

func (s *Service) Subscribe(listener StateListener) func() {
	return s.connections.Subscribe(listener)
}

func (s *Service) SubscribeNetworks(listener NetworkListener) func() {
	return s.networks.Subscribe(listener)
}

func (s *Service) SubscribeDisplayURI(listener DisplayURIListener) func() {
	return s.connections.SubscribeDisplayURI(listener)
}

func (s *Service) AddCustomNetwork(ctx context.Context, cfg NetworkConfig) (network NetworkConfig, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"chain_id": cfg.ChainID}
	defer func() {
		s.observeOperation(ctx, startedAt, "add_custom_network", err, fields)
	}()
	network, err = s.networks.AddOrUpdateCustomNetwork(ctx, cfg)
	if err != nil {
		err = s.mapError(err)
	}
	return network, err
}

func (s *Service) RemoveCustomNetwork(ctx context.Context, chainID int64) (removed bool, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"chain_id": chainID}
	defer func() {
		fields["removed"] = removed
		s.observeOperation(ctx, startedAt, "remove_custom_network", err, fields)
	}()
	removed, err = s.networks.RemoveCustomNetwork(ctx, chainID)
	if err != nil {
		err = s.mapError(err)
	}
	return removed, err
}

func (s *Service) ToggleNetwork(ctx context.Context, namespace string, chainID int64, enabled bool) (applied bool, err error) {
	namespace = s.resolveNamespace(namespace)
	startedAt := time.Now().UTC()
	fields := map[string]any{"namespace": namespace, "chain_id": chainID, "enabled": enabled}
	defer func() {
		fields["applied"] = applied
		s.observeOperation(ctx, startedAt, "toggle_network", err, fields)
	}()
	applied, err = s.networks.ToggleNetwork(ctx, namespace, chainID, enabled)
	if err != nil {
		err = s.mapError(err)
	}
	return applied, err
}

func (s *Service) SetCurrentNetwork(ctx context.Context, namespace string, chainID int64) (applied bool, err error) {
	namespace = s.resolveNamespace(namespace)
	startedAt := time.Now().UTC()
	fields := map[string]any{"namespace": namespace, "chain_id": chainID}
	defer func() {
		fields["applied"] = applied
		s.observeOperation(ctx, startedAt, "set_current_network", err, fields)
	}()
	applied, err = s.networks.SetCurrentNetwork(ctx, namespace, chainID)
	if err != nil {
		err = s.mapError(err)
	}
	return applied, err
}

func (s *Service) InitializeNamespace(ctx context.Context, namespace string, defaults ...int64) (created bool, err error) {
	namespace = s.resolveNamespace(namespace)
	startedAt := time.Now().UTC()
	fields := map[string]any{"namespace": namespace}
	defer func() {
		fields["created"] = created
		s.observeOperation(ctx, startedAt, "initialize_namespace", err, fields)
	}()
	created, err = s.networks.InitializeNamespace(ctx, namespace, defaults...)
	if err != nil {
		err = s.mapError(err)
	}
	return created, err
}

func (s *Service) Network(chainID int64) (NetworkConfig, error) {
	network, ok := s.networks.Network(chainID)
	if !ok {
		return NetworkConfig{}, s.mapError(fmt.Errorf("%w: chain %d", ErrNetworkNotFound, chainID))
	}
	return network, nil
}

func (s *Service) Networks() []NetworkConfig {
	return s.networks.Networks()
}

func (s *Service) EnabledNetworks(namespace string) []NetworkConfig {
	return s.networks.EnabledNetworks(s.resolveNamespace(namespace))
}

func (s *Service) CurrentNetwork(namespace string) (NetworkConfig, error) {
	namespace = s.resolveNamespace(namespace)
	network, ok := s.networks.CurrentNetwork(namespace)
	if !ok {
		return NetworkConfig{}, s.mapError(fmt.Errorf("%w: no current network for namespace %q", ErrNetworkNotFound, namespace))
	}
	return network, nil
}

func (s *Service) resolveNamespace(namespace string) string {
	if trimmed := strings.TrimSpace(namespace); trimmed != "" {
		return trimmed
	}
	return s.config.Namespace
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
