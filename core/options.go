package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig     Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	storage           Storage
	connectionStorage Storage
	networkStorage    Storage
	builtInNetworks   []NetworkConfig
	builtInsSet       bool
	connectors        []Connector
	clock             func() time.Time
	eventContext      context.Context
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithStorage(storage Storage) Option {
	return func(b *serviceBuilder) {
		b.storage = storage
	}
}

func WithConnectionStorage(storage Storage) Option {
	return func(b *serviceBuilder) {
		b.connectionStorage = storage
	}
}

func WithNetworkStorage(storage Storage) Option {
	return func(b *serviceBuilder) {
		b.networkStorage = storage
	}
}

func WithNetworks(networks ...NetworkConfig) Option {
	return func(b *serviceBuilder) {
		b.builtInNetworks = append([]NetworkConfig(nil), networks...)
		b.builtInsSet = true
	}
}

func WithConnectors(connectors ...Connector) Option {
	return func(b *serviceBuilder) {
		b.connectors = append(b.connectors, connectors...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.clock = now
	}
}

func WithEventContext(ctx context.Context) Option {
	return func(b *serviceBuilder) {
		b.eventContext = ctx
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("wallets", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		clock:           func() time.Time { return time.Now().UTC() },
		eventContext:    context.Background(),
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return walletErrorMapper(err)
}

type StaticConfigLoader struct {
	Values map[string]any
}

func (l StaticConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// configToLayerMap keeps zero values out of non-default layers so they do
// not shadow lower layers.
func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.Namespace) != "" {
		layer["namespace"] = cfg.Namespace
	}

	storage := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Storage.ConnectionKey) != "" {
		storage["connection_key"] = cfg.Storage.ConnectionKey
	}
	if includeZero || strings.TrimSpace(cfg.Storage.NetworkKey) != "" {
		storage["network_key"] = cfg.Storage.NetworkKey
	}
	if len(storage) > 0 {
		layer["storage"] = storage
	}

	session := map[string]any{}
	if includeZero || cfg.Session.TTL > 0 {
		session["ttl"] = cfg.Session.TTL
	}
	if includeZero || cfg.Session.DisableAutoConnect {
		session["disable_auto_connect"] = cfg.Session.DisableAutoConnect
	}
	if len(session) > 0 {
		layer["session"] = session
	}

	networks := map[string]any{}
	if includeZero || len(cfg.Networks.DefaultChainIDs) > 0 {
		networks["default_chain_ids"] = append([]int64(nil), cfg.Networks.DefaultChainIDs...)
	}
	if includeZero || cfg.Networks.SkipBuiltIns {
		networks["skip_builtins"] = cfg.Networks.SkipBuiltIns
	}
	if len(networks) > 0 {
		layer["networks"] = networks
	}
	return layer
}
