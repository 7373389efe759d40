package txio

import (
	"context"
	"fmt"

	"github.com/gobeaver/beaver-kit/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gobeaver/txio/codec"
	"github.com/gobeaver/txio/internal/logging"
	"github.com/gobeaver/txio/txn"
)

// IO bundles one transaction manager with the file and directory operations
// bound to it. Separate IO values never share a transaction.
type IO struct {
	File      *File
	Directory *Directory

	cfg     *Config
	manager *txn.Manager
	codecs  *codec.Registry
	logger  *zap.Logger
	metrics *txn.Metrics
}

// ServiceOption customizes New beyond what Config covers
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
}

// WithLogger uses logger instead of building one from the config
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithRegisterer registers metrics with reg instead of the default
// Prometheus registerer. Only used when metrics are enabled.
func WithRegisterer(reg prometheus.Registerer) ServiceOption {
	return func(o *serviceOptions) {
		o.registerer = reg
	}
}

// Builder provides a way to create IO instances with custom env prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// New creates a new IO instance using the builder's prefix
func (b *Builder) New(opts ...ServiceOption) (*IO, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// NewFromEnv creates a new IO instance from BEAVER_TXIO_* variables
func NewFromEnv(opts ...ServiceOption) (*IO, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// New creates a new IO instance with given config
func New(cfg *Config, opts ...ServiceOption) (*IO, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	so := &serviceOptions{}
	for _, opt := range opts {
		opt(so)
	}

	logger := so.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.LogLevel,
			Development: cfg.LogDevelopment,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	var metrics *txn.Metrics
	if cfg.MetricsEnabled {
		reg := so.registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		var err error
		metrics, err = txn.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	manager := txn.New(
		txn.WithTolerance(cfg.Tolerance()),
		txn.WithLogger(logger),
		txn.WithMetrics(metrics),
	)
	codecs := codec.NewRegistry(codec.Options{
		JSONIndent: cfg.JSONIndent,
		CSVComma:   cfg.Comma(),
	})
	file := NewFile(manager, codecs, logger, defaultOptions(cfg)...)

	return &IO{
		File:      file,
		Directory: NewDirectory(file),
		cfg:       cfg,
		manager:   manager,
		codecs:    codecs,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Begin starts a transaction
func (x *IO) Begin() error {
	return x.manager.Begin()
}

// Commit keeps every mutation made since Begin
func (x *IO) Commit() error {
	return x.manager.Commit()
}

// Rollback undoes every mutation made since Begin, most recent first
func (x *IO) Rollback() error {
	return x.manager.Rollback()
}

// InTransaction runs fn inside a transaction. It commits when fn returns
// nil and rolls back when fn returns an error or panics. A panic is
// re-raised after the rollback.
func (x *IO) InTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := x.manager.Begin(); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if rbErr := x.manager.Rollback(); rbErr != nil {
				x.logger.Error("txn.rollback after panic failed", zap.Error(rbErr))
			}
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		x.logger.Info("transaction failed, rolling back", zap.Error(err))
		return multierr.Append(err, x.manager.Rollback())
	}
	return x.manager.Commit()
}

// Manager exposes the underlying transaction manager
func (x *IO) Manager() *txn.Manager {
	return x.manager
}

// Codecs returns the codec registry used for reads and writes
func (x *IO) Codecs() *codec.Registry {
	return x.codecs
}

// Logger returns the logger shared by every operation
func (x *IO) Logger() *zap.Logger {
	return x.logger
}

// Metrics returns the transaction counters, nil when metrics are disabled
func (x *IO) Metrics() *txn.Metrics {
	return x.metrics
}

// Config returns the configuration the instance was built with
func (x *IO) Config() *Config {
	return x.cfg
}
