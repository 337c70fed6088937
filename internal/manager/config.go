package manager

import (
	"time"

	"github.com/rs/zerolog"

	"nightingale/internal/backend"
	"nightingale/internal/catalog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultDriver        = backend.KindLlamaServer
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Catalog defaults to catalog.Default().
	Catalog *catalog.Catalog
	// Factory builds drivers; defaults to backend.NewFactory with zero Options.
	Factory backend.Factory
	// DefaultDriver is used for descriptors that name no driver.
	DefaultDriver string
	DefaultModel  string
	MaxQueueDepth int
	MaxWait       time.Duration
	Publisher     EventPublisher
	Logger        *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		catalog:       cfg.Catalog,
		factory:       cfg.Factory,
		defaultDriver: cfg.DefaultDriver,
		defaultModel:  cfg.DefaultModel,
		instances:     make(map[string]*Instance),
		pub:           cfg.Publisher,
		log:           zerolog.Nop(),
		startTime:     time.Now(),
	}
	if m.catalog == nil {
		m.catalog = catalog.Default()
	}
	if m.factory == nil {
		m.factory = backend.NewFactory(backend.Options{})
	}
	if m.defaultDriver == "" {
		m.defaultDriver = defaultDriver
	}
	if m.defaultModel == "" {
		m.defaultModel = catalog.DefaultModelID
	}
	if m.pub == nil {
		m.pub = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	return m
}
