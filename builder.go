package roleauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/okhara/roleauth/session"
)

// Builder assembles a [Machine] from configuration and dependencies.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store    SessionStore
	provider IdentityProvider

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration with a defensive copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the redis client used to construct the default session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the session store. When set, WithRedis and the
// Session configuration block are ignored.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.store = store
	return b
}

// WithIdentityProvider sets the credential verifier. Required.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithAuditSink sets the sink that receives lifecycle events when auditing
// is enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles metric collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles login latency histogram collection.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the assembled dependencies and returns a ready [Machine].
// A Builder may be used at most once.
func (b *Builder) Build() (*Machine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.provider == nil {
		return nil, errors.New("identity provider required")
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		s, err := session.NewStore(
			b.redis,
			cfg.Session.RedisPrefix,
			cfg.Session.SigningKey,
			cfg.Session.RecordTTL,
		)
		if err != nil {
			return nil, err
		}
		store = s
	}

	m := &Machine{
		config:   cfg,
		store:    store,
		provider: b.provider,
		phase:    PhaseUnauthenticated,
	}

	m.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	m.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return m, nil
}
