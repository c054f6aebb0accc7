package authgate

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/halcyondev/authgate/blacklist"
	"github.com/halcyondev/authgate/internal/rate"
	"github.com/halcyondev/authgate/internal/stores"
	"github.com/halcyondev/authgate/jwt"
	"github.com/halcyondev/authgate/password"
	"github.com/redis/go-redis/v9"
)

const codeKeyPrefix = "agv"

// Builder assembles an [Engine]. Every With* call returns the receiver
// for chaining; Build validates the configuration and wires the parts.
type Builder struct {
	config      Config
	redis       *redis.Client
	credentials CredentialStore
	mailer      Mailer
	auditSink   AuditSink

	built bool
}

// New returns a [Builder] seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing codes, rate limits, and the
// blacklist.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore sets the user record store.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithMailer sets the out-of-band code delivery collaborator.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithAuditSink sets the sink receiving audit events when auditing is
// enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and returns a ready [Engine]. A
// builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.credentials == nil {
		return nil, errors.New("credential store is required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     b.config.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(b.config.JWT.SigningMethod),
		PrivateKey:    b.config.JWT.PrivateKey,
		PublicKey:     b.config.JWT.PublicKey,
		Issuer:        b.config.JWT.Issuer,
		Leeway:        b.config.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	dummyHash, err := newDummyHash(hasher)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      b.config,
		credentials: b.credentials,
		codes:       stores.NewCodeStore(b.redis, codeKeyPrefix),
		limiter: rate.New(b.redis, rate.Config{
			MaxLoginAttempts: b.config.RateLimit.MaxLoginAttempts,
			LoginCooldown:    b.config.RateLimit.CooldownDuration,
			EnableIPThrottle: b.config.RateLimit.EnableIPThrottle,
			CodeInterval:     b.config.Codes.ResendInterval,
		}),
		blacklist:    blacklist.NewStore(b.redis, b.config.Blacklist.RedisPrefix),
		jwtManager:   jwtManager,
		passwordHash: hasher,
		mailer:       b.mailer,
		audit:        newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:      NewMetrics(b.config.Metrics),
		dummyHash:    dummyHash,
	}

	b.built = true
	return engine, nil
}

// newDummyHash produces a hash of random material that no password can
// match, so unknown-user logins pay for a real verification.
func newDummyHash(hasher *password.Argon2) (string, error) {
	raw := make([]byte, 18)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hasher.Hash(base64.RawStdEncoding.EncodeToString(raw))
}
