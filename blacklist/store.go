package blacklist

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const entryVersionV1 = 1

// ErrRedisUnavailable wraps Redis transport failures. A lookup error is
// never treated as "not revoked".
var ErrRedisUnavailable = errors.New("blacklist redis unavailable")

// Reason records why an identifier was revoked.
type Reason uint8

const (
	// ReasonLogout marks a voluntary logout.
	ReasonLogout Reason = iota
	// ReasonForced marks an administrative revocation.
	ReasonForced
)

// Entry is the stored revocation record for one token identifier.
type Entry struct {
	Reason    Reason
	RevokedAt time.Time
}

// Store is a Redis-backed revocation list.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] with the given key prefix.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(tokenID string) string {
	return s.prefix + ":" + tokenID
}

// Revoke inserts a revocation entry for tokenID with the given TTL.
// Insertion is idempotent: SETNX keeps the earliest entry, so revoking
// twice is a no-op and both calls succeed with identical stored state.
// The write is synchronous; once Revoke returns, every subsequent
// IsRevoked observes the entry.
func (s *Store) Revoke(ctx context.Context, tokenID string, reason Reason, ttl time.Duration) error {
	if ttl <= 0 {
		// The token is already past its natural expiry; the verifier
		// rejects it without our help.
		return nil
	}

	entry := Entry{
		Reason:    reason,
		RevokedAt: time.Now(),
	}

	encoded, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	if err := s.redis.SetNX(ctx, s.key(tokenID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// IsRevoked reports whether tokenID has a live revocation entry.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.redis.Get(ctx, s.key(tokenID)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return true, nil
}

// Get returns the revocation entry for tokenID, or nil when none exists.
func (s *Store) Get(ctx context.Context, tokenID string) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.key(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Size returns the number of live entries. Exposed for monitoring only;
// it scans the key space and is not meant for hot paths.
func (s *Store) Size(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+":*", 256).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func encodeEntry(entry Entry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(entryVersionV1)
	buf.WriteByte(byte(entry.Reason))
	if err := binary.Write(&buf, binary.BigEndian, entry.RevokedAt.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeEntry(data []byte) (*Entry, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != entryVersionV1 {
		return nil, errors.New("invalid blacklist entry version")
	}

	reason, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	var revokedAt int64
	if err := binary.Read(reader, binary.BigEndian, &revokedAt); err != nil {
		return nil, err
	}

	return &Entry{
		Reason:    Reason(reason),
		RevokedAt: time.Unix(revokedAt, 0),
	}, nil
}
