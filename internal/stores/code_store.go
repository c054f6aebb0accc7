package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/halcyondev/authgate/internal"
	"github.com/redis/go-redis/v9"
)

const codeRecordVersionV1 = 1

var (
	// ErrCodeNotFound covers both a missing record and one past expiry;
	// Redis TTL eviction makes the two indistinguishable.
	ErrCodeNotFound = errors.New("verification code not found or expired")
	// ErrCodeConsumed is returned when the submitted code matches one
	// that was already consumed.
	ErrCodeConsumed = errors.New("verification code already consumed")
	// ErrCodeSuperseded is returned when the submitted code matches the
	// one invalidated by the latest issuance. Only the immediately prior
	// generation is recognized; older codes report [ErrCodeMismatch].
	ErrCodeSuperseded = errors.New("verification code superseded")
	// ErrCodeMismatch is returned when the submitted code matches
	// nothing the store knows about.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrCodeAttempts is returned once the failed-attempt budget for a
	// record is exhausted; the record is deleted.
	ErrCodeAttempts = errors.New("verification code attempts exceeded")
	// ErrCodeRedisUnavailable wraps Redis transport failures.
	ErrCodeRedisUnavailable = errors.New("verification code redis unavailable")
)

// CodeRecord is the stored state of the active code for one
// (email, purpose) pair. Only digests are stored, never plaintext.
// PrevHash holds a single generation: re-issuing replaces it, so a
// twice-superseded code is indistinguishable from a wrong one and is
// charged against the attempt budget like any other mismatch.
type CodeRecord struct {
	CodeHash  [32]byte
	PrevHash  [32]byte
	HasPrev   bool
	IssuedAt  int64
	ExpiresAt int64
	Consumed  bool
	Attempts  uint16
}

// CodeStore persists verification codes in Redis.
type CodeStore struct {
	redis  *redis.Client
	prefix string
}

// NewCodeStore creates a [CodeStore] with the given key prefix.
func NewCodeStore(redisClient *redis.Client, prefix string) *CodeStore {
	return &CodeStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *CodeStore) key(email, purpose string) string {
	return s.prefix + ":" + purpose + ":" + email
}

// Issue stores a new code record, superseding any prior active code for
// the same (email, purpose). The prior code's hash is retained so a
// stale submission can be rejected as superseded rather than a bare
// mismatch.
func (s *CodeStore) Issue(ctx context.Context, email, purpose string, codeHash [32]byte, ttl time.Duration) error {
	key := s.key(email, purpose)

	record := &CodeRecord{
		CodeHash:  codeHash,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}

	prev, err := s.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if prior, decErr := decodeCodeRecord(prev); decErr == nil && !prior.Consumed {
			record.PrevHash = prior.CodeHash
			record.HasPrev = true
		}
	case errors.Is(err, redis.Nil):
		// first issuance for this pair
	default:
		return fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}

	encoded, err := encodeCodeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, key, encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}

	return nil
}

// Delete removes the active record. Used to roll back an issuance whose
// out-of-band dispatch failed.
func (s *CodeStore) Delete(ctx context.Context, email, purpose string) error {
	if err := s.redis.Del(ctx, s.key(email, purpose)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}
	return nil
}

// Restore re-saves a previously consumed record as unconsumed with its
// remaining natural TTL. Used when the mutation that followed a
// successful consume could not take effect, keeping the outer operation
// all-or-nothing.
func (s *CodeStore) Restore(ctx context.Context, email, purpose string, record *CodeRecord) error {
	ttl := time.Until(time.Unix(record.ExpiresAt, 0))
	if ttl <= 0 {
		return nil
	}

	restored := *record
	restored.Consumed = false

	encoded, err := encodeCodeRecord(&restored)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(email, purpose), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
	}

	return nil
}

// Consume validates providedHash against the active record and, on
// success, marks it consumed in the same Redis transaction. Validation
// and consumption are one atomic step: of any number of concurrent
// submissions of the correct code, exactly one returns nil and the rest
// observe [ErrCodeConsumed].
//
// The consumed record is retained until its natural expiry so a replay
// is distinguishable from an expired code.
func (s *CodeStore) Consume(ctx context.Context, email, purpose string, providedHash [32]byte, maxAttempts int) (*CodeRecord, error) {
	const maxRetries = 4
	key := s.key(email, purpose)

	for i := 0; i < maxRetries; i++ {
		var matched *CodeRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeCodeRecord(data)
			if err != nil {
				return err
			}

			if time.Now().Unix() > record.ExpiresAt {
				if err := txDelete(ctx, tx, key); err != nil {
					return err
				}
				return ErrCodeNotFound
			}

			if record.Consumed {
				switch {
				case internal.HashEqual(record.CodeHash, providedHash):
					return ErrCodeConsumed
				case record.HasPrev && internal.HashEqual(record.PrevHash, providedHash):
					return ErrCodeSuperseded
				default:
					return ErrCodeMismatch
				}
			}

			ttl := time.Until(time.Unix(record.ExpiresAt, 0))
			if ttl <= 0 {
				if err := txDelete(ctx, tx, key); err != nil {
					return err
				}
				return ErrCodeNotFound
			}

			if internal.HashEqual(record.CodeHash, providedHash) {
				record.Consumed = true
				updated, err := encodeCodeRecord(record)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				matched = record
				return nil
			}

			if record.HasPrev && internal.HashEqual(record.PrevHash, providedHash) {
				return ErrCodeSuperseded
			}

			record.Attempts++
			if int(record.Attempts) >= maxAttempts {
				if err := txDelete(ctx, tx, key); err != nil {
					return err
				}
				return ErrCodeAttempts
			}

			updated, err := encodeCodeRecord(record)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			if err != nil {
				return err
			}
			return ErrCodeMismatch
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return nil, ErrCodeNotFound
			case errors.Is(err, ErrCodeNotFound),
				errors.Is(err, ErrCodeConsumed),
				errors.Is(err, ErrCodeSuperseded),
				errors.Is(err, ErrCodeMismatch),
				errors.Is(err, ErrCodeAttempts):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", ErrCodeRedisUnavailable, err)
			}
		}

		return matched, nil
	}

	// A submission that loses the optimistic transaction four times in a
	// row lost every race to a concurrent winner.
	return nil, ErrCodeConsumed
}

func txDelete(ctx context.Context, tx *redis.Tx, key string) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

func encodeCodeRecord(record *CodeRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(codeRecordVersionV1)

	flags := byte(0)
	if record.Consumed {
		flags |= 1
	}
	if record.HasPrev {
		flags |= 2
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	buf.Write(record.CodeHash[:])
	buf.Write(record.PrevHash[:])

	return buf.Bytes(), nil
}

func decodeCodeRecord(data []byte) (*CodeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != codeRecordVersionV1 {
		return nil, errors.New("invalid code record version")
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &CodeRecord{
		Consumed: flags&1 != 0,
		HasPrev:  flags&2 != 0,
	}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.PrevHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
