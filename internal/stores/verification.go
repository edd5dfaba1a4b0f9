package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const verificationRecordVersionV1 = 1

// Verification code types. The type tag is part of the Redis key, so a code
// issued for one purpose can never be consumed by the other flow.
const (
	TypeEmailVerification uint8 = 1
	TypePasswordReset     uint8 = 2
)

var (
	// ErrCodeNotFound is returned when a code is absent, expired, or was
	// already consumed.
	ErrCodeNotFound = errors.New("verification code not found")
	// ErrRedisUnavailable wraps transport-level Redis failures.
	ErrRedisUnavailable = errors.New("verification redis unavailable")
)

// Record is the durable state behind one single-use code.
type Record struct {
	UserID    string
	Type      uint8
	CreatedAt int64
	ExpiresAt int64
}

// VerificationStore keeps single-use, typed, time-bounded codes in Redis.
// Consume uses GETDEL, so exactly one caller can ever redeem a given code.
type VerificationStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewVerificationStore returns a store namespaced under prefix.
func NewVerificationStore(client redis.UniversalClient, prefix string) *VerificationStore {
	if prefix == "" {
		prefix = "acv"
	}
	return &VerificationStore{redis: client, prefix: prefix}
}

func (s *VerificationStore) key(typ uint8, code string) string {
	return fmt.Sprintf("%s:%d:%s", s.prefix, typ, code)
}

// Save persists the record under its code value with the given TTL.
func (s *VerificationStore) Save(ctx context.Context, code string, rec *Record, ttl time.Duration) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(rec.Type, code), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Consume atomically removes and returns the record for code, provided it
// matches typ and has not expired by nowUnix. Any miss, including a replay
// of an already-consumed code, returns ErrCodeNotFound.
func (s *VerificationStore) Consume(ctx context.Context, code string, typ uint8, nowUnix int64) (*Record, error) {
	data, err := s.redis.GetDel(ctx, s.key(typ, code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if rec.Type != typ || nowUnix > rec.ExpiresAt {
		return nil, ErrCodeNotFound
	}
	return rec, nil
}

// Record layout v1, big-endian:
//
//	version(1) type(1) createdAt(8) expiresAt(8) userIDLen(2) userID
func encodeRecord(rec *Record) ([]byte, error) {
	if len(rec.UserID) == 0 || len(rec.UserID) > 65535 {
		return nil, errors.New("invalid verification record user id")
	}

	var buf bytes.Buffer
	buf.WriteByte(verificationRecordVersionV1)
	buf.WriteByte(rec.Type)
	_ = binary.Write(&buf, binary.BigEndian, rec.CreatedAt)
	_ = binary.Write(&buf, binary.BigEndian, rec.ExpiresAt)
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(rec.UserID)))
	buf.WriteString(rec.UserID)
	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil || version != verificationRecordVersionV1 {
		return nil, errors.New("invalid verification record version")
	}

	rec := &Record{}
	if rec.Type, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &rec.ExpiresAt); err != nil {
		return nil, err
	}

	var userIDLen uint16
	if err := binary.Read(r, binary.BigEndian, &userIDLen); err != nil {
		return nil, err
	}
	userID := make([]byte, userIDLen)
	if _, err := io.ReadFull(r, userID); err != nil {
		return nil, err
	}
	rec.UserID = string(userID)
	return rec, nil
}
