package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmLabel        = "argon2id"
)

// Config holds the argon2id cost parameters.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher performs one-way salted hashing with argon2id and encodes the
// result in PHC string format, so the parameters travel with the hash and
// verification works across parameter upgrades.
type Hasher struct {
	config Config
}

// NewHasher validates the cost parameters and returns a Hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, errors.New("argon2 memory must be >= 8192 KB")
	case cfg.Time < 1:
		return nil, errors.New("argon2 time must be >= 1")
	case cfg.Parallelism < 1:
		return nil, errors.New("argon2 parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, errors.New("argon2 salt length must be >= 16")
	case cfg.KeyLength < minKeyLength:
		return nil, errors.New("argon2 key length must be >= 16")
	}
	return &Hasher{config: cfg}, nil
}

// Hash derives a salted argon2id hash of password and returns it in PHC
// format. The plaintext is used exactly as provided, no normalization.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, h.config.Time, h.config.Memory, h.config.Parallelism, h.config.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmLabel,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encodedHash. The comparison is
// constant time over the derived keys.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	dec, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), dec.salt, dec.time, dec.memory, dec.parallelism, uint32(len(dec.key)))
	return subtle.ConstantTimeCompare(computed, dec.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker
// parameters than the Hasher's current configuration.
func (h *Hasher) NeedsUpgrade(encodedHash string) (bool, error) {
	dec, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	if h.config.Memory > dec.memory || h.config.Time > dec.time || h.config.Parallelism > dec.parallelism {
		return true, nil
	}
	return uint32(len(dec.key)) != h.config.KeyLength, nil
}

type decoded struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func decodePHC(encoded string) (*decoded, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmLabel {
		return nil, errors.New("unsupported algorithm")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, errors.New("missing argon2 version")
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var dec decoded
	for _, pair := range strings.Split(parts[3], ",") {
		k, v, found := strings.Cut(pair, "=")
		if !found {
			return nil, errors.New("invalid parameter entry")
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return nil, errors.New("invalid memory parameter")
			}
			dec.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < 1 {
				return nil, errors.New("invalid time parameter")
			}
			dec.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < 1 {
				return nil, errors.New("invalid parallelism parameter")
			}
			dec.parallelism = uint8(n)
		default:
			return nil, errors.New("unsupported parameter")
		}
	}
	if dec.memory == 0 || dec.time == 0 || dec.parallelism == 0 {
		return nil, errors.New("missing parameters")
	}

	var err error
	if dec.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(dec.salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt length")
	}
	if dec.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(dec.key) < int(minKeyLength) {
		return nil, errors.New("invalid hash length")
	}

	return &dec, nil
}
