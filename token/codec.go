package token

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is returned for every verification failure: bad signature,
// malformed structure, wrong audience, or expiry. The reasons collapse into
// one error so callers cannot probe which check failed.
var ErrTokenInvalid = errors.New("invalid token")

// Config carries the signing material and lifetimes for both token kinds.
// Now is the clock used for issuance and verification; it defaults to
// time.Now and is injectable for tests.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Now           func() time.Time
}

// AccessClaims binds a short-lived access token to a user and the session
// it was minted under.
type AccessClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// RefreshClaims binds a long-lived refresh token to a session only. The
// user is resolved through the session record at refresh time.
type RefreshClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access and refresh tokens. It is stateless:
// outputs are a pure function of the token, the secrets, and the clock.
type Codec struct {
	config Config
}

// NewCodec validates the configuration and returns a ready Codec. The two
// secrets must be present and distinct so that a leaked refresh secret
// cannot mint access tokens, and vice versa.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token secrets are required")
	}
	if len(cfg.AccessSecret) == len(cfg.RefreshSecret) &&
		subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RefreshSecret) == 1 {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Codec{config: cfg}, nil
}

// SignAccess mints an access token carrying {userID, sessionID} with the
// configured short TTL.
func (c *Codec) SignAccess(userID, sessionID string) (string, error) {
	return c.sign(&AccessClaims{
		UserID:           userID,
		SessionID:        sessionID,
		RegisteredClaims: c.registered(c.config.AccessTTL),
	}, c.config.AccessSecret)
}

// SignRefresh mints a refresh token carrying {sessionID} with the
// configured long TTL.
func (c *Codec) SignRefresh(sessionID string) (string, error) {
	return c.sign(&RefreshClaims{
		SessionID:        sessionID,
		RegisteredClaims: c.registered(c.config.RefreshTTL),
	}, c.config.RefreshSecret)
}

// ParseAccess verifies an access token against the access secret and
// returns its claims, or ErrTokenInvalid.
func (c *Codec) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenStr, claims, c.config.AccessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token against the refresh secret and
// returns its claims, or ErrTokenInvalid.
func (c *Codec) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(tokenStr, claims, c.config.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (c *Codec) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := c.config.Now()
	reg := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    c.config.Issuer,
	}
	if c.config.Audience != "" {
		reg.Audience = jwt.ClaimStrings{c.config.Audience}
	}
	return reg
}

func (c *Codec) sign(claims jwt.Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (c *Codec) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.config.Now),
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	if c.config.Audience != "" {
		options = append(options, jwt.WithAudience(c.config.Audience))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
