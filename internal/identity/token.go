package identity

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/shelfward/shelfward/internal/domain"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the bearer token payload: the user id plus the permission flags
// resolved at issuance time. Flags are not re-checked against storage on
// each request, so an already-issued token keeps stale flags until expiry.
type Claims struct {
	UserID         int64 `json:"uid"`
	CanCreateBooks bool  `json:"can_create_books"`
	CanUpdateBooks bool  `json:"can_update_books"`
	CanDeleteBooks bool  `json:"can_delete_books"`
	CanUpdateUsers bool  `json:"can_update_users"`
	CanDeleteUsers bool  `json:"can_delete_users"`
	jwt.RegisteredClaims
}

// TokenCodec signs and validates HS256 bearer tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec creates a codec with the given signing secret and token
// lifetime.
func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: ttl}
}

// Issue signs a token carrying the user's identity and current permission
// flags.
func (c *TokenCodec) Issue(user domain.User) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:         user.ID,
		CanCreateBooks: user.CanCreateBooks,
		CanUpdateBooks: user.CanUpdateBooks,
		CanDeleteBooks: user.CanDeleteBooks,
		CanUpdateUsers: user.CanUpdateUsers,
		CanDeleteUsers: user.CanDeleteUsers,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(c.secret)
}

// Parse validates a token string and returns the caller context it carries.
func (c *TokenCodec) Parse(tokenString string) (domain.Caller, error) {
	var empty domain.Caller

	token, parseErr := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if parseErr != nil {
		return empty, errors.Join(ErrInvalidToken, parseErr)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return empty, ErrInvalidToken
	}

	return domain.Caller{
		UserID: claims.UserID,
		Permissions: domain.Permissions{
			CanCreateBooks: claims.CanCreateBooks,
			CanUpdateBooks: claims.CanUpdateBooks,
			CanDeleteBooks: claims.CanDeleteBooks,
			CanUpdateUsers: claims.CanUpdateUsers,
			CanDeleteUsers: claims.CanDeleteUsers,
		},
	}, nil
}
