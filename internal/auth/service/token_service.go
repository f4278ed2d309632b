package service

//go:generate mockgen -destination=../mocks/mock_token_generator.go -package=mocks github.com/vidstream/identity-service/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Verification failures are ordinary result states, never panics; attacker
// controlled input lands in one of these three.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

type TokenGenerator interface {
	Generate(userID string) (accessToken string, refreshToken string, err error)
	Issue(kind TokenKind, userID string) (string, error)
	Verify(kind TokenKind, tokenString string) (string, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

// TokenService signs and verifies the two token kinds. Each kind carries its
// own secret and TTL, so leaking one secret cannot forge the other kind.
type TokenService struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: refreshSecret,
		AccessTokenExpiry:  accessTTL,
		RefreshTokenExpiry: refreshTTL,
	}
}

func (ts *TokenService) secretAndTTL(kind TokenKind) (string, time.Duration, error) {
	switch kind {
	case AccessToken:
		return ts.AccessTokenSecret, ts.AccessTokenExpiry, nil
	case RefreshToken:
		return ts.RefreshTokenSecret, ts.RefreshTokenExpiry, nil
	default:
		return "", 0, fmt.Errorf("unknown token kind: %s", kind)
	}
}

// Issue produces a signed HS256 token embedding the user id, valid until
// now+TTL for the given kind. A token checked at exactly its expiry instant
// is already expired (golang-jwt validates now < exp with zero leeway).
func (ts *TokenService) Issue(kind TokenKind, userID string) (string, error) {
	secret, ttl, err := ts.secretAndTTL(kind)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := JWTCustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			// unique jti keeps two mints in the same second distinct
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Generate mints a fresh access/refresh pair for the user.
func (ts *TokenService) Generate(userID string) (string, string, error) {
	accessToken, err := ts.Issue(AccessToken, userID)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := ts.Issue(RefreshToken, userID)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// Verify parses and validates the token against the kind's secret and returns
// the embedded user id.
func (ts *TokenService) Verify(kind TokenKind, tokenString string) (string, error) {
	secret, _, err := ts.secretAndTTL(kind)
	if err != nil {
		return "", err
	}

	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	switch {
	case err == nil && token.Valid:
		return claims.UserID, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", ErrTokenSignature
	default:
		return "", ErrTokenMalformed
	}
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}
