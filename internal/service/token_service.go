package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"circle/internal/cache"
	"circle/internal/middleware"
	"circle/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "circle-api"
	tokenAudience = "circle-client"
)

// Claims are the JWT claims issued at login. Subject is the decimal user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens. Logout revokes a
// token by storing its jti in Redis until the token would have expired.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
	now    func() time.Time
	log    *slog.Logger
}

// NewTokenService returns a new TokenService. rdb may be nil, which disables revocation.
func NewTokenService(secret string, ttl time.Duration, rdb *redis.Client) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		rdb:    rdb,
		now:    time.Now,
		log:    middleware.Logger,
	}
}

// Issue signs a token for user and returns it with its expiry.
func (s *TokenService) Issue(user *models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, models.NewInternalError(errors.New("JWT secret not configured"))
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, models.NewInternalError(err)
	}
	return signed, expires, nil
}

// ResolveIdentity maps a raw token to its user id. Bad signatures, expired,
// malformed and revoked tokens fail with INVALID_TOKEN.
func (s *TokenService) ResolveIdentity(ctx context.Context, token string) (uint, error) {
	claims, err := s.parse(token)
	if err != nil {
		return 0, err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return 0, models.NewInvalidTokenError(errors.New("invalid subject claim"))
	}

	if s.rdb != nil && claims.ID != "" {
		revoked, err := s.rdb.Exists(ctx, cache.RevokedKey(claims.ID)).Result()
		switch {
		case err != nil:
			// revocation is best effort while Redis is down
			s.log.WarnContext(ctx, "token revocation check failed",
				"jti", claims.ID, "user_id", userID, "error", err)
		case revoked > 0:
			return 0, models.NewInvalidTokenError(errors.New("token has been revoked"))
		}
	}

	return uint(userID), nil
}

// Revoke blacklists a valid token's jti for the rest of its lifetime.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if s.rdb == nil || claims.ID == "" {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, cache.RevokedKey(claims.ID), "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *TokenService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(_ *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token is not valid")
		}
		return nil, models.NewInvalidTokenError(err)
	}
	return claims, nil
}
