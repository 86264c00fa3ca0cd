package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/courseloom/courseloom-backend/internal/platform/ctxutil"
	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

// JWTClaims mirrors what the external auth system issues. Subject is the
// user id; Role gates the admin surface.
type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService verifies bearer tokens minted by the external auth system.
// It never issues tokens.
type TokenService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type tokenService struct {
	jwtSecretKey string
	log          *logger.Logger
}

func NewTokenService(jwtSecretKey string, baseLog *logger.Logger) TokenService {
	return &tokenService{
		jwtSecretKey: jwtSecretKey,
		log:          baseLog.With("service", "TokenService"),
	}
}

func (ts *tokenService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, fmt.Errorf("missing bearer token: %w", errs.ErrUnauthorized)
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(ts.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", errs.ErrUnauthorized)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired token: %w", errs.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return ctx, fmt.Errorf("token missing subject: %w", errs.ErrUnauthorized)
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      claims.Subject,
		Role:        claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}
