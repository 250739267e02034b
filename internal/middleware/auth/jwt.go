package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthUser is the caller identified by a verified JWT. OwnerID scopes every
// integration, mirror and metric the caller can see.
type AuthUser struct {
	OwnerID uuid.UUID `json:"owner_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
}

type contextKey string

const userContextKey contextKey = "authenticated_user"

// Claims are the token claims the API reads. The subject is the owner id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type JWTConfig struct {
	Secret string
	Logger *zap.Logger
	// SkipPaths are path prefixes served without a token.
	SkipPaths []string
}

// rejection is a 401 body. Code is stable for clients.
type rejection struct {
	code    string
	message string
}

func (r *rejection) respond(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"error": r.message,
		"code":  r.code,
	})
}

// JWTMiddleware validates HS256 bearer tokens and stores the owner from the sub
// claim on the request context.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(config.Secret), nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			user, rej, err := authenticate(parser, keyFunc, c.Request().Header.Get(echo.HeaderAuthorization))
			if rej != nil {
				config.Logger.Warn("Request rejected",
					zap.String("code", rej.code),
					zap.String("path", path),
					zap.String("method", c.Request().Method),
					zap.Error(err))
				return rej.respond(c)
			}

			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			c.Set("owner_id", user.OwnerID.String())

			return next(c)
		}
	}
}

func authenticate(parser *jwt.Parser, keyFunc jwt.Keyfunc, header string) (*AuthUser, *rejection, error) {
	if header == "" {
		return nil, &rejection{"MISSING_AUTH_HEADER", "Authorization header required"}, nil
	}

	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return nil, &rejection{"INVALID_AUTH_FORMAT", "Invalid authorization header format. Expected: Bearer <token>"}, nil
	}

	claims := &Claims{}
	if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
		return nil, &rejection{"INVALID_TOKEN", "Invalid or expired token"}, err
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err == nil && ownerID == uuid.Nil {
		err = fmt.Errorf("nil uuid")
	}
	if err != nil {
		return nil, &rejection{"INVALID_SUBJECT", "Token subject must be a valid UUID"},
			fmt.Errorf("subject %q: %w", claims.Subject, err)
	}

	return &AuthUser{
		OwnerID: ownerID,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil, nil
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(c echo.Context) (*AuthUser, error) {
	user, ok := c.Request().Context().Value(userContextKey).(*AuthUser)
	if !ok || user == nil {
		return nil, fmt.Errorf("no authenticated user found in context")
	}
	return user, nil
}

// GetOwnerID returns the authenticated owner, or an echo 401 error.
func GetOwnerID(c echo.Context) (uuid.UUID, error) {
	user, err := GetUserFromContext(c)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return user.OwnerID, nil
}

// WithUser returns ctx carrying user.
func WithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
