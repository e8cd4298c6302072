package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PermissionRead  = "read"
	PermissionWrite = "write"

	DefaultTokenTTL = time.Hour
)

var (
	ErrMissingSecret = errors.New("service secret is not configured")
	ErrInvalidToken  = errors.New("invalid service token")
)

type Config struct {
	ServiceName   string
	ServiceSecret string
	TokenTTL      time.Duration
}

// ServiceClaims are the claims of an HS256 service-to-service token.
type ServiceClaims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

func (c ServiceClaims) Has(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// Client issues and verifies service tokens signed with a shared secret.
type Client struct {
	config Config
	now    func() time.Time
}

func NewClient(config Config) (*Client, error) {
	if config.ServiceSecret == "" {
		return nil, ErrMissingSecret
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = DefaultTokenTTL
	}
	return &Client{config: config, now: time.Now}, nil
}

// GenerateServiceToken signs a token for the configured service with the given permissions.
func (c *Client) GenerateServiceToken(permissions ...string) (string, error) {
	now := c.now()
	claims := ServiceClaims{
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.config.ServiceName,
			Subject:   c.config.ServiceName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(c.config.ServiceSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateServiceToken verifies signature and expiry and returns the claims.
func (c *Client) ValidateServiceToken(tokenString string) (*ServiceClaims, error) {
	claims := &ServiceClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(c.config.ServiceSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
