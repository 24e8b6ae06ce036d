package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/golang-jwt/jwt/v4"

	"github.com/ezenglish/learning-service/internal/config"
)

// Identity is what a verified bearer token says about its holder
type Identity struct {
	Username    string
	Email       string
	DisplayName string
	IsAdmin     bool
	// External identities come from an outside provider and may not have a local user yet
	External bool
}

// TokenVerifier turns a bearer token into an Identity
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// TokenIssuer signs tokens for locally authenticated users
type TokenIssuer interface {
	Issue(userID uint, username string) (token string, expiresAt time.Time, err error)
}

// ===== LOCAL JWT =====

// Claims carried by locally issued tokens
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 tokens signed with a shared secret
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *JWTManager) Issue(userID uint, username string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, NewUnauthorizedError("invalid or expired token")
	}
	if claims.Username == "" {
		return nil, NewUnauthorizedError("token has no username")
	}
	return &Identity{Username: claims.Username}, nil
}

// ===== CASDOOR =====

// CasdoorVerifier accepts tokens minted by a Casdoor instance
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorVerifier{client: client}
}

func (v *CasdoorVerifier) Verify(token string) (*Identity, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, NewUnauthorizedError("invalid or expired token")
	}
	if claims.User.Name == "" {
		return nil, NewUnauthorizedError("token has no username")
	}
	return &Identity{
		Username:    claims.User.Name,
		Email:       claims.User.Email,
		DisplayName: claims.User.DisplayName,
		IsAdmin:     claims.User.IsAdmin,
		External:    true,
	}, nil
}

// NewTokenVerifier picks the verifier for the configured auth provider
func NewTokenVerifier(cfg *config.Config, jwtManager *JWTManager) (TokenVerifier, error) {
	switch cfg.Auth.Provider {
	case config.AuthProviderLocal, "":
		if jwtManager == nil {
			return nil, errors.New("local auth requires a JWT manager")
		}
		return jwtManager, nil
	case config.AuthProviderCasdoor:
		return NewCasdoorVerifier(cfg.Casdoor), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}
