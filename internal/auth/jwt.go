package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

// Token kinds carried in the claims so a refresh token cannot be used as an
// access token and vice versa.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Identity is who a token speaks for. PartyID binds a player to the party
// they control; it is empty for the game master.
type Identity struct {
	UserID  string `json:"user_id"`
	PartyID string `json:"party_id,omitempty"`
}

// Claims holds the JWT payload.
type Claims struct {
	Identity
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a JWTManager with the given secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  15 * time.Minute,
		refreshExpiry: 7 * 24 * time.Hour,
	}
}

func (m *JWTManager) sign(id Identity, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Identity: id,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   id.UserID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GenerateAccessToken creates a short-lived access token.
func (m *JWTManager) GenerateAccessToken(id Identity) (string, error) {
	return m.sign(id, KindAccess, m.accessExpiry)
}

// GenerateRefreshToken creates a long-lived refresh token.
func (m *JWTManager) GenerateRefreshToken(id Identity) (string, error) {
	return m.sign(id, KindRefresh, m.refreshExpiry)
}

// ValidateToken parses and validates a JWT string of the given kind.
func (m *JWTManager) ValidateToken(tokenStr, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != kind || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenPair holds an access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	PartyID      string `json:"party_id,omitempty"`
}

// GenerateTokenPair creates both tokens for an identity.
func (m *JWTManager) GenerateTokenPair(id Identity) (*TokenPair, error) {
	access, err := m.GenerateAccessToken(id)
	if err != nil {
		return nil, err
	}
	refresh, err := m.GenerateRefreshToken(id)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(m.accessExpiry.Seconds()),
		PartyID:      id.PartyID,
	}, nil
}
