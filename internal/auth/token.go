package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("invalid rejoin token")
	ErrNoSecret     = errors.New("token secret is empty")
)

// Identity is what a rejoin token proves: membership of a player in a room.
type Identity struct {
	RoomCode   string
	PlayerID   string
	PlayerName string
}

type rejoinClaims struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC signed rejoin tokens.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewTokenManager(secretKey string, ttl time.Duration) (*TokenManager, error) {
	if secretKey == "" {
		return nil, ErrNoSecret
	}
	return &TokenManager{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}, nil
}

func (m *TokenManager) Issue(id Identity) (string, error) {
	now := m.now()
	claims := rejoinClaims{
		RoomCode:   id.RoomCode,
		PlayerName: id.PlayerName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.PlayerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &rejoinClaims{}, func(token *jwt.Token) (any, error) {
		// Only accept HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*rejoinClaims)
	if !ok || !token.Valid || claims.RoomCode == "" || claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{RoomCode: claims.RoomCode, PlayerID: claims.Subject, PlayerName: claims.PlayerName}, nil
}
