package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PlaybackTokenDuration = 12 * time.Hour
	TokenTypePlayback     = "playback"
)

// Claims bind a token to one playback session of one scene.
type Claims struct {
	SessionID string `json:"sid"`
	SceneID   string `json:"scene"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

func GeneratePlaybackToken(secret string, sessionID string, sceneID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		SceneID:   sceneID,
		TokenType: TokenTypePlayback,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(PlaybackTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret string, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
