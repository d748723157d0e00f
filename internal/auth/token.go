package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"os"
	"time"
)

// TokenType is the platform role carried by a token.
type TokenType string

const (
	TokenTypeUndefined   TokenType = ""
	TokenTypeParticipant TokenType = "participant"
	TokenTypeOrganizer   TokenType = "organizer"
	TokenTypeAdmin       TokenType = "admin"
)

func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeParticipant, TokenTypeOrganizer, TokenTypeAdmin:
		return true
	}
	return false
}

// TokenSecretKey signs and verifies tokens. cmd overrides it from config.
var TokenSecretKey = os.Getenv("TOKEN_AUTH_SECRET")

// TokenClaims identifies the caller by Subject (user id) and Type.
type TokenClaims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

func GenerateToken(userID string, tokenType TokenType, dur time.Duration) (string, error) {
	if userID == "" {
		return "", ErrMissingSubject
	}
	if !tokenType.Valid() {
		return "", errors.Wrap(ErrUnknownTokenType, string(tokenType))
	}

	now := time.Now()
	claims := TokenClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(dur)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(TokenSecretKey))
}

func VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			alg, _ := token.Header["alg"].(string)
			return nil, errors.Wrap(ErrInvalidSigningMethod, alg)
		}
		return []byte(TokenSecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if !claims.Type.Valid() {
		return nil, errors.Wrap(ErrUnknownTokenType, string(claims.Type))
	}

	return claims, nil
}

// IsValidToken returns the caller identity of a verified token.
func IsValidToken(tokenString string) (string, TokenType, bool) {
	claims, err := VerifyToken(tokenString)
	if err != nil {
		return "", TokenTypeUndefined, false
	}
	return claims.Subject, claims.Type, true
}
