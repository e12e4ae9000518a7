package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var jwtSecret []byte

// SetSecret installs the HS256 signing key. Must be called once at startup
// before any token is issued or validated.
func SetSecret(secret string) {
	if secret == "" {
		logrus.Fatal("JWT secret is empty")
	}
	jwtSecret = []byte(secret)
	logrus.Info("JWT secret loaded successfully")
}

type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

func GenerateToken(userID uuid.UUID, duration time.Duration) (string, error) {
	logrus.WithField("user_id", userID).Debug("generating JWT token")

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Error("failed to sign JWT token")
		return "", err
	}
	return signed, nil
}

func ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})
	if err != nil {
		logrus.WithError(err).Warn("failed to parse JWT token")
		return nil, errors.New("invalid token")
	}

	if !token.Valid {
		logrus.Warn("JWT token is not valid")
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		logrus.Warn("failed to extract claims from JWT token")
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func GenerateRefreshToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
