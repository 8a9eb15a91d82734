package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenPurpose string

const (
	TokenPurposeAccess         TokenPurpose = "access"
	TokenPurposePasswordChange TokenPurpose = "password_change"
)

type Claims struct {
	UserID  uuid.UUID    `json:"uid"`
	Kind    string       `json:"kind"`
	Purpose TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret  []byte
	ttl     time.Duration
	tempTTL time.Duration
}

// NewJWTManager builds a manager issuing access tokens valid for ttl and
// password-change tokens valid for tempTTL.
func NewJWTManager(secret string, ttl, tempTTL time.Duration) *JWTManager {
	if tempTTL <= 0 {
		tempTTL = 10 * time.Minute
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, tempTTL: tempTTL}
}

func (m *JWTManager) Generate(userID uuid.UUID, kind string) (string, time.Time, error) {
	return m.sign(userID, kind, TokenPurposeAccess, m.ttl)
}

func (m *JWTManager) GeneratePasswordChange(userID uuid.UUID, kind string) (string, time.Time, error) {
	return m.sign(userID, kind, TokenPurposePasswordChange, m.tempTTL)
}

func (m *JWTManager) sign(userID uuid.UUID, kind string, purpose TokenPurpose, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID:  userID,
		Kind:    kind,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}
