package auth

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"oldap.evalgo.org/oldaperror"
)

// TokenIssuer is the iss claim of every session token.
const TokenIssuer = "http://oldap.org"

// TokenExpiration is the lifetime of a session token.
const TokenExpiration = 24 * time.Hour

// Claims carries the serialized user record inside a session token.
type Claims struct {
	UserData string `json:"userdata"`
	jwt.RegisteredClaims
}

// TokenService signs and validates session tokens with HMAC-SHA256 under a
// process-wide secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a token service for the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// GenerateToken issues a signed session token carrying the user record,
// expiring after one day.
func (s *TokenService) GenerateToken(user *UserData) (string, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return "", oldaperror.Wrap(oldaperror.Generic, err, "cannot serialize user record")
	}
	now := time.Now()
	claims := Claims{
		UserData: string(payload),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", oldaperror.Wrap(oldaperror.Generic, err, "cannot sign token")
	}
	return signed, nil
}

// ValidateToken verifies the signature and expiry of a session token and
// returns the embedded user record.
func (s *TokenService) ValidateToken(tokenString string) (*UserData, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oldaperror.New(oldaperror.Generic, "unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, oldaperror.Wrap(oldaperror.NoPermission, err, "invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, oldaperror.New(oldaperror.NoPermission, "invalid token")
	}
	var user UserData
	if err := json.Unmarshal([]byte(claims.UserData), &user); err != nil {
		return nil, oldaperror.Wrap(oldaperror.Generic, err, "malformed user record in token")
	}
	return &user, nil
}
