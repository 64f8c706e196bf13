package auth

import (
	"golang.org/x/crypto/bcrypt"

	"oldap.evalgo.org/oldaperror"
)

// BcryptCost is the cost factor used when hashing credentials.
const BcryptCost = 12

// HashCredentials hashes a clear-text credential with bcrypt.
func HashCredentials(credentials string) (string, error) {
	if credentials == "" {
		return "", oldaperror.New(oldaperror.Value, "credentials must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(credentials), BcryptCost)
	if err != nil {
		return "", oldaperror.Wrap(oldaperror.Generic, err, "hashing failed")
	}
	return string(hash), nil
}

// CheckCredentials compares a clear-text credential against the stored
// bcrypt hash. The error is deliberately uninformative.
func CheckCredentials(credentials, hash string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(credentials)) != nil {
		return oldaperror.New(oldaperror.NoPermission, "wrong credentials")
	}
	return nil
}
