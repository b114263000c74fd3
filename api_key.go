package access

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashAPIKey will generate an API key hash
func HashAPIKey(key string) (string, error) {
	if key == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(key), 14)
	return string(h), err
}

// CompareAPIKeyAndHash will validate the given cleartext
// key matches the hashed API key
func CompareAPIKeyAndHash(key, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedKeyAndHash
		}
		return err
	}
	return nil
}

// GenerateAPIKey mints a fresh cleartext key and its hash. The
// cleartext is shown to the user once, only the hash is stored.
func GenerateAPIKey() (key string, hash string, err error) {
	key = uuid.NewString()
	hash, err = HashAPIKey(key)
	return key, hash, err
}
