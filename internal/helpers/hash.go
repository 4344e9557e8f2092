package helpers

import "golang.org/x/crypto/bcrypt"

// work factor 10, matches bcrypt.DefaultCost
const bcryptCost = bcrypt.DefaultCost

func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func CheckPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
