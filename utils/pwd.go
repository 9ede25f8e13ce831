package utils

import "golang.org/x/crypto/bcrypt"

// GetPwd hashes a plaintext password with bcrypt.
func GetPwd(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPwd reports whether pwd matches the stored bcrypt hash.
func CheckPwd(hash, pwd string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pwd)) == nil
}
