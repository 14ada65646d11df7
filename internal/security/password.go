package security

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypts a plaintext password at the default cost. Temp
// passwords handed out by an admin go through here the same as real ones.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored hash. A non-nil
// error always means denial to the caller.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
