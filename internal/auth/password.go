package auth

import "golang.org/x/crypto/bcrypt"

// CredentialVerifier checks a plaintext secret against a stored hash.
type CredentialVerifier interface {
	Verify(hash, secret string) bool
}

// BcryptVerifier verifies bcrypt hashes; bcrypt compares in constant time.
type BcryptVerifier struct{}

// Verify reports whether secret matches hash.
func (BcryptVerifier) Verify(hash, secret string) bool {
	return ComparePassword(hash, secret) == nil
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
