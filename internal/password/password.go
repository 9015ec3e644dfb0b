package password

import "golang.org/x/crypto/bcrypt"

// Hasher is the injected password hashing capability. The core never
// implements hashing itself; services receive a Hasher at construction.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Bcrypt hashes passwords with bcrypt and a fresh random salt per call.
type Bcrypt struct {
	Cost int
}

// NewBcrypt returns a Bcrypt hasher at the default cost.
func NewBcrypt() Bcrypt {
	return Bcrypt{Cost: bcrypt.DefaultCost}
}

// Hash returns a salted bcrypt hash of password.
func (b Bcrypt) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash.
func (b Bcrypt) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
