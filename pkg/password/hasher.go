package password

import (
	"errors"
	"fmt"
)

const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

var (
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrPasswordTooLong = errors.New("password exceeds the hasher input limit")
)

// Hasher is the one-way primitive behind the Codec. Verify returns false with
// a nil error for a well-formed hash that does not match.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hashedPassword string) (bool, error)
}

// NewHasher returns the hasher registered under name. bcryptCost is ignored by
// argon2id.
func NewHasher(name string, bcryptCost int) (Hasher, error) {
	switch name {
	case HasherBcrypt, "":
		return NewBcryptHasher(bcryptCost), nil
	case HasherArgon2id:
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("unsupported password hasher: %q", name)
	}
}
