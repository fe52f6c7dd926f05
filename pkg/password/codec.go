package password

import (
	"github.com/google/uuid"
)

// Codec applies the deployment-wide static salt before hashing:
// encode(p) = hash(p + salt).
type Codec struct {
	hasher Hasher
	salt   string
}

func NewCodec(hasher Hasher, salt string) *Codec {
	return &Codec{hasher: hasher, salt: salt}
}

// Salt appends the static salt to a raw password.
func (c *Codec) Salt(raw string) string {
	return raw + c.salt
}

// Encode salts and hashes a raw password.
func (c *Codec) Encode(raw string) (string, error) {
	return c.hasher.Hash(c.Salt(raw))
}

// Matches reports whether raw, once salted, matches the encoded password.
func (c *Codec) Matches(raw, encoded string) (bool, error) {
	return c.MatchesSalted(c.Salt(raw), encoded)
}

// MatchesSalted checks a password that already carries the static salt.
func (c *Codec) MatchesSalted(salted, encoded string) (bool, error) {
	return c.hasher.Verify(salted, encoded)
}

// RandomPassword returns a throwaway credential for accounts that have not been
// activated yet.
func RandomPassword() string {
	return uuid.NewString()
}
