// Package password encodes user credentials.
//
// A Codec appends the static per-deployment salt (USER_PASSWORD_SALT) to the
// raw password and hands the result to a one-way Hasher, bcrypt by default or
// Argon2id:
//
//	hasher, _ := password.NewHasher(password.HasherBcrypt, bcrypt.DefaultCost)
//	codec := password.NewCodec(hasher, salt)
//	encoded, err := codec.Encode("s3cret")
//	ok, err := codec.Matches("s3cret", encoded)
package password
