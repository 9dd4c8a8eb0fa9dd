package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPasswordHash = errors.New("invalid password hash format")

const argonSaltLen = 16

// argonParams are the cost settings encoded in a PHC-style argon2id string.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

var currentArgon = argonParams{memory: 64 * 1024, time: 3, threads: 2, keyLen: 32}

func (p argonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

func (p argonParams) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

// HashPassword derives an argon2id hash with a fresh random salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return currentArgon.encode(salt, currentArgon.derive(password, salt)), nil
}

// VerifyPassword checks password against an argon2id or bcrypt encoding.
// bcrypt is accepted for records imported from the legacy store.
func VerifyPassword(encoded, password string) (bool, error) {
	if isBcryptHash(encoded) {
		return verifyBcrypt(encoded, password)
	}
	params, salt, expected, err := parseArgonHash(encoded)
	if err != nil {
		return false, err
	}
	actual := params.derive(password, salt)
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}

// NeedsRehash reports whether encoded was produced by anything other than
// the current argon2id parameters.
func NeedsRehash(encoded string) bool {
	if isBcryptHash(encoded) {
		return true
	}
	params, _, _, err := parseArgonHash(encoded)
	return err != nil || params != currentArgon
}

func verifyBcrypt(encoded, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}
}

func isBcryptHash(encoded string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, prefix) {
			return true
		}
	}
	return false
}

// parseArgonHash splits $argon2id$v=19$m=..,t=..,p=..$salt$key.
func parseArgonHash(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return p, nil, nil, ErrInvalidPasswordHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params", ErrInvalidPasswordHash)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt", ErrInvalidPasswordHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || uint64(len(key)) > math.MaxUint32 {
		return p, nil, nil, fmt.Errorf("%w: key", ErrInvalidPasswordHash)
	}
	// #nosec G115 -- bounded by the MaxUint32 check above.
	p.keyLen = uint32(len(key))
	return p, salt, key, nil
}
