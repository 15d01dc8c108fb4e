package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength  = 16
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 2
	keyLength   = 32

	apiKeyPrefix = "bid_"
)

var ErrInvalidHash = errors.New("invalid hash format")

func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

func HashAPIKey(key string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(key), salt, iterations, memory, parallelism, keyLength)
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", memory, iterations, parallelism, encodedSalt, encodedHash), nil
}

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func parseHash(encoded string) (argonParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return argonParams{}, ErrInvalidHash
	}
	if parts[1] != "argon2id" {
		return argonParams{}, errors.New("unexpected hash algorithm")
	}

	var p argonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return argonParams{}, fmt.Errorf("parse hash params: %w", err)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return argonParams{}, fmt.Errorf("decode salt: %w", err)
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return argonParams{}, fmt.Errorf("decode hash: %w", err)
	}
	return p, nil
}

func VerifyAPIKey(key, encoded string) (bool, error) {
	p, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	return p.matches(key), nil
}

func (p argonParams) matches(key string) bool {
	hash := argon2.IDKey([]byte(key), p.salt, p.iterations, p.memory, p.parallelism, uint32(len(p.hash)))
	return subtle.ConstantTimeCompare(hash, p.hash) == 1
}

// Verifier checks presented keys against one stored argon2id hash. A key
// that verified once is remembered by its sha256 digest so repeat requests
// skip the argon2 cost.
type Verifier struct {
	params argonParams

	mu       sync.Mutex
	accepted map[[sha256.Size]byte]struct{}
}

func NewVerifier(encoded string) (*Verifier, error) {
	p, err := parseHash(encoded)
	if err != nil {
		return nil, err
	}
	return &Verifier{params: p, accepted: make(map[[sha256.Size]byte]struct{})}, nil
}

// KeyID is a short stable fingerprint of key, safe to log and audit.
func KeyID(key string) string {
	digest := sha256.Sum256([]byte(key))
	return "key_" + hex.EncodeToString(digest[:6])
}

func (v *Verifier) Verify(key string) bool {
	if key == "" {
		return false
	}
	digest := sha256.Sum256([]byte(key))

	v.mu.Lock()
	_, ok := v.accepted[digest]
	v.mu.Unlock()
	if ok {
		return true
	}

	if !v.params.matches(key) {
		return false
	}
	v.mu.Lock()
	v.accepted[digest] = struct{}{}
	v.mu.Unlock()
	return true
}
