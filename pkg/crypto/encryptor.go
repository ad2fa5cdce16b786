package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

var ErrMissingKey = errors.New("encryption key is required")

// Encryptor opens payloads sealed to this instance's age identity and seals
// payloads for any age recipient. Sealed payloads are ASCII armored.
type Encryptor struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewEncryptor parses an AGE-SECRET-KEY identity.
func NewEncryptor(key string) (*Encryptor, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrMissingKey
	}
	identity, err := age.ParseX25519Identity(strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}
	return &Encryptor{
		identity:  identity,
		recipient: identity.Recipient(),
	}, nil
}

// NewEphemeralEncryptor generates a throwaway identity. Anything sealed to
// it is unreadable after a restart, so it is only meant for development.
func NewEphemeralEncryptor() (*Encryptor, error) {
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewEncryptor(key)
}

// GenerateKey generates a new encryption key and returns it
func GenerateKey() (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("generating identity: %w", err)
	}
	return identity.String(), nil
}

// PublicKey returns the age recipient payloads must be sealed to.
func (e *Encryptor) PublicKey() string {
	return e.recipient.String()
}

// Seal encrypts plaintext to this instance.
func (e *Encryptor) Seal(plaintext []byte) (string, error) {
	return seal(e.recipient, plaintext)
}

// SealFor encrypts plaintext to another instance's public key.
func SealFor(publicKey string, plaintext []byte) (string, error) {
	recipient, err := age.ParseX25519Recipient(strings.TrimSpace(publicKey))
	if err != nil {
		return "", fmt.Errorf("parsing recipient: %w", err)
	}
	return seal(recipient, plaintext)
}

// Open decrypts an armored payload sealed to this instance.
func (e *Encryptor) Open(sealed string) ([]byte, error) {
	r, err := age.Decrypt(armor.NewReader(strings.NewReader(strings.TrimSpace(sealed))), e.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting payload: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading plaintext: %w", err)
	}
	return plaintext, nil
}

func seal(recipient age.Recipient, plaintext []byte) (string, error) {
	var buf bytes.Buffer
	aw := armor.NewWriter(&buf)

	w, err := age.Encrypt(aw, recipient)
	if err != nil {
		return "", fmt.Errorf("creating encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing encryptor: %w", err)
	}
	if err := aw.Close(); err != nil {
		return "", fmt.Errorf("closing armor: %w", err)
	}
	return buf.String(), nil
}

// GenerateRandomString generates a cryptographically secure URL-safe token.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
