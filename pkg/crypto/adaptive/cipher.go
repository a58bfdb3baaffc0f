package adaptive

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"runtime"
)

// CipherType identifies the AEAD algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// Cipher seals and opens byte payloads with authenticated encryption.
// A fresh random nonce is generated per Encrypt and prepended to the
// ciphertext, so sealed payloads are self-contained.
type Cipher interface {
	Type() CipherType
	Encrypt(plaintext, additionalData []byte) ([]byte, error)
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}

// New selects the cipher for the running platform: AES-GCM where AES
// is hardware accelerated, ChaCha20-Poly1305 elsewhere.
func New(key []byte) (Cipher, error) {
	if preferAES() {
		return NewAESGCM(key)
	}
	return NewChaCha20(key)
}

// NewWithType creates a cipher of the given type, bypassing platform
// selection. Useful when sealed data must stay portable across hosts.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, errors.New("adaptive: unknown cipher type " + string(cipherType))
	}
}

// preferAES reports whether Go's crypto/aes runs on dedicated CPU
// instructions here. amd64 has AES-NI, arm64 the ARMv8 crypto
// extensions; everywhere else ChaCha20 wins on software speed.
func preferAES() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}

// sealer implements Cipher over any AEAD.
type sealer struct {
	kind CipherType
	aead cipher.AEAD
}

func (s *sealer) Type() CipherType { return s.kind }

func (s *sealer) NonceSize() int { return s.aead.NonceSize() }

func (s *sealer) Overhead() int { return s.aead.Overhead() }

func (s *sealer) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (s *sealer) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < s.aead.NonceSize() {
		return nil, errors.New("adaptive: ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:s.aead.NonceSize()], ciphertext[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, sealed, additionalData)
}
