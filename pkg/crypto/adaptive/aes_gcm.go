package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// NewAESGCM creates an AES-GCM cipher. The key selects the AES
// variant: 16, 24, or 32 bytes for AES-128, AES-192, or AES-256.
func NewAESGCM(key []byte) (Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errors.New("adaptive: AES-GCM key must be 16, 24, or 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &sealer{kind: CipherAESGCM, aead: aead}, nil
}
