// Package adaptive provides authenticated encryption with automatic
// algorithm selection. Larder uses it to seal cached snapshots at
// rest.
//
// The platform picks the cipher: AES-GCM where AES is hardware
// accelerated (amd64, arm64), ChaCha20-Poly1305 elsewhere. Both are
// AEADs, so sealed snapshot bodies are tamper-evident as well as
// confidential.
//
//	cipher, err := adaptive.New(key)
//	sealed, err := cipher.Encrypt(body, nil)
//	body, err = cipher.Decrypt(sealed, nil)
package adaptive
