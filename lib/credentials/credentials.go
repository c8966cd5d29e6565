// Package credentials decrypts the portal password kept in configuration.
//
// Passwords are AES-256-CTR encrypted and hex encoded. The IV is the first 16
// hex characters of SHA-512(seed), so only the 32 byte key and the seed need
// to be kept next to the ciphertext.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

const keySize = 32

// Config is the credentials block of a config file. Password wins over
// PasswordEncrypted when both are set.
type Config struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	PasswordEncrypted string `json:"password_encrypted"`
	Key               string `json:"key"`
	Iv                string `json:"iv"`
}

// GetPassword returns the plaintext password.
func (c Config) GetPassword() (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}
	if c.PasswordEncrypted == "" {
		return "", fmt.Errorf("no password configured for %q", c.Username)
	}
	return Decrypt(c.Key, c.Iv, c.PasswordEncrypted)
}

func deriveIv(seed string) []byte {
	digest := sha512.Sum512([]byte(seed))
	return []byte(hex.EncodeToString(digest[:])[:aes.BlockSize])
}

func newStream(key, ivSeed string) (cipher.Stream, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, deriveIv(ivSeed)), nil
}

func Decrypt(key, ivSeed, ciphertextHex string) (string, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	stream, err := newStream(key, ivSeed)
	if err != nil {
		return "", err
	}
	plaintext := make([]byte, len(ciphertext))
	stream.XORKeyStream(plaintext, ciphertext)
	return string(plaintext), nil
}

func Encrypt(key, ivSeed, plaintext string) (string, error) {
	stream, err := newStream(key, ivSeed)
	if err != nil {
		return "", err
	}
	ciphertext := make([]byte, len(plaintext))
	stream.XORKeyStream(ciphertext, []byte(plaintext))
	return hex.EncodeToString(ciphertext), nil
}
