// Package security seals the clinical fields of patient profiles at rest.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/vitalvision/backend/pkg/model"
)

// sealedPrefix marks values written by an Encryptor. Values without it are
// returned unchanged by Decrypt, so rows stored before encryption was enabled
// stay readable.
const sealedPrefix = "enc:v1:"

// Encryptor handles AES-256-GCM encryption of sensitive health data
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates a new encryptor with a 32-byte key for AES-256
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes for AES-256, got %d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encryptor{aead: aead}, nil
}

// KeyFromBase64 decodes a standard base64 key
func KeyFromBase64(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	return key, nil
}

// Encrypt encrypts plaintext. The empty string stays empty.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// nonce || ciphertext || tag
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values that were never encrypted are returned
// as they are.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	encoded, ok := strings.CutPrefix(ciphertext, sealedPrefix)
	if !ok {
		return ciphertext, nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}

// clinicalFields lists the profile fields sealed at rest
func clinicalFields(p *model.Patient) map[string]**string {
	return map[string]**string{
		"medical_diagnosis":   &p.MedicalDiagnosis,
		"current_medications": &p.CurrentMedications,
	}
}

// SealPatient encrypts the clinical fields of p in place
func (e *Encryptor) SealPatient(p *model.Patient) error {
	for name, field := range clinicalFields(p) {
		if *field == nil {
			continue
		}
		sealed, err := e.Encrypt(**field)
		if err != nil {
			return fmt.Errorf("failed to encrypt field %s: %w", name, err)
		}
		*field = &sealed
	}
	return nil
}

// OpenPatient decrypts the clinical fields of p in place
func (e *Encryptor) OpenPatient(p *model.Patient) error {
	for name, field := range clinicalFields(p) {
		if *field == nil {
			continue
		}
		plain, err := e.Decrypt(**field)
		if err != nil {
			return fmt.Errorf("failed to decrypt field %s: %w", name, err)
		}
		*field = &plain
	}
	return nil
}
