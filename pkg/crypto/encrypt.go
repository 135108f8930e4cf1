package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Ошибки шифрования
var (
	ErrInvalidKeyLength   = errors.New("encryption key must be exactly 32 bytes for AES-256")
	ErrInvalidCiphertext  = errors.New("invalid ciphertext")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailed   = errors.New("decryption failed: authentication error")
)

// KeySize - длина мастер-ключа и производного ключа (AES-256)
const KeySize = 32

// credentialKeyInfo - контекст HKDF для ключа шифрования API ключей.
// Изменение значения делает все ранее сохранённые ключи нечитаемыми.
const credentialKeyInfo = "tradelink/credentials/v1"

// Cipher шифрует учётные данные вендоров перед сохранением в БД
//
// AES-256-GCM со случайным nonce на каждую запись (nonce хранится перед шифротекстом).
// Ключ шифрования выводится из мастер-ключа ENCRYPTION_KEY через HKDF-SHA256,
// мастер-ключ напрямую для шифрования не используется.
//
// Cipher не хранит изменяемого состояния и безопасен для конкурентного использования.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher создаёт Cipher из 32-байтного мастер-ключа
func NewCipher(masterKey []byte) (*Cipher, error) {
	if len(masterKey) != KeySize {
		return nil, ErrInvalidKeyLength
	}

	dataKey := make([]byte, KeySize)
	kdf := hkdf.New(sha256.New, masterKey, nil, []byte(credentialKeyInfo))
	if _, err := io.ReadFull(kdf, dataKey); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(dataKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: gcm}, nil
}

// Encrypt шифрует plaintext, возвращает base64-encoded строку
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// GCM добавляет аутентификационный тег автоматически
	ciphertext := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt расшифровывает base64-encoded ciphertext
func (c *Cipher) Decrypt(ciphertextBase64 string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextBase64)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", ErrCiphertextTooShort
	}

	nonce, data := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := c.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// GenerateKey генерирует криптографически стойкий мастер-ключ
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// ValidateKey проверяет, что ключ имеет правильную длину
func ValidateKey(key []byte) error {
	if len(key) != KeySize {
		return ErrInvalidKeyLength
	}
	return nil
}
