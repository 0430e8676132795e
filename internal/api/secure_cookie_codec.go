package api

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	secureCookieVersion = "v1"
	secureCookieKeyInfo = "ifla.secure-cookie.v1"
	secureCookieAADBase = "ifla.cookie."
)

var errInvalidSecureCookieValue = errors.New("invalid secure cookie value")

// secureCookieCodec encrypts cookie payloads with AES-GCM. Values are always sealed with
// the first key; any key may open them, so a retired secret keeps working during rotation.
type secureCookieCodec struct {
	keys []cipher.AEAD
}

func newSecureCookieCodec(current []byte, previous ...[]byte) (*secureCookieCodec, error) {
	if len(current) == 0 {
		return nil, errors.New("secure cookie secret key is required")
	}

	codec := &secureCookieCodec{}
	for _, secret := range append([][]byte{current}, previous...) {
		if len(secret) == 0 {
			continue
		}
		aead, err := cookieAEAD(secret)
		if err != nil {
			return nil, err
		}
		codec.keys = append(codec.keys, aead)
	}
	return codec, nil
}

func cookieAEAD(secret []byte) (cipher.AEAD, error) {
	key := sha256.Sum256(append([]byte(secureCookieKeyInfo), secret...))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init secure cookie cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init secure cookie aead: %w", err)
	}
	return aead, nil
}

func cookieAAD(purpose string) ([]byte, error) {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, errors.New("secure cookie purpose is required")
	}
	return []byte(secureCookieAADBase + purpose), nil
}

func (codec *secureCookieCodec) seal(purpose string, plaintext []byte) (string, error) {
	aad, err := cookieAAD(purpose)
	if err != nil {
		return "", err
	}
	if codec == nil || len(codec.keys) == 0 {
		return "", errors.New("secure cookie codec is not initialized")
	}

	aead := codec.keys[0]
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate secure cookie nonce: %w", err)
	}
	payload := aead.Seal(nonce, nonce, plaintext, aad)
	return secureCookieVersion + "." + base64.RawURLEncoding.EncodeToString(payload), nil
}

func (codec *secureCookieCodec) open(purpose string, value string) ([]byte, error) {
	aad, err := cookieAAD(purpose)
	if err != nil {
		return nil, err
	}
	if codec == nil || len(codec.keys) == 0 {
		return nil, errors.New("secure cookie codec is not initialized")
	}

	version, encoded, found := strings.Cut(strings.TrimSpace(value), ".")
	if !found || version != secureCookieVersion || encoded == "" {
		return nil, errInvalidSecureCookieValue
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errInvalidSecureCookieValue
	}

	for _, aead := range codec.keys {
		nonceSize := aead.NonceSize()
		if len(payload) <= nonceSize {
			return nil, errInvalidSecureCookieValue
		}
		plaintext, err := aead.Open(nil, payload[:nonceSize], payload[nonceSize:], aad)
		if err == nil {
			return plaintext, nil
		}
	}
	return nil, errInvalidSecureCookieValue
}
