package security

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	Digits      = "0123456789"
	SaltSymbols = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Look-alike characters (0/O, 1/l/I) are left out so passwords can be read aloud.
	passwordUpper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordLower  = "abcdefghijkmnopqrstuvwxyz"
	passwordDigits = "23456789"

	MinTemporaryPasswordLength = 8
)

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
)

// RandomString returns a cryptographically secure, unbiased string of the requested length.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errNegativeLength
	}
	if length == 0 {
		return "", nil
	}
	if len(alphabet) == 0 {
		return "", errEmptyAlphabet
	}

	value := make([]byte, length)
	for index := range value {
		position, err := randomIndex(len(alphabet))
		if err != nil {
			return "", err
		}
		value[index] = alphabet[position]
	}
	return string(value), nil
}

// NumericCode returns a zero-padded decimal code such as a signup passcode.
func NumericCode(length int) (string, error) {
	return RandomString(length, Digits)
}

// TemporaryPassword returns an operator-issued password that always holds an upper case
// letter, a lower case letter and a digit. Lengths below the minimum are raised to it.
func TemporaryPassword(length int) (string, error) {
	if length < MinTemporaryPasswordLength {
		length = MinTemporaryPasswordLength
	}

	required := []string{passwordUpper, passwordLower, passwordDigits}
	value := make([]byte, 0, length)
	for _, class := range required {
		char, err := RandomString(1, class)
		if err != nil {
			return "", err
		}
		value = append(value, char[0])
	}

	rest, err := RandomString(length-len(required), passwordUpper+passwordLower+passwordDigits)
	if err != nil {
		return "", err
	}
	value = append(value, rest...)

	for index := len(value) - 1; index > 0; index-- {
		swap, err := randomIndex(index + 1)
		if err != nil {
			return "", err
		}
		value[index], value[swap] = value[swap], value[index]
	}
	return string(value), nil
}

func randomIndex(limit int) (int, error) {
	position, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return 0, err
	}
	return int(position.Int64()), nil
}
