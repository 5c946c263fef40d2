package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	aliasAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// GeneratedAliasLength — длина автоматически сгенерированного алиаса.
	GeneratedAliasLength = 6
	// MaxCustomAliasLength — максимальная длина пользовательского алиаса.
	MaxCustomAliasLength = 16
)

// GenerateAlias создаёт случайный алиас заданной длины из URL-safe алфавита.
func GenerateAlias(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(aliasAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("alias generation failed: %w", err)
		}
		b[i] = aliasAlphabet[n.Int64()]
	}
	return string(b), nil
}

// ValidAlias проверяет длину и алфавит пользовательского алиаса.
func ValidAlias(alias string) bool {
	if alias == "" || len(alias) > MaxCustomAliasLength {
		return false
	}
	for i := 0; i < len(alias); i++ {
		if !strings.ContainsRune(aliasAlphabet, rune(alias[i])) {
			return false
		}
	}
	return true
}

// EnsureProtocol добавляет https:// к адресу без схемы.
// Адреса с http:// или https:// возвращаются как есть.
func EnsureProtocol(target string) string {
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return target
	}
	return "https://" + target
}
