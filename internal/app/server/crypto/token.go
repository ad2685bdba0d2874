package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenSigner выпускает и проверяет токены мобильных устройств.
// Токен — это "<userID>:<deviceID>:<hex hmac-sha256>", подписанный серверным
// секретом; состояния на сервере не требует.
type TokenSigner struct {
	secret []byte
}

func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// Issue выпускает токен для пары пользователь-устройство
func (t *TokenSigner) Issue(userID int, deviceID string) string {
	payload := strconv.Itoa(userID) + ":" + deviceID
	return payload + ":" + t.sign(payload)
}

// Validate проверяет подпись и возвращает владельца токена
func (t *TokenSigner) Validate(token string) (int, string, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) != 3 {
		return 0, "", fmt.Errorf("%w: malformed", ErrInvalidToken)
	}

	payload := parts[0] + ":" + parts[1]
	if !hmac.Equal([]byte(t.sign(payload)), []byte(parts[2])) {
		return 0, "", fmt.Errorf("%w: bad signature", ErrInvalidToken)
	}

	userID, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("%w: bad user id", ErrInvalidToken)
	}

	return userID, parts[1], nil
}

func (t *TokenSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
