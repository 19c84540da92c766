// Package credentials генерирует учётные данные для аккаунта на хостинг-панели:
// случайный пароль, имя пользователя из номера телефона и email.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%"

// PasswordLength — длина генерируемого пароля панели.
const PasswordLength = 16

// GeneratePassword возвращает случайный пароль из смешанного алфавита
// (буквы, цифры, символы). Используется crypto/rand.
func GeneratePassword() (string, error) {
	const op = "credentials.GeneratePassword"
	var b strings.Builder
	max := big.NewInt(int64(len(passwordAlphabet)))
	for range PasswordLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Username выводит имя пользователя панели из номера телефона с суффиксом
// из текущего времени. Устойчиво к коллизиям, но уникальность гарантирует
// только удалённая панель при создании аккаунта.
func Username(phone string, now time.Time) string {
	return fmt.Sprintf("user%s%d", digitsOnly(phone), now.Unix()%100000)
}

// Email выводит email для аккаунта панели из номера телефона
// и настроенного домена.
func Email(phone, domain string) string {
	return fmt.Sprintf("%s@%s", digitsOnly(phone), domain)
}

func digitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
