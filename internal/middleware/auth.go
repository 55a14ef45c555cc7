// Package middleware содержит HTTP middleware для сервиса майнера.
package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	adminCookieName = "admin_token"
	adminCookieTTL  = 24 * time.Hour

	adminSubject = "admin"
)

// AdminAuth выполняет проверку доступа администратора по подписанному cookie.
// Ключ подписи запрашивается у источника при каждом обращении: смена
// административного секрета немедленно отзывает ранее выданные cookie.
type AdminAuth struct {
	secretFn func() string
	fallback []byte
}

// NewAdminAuth создаёт новый экземпляр AdminAuth с указанным источником
// секретного ключа.
func NewAdminAuth(secretFn func() string) *AdminAuth {
	fallback := make([]byte, 32)
	if _, err := rand.Read(fallback); err != nil {
		fallback = []byte("default-secret-key")
	}

	return &AdminAuth{
		secretFn: secretFn,
		fallback: fallback,
	}
}

func (a *AdminAuth) key() []byte {
	if a.secretFn != nil {
		if secret := a.secretFn(); secret != "" {
			return []byte(secret)
		}
	}
	return a.fallback
}

// Middleware проверяет cookie администратора и отклоняет запрос без валидной подписи.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(adminCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		if !a.verify(cookie.Value) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetAuthCookie устанавливает cookie администратора после успешного входа.
func (a *AdminAuth) SetAuthCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     adminCookieName,
		Value:    a.sign(adminSubject),
		Path:     "/",
		Expires:  time.Now().Add(adminCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (a *AdminAuth) sign(subject string) string {
	mac := hmac.New(sha256.New, a.key())
	mac.Write([]byte(subject))
	signature := mac.Sum(nil)
	return subject + "." + hex.EncodeToString(signature)
}

func (a *AdminAuth) verify(cookieValue string) bool {
	return hmac.Equal([]byte(cookieValue), []byte(a.sign(adminSubject)))
}
