package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	VisitorIDKey contextKey = "visitor_id"
	RequestIDKey contextKey = "request_id"

	VisitorCookie = "visitor"
	visitorMaxAge = 30 * 24 * time.Hour
)

// VisitorAuth gives every browser an anonymous visitor id, carried in a
// signed cookie. Sessions are owned by that id.
type VisitorAuth struct {
	Secret []byte
	Secure bool
	logger *zap.Logger
}

func NewVisitorAuth(secret string, secure bool, logger *zap.Logger) *VisitorAuth {
	return &VisitorAuth{Secret: []byte(secret), Secure: secure, logger: logger}
}

// IssueToken signs a visitor id.
func (v *VisitorAuth) IssueToken(visitorID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   visitorID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(visitorMaxAge)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.Secret)
}

// ParseToken returns the visitor id of a valid token.
func (v *VisitorAuth) ParseToken(tokenStr string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.Secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.Subject)
}

// Middleware attaches the visitor id to the context, minting a new one when
// the cookie is missing or invalid.
func (v *VisitorAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var visitorID uuid.UUID

		if c, err := r.Cookie(VisitorCookie); err == nil {
			if id, err := v.ParseToken(c.Value); err == nil {
				visitorID = id
			}
		}

		if visitorID == uuid.Nil {
			visitorID = uuid.New()
			token, err := v.IssueToken(visitorID)
			if err != nil {
				v.logger.Error("failed to sign visitor token", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", r)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     VisitorCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(visitorMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   v.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), VisitorIDKey, visitorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetVisitorID extracts visitor_id from request context
func GetVisitorID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(VisitorIDKey).(uuid.UUID)
	return id
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
	})
}
