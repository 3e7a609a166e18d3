package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
)

// AdminRealm is the HTTP Basic realm of the protected endpoints.
const AdminRealm = "portfolio admin"

// AdminUser is the user name expected alongside the admin password.
const AdminUser = "admin"

// AdminOnly protects next with HTTP Basic authentication against the
// bcrypt hash in ADMIN_PASSWORD_HASH. Without a configured hash the
// protected endpoints answer 403.
func (h *Handlers) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.adminHash) == 0 {
			writeJSONError(w, "Admin endpoints are disabled", http.StatusForbidden)
			return
		}

		user, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+AdminRealm+`", charset="UTF-8"`)
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if user != AdminUser || bcrypt.CompareHashAndPassword(h.adminHash, []byte(password)) != nil {
			metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
			logging.Warn("Failed admin login from %s", sanitizeForLog(r.RemoteAddr))
			w.Header().Set("WWW-Authenticate", `Basic realm="`+AdminRealm+`", charset="UTF-8"`)
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
		next.ServeHTTP(w, r)
	})
}
