package middleware

import (
	"net"
	"net/http"
	"strings"
)

// HSTS asks browsers to enforce HTTPS for a year, subdomains included.
func HSTS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// SecureCookies rewrites outgoing Set-Cookie headers so every cookie
// carries Secure, HttpOnly and a SameSite attribute.
func SecureCookies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&secureCookieWriter{ResponseWriter: w}, r)
	})
}

type secureCookieWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *secureCookieWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// WriteHeader hardens any Set-Cookie headers just before they go out.
func (w *secureCookieWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	header := w.ResponseWriter.Header()
	if cookies := header["Set-Cookie"]; len(cookies) > 0 {
		header.Del("Set-Cookie")
		for _, c := range cookies {
			header.Add("Set-Cookie", hardenCookie(c))
		}
	}

	w.ResponseWriter.WriteHeader(statusCode)
}

func hardenCookie(cookie string) string {
	parts := strings.Split(cookie, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	has := func(attr string) bool {
		for _, p := range parts {
			if strings.EqualFold(p, attr) || strings.HasPrefix(strings.ToLower(p), strings.ToLower(attr)+"=") {
				return true
			}
		}
		return false
	}

	if !has("Secure") {
		parts = append(parts, "Secure")
	}
	if !has("HttpOnly") {
		parts = append(parts, "HttpOnly")
	}
	if !has("SameSite") {
		parts = append(parts, "SameSite=Strict")
	}

	return strings.Join(parts, "; ")
}

// RequireHTTPS redirects plain-HTTP requests to their HTTPS equivalent.
// Only use this when the process terminates TLS itself, not behind a
// proxy that already does.
func RequireHTTPS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" && r.URL.Scheme != "https" {
			http.Redirect(w, r, "https://"+r.Host+r.RequestURI, http.StatusMovedPermanently)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsHostAllowed reports whether host matches the allowed-hosts list,
// ignoring case and ports. An empty list allows everything. Used to keep
// the HTTP-to-HTTPS redirect from becoming an open redirect.
func IsHostAllowed(host string, allowedHosts []string) bool {
	if len(allowedHosts) == 0 {
		return true
	}

	hostname := normalizeHost(host)
	for _, allowed := range allowedHosts {
		if hostname == normalizeHost(allowed) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
