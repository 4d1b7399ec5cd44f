package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	corsAllowHeaders  = "Authorization, Content-Type, X-Request-Id"
	corsAllowMethods  = "GET, POST, DELETE, OPTIONS"
	corsExposeHeaders = "X-Request-Id"
	corsMaxAge        = "600"
)

// OriginPolicy decides which browser origins may call the booking gateway.
// Entries are exact origins, "*" for any origin, or a subdomain wildcard such
// as "https://*.clinic.example" matching one or more labels under the host.
type OriginPolicy struct {
	any      bool
	exact    map[string]struct{}
	suffixes []originSuffix
}

type originSuffix struct {
	scheme string
	host   string
}

// NewOriginPolicy parses CORS_ALLOWED_ORIGINS entries. Blank and malformed
// entries are skipped.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{exact: make(map[string]struct{})}
	for _, raw := range origins {
		origin := strings.TrimRight(strings.TrimSpace(raw), "/")
		switch {
		case origin == "":
		case origin == "*":
			p.any = true
		case strings.Contains(origin, "://*."):
			scheme, host, _ := strings.Cut(origin, "://*.")
			if scheme != "" && host != "" {
				p.suffixes = append(p.suffixes, originSuffix{scheme: strings.ToLower(scheme), host: "." + strings.ToLower(host)})
			}
		default:
			p.exact[strings.ToLower(origin)] = struct{}{}
		}
	}
	return p
}

// Empty reports whether the policy allows nothing.
func (p *OriginPolicy) Empty() bool {
	return p == nil || (!p.any && len(p.exact) == 0 && len(p.suffixes) == 0)
}

// Allows reports whether origin may receive CORS headers.
func (p *OriginPolicy) Allows(origin string) bool {
	if p.Empty() || origin == "" {
		return false
	}
	if p.any {
		return true
	}
	origin = strings.ToLower(origin)
	if _, ok := p.exact[origin]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	for _, s := range p.suffixes {
		if u.Scheme == s.scheme && strings.HasSuffix(u.Host, s.host) {
			return true
		}
	}
	return false
}

// CORS applies policy to booking routes. Preflights from origins outside the
// policy are refused with 403 so browsers fail fast instead of sending the
// real request.
func CORS(policy *OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")

			allowed := policy.Allows(origin)
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !allowed {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			if preflight {
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
