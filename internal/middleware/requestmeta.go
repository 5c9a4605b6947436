// Package middleware holds huma middleware shared by every route.
package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/handlers"
)

// RequestMeta stores the caller's IP, user agent and referrer in the request context so
// handlers can attach them to link events.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		next(huma.WithContext(ctx, handlers.ContextWithRequestMeta(ctx.Context(), meta)))
	}
}

// clientIP prefers proxy headers, then the peer address. Header values that are not IPs
// are ignored.
func clientIP(ctx huma.Context) string {
	// The first X-Forwarded-For hop is the original client.
	forwarded, _, _ := strings.Cut(ctx.Header("X-Forwarded-For"), ",")

	for _, candidate := range []string{forwarded, ctx.Header("X-Real-IP")} {
		if ip := net.ParseIP(strings.TrimSpace(candidate)); ip != nil {
			return ip.String()
		}
	}

	addr := ctx.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}
