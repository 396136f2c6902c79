package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/resort-storefront/internal/config"
)

// ScopeFunc names the group a cached response belongs to, so the whole
// group can be dropped at once. Review pages are scoped by room slug.
type ScopeFunc func(c echo.Context) string

// ParamScope scopes by a path parameter.
func ParamScope(name string) ScopeFunc {
	return func(c echo.Context) string { return c.Param(name) }
}

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// scopePrefix is the key prefix shared by every entry of one scope.
func scopePrefix(prefix, scope string) string {
	if scope == "" {
		scope = "_"
	}
	return prefix + ":" + scope + ":"
}

// cacheKeyFrom builds prefix:scope:sha1(strategy parts).
func cacheKeyFrom(cfg config.CacheConfig, scope string, c echo.Context) string {
	r := c.Request()
	path := r.URL.Path
	query := r.URL.RawQuery

	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", path}
	case "method_route":
		parts = []string{"method", r.Method, "route", path}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", path, "q", query}
	default: // "route_query"
		parts = []string{"route", path, "q", query}
	}

	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s%x", scopePrefix(cfg.Prefix, scope), sum[:])
}

// perRequestHeaders belong to one response only and are never stored or
// replayed. Set-Cookie carries the visitor's session id.
var perRequestHeaders = map[string]bool{
	"Set-Cookie":        true,
	"Content-Length":    true,
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"X-Cache":           true,
}

func storableHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vals := range h {
		if perRequestHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	hdr := make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, hdr, bs[8+hlen:], true
}

// NewRedisCache stores headers + body of 200 responses so a hit replays
// what the handler wrote, minus per-request headers such as cookies.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, scope ScopeFunc) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if scope == nil {
		scope = func(echo.Context) string { return "" }
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, scope(c), c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range storableHeaders(hdr) {
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			// truncated bodies are not stored
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}
			hdr := storableHeaders(c.Response().Header())
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
			}
			return nil
		}
	}
}

// InvalidateCache deletes every cached response in scope and returns how
// many keys were removed.
func InvalidateCache(ctx context.Context, rdb *redis.Client, prefix, scope string) (int, error) {
	if rdb == nil {
		return 0, nil
	}
	match := scopePrefix(prefix, scope) + "*"
	removed := 0
	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scan %s: %w", match, err)
		}
		if len(keys) > 0 {
			n, err := rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete cached pages: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
