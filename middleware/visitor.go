// middleware/visitor.go
package middleware

import (
	"net/url"
	"strings"
	"time"

	"viral-event-system/attribution"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

const (
	localVisitor    = "visitor_kv"
	localRefArrived = "visitor_ref_arrived"
)

// visitorCookieMaxAge keeps referral and session cookies for about ten years.
const visitorCookieMaxAge = int(10 * 365 * 24 * time.Hour / time.Second)

// cookieKV is the visitor KV for one request. Values set during the request are
// readable immediately and are written back as long-lived cookies. Values are
// copied out of fasthttp's request buffers so they stay valid after the handler.
type cookieKV struct {
	c       *fiber.Ctx
	secure  bool
	pending map[string]string
}

func newCookieKV(c *fiber.Ctx, secure bool) *cookieKV {
	return &cookieKV{c: c, secure: secure, pending: make(map[string]string)}
}

func (kv *cookieKV) Get(key string) (string, bool) {
	if v, ok := kv.pending[key]; ok {
		return v, v != ""
	}
	v := fiberutils.CopyString(kv.c.Cookies(key))
	return v, v != ""
}

func (kv *cookieKV) Set(key, value string) {
	value = fiberutils.CopyString(value)
	kv.pending[key] = value
	kv.c.Cookie(&fiber.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   visitorCookieMaxAge,
		Secure:   kv.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Visitor installs the cookie-backed visitor KV and records any ?ref= code as the
// visitor's active referral code.
func Visitor(secureCookies bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kv := newCookieKV(c, secureCookies)
		_, arrived := attribution.ResolveQuery(kv, url.Values{
			attribution.RefParam: {c.Query(attribution.RefParam)},
		})
		c.Locals(localVisitor, kv)
		c.Locals(localRefArrived, arrived)
		return c.Next()
	}
}

// VisitorKV returns the request's visitor KV. Without the Visitor middleware it
// falls back to a cookie KV over the current request.
func VisitorKV(c *fiber.Ctx) attribution.KV {
	if kv, ok := c.Locals(localVisitor).(attribution.KV); ok {
		return kv
	}
	return newCookieKV(c, false)
}

// ArrivedWithRef reports whether this request carried a usable ?ref= code.
func ArrivedWithRef(c *fiber.Ctx) bool {
	if arrived, ok := c.Locals(localRefArrived).(bool); ok {
		return arrived
	}
	return strings.TrimSpace(c.Query(attribution.RefParam)) != ""
}
