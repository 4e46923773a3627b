package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as superseded by a versioned one.
type DeprecatedRoute struct {
	Path        string // route pattern, ":param" segments match anything
	SunsetDate  time.Time
	Alternative string
}

// legacyRoutes are the unversioned widget endpoints with a /v1 successor.
var legacyRoutes = []DeprecatedRoute{
	{Path: "/get_pois", SunsetDate: time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC), Alternative: "/v1/pois"},
}

// DeprecationMiddleware adds Deprecation, Sunset and Link headers to deprecated endpoints.
// The response body is left untouched.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, d := range deprecated {
			if !matchPattern(c.Path(), d.Path) {
				continue
			}
			c.Set("Deprecation", "true")
			c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))
			if d.Alternative != "" {
				c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
			}
			break
		}
		return c.Next()
	}
}

// matchPattern reports whether path matches pattern segment by segment.
func matchPattern(path, pattern string) bool {
	if path == pattern {
		return true
	}
	ps := strings.Split(strings.Trim(path, "/"), "/")
	qs := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(ps) != len(qs) {
		return false
	}
	for i := range qs {
		if strings.HasPrefix(qs[i], ":") && ps[i] != "" {
			continue
		}
		if ps[i] != qs[i] {
			return false
		}
	}
	return true
}
