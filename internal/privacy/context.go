package privacy

import "github.com/gofiber/fiber/v2"

// UnknownValue is the sentinel recorded when request metadata is absent.
const UnknownValue = "unknown"

// RequestMeta captures the request attributes attached to consent records
// and audit entries.
type RequestMeta struct {
	IPAddress   string
	UserAgent   string
	CountryCode string
}

// MetaFromRequest extracts IP, user agent and geolocation country from a
// Fiber request. Country headers are checked in the order our edge proxies
// set them.
func MetaFromRequest(c *fiber.Ctx) RequestMeta {
	meta := RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	for _, header := range []string{"CF-IPCountry", "X-Country-Code", "X-Appengine-Country"} {
		if v := c.Get(header); v != "" {
			meta.CountryCode = v
			break
		}
	}
	return meta
}

// OrUnknown fills empty metadata fields with the sentinel value.
func (m RequestMeta) OrUnknown() RequestMeta {
	out := m
	if out.IPAddress == "" {
		out.IPAddress = UnknownValue
	}
	if out.UserAgent == "" {
		out.UserAgent = UnknownValue
	}
	return out
}
