package remote

import (
	"net/url"
	"strings"
)

// MediaURL resolves a video's stored locator against the uploads root.
// Absolute locators are returned unchanged.
func MediaURL(mediaBase, locator string) string {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return ""
	}
	if parsed, err := url.Parse(locator); err == nil && parsed.IsAbs() {
		return locator
	}
	base := strings.TrimRight(strings.TrimSpace(mediaBase), "/")
	return base + "/uploads/" + strings.TrimLeft(locator, "/")
}

// MediaURL resolves locator against the client's configured media host.
func (c *Client) MediaURL(locator string) string {
	base := c.mediaBase
	if base == "" {
		base = c.base.Scheme + "://" + c.base.Host
	}
	return MediaURL(base, locator)
}
