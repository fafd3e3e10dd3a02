package sitesettings

import (
	"fmt"
	"time"
)

// Setting keys read by the marketplace core.
const (
	KeyListingFeePence     = "listing_fee_pence"
	KeyFeaturedFeePence    = "featured_fee_pence"
	KeyListingDurationDays = "listing_duration_days"
	KeyLaunchFreeUntil     = "launch_free_until"
	KeySiteTitle           = "site_title"
	KeyListingsEnabled     = "listings_enabled"
)

// Defaults applied when a setting is missing or unparseable.
const (
	DefaultListingFeePence     = 499 // £4.99
	DefaultFeaturedFeePence    = 499
	DefaultListingDurationDays = 30
)

// ListingFeePence is the charge for a standard listing.
func (c *Cache) ListingFeePence() int64 {
	return int64(c.GetInt(KeyListingFeePence, DefaultListingFeePence))
}

// FeaturedFeePence is the charge for a featured upgrade.
func (c *Cache) FeaturedFeePence() int64 {
	return int64(c.GetInt(KeyFeaturedFeePence, DefaultFeaturedFeePence))
}

// ListingDurationDays is the publication window applied on approval.
func (c *Cache) ListingDurationDays() int {
	return c.GetInt(KeyListingDurationDays, DefaultListingDurationDays)
}

// ListingsEnabled gates listing creation site-wide.
func (c *Cache) ListingsEnabled() bool {
	return c.GetBool(KeyListingsEnabled, true)
}

// IsListingFreeNow reports whether the launch free-listing window is still
// open. The window is an RFC 3339 timestamp; absent or unparseable values
// mean no free window.
func (c *Cache) IsListingFreeNow(now time.Time) bool {
	raw, ok := c.Get(KeyLaunchFreeUntil)
	if !ok || raw == "" {
		return false
	}
	until, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false
	}
	return !now.After(until)
}

// CalculateListingFee totals the listing charge with an optional featured
// upgrade.
func (c *Cache) CalculateListingFee(featured bool) int64 {
	total := c.ListingFeePence()
	if featured {
		total += c.FeaturedFeePence()
	}
	return total
}

// FormatPricePence renders a pence amount for display.
func FormatPricePence(pence int64) string {
	if pence%100 == 0 {
		return fmt.Sprintf("£%d", pence/100)
	}
	return fmt.Sprintf("£%.2f", float64(pence)/100)
}
