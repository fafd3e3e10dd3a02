package sitesettings

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iommarket/marketplace/app/models"
)

// fakeSettingRepo implements repository.SettingRepository in memory and
// counts bulk reads so tests can observe cache behavior.
type fakeSettingRepo struct {
	mu       sync.Mutex
	rows     map[string]models.Setting
	getCalls int
	failNext error
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{rows: make(map[string]models.Setting)}
}

func (f *fakeSettingRepo) GetAll() ([]models.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	out := make([]models.Setting, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeSettingRepo) GetValue(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[key].Value, nil
}

func (f *fakeSettingRepo) SetValue(key, value, valueType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[key] = models.Setting{Key: key, Value: value, Type: valueType}
	return nil
}

func (f *fakeSettingRepo) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, key)
	return nil
}

func (f *fakeSettingRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func newTestCache(repo *fakeSettingRepo) (*Cache, *time.Time) {
	c := NewCache(repo, time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetNumber_MissingKeyReturnsFallback(t *testing.T) {
	repo := newFakeSettingRepo()
	c, _ := newTestCache(repo)

	if got := c.GetNumber("missing_key", 42); got != 42 {
		t.Fatalf("GetNumber(missing) = %v, want 42", got)
	}
}

func TestGetNumber_UnparseableValueReturnsFallback(t *testing.T) {
	repo := newFakeSettingRepo()
	_ = repo.SetValue("listing_fee_pence", "not-a-number", models.SettingTypeNumber)
	c, _ := newTestCache(repo)

	if got := c.GetNumber("listing_fee_pence", 42); got != 42 {
		t.Fatalf("GetNumber(unparseable) = %v, want fallback 42", got)
	}
}

func TestGet_TypedValues(t *testing.T) {
	repo := newFakeSettingRepo()
	_ = repo.SetValue("listing_fee_pence", "799", models.SettingTypeNumber)
	_ = repo.SetValue("site_title", "IOM Market", models.SettingTypeString)
	_ = repo.SetValue("listings_enabled", "false", models.SettingTypeBoolean)
	c, _ := newTestCache(repo)

	if got := c.GetNumber("listing_fee_pence", 0); got != 799 {
		t.Fatalf("GetNumber = %v, want 799", got)
	}
	if got := c.GetString("site_title", ""); got != "IOM Market" {
		t.Fatalf("GetString = %q", got)
	}
	if c.GetBool("listings_enabled", true) {
		t.Fatalf("GetBool should honor the stored false")
	}
}

func TestSnapshot_ServedWithinTTL(t *testing.T) {
	repo := newFakeSettingRepo()
	_ = repo.SetValue("site_title", "IOM Market", models.SettingTypeString)
	c, now := newTestCache(repo)

	c.GetString("site_title", "")
	c.GetString("site_title", "")
	c.GetNumber("listing_fee_pence", 0)
	if repo.calls() != 1 {
		t.Fatalf("expected one bulk read within TTL, got %d", repo.calls())
	}

	*now = now.Add(2 * time.Minute)
	c.GetString("site_title", "")
	if repo.calls() != 2 {
		t.Fatalf("expected refresh after TTL lapse, got %d reads", repo.calls())
	}
}

func TestSnapshot_StaleValueUntilTTLOrInvalidate(t *testing.T) {
	repo := newFakeSettingRepo()
	_ = repo.SetValue("site_title", "old", models.SettingTypeString)
	c, _ := newTestCache(repo)

	if got := c.GetString("site_title", ""); got != "old" {
		t.Fatalf("initial read = %q", got)
	}

	_ = repo.SetValue("site_title", "new", models.SettingTypeString)
	if got := c.GetString("site_title", ""); got != "old" {
		t.Fatalf("read within TTL should serve cached value, got %q", got)
	}

	c.Invalidate()
	if got := c.GetString("site_title", ""); got != "new" {
		t.Fatalf("read after Invalidate should bypass cache, got %q", got)
	}
}

func TestSnapshot_RefreshFailureServesStale(t *testing.T) {
	repo := newFakeSettingRepo()
	_ = repo.SetValue("site_title", "IOM Market", models.SettingTypeString)
	c, now := newTestCache(repo)

	if got := c.GetString("site_title", ""); got != "IOM Market" {
		t.Fatalf("initial read = %q", got)
	}

	*now = now.Add(2 * time.Minute)
	repo.mu.Lock()
	repo.failNext = errors.New("db down")
	repo.mu.Unlock()

	if got := c.GetString("site_title", "fallback"); got != "IOM Market" {
		t.Fatalf("failed refresh should serve the stale snapshot, got %q", got)
	}
}

func TestMarketplaceAccessors(t *testing.T) {
	repo := newFakeSettingRepo()
	c, _ := newTestCache(repo)

	if got := c.ListingFeePence(); got != DefaultListingFeePence {
		t.Fatalf("ListingFeePence default = %d", got)
	}
	if got := c.CalculateListingFee(true); got != DefaultListingFeePence+DefaultFeaturedFeePence {
		t.Fatalf("CalculateListingFee(featured) = %d", got)
	}
	if got := c.ListingDurationDays(); got != DefaultListingDurationDays {
		t.Fatalf("ListingDurationDays default = %d", got)
	}

	_ = repo.SetValue(KeyListingFeePence, "999", models.SettingTypeNumber)
	c.Invalidate()
	if got := c.CalculateListingFee(false); got != 999 {
		t.Fatalf("CalculateListingFee = %d, want 999", got)
	}
}

func TestIsListingFreeNow(t *testing.T) {
	repo := newFakeSettingRepo()
	c, now := newTestCache(repo)

	if c.IsListingFreeNow(*now) {
		t.Fatalf("no free window configured, expected false")
	}

	_ = repo.SetValue(KeyLaunchFreeUntil, now.Add(24*time.Hour).Format(time.RFC3339), models.SettingTypeString)
	c.Invalidate()
	if !c.IsListingFreeNow(*now) {
		t.Fatalf("expected free window to be open")
	}
	if c.IsListingFreeNow(now.Add(48 * time.Hour)) {
		t.Fatalf("expected free window to be closed after the deadline")
	}

	_ = repo.SetValue(KeyLaunchFreeUntil, "not-a-timestamp", models.SettingTypeString)
	c.Invalidate()
	if c.IsListingFreeNow(*now) {
		t.Fatalf("unparseable deadline must mean no free window")
	}
}

func TestFormatPricePence(t *testing.T) {
	tests := []struct {
		pence int64
		want  string
	}{
		{500, "£5"},
		{499, "£4.99"},
		{2999, "£29.99"},
		{0, "£0"},
	}
	for _, tt := range tests {
		if got := FormatPricePence(tt.pence); got != tt.want {
			t.Fatalf("FormatPricePence(%d) = %q, want %q", tt.pence, got, tt.want)
		}
	}
}
