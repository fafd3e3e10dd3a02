package sweeper

import (
	"testing"
	"time"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

// fakeListingRepo implements just enough of repository.ListingRepository to
// drive expiry passes.
type fakeListingRepo struct {
	listings map[uint]*models.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[uint]*models.Listing)}
}

func (f *fakeListingRepo) Create(l *models.Listing) error            { f.listings[l.ID] = l; return nil }
func (f *fakeListingRepo) GetByID(id uint) (*models.Listing, error)  { return f.listings[id], nil }
func (f *fakeListingRepo) GetByUUID(string) (*models.Listing, error) { return nil, nil }
func (f *fakeListingRepo) Update(l *models.Listing) error            { return nil }
func (f *fakeListingRepo) SetFeatured(uint, bool) error              { return nil }
func (f *fakeListingRepo) ListByUserID(uint, int, int) ([]models.Listing, error) {
	return nil, nil
}
func (f *fakeListingRepo) Count() (int64, error)                         { return 0, nil }
func (f *fakeListingRepo) CountByStatus(lifecycle.Status) (int64, error) { return 0, nil }
func (f *fakeListingRepo) CountCreatedSince(time.Time) (int64, error)    { return 0, nil }

func (f *fakeListingRepo) ListExpired(now time.Time, limit int) ([]models.Listing, error) {
	out := make([]models.Listing, 0)
	for _, l := range f.listings {
		status := lifecycle.Normalize(l.Status)
		if status == lifecycle.StatusLive && l.ExpiresAt != nil && !l.ExpiresAt.After(now) {
			out = append(out, *l)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeListingRepo) UpdateStatusIf(id uint, from, to lifecycle.Status, expiresAt *time.Time) error {
	l, ok := f.listings[id]
	if !ok || l.Status != from {
		return models.ErrListingStatusConflict
	}
	l.Status = to
	if expiresAt != nil {
		l.ExpiresAt = expiresAt
	}
	return nil
}

func TestExpireOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	repo := newFakeListingRepo()
	repo.listings[1] = &models.Listing{ID: 1, Status: lifecycle.StatusLive, ExpiresAt: &past}
	repo.listings[2] = &models.Listing{ID: 2, Status: lifecycle.StatusLive, ExpiresAt: &future}
	repo.listings[3] = &models.Listing{ID: 3, Status: lifecycle.StatusApproved, ExpiresAt: &past}
	repo.listings[4] = &models.Listing{ID: 4, Status: lifecycle.StatusDraft, ExpiresAt: &past}

	s := New(repo)
	s.now = func() time.Time { return now }

	n, err := s.ExpireOverdue()
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if n != 2 {
		t.Fatalf("expired %d listings, want 2", n)
	}

	if got := repo.listings[1].Status; got != lifecycle.StatusExpired {
		t.Fatalf("overdue live listing status = %s, want EXPIRED", got)
	}
	if got := repo.listings[2].Status; got != lifecycle.StatusLive {
		t.Fatalf("future listing status = %s, must stay LIVE", got)
	}
	if got := repo.listings[3].Status; got != lifecycle.StatusExpired {
		t.Fatalf("overdue legacy-approved listing status = %s, want EXPIRED", got)
	}
	if got := repo.listings[4].Status; got != lifecycle.StatusDraft {
		t.Fatalf("draft listing status = %s, must stay DRAFT", got)
	}
}

func TestExpireOverdue_EmptyStore(t *testing.T) {
	s := New(newFakeListingRepo())

	n, err := s.ExpireOverdue()
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if n != 0 {
		t.Fatalf("expired %d listings, want 0", n)
	}
}
