package leads

import (
	"context"
	"testing"
)

func TestUpsertKeyedBySession(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, err := repo.Upsert(ctx, &UpsertLeadRequest{
		ListingID:     "S1",
		SessionID:     "SESS1",
		InterestLevel: InterestMedium,
		Status:        StatusQualified,
		Notes:         "asked about a tour",
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := repo.Upsert(ctx, &UpsertLeadRequest{
		ListingID:     "S1",
		SessionID:     "SESS1",
		InterestLevel: InterestHigh,
		Status:        StatusQualified,
		Notes:         "wants to buy",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second upsert created a new row: %s vs %s", second.ID, first.ID)
	}

	all, err := repo.List(ctx, ListLeadsFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one lead per session, got %d", len(all))
	}
	if all[0].InterestLevel != InterestHigh || all[0].Notes != "wants to buy" {
		t.Errorf("second write did not replace mutable fields: %+v", all[0])
	}
}

func TestUpsertValidation(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, &UpsertLeadRequest{ListingID: "S1"}); err != ErrMissingSessionID {
		t.Errorf("expected ErrMissingSessionID, got %v", err)
	}
	if _, err := repo.Upsert(ctx, &UpsertLeadRequest{SessionID: "SESS1"}); err != ErrMissingListingID {
		t.Errorf("expected ErrMissingListingID, got %v", err)
	}
}

func TestGetBySessionNotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.GetBySession(context.Background(), "nope"); err != ErrLeadNotFound {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, _ = repo.Upsert(ctx, &UpsertLeadRequest{ListingID: "S1", SessionID: "A", Status: StatusQualified, InterestLevel: InterestLow})
	_, _ = repo.Upsert(ctx, &UpsertLeadRequest{ListingID: "S1", SessionID: "B", Status: StatusUnqualified, InterestLevel: InterestLow})

	qualified, err := repo.List(ctx, ListLeadsFilter{Status: StatusQualified})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(qualified) != 1 || qualified[0].SessionID != "A" {
		t.Errorf("unexpected filtered result %+v", qualified)
	}
}

func TestInterestForScore(t *testing.T) {
	cases := []struct {
		score int
		want  InterestLevel
	}{
		{0, InterestLow},
		{24, InterestLow},
		{25, InterestMedium},
		{45, InterestMedium},
		{50, InterestHigh},
		{100, InterestHigh},
	}
	for _, tc := range cases {
		if got := InterestForScore(tc.score); got != tc.want {
			t.Errorf("score %d: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}
