package recommendation

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/collegeprep-backend/internal/data/repos/testutil"
	types "github.com/yungbote/collegeprep-backend/internal/domain"
)

func TestRecommendationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewRecommendationRepo(db, testutil.Logger(t))
	ctx := context.Background()

	student := uuid.New()
	other := uuid.New()
	rate := 0.42

	created, err := repo.Create(ctx, tx, []*types.Recommendation{
		{StudentID: student, CollegeName: "University of Toronto", FitCategory: types.FitTarget, MatchScore: 0.8, AdmissionChance: 0.5, AcceptanceRate: &rate, MatchReasons: []string{"strong CS program"}},
		{StudentID: student, CollegeName: "MIT", FitCategory: types.FitReach, MatchScore: 0.9, AdmissionChance: 0.1, IsDreamCollege: true},
		{StudentID: student, CollegeName: "McGill University", FitCategory: types.FitSafety, MatchScore: 0.7, AdmissionChance: 0.8},
		{StudentID: other, CollegeName: "UBC", FitCategory: types.FitTarget, MatchScore: 0.6, AdmissionChance: 0.6},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 4 {
		t.Fatalf("Create: expected 4 rows, got %d", len(created))
	}
	for _, rec := range created {
		if rec.ID == uuid.Nil {
			t.Fatalf("Create: expected generated id for %s", rec.CollegeName)
		}
		if rec.GeneratedAt.IsZero() {
			t.Fatalf("Create: expected generated_at for %s", rec.CollegeName)
		}
	}

	listed, err := repo.ListByStudentID(ctx, tx, student)
	if err != nil {
		t.Fatalf("ListByStudentID: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("ListByStudentID: expected 3, got %d", len(listed))
	}
	if listed[0].CollegeName != "MIT" || listed[1].CollegeName != "University of Toronto" {
		t.Fatalf("ListByStudentID: unexpected order: %s, %s", listed[0].CollegeName, listed[1].CollegeName)
	}
	if listed[1].AcceptanceRate == nil || *listed[1].AcceptanceRate != rate {
		t.Fatalf("ListByStudentID: acceptance_rate not round-tripped: %v", listed[1].AcceptanceRate)
	}
	if len(listed[1].MatchReasons) != 1 || listed[1].MatchReasons[0] != "strong CS program" {
		t.Fatalf("ListByStudentID: match_reasons not round-tripped: %v", listed[1].MatchReasons)
	}

	deleted, err := repo.DeleteGeneratedByStudentID(ctx, tx, student)
	if err != nil {
		t.Fatalf("DeleteGeneratedByStudentID: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("DeleteGeneratedByStudentID: expected 2 deleted, got %d", deleted)
	}

	remaining, err := repo.ListByStudentID(ctx, tx, student)
	if err != nil {
		t.Fatalf("ListByStudentID after delete: %v", err)
	}
	if len(remaining) != 1 || !remaining[0].IsDreamCollege {
		t.Fatalf("expected only the dream college to remain, got %+v", remaining)
	}

	otherCount, err := repo.CountByStudentID(ctx, tx, other)
	if err != nil {
		t.Fatalf("CountByStudentID: %v", err)
	}
	if otherCount != 1 {
		t.Fatalf("CountByStudentID: other student's rows must be untouched, got %d", otherCount)
	}
}

func TestRecommendationRepoCreateEmpty(t *testing.T) {
	repo := NewRecommendationRepo(testutil.DB(t), testutil.Logger(t))
	out, err := repo.Create(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Create(nil): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("Create(nil): expected empty, got %d", len(out))
	}
}
