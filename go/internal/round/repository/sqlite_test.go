package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/wheelround/go/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "rounds.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intp(v int) *int { return &v }

func TestOpenSQLiteIdempotentMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rounds.db")

	s1, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("first OpenSQLite: %v", err)
	}
	s1.Close()

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("second OpenSQLite: %v", err)
	}
	defer s2.Close()

	if err := s2.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestCreateAndCompleteRound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 14, 3, 31, 0, 0, time.UTC)
	seed := models.NewOutcomeSet()
	_ = seed.Set(models.CategoryA1, 2)

	id, err := s.CreateRound(ctx, models.NewRound{
		RoundIndex: 2,
		StartTime:  start,
		EndTime:    start.Add(time.Minute),
		Seed:       seed,
	})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d, want positive", id)
	}

	r, err := s.GetRound(ctx, id)
	if err != nil {
		t.Fatalf("GetRound: %v", err)
	}
	if r.Status != models.RoundStatusActive || r.RoundIndex != 2 || !r.StartTime.Equal(start) {
		t.Fatalf("created round = %+v", r)
	}
	if r.Seed[models.CategoryA1] == nil || *r.Seed[models.CategoryA1] != 2 {
		t.Errorf("seed a1 = %v, want 2", r.Seed[models.CategoryA1])
	}

	final := models.NewOutcomeSet()
	_ = final.Set(models.CategoryA1, 4)
	_ = final.Set(models.CategoryB2, 7)
	if err := s.UpdateRound(ctx, id, final, models.RoundStatusCompleted); err != nil {
		t.Fatalf("UpdateRound: %v", err)
	}

	r, err = s.GetRound(ctx, id)
	if err != nil {
		t.Fatalf("GetRound: %v", err)
	}
	if r.Status != models.RoundStatusCompleted {
		t.Errorf("status = %s, want completed", r.Status)
	}
	if v := r.Outcomes[models.CategoryB2]; v == nil || *v != 7 {
		t.Errorf("b2 = %v, want 7", v)
	}
	if v := r.Outcomes[models.CategoryC1]; v != nil {
		t.Errorf("c1 = %d, want null", *v)
	}
}

func TestUpdateRoundLeavesUnassignedColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRound(ctx, models.NewRound{RoundIndex: 1, StartTime: time.Now(), EndTime: time.Now()})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}

	first := models.NewOutcomeSet()
	_ = first.Set(models.CategoryC2, 3)
	if err := s.UpdateRound(ctx, id, first, models.RoundStatusActive); err != nil {
		t.Fatalf("UpdateRound: %v", err)
	}
	if err := s.UpdateRound(ctx, id, models.NewOutcomeSet(), models.RoundStatusCompleted); err != nil {
		t.Fatalf("UpdateRound: %v", err)
	}

	r, err := s.GetRound(ctx, id)
	if err != nil {
		t.Fatalf("GetRound: %v", err)
	}
	if v := r.Outcomes[models.CategoryC2]; v == nil || *v != 3 {
		t.Errorf("c2 = %v, want 3 to survive an update without it", v)
	}
}

func TestUpdateRoundNotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdateRound(context.Background(), 999, models.NewOutcomeSet(), models.RoundStatusCompleted)
	if !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("err = %v, want ErrRoundNotFound", err)
	}
	if _, err := s.GetRound(context.Background(), 999); !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("GetRound err = %v, want ErrRoundNotFound", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	roundID, err := s.CreateRound(ctx, models.NewRound{RoundIndex: 1, StartTime: time.Now(), EndTime: time.Now()})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}

	for i := 0; i < 3; i++ {
		o := models.NewOutcomeSet()
		for _, c := range models.Categories {
			o[c] = intp(i)
		}
		entry := models.HistoryEntry{RoundStartTime: time.Now(), Outcomes: o}
		if i == 2 {
			entry.RoundID = &roundID
		}
		if _, err := s.AppendHistory(ctx, entry); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	got, err := s.ListHistory(ctx, 2)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if *got[0].Outcomes[models.CategoryA1] != 2 || *got[1].Outcomes[models.CategoryA1] != 1 {
		t.Errorf("history not newest first: %v, %v", got[0].Outcomes, got[1].Outcomes)
	}
	if got[0].RoundID == nil || *got[0].RoundID != roundID {
		t.Errorf("round id = %v, want %d", got[0].RoundID, roundID)
	}
	if got[1].RoundID != nil {
		t.Errorf("round id = %d, want nil", *got[1].RoundID)
	}
}
