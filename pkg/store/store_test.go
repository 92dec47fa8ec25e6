package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(config.SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "requests.db"),
		Driver:       "sqlite", // pure Go driver, no cgo needed in tests
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		WALMode:      true,
		BusyTimeout:  time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// The memory and sqlite backends must behave identically.
func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store { return newSQLiteTestStore(t) })
}

func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		st := newStore(t)
		rec := &Record{
			ID:        "req-1",
			InputText: "long input",
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
		if err := st.Create(ctx, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := st.FindByID(ctx, "req-1")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.InputText != "long input" {
			t.Errorf("InputText = %q", got.InputText)
		}
		if got.Completed() {
			t.Error("fresh record must not be completed")
		}
	})

	t.Run("find missing", func(t *testing.T) {
		st := newStore(t)
		if _, err := st.FindByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update completion", func(t *testing.T) {
		st := newStore(t)
		rec := &Record{ID: "req-2", InputText: "x", CreatedAt: time.Now().UTC()}
		if err := st.Create(ctx, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}

		summary := "short"
		total := 42
		cost := 0.0025
		done := time.Now().UTC().Truncate(time.Second)
		err := st.Update(ctx, "req-2", Update{
			SummaryText: &summary,
			TotalTokens: &total,
			CostUSD:     &cost,
			CompletedAt: &done,
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}

		got, _ := st.FindByID(ctx, "req-2")
		if got.SummaryText != "short" || got.TotalTokens != 42 || got.CostUSD != 0.0025 {
			t.Errorf("record = %+v", got)
		}
		if !got.Completed() || got.Failed() {
			t.Errorf("record = %+v, want completed without error", got)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		st := newStore(t)
		msg := "x"
		if err := st.Update(ctx, "nope", Update{ErrorMessage: &msg}); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list most recent first", func(t *testing.T) {
		st := newStore(t)
		base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
		for i, id := range []string{"old", "mid", "new"} {
			rec := &Record{ID: id, InputText: "x", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
			if err := st.Create(ctx, rec); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}

		recs, err := st.List(ctx, 2)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(recs) != 2 || recs[0].ID != "new" || recs[1].ID != "mid" {
			t.Errorf("List = %v", recordIDs(recs))
		}
	})

	t.Run("delete completed before", func(t *testing.T) {
		st := newStore(t)
		old := time.Now().UTC().Add(-48 * time.Hour)
		recent := time.Now().UTC()

		for id, completed := range map[string]*time.Time{
			"expired": &old,
			"fresh":   &recent,
			"pending": nil,
		} {
			rec := &Record{ID: id, InputText: "x", CreatedAt: old, CompletedAt: completed}
			if err := st.Create(ctx, rec); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}

		n, err := st.DeleteCompletedBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("DeleteCompletedBefore: %v", err)
		}
		if n != 1 {
			t.Errorf("deleted = %d, want 1", n)
		}
		if _, err := st.FindByID(ctx, "expired"); !errors.Is(err, ErrNotFound) {
			t.Error("expired record still present")
		}
		if _, err := st.FindByID(ctx, "pending"); err != nil {
			t.Error("incomplete record must survive deletion")
		}
	})

	t.Run("mark abandoned before", func(t *testing.T) {
		st := newStore(t)
		stale := &Record{ID: "stale", InputText: "x", CreatedAt: time.Now().UTC().Add(-48 * time.Hour)}
		live := &Record{ID: "live", InputText: "x", CreatedAt: time.Now().UTC()}
		for _, rec := range []*Record{stale, live} {
			if err := st.Create(ctx, rec); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}

		n, err := st.MarkAbandonedBefore(ctx, time.Now().UTC().Add(-24*time.Hour), "request abandoned")
		if err != nil {
			t.Fatalf("MarkAbandonedBefore: %v", err)
		}
		if n != 1 {
			t.Errorf("marked = %d, want 1", n)
		}

		got, _ := st.FindByID(ctx, "stale")
		if !got.Completed() || got.ErrorMessage != "request abandoned" {
			t.Errorf("stale record = %+v", got)
		}
		got, _ = st.FindByID(ctx, "live")
		if got.Completed() {
			t.Error("live record must stay incomplete")
		}
	})
}

func recordIDs(recs []*Record) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}
