package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *FixRepo {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "track.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewFixRepo(db)
}

func TestFixRepoInsertAndListRange(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, time.May, 17, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		p := TrackPoint{
			Time:     base.Add(time.Duration(i) * time.Second),
			Lat:      52.0 + float64(i)*0.001,
			Lon:      4.0,
			HeightMM: 48000,
			FixType:  3,
			FixOK:    true,
			NumSV:    10,
			HAccMM:   1500,
			VAccMM:   2100,
		}
		if err := repo.Insert(ctx, p); err != nil {
			t.Fatalf("insert point %d: %v", i, err)
		}
	}

	points, err := repo.ListRange(ctx, base.Add(time.Second), base.Add(4*time.Second))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points in range, got %d", len(points))
	}
	if !points[0].Time.Equal(base.Add(time.Second)) {
		t.Fatalf("range must be sorted oldest first, got %v", points[0].Time)
	}
	if points[0].Lat != 52.001 || !points[0].FixOK || points[0].NumSV != 10 {
		t.Fatalf("point fields mismatch: %+v", points[0])
	}
}

func TestFixRepoPruneOlderThan(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, time.May, 17, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		p := TrackPoint{Time: base.Add(time.Duration(i) * time.Hour), Lat: 52, Lon: 4, FixType: 3}
		if err := repo.Insert(ctx, p); err != nil {
			t.Fatalf("insert point %d: %v", i, err)
		}
	}

	pruned, err := repo.PruneOlderThan(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("expected 2 pruned rows, got %d", pruned)
	}

	remaining, err := repo.ListRange(ctx, base.Add(-time.Hour), base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list remaining: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 remaining points, got %d", len(remaining))
	}
}

func TestClearDatabaseEmptiesFixes(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "track.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := NewFixRepo(db)

	if err := repo.Insert(ctx, TrackPoint{Time: time.Now(), Lat: 1, Lon: 2}); err != nil {
		t.Fatalf("insert point: %v", err)
	}
	if err := ClearDatabase(ctx, db); err != nil {
		t.Fatalf("clear database: %v", err)
	}

	points, err := repo.ListRange(ctx, time.Time{}.Add(time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected empty table, got %d points", len(points))
	}
}
