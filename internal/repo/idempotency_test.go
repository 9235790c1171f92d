package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-closet-backend/internal/domain"
)

// newTestDB opens a private in-memory database per test and migrates the
// given models.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid schema leakage across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestGetIdempotency_BlankScopeOrKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	for _, c := range [][2]string{{"   ", "k1"}, {"generate", ""}} {
		rec, err := GetIdempotency(context.Background(), db, "u1", c[0], c[1], now)
		if rec != nil || err != ErrNotFound {
			t.Fatalf("expected (nil, ErrNotFound) for %q/%q, got (%v, %v)", c[0], c[1], rec, err)
		}
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	exp := &domain.Idempotency{
		ID: "expired", UserID: "u1", Scope: "generate", Key: "k1",
		RecommendationID: "r1", Status: 201,
		CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Minute),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := GetIdempotency(context.Background(), db, "u1", "generate", "k1", now); err != ErrNotFound {
		t.Fatalf("expired record should be invisible, got %v", err)
	}
	if _, err := GetIdempotency(context.Background(), db, "u1", "generate", "nope", now); err != ErrNotFound {
		t.Fatalf("missing record should be ErrNotFound, got %v", err)
	}

	n, err := PurgeExpiredIdempotency(context.Background(), db, now)
	if err != nil || n != 1 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}
}

func TestCreateIdempotency_RoundTripAndDuplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "u1", "generate", "k1", "rec-1", 201, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || !rec.ExpiresAt.After(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "generate", "k1", time.Now().UTC())
	if err != nil || got.RecommendationID != "rec-1" || got.Status != 201 {
		t.Fatalf("get: rec=%+v err=%v", got, err)
	}

	if _, err := CreateIdempotency(ctx, db, "u1", "generate", "k1", "rec-2", 201, time.Hour); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Same key under another user is independent.
	if _, err := CreateIdempotency(ctx, db, "u2", "generate", "k1", "rec-3", 201, time.Hour); err != nil {
		t.Fatalf("other user: %v", err)
	}
}

func TestCreateIdempotency_NoTable(t *testing.T) {
	db := newTestDB(t)
	if _, err := CreateIdempotency(context.Background(), db, "u1", "generate", "k1", "r", 201, time.Hour); err == nil || err == ErrDuplicate {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}
