package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"protiq/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(&models.CalculationRecord{}, &models.RecordSource{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db)
}

func testRecord(owner, sourceName string, stated float64, ts time.Time) models.CalculationRecord {
	return models.CalculationRecord{
		OwnerToken:              owner,
		StatedProtein:           stated,
		DigestibleProtein:       stated * 0.9,
		DigestibilityPercentage: 90,
		CalculationMethod:       "DIAAS",
		Timestamp:               ts,
		Sources: []models.RecordSource{
			{
				SourceID:       models.Slug(sourceName),
				SourceName:     sourceName,
				SourceCategory: models.CategoryPlant,
			},
		},
	}
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	record := testRecord("owner-a", "Tofu", 25, time.Time{})
	if err := store.Save(ctx, &record); err != nil {
		t.Fatalf("save: %v", err)
	}
	if record.ID == "" {
		t.Fatal("expected generated record id")
	}
	if record.Timestamp.IsZero() {
		t.Fatal("expected stamped timestamp")
	}

	got, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if len(got[0].Sources) != 1 || got[0].Sources[0].SourceName != "Tofu" {
		t.Fatalf("expected preloaded source snapshot, got %+v", got[0].Sources)
	}
}

func TestSaveRequiresOwner(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	record := testRecord("", "Tofu", 25, time.Now().UTC())
	if err := store.Save(context.Background(), &record); err == nil {
		t.Fatal("expected error for missing owner token")
	}
}

func TestHistoryBoundEvictsOldest(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 101 saves in sequence: the very first record must be evicted.
	for i := 0; i < 101; i++ {
		record := testRecord("owner-a", "Tofu", float64(i+1), base.Add(time.Duration(i)*time.Second))
		if err := store.Save(ctx, &record); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	got, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != DefaultLimit {
		t.Fatalf("expected %d records after overflow, got %d", DefaultLimit, len(got))
	}
	if got[0].StatedProtein != 101 {
		t.Fatalf("newest record stated %v, want 101", got[0].StatedProtein)
	}
	// The oldest retained entry is the 2nd save overall.
	if got[len(got)-1].StatedProtein != 2 {
		t.Fatalf("oldest retained record stated %v, want 2", got[len(got)-1].StatedProtein)
	}
}

func TestAllNewestFirstAndOwnerScoped(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, owner := range []string{"owner-a", "owner-b", "owner-a"} {
		record := testRecord(owner, "Lentils", float64(i+1), base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(ctx, &record); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	got, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for owner-a, got %d", len(got))
	}
	if !got[0].Timestamp.After(got[1].Timestamp) {
		t.Fatal("expected newest-first ordering")
	}
}

func TestAllInRangeInclusive(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		record := testRecord("owner-a", "Oats", float64(i+1), base.AddDate(0, 0, i))
		if err := store.Save(ctx, &record); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	got, err := store.AllInRange(ctx, "owner-a", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("all in range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records in inclusive range, got %d", len(got))
	}
	if got[0].StatedProtein != 4 || got[2].StatedProtein != 2 {
		t.Fatalf("unexpected range contents: %v..%v", got[0].StatedProtein, got[2].StatedProtein)
	}
}

func TestForSource(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tofu := testRecord("owner-a", "Tofu", 10, now.Add(-time.Hour))
	oats := testRecord("owner-a", "Oats", 20, now)
	for _, record := range []*models.CalculationRecord{&tofu, &oats} {
		if err := store.Save(ctx, record); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := store.ForSource(ctx, "owner-a", "tofu")
	if err != nil {
		t.Fatalf("for source: %v", err)
	}
	if len(got) != 1 || got[0].StatedProtein != 10 {
		t.Fatalf("expected only the tofu record, got %+v", got)
	}

	none, err := store.ForSource(ctx, "owner-a", "whey-isolate")
	if err != nil {
		t.Fatalf("for source: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no records, got %d", len(none))
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	record := testRecord("owner-a", "Tofu", 25, time.Now().UTC())
	if err := store.Save(ctx, &record); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Delete(ctx, "owner-a", record.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "owner-a", record.ID); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}

	got, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d records", len(got))
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		record := testRecord("owner-a", "Tofu", float64(i+1), now.Add(time.Duration(i)*time.Second))
		if err := store.Save(ctx, &record); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	other := testRecord("owner-b", "Oats", 5, now)
	if err := store.Save(ctx, &other); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Clear(ctx, "owner-a"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	got, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected cleared history, got %d records", len(got))
	}

	kept, err := store.All(ctx, "owner-b")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(kept) != 1 {
		t.Fatal("clear must not touch other owners")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		record := testRecord("owner-a", "Quinoa", float64(i+10), base.Add(time.Duration(i)*time.Hour))
		if err := store.Save(ctx, &record); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	before, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}

	blob, err := store.Export(ctx, "owner-a")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !json.Valid(blob) {
		t.Fatal("export must be valid JSON")
	}

	imported, err := store.Import(ctx, "owner-a", blob, true)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported != len(before) {
		t.Fatalf("imported %d records, want %d", imported, len(before))
	}

	after, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("round trip changed length: %d != %d", len(after), len(before))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Fatalf("round trip changed order at %d: %s != %s", i, after[i].ID, before[i].ID)
		}
		if after[i].StatedProtein != before[i].StatedProtein {
			t.Fatalf("round trip changed contents at %d", i)
		}
		if !after[i].Timestamp.Equal(before[i].Timestamp) {
			t.Fatalf("round trip changed timestamp at %d", i)
		}
	}
}

func TestImportMergeSkipsDuplicates(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	existing := make([]models.CalculationRecord, 0, 3)
	for i := 0; i < 3; i++ {
		record := testRecord("owner-a", "Tofu", float64(i+1), base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(ctx, &record); err != nil {
			t.Fatalf("save: %v", err)
		}
		existing = append(existing, record)
	}

	// 5 incoming records, 3 sharing ids with the existing history.
	incoming := make([]models.CalculationRecord, 0, 5)
	for i := range existing {
		dup := existing[i]
		dup.Sources = nil
		incoming = append(incoming, dup)
	}
	for i := 0; i < 2; i++ {
		fresh := testRecord("owner-a", "Oats", float64(i+50), base.Add(time.Duration(i+10)*time.Minute))
		fresh.ID = fmt.Sprintf("fresh-%d", i)
		incoming = append(incoming, fresh)
	}

	blob, err := json.Marshal(incoming)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	imported, err := store.Import(ctx, "owner-a", blob, false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported != 2 {
		t.Fatalf("imported %d records, want 2", imported)
	}

	got, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 3 existing + 2 new records, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Timestamp.Before(got[i].Timestamp) {
			t.Fatal("merged history must be newest-first")
		}
	}
}

func TestImportRejectsMalformedBlob(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	record := testRecord("owner-a", "Tofu", 25, time.Now().UTC())
	if err := store.Save(ctx, &record); err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, blob := range []string{"not json", `{"id":"x"}`, `[{"statedProtein":-3}]`} {
		if _, err := store.Import(ctx, "owner-a", []byte(blob), true); err == nil {
			t.Fatalf("expected malformed import to fail: %q", blob)
		}

		got, err := store.All(ctx, "owner-a")
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("failed import must leave the store untouched, got %d records", len(got))
		}
	}
}

func TestImportReplaceRespectsLimit(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	incoming := make([]models.CalculationRecord, 0, DefaultLimit+10)
	for i := 0; i < DefaultLimit+10; i++ {
		record := testRecord("owner-a", "Tofu", float64(i+1), base.Add(time.Duration(i)*time.Second))
		record.ID = fmt.Sprintf("bulk-%03d", i)
		incoming = append(incoming, record)
	}

	blob, err := json.Marshal(incoming)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if _, err := store.Import(ctx, "owner-a", blob, true); err != nil {
		t.Fatalf("import: %v", err)
	}

	got, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != DefaultLimit {
		t.Fatalf("expected capped history of %d, got %d", DefaultLimit, len(got))
	}
	// The newest incoming records survive the cap.
	if got[0].ID != fmt.Sprintf("bulk-%03d", DefaultLimit+9) {
		t.Fatalf("unexpected newest record %s", got[0].ID)
	}
}

func TestAvailableProbesBackingStore(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if !store.Available(ctx) {
		t.Fatal("expected healthy store to report available")
	}

	got, err := store.All(ctx, "availability-probe")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 0 {
		t.Fatal("the probe record must not persist")
	}

	if NewStore(nil).Available(ctx) {
		t.Fatal("nil database must report unavailable")
	}
}

func TestNilDatabaseReturnsErrUnavailable(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	ctx := context.Background()

	if _, err := store.All(ctx, "owner-a"); err != ErrUnavailable {
		t.Fatalf("All error = %v, want ErrUnavailable", err)
	}
	if err := store.Clear(ctx, "owner-a"); err != ErrUnavailable {
		t.Fatalf("Clear error = %v, want ErrUnavailable", err)
	}
	record := testRecord("owner-a", "Tofu", 25, time.Now().UTC())
	if err := store.Save(ctx, &record); err != ErrUnavailable {
		t.Fatalf("Save error = %v, want ErrUnavailable", err)
	}
}

func TestDeleteLeavesForeignOwnerRecordIntact(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	victim := testRecord("owner-b", "Lentils", 18, time.Now().UTC())
	if err := store.Save(ctx, &victim); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Another owner deleting by the victim's id must touch nothing, source
	// snapshots included.
	if err := store.Delete(ctx, "owner-a", victim.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := store.All(ctx, "owner-b")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the record to survive, got %d records", len(got))
	}
	if len(got[0].Sources) != 1 || got[0].Sources[0].SourceName != "Lentils" {
		t.Fatalf("record lost its source snapshots, got %+v", got[0].Sources)
	}

	// The rightful owner can still delete it, snapshots and all.
	if err := store.Delete(ctx, "owner-b", victim.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	got, err = store.All(ctx, "owner-b")
	if err != nil {
		t.Fatalf("all after delete: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d records", len(got))
	}
	var orphans int64
	if err := store.db.Model(&models.RecordSource{}).Where("record_id = ?", victim.ID).Count(&orphans).Error; err != nil {
		t.Fatalf("count source rows: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected no orphaned source rows, got %d", orphans)
	}
}

func TestNewStoreWithLimitBoundsHistory(t *testing.T) {
	t.Parallel()

	store := NewStoreWithLimit(newTestStore(t).db, 3)

	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		record := testRecord("owner-a", "Tofu", float64(10+i), base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(ctx, &record); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	got, err := store.All(ctx, "owner-a")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records under the custom bound, got %d", len(got))
	}
	// The three newest survive.
	if got[0].StatedProtein != 14 || got[2].StatedProtein != 12 {
		t.Fatalf("unexpected survivors: newest %v, oldest %v", got[0].StatedProtein, got[2].StatedProtein)
	}
}

func TestNewStoreWithLimitFallsBackOnNonPositive(t *testing.T) {
	t.Parallel()

	if got := NewStoreWithLimit(nil, 0).limit; got != DefaultLimit {
		t.Fatalf("limit for 0 = %d, want %d", got, DefaultLimit)
	}
	if got := NewStoreWithLimit(nil, -1).limit; got != DefaultLimit {
		t.Fatalf("limit for -1 = %d, want %d", got, DefaultLimit)
	}
	if got := NewStoreWithLimit(nil, 25).limit; got != 25 {
		t.Fatalf("limit for 25 = %d, want 25", got)
	}
}
