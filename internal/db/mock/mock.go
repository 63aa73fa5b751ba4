// Package mock provides an in-memory database preloaded with demo history,
// used when DATABASE_USE_MOCK is set so the app can run without a real
// database file.
package mock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "protiq/internal/log"
	"protiq/models"
)

// DemoOwnerToken is the owner token the seeded records belong to.
const DemoOwnerToken = "demo-visitor"

// New returns an in-memory sqlite database seeded with representative
// calculation history.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:protiq-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.CalculationRecord{},
		&models.RecordSource{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	now := time.Now().UTC()
	shake := 32.0
	dv := 50.0
	wheyShare := 60.0
	oatShare := 40.0

	records := []models.CalculationRecord{
		{
			ID:                      uuid.NewString(),
			OwnerToken:              DemoOwnerToken,
			StatedProtein:           25,
			DigestibleProtein:       31.25,
			DigestibilityPercentage: 125,
			CalculationMethod:       "DIAAS",
			Timestamp:               now.Add(-48 * time.Hour),
			Sources: []models.RecordSource{
				{SourceID: "whey-isolate", SourceName: "Whey Isolate", SourceCategory: models.CategorySupplement},
			},
		},
		{
			ID:                      uuid.NewString(),
			OwnerToken:              DemoOwnerToken,
			StatedProtein:           20,
			DVPercentage:            &dv,
			DigestibleProtein:       28.25,
			DigestibilityPercentage: 141.25,
			CalculationMethod:       "DIAAS",
			Timestamp:               now.Add(-24 * time.Hour),
			Sources: []models.RecordSource{
				{SourceID: "egg", SourceName: "Egg", SourceCategory: models.CategoryOther},
			},
		},
		{
			ID:                      uuid.NewString(),
			OwnerToken:              DemoOwnerToken,
			StatedProtein:           shake,
			DigestibleProtein:       30.91,
			DigestibilityPercentage: 96.6,
			CalculationMethod:       "DIAAS",
			Timestamp:               now.Add(-2 * time.Hour),
			Sources: []models.RecordSource{
				{SourceID: "whey-isolate", SourceName: "Whey Isolate", SourceCategory: models.CategorySupplement, Percentage: &wheyShare},
				{SourceID: "oats", SourceName: "Oats", SourceCategory: models.CategoryPlant, Percentage: &oatShare},
			},
		},
	}

	for idx := range records {
		if err := db.WithContext(ctx).Create(&records[idx]).Error; err != nil {
			return err
		}
	}

	return nil
}
