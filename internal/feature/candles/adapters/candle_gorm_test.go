package adapters

import (
	"context"
	"testing"
	"time"

	"indicator_backend/internal/feature/candles/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// :memory: はコネクションごとに別DBになるため1本に固定する
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&CandleModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

// seedCandle creates a test candle in the database for testing.
func seedCandle(t *testing.T, db *gorm.DB, symbol, interval string, tm time.Time, close float64) {
	t.Helper()

	candle := &CandleModel{
		Symbol:   symbol,
		Interval: interval,
		Time:     tm,
		Open:     100.0,
		High:     110.0,
		Low:      90.0,
		Close:    close,
		Volume:   1000,
	}
	require.NoError(t, db.Create(candle).Error, "failed to seed candle")
}

func TestNewCandleRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewCandleRepository(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestCandleGorm_UpsertBatch(t *testing.T) {
	t.Parallel()

	baseTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		candles      []entity.Candle
		setupFunc    func(t *testing.T, db *gorm.DB)
		validateFunc func(t *testing.T, db *gorm.DB)
	}{
		{
			name: "success: insert multiple candles",
			candles: []entity.Candle{
				{Symbol: "AAPL", Interval: "1day", Time: baseTime, Open: 100, High: 110, Low: 90, Close: 105, Volume: 1000},
				{Symbol: "AAPL", Interval: "1day", Time: baseTime.AddDate(0, 0, 1), Open: 105, High: 115, Low: 95, Close: 110, Volume: 1500},
			},
			validateFunc: func(t *testing.T, db *gorm.DB) {
				var count int64
				db.Model(&CandleModel{}).Count(&count)
				assert.Equal(t, int64(2), count, "candle count does not match")
			},
		},
		{
			name:    "success: empty slice",
			candles: []entity.Candle{},
			validateFunc: func(t *testing.T, db *gorm.DB) {
				var count int64
				db.Model(&CandleModel{}).Count(&count)
				assert.Equal(t, int64(0), count, "candle count should be 0")
			},
		},
		{
			name: "success: upsert updates existing candle",
			candles: []entity.Candle{
				{Symbol: "AAPL", Interval: "1day", Time: baseTime, Open: 200, High: 220, Low: 180, Close: 210, Volume: 2000},
			},
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedCandle(t, db, "AAPL", "1day", baseTime, 105)
			},
			validateFunc: func(t *testing.T, db *gorm.DB) {
				var count int64
				db.Model(&CandleModel{}).Count(&count)
				assert.Equal(t, int64(1), count, "candle count should remain 1 after upsert")

				var candle CandleModel
				db.First(&candle)
				assert.Equal(t, 200.0, candle.Open, "Open should be updated")
				assert.Equal(t, 210.0, candle.Close, "Close should be updated")
				assert.Equal(t, int64(2000), candle.Volume, "Volume should be updated")
			},
		},
		{
			name: "success: non-UTC time is stored as UTC",
			candles: []entity.Candle{
				{Symbol: "7203.T", Interval: "1day", Time: time.Date(2024, 1, 2, 9, 0, 0, 0, time.FixedZone("JST", 9*3600)), Close: 2500},
			},
			validateFunc: func(t *testing.T, db *gorm.DB) {
				var candle CandleModel
				require.NoError(t, db.First(&candle).Error)
				assert.Equal(t, baseTime.Unix(), candle.Time.Unix())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewCandleRepository(db)

			if tt.setupFunc != nil {
				tt.setupFunc(t, db)
			}

			err := repo.UpsertBatch(context.Background(), tt.candles)
			require.NoError(t, err)
			tt.validateFunc(t, db)
		})
	}
}

func TestCandleGorm_FindOn(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		symbol    string
		interval  string
		day       time.Time
		setupFunc func(t *testing.T, db *gorm.DB)
		wantOK    bool
		wantClose float64
	}{
		{
			name:     "found: candle on the requested day",
			symbol:   "AAPL",
			interval: "1day",
			day:      monday,
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedCandle(t, db, "AAPL", "1day", monday.AddDate(0, 0, -1), 1)
				seedCandle(t, db, "AAPL", "1day", monday, 185.5)
				seedCandle(t, db, "AAPL", "1day", monday.AddDate(0, 0, 1), 3)
			},
			wantOK:    true,
			wantClose: 185.5,
		},
		{
			name:     "found: time of day on the query is ignored",
			symbol:   "AAPL",
			interval: "1day",
			day:      monday.Add(15 * time.Hour),
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedCandle(t, db, "AAPL", "1day", monday, 42)
			},
			wantOK:    true,
			wantClose: 42,
		},
		{
			name:     "found: calendar day is taken from the query's own zone",
			symbol:   "AAPL",
			interval: "1day",
			day:      time.Date(2024, 1, 8, 0, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedCandle(t, db, "AAPL", "1day", monday, 77)
			},
			wantOK:    true,
			wantClose: 77,
		},
		{
			name:     "absent: different symbol",
			symbol:   "AAPL",
			interval: "1day",
			day:      monday,
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedCandle(t, db, "GOOGL", "1day", monday, 140)
			},
		},
		{
			name:     "absent: different interval",
			symbol:   "AAPL",
			interval: "1day",
			day:      monday,
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedCandle(t, db, "AAPL", "1week", monday, 140)
			},
		},
		{
			name:     "absent: no rows",
			symbol:   "AAPL",
			interval: "1day",
			day:      monday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewCandleRepository(db)
			if tt.setupFunc != nil {
				tt.setupFunc(t, db)
			}

			c, ok, err := repo.FindOn(context.Background(), tt.symbol, tt.interval, tt.day)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantClose, c.Close)
				assert.Equal(t, tt.symbol, c.Symbol)
			}
		})
	}
}
