package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapplehub/grapplehub/models"
	"github.com/grapplehub/grapplehub/repositories"
)

type fakeSummaryCacheRepo struct {
	entries   map[string]*models.SummaryCacheEntry
	upsertErr error
}

func newFakeSummaryCacheRepo() *fakeSummaryCacheRepo {
	return &fakeSummaryCacheRepo{entries: make(map[string]*models.SummaryCacheEntry)}
}

func cacheKey(userID int, summaryType models.SummaryType) string {
	return string(summaryType) + "/" + string(rune(userID))
}

func (f *fakeSummaryCacheRepo) Get(ctx context.Context, userID int, summaryType models.SummaryType) (*models.SummaryCacheEntry, error) {
	entry, ok := f.entries[cacheKey(userID, summaryType)]
	if !ok {
		return nil, repositories.ErrSummaryCacheMiss
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeSummaryCacheRepo) Upsert(ctx context.Context, entry *models.SummaryCacheEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.entries[cacheKey(entry.UserID, entry.SummaryType)] = entry
	return nil
}

func (f *fakeSummaryCacheRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var deleted int64
	for key, entry := range f.entries {
		if time.Now().After(entry.ExpiresAt) {
			delete(f.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeSummarizer struct {
	calls   int
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, rows []models.SummaryRow) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func summaryRows(n int) []models.SummaryRow {
	rows := make([]models.SummaryRow, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, models.SummaryRow{ID: i, Date: "2026-01-02", Format: "gi"})
	}
	return rows
}

func newSummaryFixture() (SummaryService, *fakeSummaryCacheRepo, *fakeSummarizer) {
	repo := newFakeSummaryCacheRepo()
	gen := &fakeSummarizer{summary: "solid month of training"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSummaryService(repo, gen, logger), repo, gen
}

func TestGetSummary_CacheMissGeneratesAndStores(t *testing.T) {
	ctx := context.Background()
	svc, repo, gen := newSummaryFixture()
	rows := summaryRows(10)

	summary, err := svc.GetSummary(ctx, 1, models.SummaryTypeTraining, rows)
	require.NoError(t, err)
	assert.Equal(t, "solid month of training", summary)
	assert.Equal(t, 1, gen.calls)

	entry, err := repo.Get(ctx, 1, models.SummaryTypeTraining)
	require.NoError(t, err)
	assert.Equal(t, len(rows), entry.RowCount)
	assert.True(t, entry.ExpiresAt.After(time.Now()))
}

func TestGetSummary_UnchangedRowsHitCache(t *testing.T) {
	ctx := context.Background()
	svc, _, gen := newSummaryFixture()
	rows := summaryRows(10)

	_, err := svc.GetSummary(ctx, 1, models.SummaryTypeTraining, rows)
	require.NoError(t, err)

	_, err = svc.GetSummary(ctx, 1, models.SummaryTypeTraining, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls, "unchanged rows must not call the summarizer again")
}

func TestGetCachedSummary_ExpiredEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newSummaryFixture()
	rows := summaryRows(5)

	hash, err := HashSummaryRows(rows)
	require.NoError(t, err)
	repo.entries[cacheKey(1, models.SummaryTypeTraining)] = &models.SummaryCacheEntry{
		UserID:      1,
		SummaryType: models.SummaryTypeTraining,
		Summary:     "stale",
		ContentHash: hash,
		RowCount:    len(rows),
		ExpiresAt:   time.Now().Add(-time.Minute),
	}

	_, ok, err := svc.GetCachedSummary(ctx, 1, models.SummaryTypeTraining, rows)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetCachedSummary_CountDeltaWithinThreshold(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newSummaryFixture()

	stored := summaryRows(50)
	hash, err := HashSummaryRows(stored)
	require.NoError(t, err)
	repo.entries[cacheKey(1, models.SummaryTypeCompetitions)] = &models.SummaryCacheEntry{
		UserID:      1,
		SummaryType: models.SummaryTypeCompetitions,
		Summary:     "past season recap",
		ContentHash: hash,
		RowCount:    50,
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	// 52 строки при 50 сохранённых: дельта 2 <= max(3, 5), кэш валиден.
	summary, ok, err := svc.GetCachedSummary(ctx, 1, models.SummaryTypeCompetitions, summaryRows(52))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "past season recap", summary)

	// 60 строк: дельта 10 > 5, кэш инвалидирован.
	_, ok, err = svc.GetCachedSummary(ctx, 1, models.SummaryTypeCompetitions, summaryRows(60))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetCachedSummary_SmallStoredCountUsesFloor(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newSummaryFixture()

	stored := summaryRows(4)
	hash, err := HashSummaryRows(stored)
	require.NoError(t, err)
	repo.entries[cacheKey(1, models.SummaryTypeTraining)] = &models.SummaryCacheEntry{
		UserID:      1,
		SummaryType: models.SummaryTypeTraining,
		Summary:     "short log recap",
		ContentHash: hash,
		RowCount:    4,
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	// Порог max(3, 0) = 3: 7 строк ещё укладываются, 8 уже нет.
	_, ok, err := svc.GetCachedSummary(ctx, 1, models.SummaryTypeTraining, summaryRows(7))
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = svc.GetCachedSummary(ctx, 1, models.SummaryTypeTraining, summaryRows(8))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetSummary_SummarizerErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSummaryCacheRepo()
	gen := &fakeSummarizer{err: errors.New("model overloaded")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewSummaryService(repo, gen, logger)

	_, err := svc.GetSummary(ctx, 1, models.SummaryTypeTraining, summaryRows(3))
	require.Error(t, err)
	assert.Equal(t, 1, gen.calls, "no retries on summarizer failure")
	assert.Empty(t, repo.entries)
}

func TestGetSummary_CacheStoreFailureStillReturnsSummary(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSummaryCacheRepo()
	repo.upsertErr = errors.New("db down")
	gen := &fakeSummarizer{summary: "fresh recap"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewSummaryService(repo, gen, logger)

	summary, err := svc.GetSummary(ctx, 1, models.SummaryTypeTraining, summaryRows(3))
	require.NoError(t, err)
	assert.Equal(t, "fresh recap", summary)
}

func TestHashSummaryRows_StableAndOrderSensitive(t *testing.T) {
	rows := summaryRows(5)

	h1, err := HashSummaryRows(rows)
	require.NoError(t, err)
	h2, err := HashSummaryRows(summaryRows(5))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	changed := summaryRows(5)
	changed[2].Result = "win"
	h3, err := HashSummaryRows(changed)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
