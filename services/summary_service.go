package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grapplehub/grapplehub/models"
	"github.com/grapplehub/grapplehub/repositories"
)

const (
	summaryCacheTTL = 7 * 24 * time.Hour

	// Небольшие расхождения в количестве строк не инвалидируют кэш:
	// допускается дельта до max(3, 10% от сохранённого количества).
	summaryCountDeltaFloor = 3
)

// Summarizer — внешний генератор сводок (один POST, без повторов).
type Summarizer interface {
	Summarize(ctx context.Context, rows []models.SummaryRow) (string, error)
}

type SummaryService interface {
	GetSummary(ctx context.Context, userID int, summaryType models.SummaryType, rows []models.SummaryRow) (string, error)
	GetCachedSummary(ctx context.Context, userID int, summaryType models.SummaryType, rows []models.SummaryRow) (string, bool, error)
	StoreSummary(ctx context.Context, userID int, summaryType models.SummaryType, text string, rows []models.SummaryRow) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type summaryService struct {
	cacheRepo  repositories.SummaryCacheRepository
	summarizer Summarizer
	logger     *slog.Logger
}

func NewSummaryService(cacheRepo repositories.SummaryCacheRepository, summarizer Summarizer, logger *slog.Logger) SummaryService {
	return &summaryService{
		cacheRepo:  cacheRepo,
		summarizer: summarizer,
		logger:     logger,
	}
}

// HashSummaryRows считает стабильный хэш нормализованной проекции строк.
// В проекции только поля, изменение которых должно инвалидировать сводку.
func HashSummaryRows(rows []models.SummaryRow) (string, error) {
	encoded, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode summary rows for hashing: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// SummaryRowsFromCompetitions проецирует записи истории в строки для хэша.
func SummaryRowsFromCompetitions(entries []*models.Competition) []models.SummaryRow {
	rows := make([]models.SummaryRow, 0, len(entries))
	for _, entry := range entries {
		row := models.SummaryRow{
			ID:        entry.ID,
			Date:      entry.EventDate.Format("2006-01-02"),
			Status:    string(entry.Status),
			Category:  string(entry.MatchType),
			Placement: entry.Placement,
		}
		if entry.Result != nil {
			row.Result = string(*entry.Result)
		}
		rows = append(rows, row)
	}
	return rows
}

// SummaryRowsFromTrainingLogs проецирует журнал тренировок в строки для хэша.
func SummaryRowsFromTrainingLogs(logs []*models.TrainingLog) []models.SummaryRow {
	rows := make([]models.SummaryRow, 0, len(logs))
	for _, log := range logs {
		rows = append(rows, models.SummaryRow{
			ID:       log.ID,
			Date:     log.Date.Format("2006-01-02"),
			Category: derefString(log.Category),
			Format:   string(log.Format),
		})
	}
	return rows
}

func summaryCountThreshold(storedCount int) int {
	tenPercent := storedCount / 10
	if tenPercent > summaryCountDeltaFloor {
		return tenPercent
	}
	return summaryCountDeltaFloor
}

// GetCachedSummary возвращает (text, true) при валидном кэше. Запись валидна,
// пока не истёк срок и либо хэш совпадает, либо дельта количества строк не
// превышает порог: мелкие правки не должны вызывать дорогую регенерацию.
func (s *summaryService) GetCachedSummary(ctx context.Context, userID int, summaryType models.SummaryType, rows []models.SummaryRow) (string, bool, error) {
	entry, err := s.cacheRepo.Get(ctx, userID, summaryType)
	if err != nil {
		if errors.Is(err, repositories.ErrSummaryCacheMiss) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read summary cache for user %d: %w", userID, err)
	}

	if time.Now().After(entry.ExpiresAt) {
		return "", false, nil
	}

	hash, err := HashSummaryRows(rows)
	if err != nil {
		return "", false, err
	}
	if hash == entry.ContentHash {
		return entry.Summary, true, nil
	}

	delta := len(rows) - entry.RowCount
	if delta < 0 {
		delta = -delta
	}
	if delta > summaryCountThreshold(entry.RowCount) {
		return "", false, nil
	}
	return entry.Summary, true, nil
}

func (s *summaryService) StoreSummary(ctx context.Context, userID int, summaryType models.SummaryType, text string, rows []models.SummaryRow) error {
	hash, err := HashSummaryRows(rows)
	if err != nil {
		return err
	}

	entry := &models.SummaryCacheEntry{
		UserID:      userID,
		SummaryType: summaryType,
		Summary:     text,
		ContentHash: hash,
		RowCount:    len(rows),
		ExpiresAt:   time.Now().Add(summaryCacheTTL),
	}
	if err := s.cacheRepo.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to store summary for user %d type %s: %w", userID, summaryType, err)
	}
	return nil
}

// GetSummary отдаёт кэш, если он валиден, иначе вызывает внешний эндпоинт и
// кэширует результат. Ошибка эндпоинта отдаётся вызывающей стороне как есть,
// без повторных попыток.
func (s *summaryService) GetSummary(ctx context.Context, userID int, summaryType models.SummaryType, rows []models.SummaryRow) (string, error) {
	cached, ok, err := s.GetCachedSummary(ctx, userID, summaryType, rows)
	if err != nil {
		return "", err
	}
	if ok {
		return cached, nil
	}

	summary, err := s.summarizer.Summarize(ctx, rows)
	if err != nil {
		return "", err
	}

	if storeErr := s.StoreSummary(ctx, userID, summaryType, summary, rows); storeErr != nil {
		// Сводка уже сгенерирована; несохранившийся кэш не повод её терять.
		s.logger.WarnContext(ctx, "failed to cache generated summary",
			slog.Int("user_id", userID), slog.String("summary_type", string(summaryType)), slog.Any("error", storeErr))
	}
	return summary, nil
}

func (s *summaryService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.cacheRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
