package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/grapplehub/grapplehub/live"
	"github.com/grapplehub/grapplehub/models"
	"github.com/grapplehub/grapplehub/repositories"
	"golang.org/x/sync/errgroup"
)

type MatchService interface {
	CreateMatch(ctx context.Context, actorID int, input CreateMatchInput) (*models.Match, error)
	GetMatchDetail(ctx context.Context, matchID int) (*models.Match, error)
	ListEventMatches(ctx context.Context, eventID int, statusFilter *models.MatchStatus) ([]*models.Match, error)

	RequestSlot(ctx context.Context, actorID, matchID, position int, message *string) (*models.MatchRequest, error)
	ApproveRequest(ctx context.Context, actorID, requestID int) (*models.MatchCompetitor, error)
	RejectRequest(ctx context.Context, actorID, requestID int) error

	AddManualCompetitor(ctx context.Context, actorID, matchID, position int, input ManualCompetitorInput) (*models.MatchCompetitor, error)
	ConfirmCompetitor(ctx context.Context, actorID, competitorID int) (*models.Match, error)
	RemoveCompetitor(ctx context.Context, actorID, competitorID int) error

	Withdraw(ctx context.Context, userID, matchID int, reasonText string, comment *string) (*models.Withdrawal, error)
	RecordResult(ctx context.Context, actorID, matchID, winnerPosition int) error
	CancelMatch(ctx context.Context, actorID, matchID int) error

	CheckEligibility(ctx context.Context, userID, matchID int) (bool, error)
}

type CreateMatchInput struct {
	EventID          int                `json:"event_id"`
	BeltLevel        *models.BeltLevel  `json:"belt_level"`
	AgeCategory      *string            `json:"age_category"`
	Gender           *string            `json:"gender"`
	Format           models.MatchFormat `json:"format"`
	WeightLimitKG    *float64           `json:"weight_limit_kg"`
	TimeLimitSeconds *int               `json:"time_limit_seconds"`
	SubmissionOnly   bool               `json:"submission_only"`
	CustomRules      *string            `json:"custom_rules"`
}

type ManualCompetitorInput struct {
	Name     string            `json:"name"`
	Belt     *models.BeltLevel `json:"belt"`
	WeightKG *float64          `json:"weight_kg"`
	PhotoKey *string           `json:"photo_key"`
}

type matchService struct {
	tx              repositories.Transactor
	matchRepo       repositories.MatchRepository
	competitorRepo  repositories.CompetitorRepository
	requestRepo     repositories.RequestRepository
	withdrawalRepo  repositories.WithdrawalRepository
	competitionRepo repositories.CompetitionRepository
	userRepo        repositories.UserRepository
	eventRepo       repositories.EventRepository
	hub             *live.Hub
	logger          *slog.Logger
}

func NewMatchService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	competitorRepo repositories.CompetitorRepository,
	requestRepo repositories.RequestRepository,
	withdrawalRepo repositories.WithdrawalRepository,
	competitionRepo repositories.CompetitionRepository,
	userRepo repositories.UserRepository,
	eventRepo repositories.EventRepository,
	hub *live.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:              tx,
		matchRepo:       matchRepo,
		competitorRepo:  competitorRepo,
		requestRepo:     requestRepo,
		withdrawalRepo:  withdrawalRepo,
		competitionRepo: competitionRepo,
		userRepo:        userRepo,
		eventRepo:       eventRepo,
		hub:             hub,
		logger:          logger,
	}
}

// ComputeStatus выводит pending/confirmed из фактической занятости слотов.
// Статус матча — производное свойство: он пересчитывается после каждой
// мутации участников, а не хранится как доверенный флаг.
func ComputeStatus(current models.MatchStatus, competitors []*models.MatchCompetitor) models.MatchStatus {
	if current == models.MatchStatusCompleted || current == models.MatchStatusCancelled {
		return current
	}

	confirmedPositions := make(map[int]bool, 2)
	for _, c := range competitors {
		if c.Confirmed {
			confirmedPositions[c.Position] = true
		}
	}
	if confirmedPositions[1] && confirmedPositions[2] {
		return models.MatchStatusConfirmed
	}
	return models.MatchStatusPending
}

// IsEligible — read-only проверка допуска пользователя к открытому слоту.
// Отсутствие любого обязательного поля профиля делает пользователя
// недопущенным (fail closed).
func IsEligible(user *models.User, match *models.Match) bool {
	if user == nil || match == nil {
		return false
	}
	if user.Gender == nil || *user.Gender == "" {
		return false
	}
	if user.BeltLevel == nil || *user.BeltLevel == "" {
		return false
	}
	if user.WeightKG == nil {
		return false
	}

	if match.Gender != nil && *match.Gender != "" && *match.Gender != *user.Gender {
		return false
	}
	if match.BeltLevel != nil && *match.BeltLevel != "" && *match.BeltLevel != *user.BeltLevel {
		return false
	}
	if match.WeightLimitKG != nil && *user.WeightKG > *match.WeightLimitKG {
		return false
	}
	return true
}

func (s *matchService) CreateMatch(ctx context.Context, actorID int, input CreateMatchInput) (*models.Match, error) {
	event, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", input.EventID, err)
	}
	if event.OrganizerID != actorID {
		if err := s.requireAdmin(ctx, actorID); err != nil {
			return nil, err
		}
	}

	switch input.Format {
	case models.FormatGi, models.FormatNoGi, models.FormatBoth:
	default:
		return nil, fmt.Errorf("%w: unknown match format %q", ErrValidationFailed, input.Format)
	}

	match := &models.Match{
		EventID:          input.EventID,
		CreatorID:        actorID,
		BeltLevel:        input.BeltLevel,
		AgeCategory:      input.AgeCategory,
		Gender:           input.Gender,
		Format:           input.Format,
		WeightLimitKG:    input.WeightLimitKG,
		TimeLimitSeconds: input.TimeLimitSeconds,
		SubmissionOnly:   input.SubmissionOnly,
		CustomRules:      input.CustomRules,
		Status:           models.MatchStatusPending,
	}

	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return match, nil
}

func (s *matchService) GetMatchDetail(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	pending := models.RequestStatusPending
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		competitors, err := s.competitorRepo.ListByMatch(gctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to list competitors for match %d: %w", matchID, err)
		}
		for _, c := range competitors {
			if c.IsRegisteredUser() {
				user, userErr := s.userRepo.GetByID(gctx, *c.UserID)
				if userErr != nil {
					s.logger.WarnContext(gctx, "failed to load competitor user",
						slog.Int("match_id", matchID), slog.Int("user_id", *c.UserID), slog.Any("error", userErr))
					continue
				}
				user.PasswordHash = ""
				c.User = user
			}
		}
		match.Competitors = competitors
		return nil
	})

	g.Go(func() error {
		requests, err := s.requestRepo.ListByMatch(gctx, matchID, &pending)
		if err != nil {
			return fmt.Errorf("failed to list requests for match %d: %w", matchID, err)
		}
		match.Requests = requests
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListEventMatches(ctx context.Context, eventID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByEvent(ctx, eventID, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for event %d: %w", eventID, err)
	}
	return matches, nil
}

// RequestSlot создаёт pending-заявку на слот. Повторная заявка при живой
// pending — ошибка; отклонённая заявка воскрешается вместо дубликата.
func (s *matchService) RequestSlot(ctx context.Context, actorID, matchID, position int, message *string) (*models.MatchRequest, error) {
	if position != 1 && position != 2 {
		return nil, ErrInvalidPosition
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.IsTerminal() {
		return nil, ErrMatchTerminal
	}

	competitors, err := s.competitorRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors for match %d: %w", matchID, err)
	}
	for _, c := range competitors {
		if c.Position == position {
			return nil, ErrSlotOccupied
		}
	}

	_, err = s.requestRepo.FindByTupleAndStatus(ctx, matchID, actorID, position, models.RequestStatusPending)
	if err == nil {
		return nil, ErrDuplicateRequest
	}
	if !errors.Is(err, repositories.ErrRequestNotFound) {
		return nil, fmt.Errorf("failed to check pending request: %w", err)
	}

	// Отклонённую заявку возвращаем в pending вместо новой строки.
	rejected, err := s.requestRepo.FindByTupleAndStatus(ctx, matchID, actorID, position, models.RequestStatusRejected)
	if err == nil {
		if resetErr := s.requestRepo.ResetToPending(ctx, rejected.ID, message); resetErr != nil {
			return nil, fmt.Errorf("failed to resubmit request %d: %w", rejected.ID, resetErr)
		}
		rejected.Status = models.RequestStatusPending
		rejected.Message = message
		rejected.RespondedAt = nil
		return rejected, nil
	}
	if !errors.Is(err, repositories.ErrRequestNotFound) {
		return nil, fmt.Errorf("failed to check rejected request: %w", err)
	}

	request := &models.MatchRequest{
		MatchID:  matchID,
		UserID:   actorID,
		Position: position,
		Message:  message,
		Status:   models.RequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to create match request: %w", err)
	}
	return request, nil
}

// ApproveRequest переводит заявку в approved и занимает слот неподтверждённым
// участником одной транзакцией. Условный апдейт статуса заявки защищает от
// двойного одобрения: второй вызов не создаст второй строки участника.
func (s *matchService) ApproveRequest(ctx context.Context, actorID, requestID int) (*models.MatchCompetitor, error) {
	request, match, err := s.getRequestWithMatch(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOrganizer(ctx, match, actorID); err != nil {
		return nil, err
	}
	if match.IsTerminal() {
		return nil, ErrMatchTerminal
	}

	competitor := &models.MatchCompetitor{
		MatchID:   match.ID,
		Position:  request.Position,
		Type:      models.CompetitorTypeUser,
		UserID:    &request.UserID,
		Confirmed: false,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		resolved, resolveErr := s.requestRepo.ResolveIfPending(ctx, exec, requestID, models.RequestStatusApproved)
		if resolveErr != nil {
			return resolveErr
		}
		if !resolved {
			return ErrRequestAlreadyClosed
		}
		return s.competitorRepo.Create(ctx, exec, competitor)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitorSlotTaken) {
			return nil, ErrSlotOccupied
		}
		if errors.Is(err, ErrRequestAlreadyClosed) {
			return nil, ErrRequestAlreadyClosed
		}
		return nil, fmt.Errorf("failed to approve request %d: %w", requestID, err)
	}

	s.broadcastMatch(match.ID, live.MessageCompetitorUpdated, competitor)
	return competitor, nil
}

func (s *matchService) RejectRequest(ctx context.Context, actorID, requestID int) error {
	_, match, err := s.getRequestWithMatch(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.authorizeOrganizer(ctx, match, actorID); err != nil {
		return err
	}

	var resolved bool
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var resolveErr error
		resolved, resolveErr = s.requestRepo.ResolveIfPending(ctx, exec, requestID, models.RequestStatusRejected)
		return resolveErr
	})
	if err != nil {
		return fmt.Errorf("failed to reject request %d: %w", requestID, err)
	}
	if !resolved {
		return ErrRequestAlreadyClosed
	}
	return nil
}

// AddManualCompetitor вставляет ручную запись организатора. Такие участники
// подтверждены сразу: запись авторизована самим организатором.
func (s *matchService) AddManualCompetitor(ctx context.Context, actorID, matchID, position int, input ManualCompetitorInput) (*models.MatchCompetitor, error) {
	if position != 1 && position != 2 {
		return nil, ErrInvalidPosition
	}
	if input.Name == "" {
		return nil, ErrManualFieldsRequired
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOrganizer(ctx, match, actorID); err != nil {
		return nil, err
	}
	if match.IsTerminal() {
		return nil, ErrMatchTerminal
	}

	competitor := &models.MatchCompetitor{
		MatchID:        matchID,
		Position:       position,
		Type:           models.CompetitorTypeManual,
		ManualName:     &input.Name,
		ManualBelt:     input.Belt,
		ManualWeightKG: input.WeightKG,
		ManualPhotoKey: input.PhotoKey,
		Confirmed:      true,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.competitorRepo.Create(ctx, exec, competitor)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitorSlotTaken) {
			return nil, ErrSlotOccupied
		}
		return nil, fmt.Errorf("failed to add manual competitor to match %d: %w", matchID, err)
	}

	if _, err := s.recomputeStatus(ctx, match); err != nil {
		s.logger.WarnContext(ctx, "failed to recompute match status after manual competitor",
			slog.Int("match_id", matchID), slog.Any("error", err))
	}

	s.broadcastMatch(matchID, live.MessageCompetitorUpdated, competitor)
	return competitor, nil
}

// ConfirmCompetitor подтверждает участие. После подтверждения статус матча
// пересчитывается: если оба слота подтверждены, матч становится confirmed.
func (s *matchService) ConfirmCompetitor(ctx context.Context, actorID, competitorID int) (*models.Match, error) {
	competitor, err := s.getCompetitor(ctx, competitorID)
	if err != nil {
		return nil, err
	}
	match, err := s.getMatch(ctx, competitor.MatchID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOrganizer(ctx, match, actorID); err != nil {
		return nil, err
	}
	if match.IsTerminal() {
		return nil, ErrMatchTerminal
	}

	confirmed, err := s.competitorRepo.SetConfirmed(ctx, competitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm competitor %d: %w", competitorID, err)
	}
	if !confirmed {
		return nil, ErrCompetitorConfirmed
	}

	match, err = s.recomputeStatus(ctx, match)
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(match.ID, live.MessageMatchUpdated, match)
	return match, nil
}

// RemoveCompetitor — организаторский путь освобождения слота. Не пишет ни
// withdrawal, ни запись истории: этот каскад зарезервирован за уходом по
// инициативе самого участника.
func (s *matchService) RemoveCompetitor(ctx context.Context, actorID, competitorID int) error {
	competitor, err := s.getCompetitor(ctx, competitorID)
	if err != nil {
		return err
	}
	match, err := s.getMatch(ctx, competitor.MatchID)
	if err != nil {
		return err
	}
	if err := s.authorizeOrganizer(ctx, match, actorID); err != nil {
		return err
	}
	if match.IsTerminal() {
		return ErrMatchTerminal
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.competitorRepo.Delete(ctx, exec, competitorID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitorNotFound) {
			return ErrCompetitorNotFound
		}
		return fmt.Errorf("failed to remove competitor %d: %w", competitorID, err)
	}

	if _, err := s.recomputeStatus(ctx, match); err != nil {
		s.logger.WarnContext(ctx, "failed to recompute match status after competitor removal",
			slog.Int("match_id", match.ID), slog.Any("error", err))
	}

	s.broadcastMatch(match.ID, live.MessageMatchUpdated, match)
	return nil
}

// Withdraw выполняет каскад ухода участника. Обязательное ядро — запись об
// уходе, освобождение слота и возврат матча в pending — идёт одной
// транзакцией и при ошибке прерывает операцию. Побочная бухгалтерия (запись
// истории, чистка заявок) выполняется после коммита: её сбой логируется, но
// не откатывает и не блокирует сам уход.
func (s *matchService) Withdraw(ctx context.Context, userID, matchID int, reasonText string, comment *string) (*models.Withdrawal, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.IsTerminal() {
		return nil, ErrMatchTerminal
	}

	// Статус фиксируется до мутаций: историю пишем только если участник
	// уходил с подтверждённого матча.
	wasConfirmed := match.Status == models.MatchStatusConfirmed

	competitor, err := s.competitorRepo.FindByMatchAndUser(ctx, matchID, userID)
	if err != nil && !errors.Is(err, repositories.ErrCompetitorNotFound) {
		return nil, fmt.Errorf("failed to find competitor for match %d user %d: %w", matchID, userID, err)
	}
	if errors.Is(err, repositories.ErrCompetitorNotFound) {
		competitor = nil
	}

	// Сняться может только тот, кто занимает слот или подал pending-заявку.
	// Чужой уход не должен трогать состав и статус матча.
	if competitor == nil {
		pending, findErr := s.findPendingRequest(ctx, matchID, userID)
		if findErr != nil {
			return nil, findErr
		}
		if pending == nil {
			return nil, ErrCompetitorNotFound
		}
	}

	withdrawal := &models.Withdrawal{
		UserID:  userID,
		EventID: &match.EventID,
		MatchID: matchID,
		Reason:  MapWithdrawalReason(reasonText),
		Comment: comment,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if createErr := s.withdrawalRepo.Create(ctx, exec, withdrawal); createErr != nil {
			return fmt.Errorf("failed to record withdrawal: %w", createErr)
		}
		if competitor != nil {
			if delErr := s.competitorRepo.Delete(ctx, exec, competitor.ID); delErr != nil {
				return fmt.Errorf("failed to free slot: %w", delErr)
			}
		}
		// Матч безусловно возвращается в pending: организатор должен
		// заново подтвердить состав, даже если статус уже был pending.
		return s.matchRepo.UpdateStatus(ctx, exec, matchID, models.MatchStatusPending)
	})
	if err != nil {
		return nil, err
	}

	if wasConfirmed {
		s.synthesizeWithdrawalHistory(ctx, match, userID, reasonText, comment)
	}

	if competitor != nil {
		if cleanErr := s.requestRepo.DeletePendingByTuple(ctx, matchID, userID, competitor.Position); cleanErr != nil {
			s.logger.WarnContext(ctx, "failed to clean up stale requests after withdrawal",
				slog.Int("match_id", matchID), slog.Int("user_id", userID), slog.Any("error", cleanErr))
		}
	} else {
		s.markPendingRequestsWithdrawn(ctx, matchID, userID)
	}

	s.broadcastMatch(matchID, live.MessageMatchUpdated, map[string]interface{}{
		"match_id": matchID,
		"status":   models.MatchStatusPending,
	})
	return withdrawal, nil
}

func (s *matchService) synthesizeWithdrawalHistory(ctx context.Context, match *models.Match, userID int, reasonText string, comment *string) {
	notes := reasonText
	if comment != nil && *comment != "" {
		notes = notes + " (" + *comment + ")"
	}

	entry := &models.Competition{
		UserID:    userID,
		EventName: s.eventNameForMatch(ctx, match),
		EventDate: match.CreatedAt,
		Status:    models.CompetitionStatusWithdrew,
		MatchType: models.MatchTypeSingle,
		Notes:     &notes,
	}

	if err := s.competitionRepo.Create(ctx, entry); err != nil {
		// Несостоявшаяся запись истории не должна блокировать сам уход.
		s.logger.ErrorContext(ctx, "failed to synthesize competition history for withdrawal",
			slog.Int("match_id", match.ID), slog.Int("user_id", userID), slog.Any("error", err))
	}
}

// findPendingRequest возвращает pending-заявку пользователя на любой из слотов
// матча, либо nil, если заявки нет.
func (s *matchService) findPendingRequest(ctx context.Context, matchID, userID int) (*models.MatchRequest, error) {
	for _, position := range []int{1, 2} {
		request, err := s.requestRepo.FindByTupleAndStatus(ctx, matchID, userID, position, models.RequestStatusPending)
		if err != nil {
			if errors.Is(err, repositories.ErrRequestNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to look up pending request for match %d user %d: %w", matchID, userID, err)
		}
		return request, nil
	}
	return nil, nil
}

func (s *matchService) markPendingRequestsWithdrawn(ctx context.Context, matchID, userID int) {
	for _, position := range []int{1, 2} {
		request, err := s.requestRepo.FindByTupleAndStatus(ctx, matchID, userID, position, models.RequestStatusPending)
		if err != nil {
			if !errors.Is(err, repositories.ErrRequestNotFound) {
				s.logger.WarnContext(ctx, "failed to look up pending request during withdrawal",
					slog.Int("match_id", matchID), slog.Int("user_id", userID), slog.Any("error", err))
			}
			continue
		}
		// withdrawn, а не rejected: уход по инициативе пользователя.
		markErr := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			_, resolveErr := s.requestRepo.ResolveIfPending(ctx, exec, request.ID, models.RequestStatusWithdrawn)
			return resolveErr
		})
		if markErr != nil {
			s.logger.WarnContext(ctx, "failed to mark request withdrawn",
				slog.Int("request_id", request.ID), slog.Any("error", markErr))
		}
	}
}

// RecordResult завершает матч и синтезирует записи истории (win/loss) для
// участников с аккаунтами. Синтез — best-effort, как и при уходе.
func (s *matchService) RecordResult(ctx context.Context, actorID, matchID, winnerPosition int) error {
	if winnerPosition != 1 && winnerPosition != 2 {
		return ErrInvalidPosition
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if err := s.authorizeOrganizer(ctx, match, actorID); err != nil {
		return err
	}
	if match.IsTerminal() {
		return ErrMatchTerminal
	}

	competitors, err := s.competitorRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to list competitors for match %d: %w", matchID, err)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.matchRepo.SetResult(ctx, exec, matchID, winnerPosition, models.MatchStatusCompleted)
	})
	if err != nil {
		return fmt.Errorf("failed to record result for match %d: %w", matchID, err)
	}

	eventName := s.eventNameForMatch(ctx, match)
	for _, c := range competitors {
		if !c.IsRegisteredUser() {
			continue
		}
		result := models.ResultLoss
		if c.Position == winnerPosition {
			result = models.ResultWin
		}
		entry := &models.Competition{
			UserID:    *c.UserID,
			EventName: eventName,
			EventDate: match.CreatedAt,
			Result:    &result,
			Status:    models.CompetitionStatusCompleted,
			MatchType: models.MatchTypeSingle,
		}
		if createErr := s.competitionRepo.Create(ctx, entry); createErr != nil {
			s.logger.ErrorContext(ctx, "failed to synthesize competition history for result",
				slog.Int("match_id", matchID), slog.Int("user_id", *c.UserID), slog.Any("error", createErr))
		}
	}

	s.broadcastMatch(matchID, live.MessageMatchUpdated, map[string]interface{}{
		"match_id":        matchID,
		"status":          models.MatchStatusCompleted,
		"winner_position": winnerPosition,
	})
	return nil
}

func (s *matchService) CancelMatch(ctx context.Context, actorID, matchID int) error {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if err := s.authorizeOrganizer(ctx, match, actorID); err != nil {
		return err
	}
	if match.IsTerminal() {
		return ErrMatchTerminal
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.matchRepo.UpdateStatus(ctx, exec, matchID, models.MatchStatusCancelled)
	})
	if err != nil {
		return fmt.Errorf("failed to cancel match %d: %w", matchID, err)
	}

	s.broadcastMatch(matchID, live.MessageMatchUpdated, map[string]interface{}{
		"match_id": matchID,
		"status":   models.MatchStatusCancelled,
	})
	return nil
}

func (s *matchService) CheckEligibility(ctx context.Context, userID, matchID int) (bool, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return false, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return IsEligible(user, match), nil
}

// --- внутренние хелперы ---

func (s *matchService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	return match, nil
}

func (s *matchService) getCompetitor(ctx context.Context, competitorID int) (*models.MatchCompetitor, error) {
	competitor, err := s.competitorRepo.GetByID(ctx, competitorID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitorNotFound) {
			return nil, ErrCompetitorNotFound
		}
		return nil, fmt.Errorf("failed to get competitor %d: %w", competitorID, err)
	}
	return competitor, nil
}

func (s *matchService) getRequestWithMatch(ctx context.Context, requestID int) (*models.MatchRequest, *models.Match, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, nil, ErrRequestNotFound
		}
		return nil, nil, fmt.Errorf("failed to get request %d: %w", requestID, err)
	}
	match, err := s.getMatch(ctx, request.MatchID)
	if err != nil {
		return nil, nil, err
	}
	return request, match, nil
}

// authorizeOrganizer проверяет право на организаторские операции на границе
// сервиса: действующий пользователь передаётся явно, не из ambient-контекста.
func (s *matchService) authorizeOrganizer(ctx context.Context, match *models.Match, actorID int) error {
	if match.CreatorID == actorID {
		return nil
	}
	return s.requireAdmin(ctx, actorID)
}

func (s *matchService) requireAdmin(ctx context.Context, actorID int) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrOrganizerOnly
		}
		return fmt.Errorf("failed to get user %d: %w", actorID, err)
	}
	if actor.Role != models.RoleAdmin {
		return ErrOrganizerOnly
	}
	return nil
}

// recomputeStatus перечитывает участников и приводит сохранённый статус
// матча к производному значению.
func (s *matchService) recomputeStatus(ctx context.Context, match *models.Match) (*models.Match, error) {
	competitors, err := s.competitorRepo.ListByMatch(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors for match %d: %w", match.ID, err)
	}

	next := ComputeStatus(match.Status, competitors)
	if next != match.Status {
		err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			return s.matchRepo.UpdateStatus(ctx, exec, match.ID, next)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to update match %d status to %s: %w", match.ID, next, err)
		}
		match.Status = next
	}
	match.Competitors = competitors
	return match, nil
}

func (s *matchService) eventNameForMatch(ctx context.Context, match *models.Match) string {
	event, err := s.eventRepo.GetByID(ctx, match.EventID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve event name for history entry",
			slog.Int("match_id", match.ID), slog.Int("event_id", match.EventID), slog.Any("error", err))
		return fmt.Sprintf("Match #%d", match.ID)
	}
	return event.Name
}

func (s *matchService) broadcastMatch(matchID int, messageType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	room := live.MatchRoom(matchID)
	s.hub.BroadcastToRoom(room, live.Message{
		Type:    messageType,
		Payload: payload,
		RoomID:  room,
	})
}
