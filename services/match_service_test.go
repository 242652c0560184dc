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

// --- in-memory фейки репозиториев ---

type fakeTransactor struct{}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	// Фейковые репозитории игнорируют exec, транзакция не нужна.
	return fn(nil)
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
}

func (f *fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	match.ID = f.nextID
	f.nextID++
	match.CreatedAt = time.Now()
	f.matches[match.ID] = match
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (f *fakeMatchRepo) ListByEvent(ctx context.Context, eventID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range f.matches {
		if m.EventID != eventID {
			continue
		}
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Status = status
	return nil
}

func (f *fakeMatchRepo) SetResult(ctx context.Context, exec repositories.SQLExecutor, id int, winnerPosition int, status models.MatchStatus) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.WinnerPosition = &winnerPosition
	match.Status = status
	return nil
}

type fakeCompetitorRepo struct {
	nextID      int
	competitors map[int]*models.MatchCompetitor
}

func newFakeCompetitorRepo() *fakeCompetitorRepo {
	return &fakeCompetitorRepo{nextID: 1, competitors: make(map[int]*models.MatchCompetitor)}
}

func (f *fakeCompetitorRepo) Create(ctx context.Context, exec repositories.SQLExecutor, competitor *models.MatchCompetitor) error {
	for _, c := range f.competitors {
		if c.MatchID == competitor.MatchID && c.Position == competitor.Position {
			return repositories.ErrCompetitorSlotTaken
		}
	}
	competitor.ID = f.nextID
	f.nextID++
	competitor.CreatedAt = time.Now()
	f.competitors[competitor.ID] = competitor
	return nil
}

func (f *fakeCompetitorRepo) GetByID(ctx context.Context, id int) (*models.MatchCompetitor, error) {
	c, ok := f.competitors[id]
	if !ok {
		return nil, repositories.ErrCompetitorNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCompetitorRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchCompetitor, error) {
	var out []*models.MatchCompetitor
	for _, c := range f.competitors {
		if c.MatchID == matchID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCompetitorRepo) FindByMatchAndUser(ctx context.Context, matchID, userID int) (*models.MatchCompetitor, error) {
	for _, c := range f.competitors {
		if c.MatchID == matchID && c.UserID != nil && *c.UserID == userID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repositories.ErrCompetitorNotFound
}

func (f *fakeCompetitorRepo) SetConfirmed(ctx context.Context, id int) (bool, error) {
	c, ok := f.competitors[id]
	if !ok {
		return false, repositories.ErrCompetitorNotFound
	}
	if c.Confirmed {
		return false, nil
	}
	c.Confirmed = true
	return true, nil
}

func (f *fakeCompetitorRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := f.competitors[id]; !ok {
		return repositories.ErrCompetitorNotFound
	}
	delete(f.competitors, id)
	return nil
}

type fakeRequestRepo struct {
	nextID   int
	requests map[int]*models.MatchRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{nextID: 1, requests: make(map[int]*models.MatchRequest)}
}

func (f *fakeRequestRepo) Create(ctx context.Context, request *models.MatchRequest) error {
	request.ID = f.nextID
	f.nextID++
	request.CreatedAt = time.Now()
	f.requests[request.ID] = request
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id int) (*models.MatchRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRequestRepo) ListByMatch(ctx context.Context, matchID int, statusFilter *models.RequestStatus) ([]*models.MatchRequest, error) {
	var out []*models.MatchRequest
	for _, r := range f.requests {
		if r.MatchID != matchID {
			continue
		}
		if statusFilter != nil && r.Status != *statusFilter {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRequestRepo) FindByTupleAndStatus(ctx context.Context, matchID, userID, position int, status models.RequestStatus) (*models.MatchRequest, error) {
	for _, r := range f.requests {
		if r.MatchID == matchID && r.UserID == userID && r.Position == position && r.Status == status {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repositories.ErrRequestNotFound
}

func (f *fakeRequestRepo) ResetToPending(ctx context.Context, id int, message *string) error {
	r, ok := f.requests[id]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	r.Status = models.RequestStatusPending
	r.Message = message
	r.RespondedAt = nil
	return nil
}

func (f *fakeRequestRepo) ResolveIfPending(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RequestStatus) (bool, error) {
	r, ok := f.requests[id]
	if !ok {
		return false, repositories.ErrRequestNotFound
	}
	if r.Status != models.RequestStatusPending {
		return false, nil
	}
	now := time.Now()
	r.Status = status
	r.RespondedAt = &now
	return true, nil
}

func (f *fakeRequestRepo) DeletePendingByTuple(ctx context.Context, matchID, userID, position int) error {
	for id, r := range f.requests {
		if r.MatchID == matchID && r.UserID == userID && r.Position == position && r.Status == models.RequestStatusPending {
			delete(f.requests, id)
		}
	}
	return nil
}

type fakeWithdrawalRepo struct {
	nextID      int
	withdrawals []*models.Withdrawal
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{nextID: 1}
}

func (f *fakeWithdrawalRepo) Create(ctx context.Context, exec repositories.SQLExecutor, withdrawal *models.Withdrawal) error {
	withdrawal.ID = f.nextID
	f.nextID++
	withdrawal.CreatedAt = time.Now()
	f.withdrawals = append(f.withdrawals, withdrawal)
	return nil
}

func (f *fakeWithdrawalRepo) ListByUser(ctx context.Context, userID int) ([]*models.Withdrawal, error) {
	var out []*models.Withdrawal
	for _, w := range f.withdrawals {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWithdrawalRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.Withdrawal, error) {
	var out []*models.Withdrawal
	for _, w := range f.withdrawals {
		if w.MatchID == matchID {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeCompetitionRepo struct {
	nextID    int
	entries   []*models.Competition
	createErr error
}

func newFakeCompetitionRepo() *fakeCompetitionRepo {
	return &fakeCompetitionRepo{nextID: 1}
}

func (f *fakeCompetitionRepo) Create(ctx context.Context, competition *models.Competition) error {
	if f.createErr != nil {
		return f.createErr
	}
	competition.ID = f.nextID
	f.nextID++
	competition.CreatedAt = time.Now()
	f.entries = append(f.entries, competition)
	return nil
}

func (f *fakeCompetitionRepo) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, repositories.ErrCompetitionNotFound
}

func (f *fakeCompetitionRepo) ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.Competition, error) {
	var out []*models.Competition
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCompetitionRepo) Update(ctx context.Context, competition *models.Competition) error {
	for i, e := range f.entries {
		if e.ID == competition.ID {
			f.entries[i] = competition
			return nil
		}
	}
	return repositories.ErrCompetitionNotFound
}

func (f *fakeCompetitionRepo) UpdatePodiumPhotoKey(ctx context.Context, id int, photoKey *string) error {
	for _, e := range f.entries {
		if e.ID == id {
			e.PodiumPhotoKey = photoKey
			return nil
		}
	}
	return repositories.ErrCompetitionNotFound
}

func (f *fakeCompetitionRepo) Delete(ctx context.Context, id int) error {
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repositories.ErrCompetitionNotFound
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	u, ok := f.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = avatarKey
	return nil
}

type fakeEventRepo struct {
	events map[int]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int]*models.Event)}
}

func (f *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEventRepo) ListByOrganizer(ctx context.Context, organizerID int) ([]*models.Event, error) {
	var out []*models.Event
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- тестовая обвязка ---

type matchServiceFixture struct {
	svc          MatchService
	matches      *fakeMatchRepo
	competitors  *fakeCompetitorRepo
	requests     *fakeRequestRepo
	withdrawals  *fakeWithdrawalRepo
	competitions *fakeCompetitionRepo
	users        *fakeUserRepo
	events       *fakeEventRepo
}

const (
	organizerID = 1
	athleteID   = 2
	rivalID     = 3
)

func newMatchServiceFixture(t *testing.T) *matchServiceFixture {
	t.Helper()

	f := &matchServiceFixture{
		matches:      newFakeMatchRepo(),
		competitors:  newFakeCompetitorRepo(),
		requests:     newFakeRequestRepo(),
		withdrawals:  newFakeWithdrawalRepo(),
		competitions: newFakeCompetitionRepo(),
		users:        newFakeUserRepo(),
		events:       newFakeEventRepo(),
	}

	gender := "male"
	belt := models.BeltPurple
	weight := 77.0
	f.users.users[organizerID] = &models.User{ID: organizerID, Email: "org@example.com", Role: models.RoleOrganizer, FirstName: "Org"}
	f.users.users[athleteID] = &models.User{ID: athleteID, Email: "athlete@example.com", Role: models.RoleAthlete, FirstName: "Ann", Gender: &gender, BeltLevel: &belt, WeightKG: &weight}
	f.users.users[rivalID] = &models.User{ID: rivalID, Email: "rival@example.com", Role: models.RoleAthlete, FirstName: "Bob", Gender: &gender, BeltLevel: &belt, WeightKG: &weight}

	f.events.events[10] = &models.Event{ID: 10, OrganizerID: organizerID, Name: "Spring Open"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewMatchService(
		&fakeTransactor{},
		f.matches,
		f.competitors,
		f.requests,
		f.withdrawals,
		f.competitions,
		f.users,
		f.events,
		nil,
		logger,
	)
	return f
}

func (f *matchServiceFixture) createMatch(t *testing.T) *models.Match {
	t.Helper()
	match, err := f.svc.CreateMatch(context.Background(), organizerID, CreateMatchInput{
		EventID: 10,
		Format:  models.FormatGi,
	})
	require.NoError(t, err)
	return match
}

// --- тесты ---

func TestCreateMatch(t *testing.T) {
	f := newMatchServiceFixture(t)

	match := f.createMatch(t)
	assert.Equal(t, models.MatchStatusPending, match.Status)
	assert.Equal(t, organizerID, match.CreatorID)

	t.Run("unknown format rejected", func(t *testing.T) {
		_, err := f.svc.CreateMatch(context.Background(), organizerID, CreateMatchInput{EventID: 10, Format: "freestyle"})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("non-organizer rejected", func(t *testing.T) {
		_, err := f.svc.CreateMatch(context.Background(), athleteID, CreateMatchInput{EventID: 10, Format: models.FormatGi})
		assert.ErrorIs(t, err, ErrOrganizerOnly)
	})
}

func TestRequestSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending request", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusPending, request.Status)
		assert.Equal(t, 1, request.Position)
	})

	t.Run("duplicate pending request rejected", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		_, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)

		_, err = f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		assert.ErrorIs(t, err, ErrDuplicateRequest)
	})

	t.Run("rejected request is resubmitted, not duplicated", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		require.NoError(t, f.svc.RejectRequest(ctx, organizerID, request.ID))

		message := "let me try again"
		resubmitted, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, &message)
		require.NoError(t, err)
		assert.Equal(t, request.ID, resubmitted.ID)
		assert.Equal(t, models.RequestStatusPending, resubmitted.Status)
		assert.Len(t, f.requests.requests, 1)
	})

	t.Run("occupied slot rejected", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		_, err := f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 1, ManualCompetitorInput{Name: "Walk-in"})
		require.NoError(t, err)

		_, err = f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		assert.ErrorIs(t, err, ErrSlotOccupied)
	})

	t.Run("invalid position rejected", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		_, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 3, nil)
		assert.ErrorIs(t, err, ErrInvalidPosition)
	})

	t.Run("terminal match rejected", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)
		require.NoError(t, f.svc.CancelMatch(ctx, organizerID, match.ID))

		_, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		assert.ErrorIs(t, err, ErrMatchTerminal)
	})
}

func TestApproveRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("approval creates unconfirmed competitor", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)

		competitor, err := f.svc.ApproveRequest(ctx, organizerID, request.ID)
		require.NoError(t, err)
		assert.False(t, competitor.Confirmed)
		assert.Equal(t, models.CompetitorTypeUser, competitor.Type)
		require.NotNil(t, competitor.UserID)
		assert.Equal(t, athleteID, *competitor.UserID)

		stored, err := f.requests.GetByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved, stored.Status)
	})

	t.Run("second approval does not create second competitor", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)

		_, err = f.svc.ApproveRequest(ctx, organizerID, request.ID)
		require.NoError(t, err)

		_, err = f.svc.ApproveRequest(ctx, organizerID, request.ID)
		assert.ErrorIs(t, err, ErrRequestAlreadyClosed)
		assert.Len(t, f.competitors.competitors, 1)
	})

	t.Run("approval into occupied slot fails", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		first, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		second, err := f.svc.RequestSlot(ctx, rivalID, match.ID, 1, nil)
		require.NoError(t, err)

		_, err = f.svc.ApproveRequest(ctx, organizerID, first.ID)
		require.NoError(t, err)

		_, err = f.svc.ApproveRequest(ctx, organizerID, second.ID)
		assert.ErrorIs(t, err, ErrSlotOccupied)
	})

	t.Run("only organizer can approve", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)

		_, err = f.svc.ApproveRequest(ctx, rivalID, request.ID)
		assert.ErrorIs(t, err, ErrOrganizerOnly)
	})
}

func TestConfirmCompetitor(t *testing.T) {
	ctx := context.Background()

	t.Run("both slots confirmed flips match to confirmed", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		first, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		c1, err := f.svc.ApproveRequest(ctx, organizerID, first.ID)
		require.NoError(t, err)

		// Ручной участник подтверждён сразу.
		_, err = f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 2, ManualCompetitorInput{Name: "Walk-in"})
		require.NoError(t, err)

		updated, err := f.svc.ConfirmCompetitor(ctx, organizerID, c1.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusConfirmed, updated.Status)
	})

	t.Run("one confirmed slot keeps match pending", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		first, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		c1, err := f.svc.ApproveRequest(ctx, organizerID, first.ID)
		require.NoError(t, err)

		updated, err := f.svc.ConfirmCompetitor(ctx, organizerID, c1.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusPending, updated.Status)
	})

	t.Run("double confirm is rejected", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		first, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		c1, err := f.svc.ApproveRequest(ctx, organizerID, first.ID)
		require.NoError(t, err)

		_, err = f.svc.ConfirmCompetitor(ctx, organizerID, c1.ID)
		require.NoError(t, err)

		_, err = f.svc.ConfirmCompetitor(ctx, organizerID, c1.ID)
		assert.ErrorIs(t, err, ErrCompetitorConfirmed)
	})
}

func TestAddManualCompetitor(t *testing.T) {
	ctx := context.Background()
	f := newMatchServiceFixture(t)
	match := f.createMatch(t)

	competitor, err := f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 1, ManualCompetitorInput{Name: "Walk-in"})
	require.NoError(t, err)
	assert.True(t, competitor.Confirmed)
	assert.Equal(t, models.CompetitorTypeManual, competitor.Type)

	t.Run("name required", func(t *testing.T) {
		_, err := f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 2, ManualCompetitorInput{})
		assert.ErrorIs(t, err, ErrManualFieldsRequired)
	})

	t.Run("occupied slot rejected", func(t *testing.T) {
		_, err := f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 1, ManualCompetitorInput{Name: "Another"})
		assert.ErrorIs(t, err, ErrSlotOccupied)
	})
}

func TestRemoveCompetitor(t *testing.T) {
	ctx := context.Background()
	f := newMatchServiceFixture(t)
	match := f.createMatch(t)

	c1, err := f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 1, ManualCompetitorInput{Name: "A"})
	require.NoError(t, err)
	c2, err := f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 2, ManualCompetitorInput{Name: "B"})
	require.NoError(t, err)

	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusConfirmed, stored.Status)

	// Освобождение слота возвращает подтверждённый матч в pending.
	require.NoError(t, f.svc.RemoveCompetitor(ctx, organizerID, c2.ID))

	stored, err = f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, stored.Status)

	// Организаторское удаление не пишет ни withdrawal, ни историю.
	assert.Empty(t, f.withdrawals.withdrawals)
	assert.Empty(t, f.competitions.entries)

	_ = c1
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("withdrawal from confirmed match synthesizes history", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		c1, err := f.svc.ApproveRequest(ctx, organizerID, request.ID)
		require.NoError(t, err)
		_, err = f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 2, ManualCompetitorInput{Name: "Walk-in"})
		require.NoError(t, err)
		_, err = f.svc.ConfirmCompetitor(ctx, organizerID, c1.ID)
		require.NoError(t, err)

		comment := "tweaked my knee"
		withdrawal, err := f.svc.Withdraw(ctx, athleteID, match.ID, "injured", &comment)
		require.NoError(t, err)
		assert.Equal(t, models.ReasonInjury, withdrawal.Reason)

		// Слот освобождён, матч вернулся в pending.
		_, err = f.competitors.FindByMatchAndUser(ctx, match.ID, athleteID)
		assert.ErrorIs(t, err, repositories.ErrCompetitorNotFound)
		stored, err := f.matches.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusPending, stored.Status)

		// История синтезирована со статусом withdrew.
		require.Len(t, f.competitions.entries, 1)
		entry := f.competitions.entries[0]
		assert.Equal(t, athleteID, entry.UserID)
		assert.Equal(t, models.CompetitionStatusWithdrew, entry.Status)
		assert.Equal(t, "Spring Open", entry.EventName)
		require.NotNil(t, entry.Notes)
		assert.Contains(t, *entry.Notes, comment)
	})

	t.Run("withdrawal from pending match writes no history", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		_, err = f.svc.ApproveRequest(ctx, organizerID, request.ID)
		require.NoError(t, err)

		_, err = f.svc.Withdraw(ctx, athleteID, match.ID, "schedule conflict", nil)
		require.NoError(t, err)

		assert.Empty(t, f.competitions.entries)
		assert.Len(t, f.withdrawals.withdrawals, 1)
		assert.Equal(t, models.ReasonScheduling, f.withdrawals.withdrawals[0].Reason)
	})

	t.Run("requester without slot gets pending requests marked withdrawn", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)

		_, err = f.svc.Withdraw(ctx, athleteID, match.ID, "personal", nil)
		require.NoError(t, err)

		stored, err := f.requests.GetByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusWithdrawn, stored.Status)
	})

	t.Run("uninvolved user rejected", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		c1, err := f.svc.ApproveRequest(ctx, organizerID, request.ID)
		require.NoError(t, err)
		_, err = f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 2, ManualCompetitorInput{Name: "Walk-in"})
		require.NoError(t, err)
		_, err = f.svc.ConfirmCompetitor(ctx, organizerID, c1.ID)
		require.NoError(t, err)

		// rivalID не занимает слот и не подавал заявку.
		_, err = f.svc.Withdraw(ctx, rivalID, match.ID, "injury", nil)
		assert.ErrorIs(t, err, ErrCompetitorNotFound)

		// Матч не тронут: статус прежний, никаких записей об уходе.
		stored, err := f.matches.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusConfirmed, stored.Status)
		assert.Empty(t, f.withdrawals.withdrawals)
		assert.Empty(t, f.competitions.entries)
	})

	t.Run("failed history write does not undo withdrawal", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)

		request, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
		require.NoError(t, err)
		c1, err := f.svc.ApproveRequest(ctx, organizerID, request.ID)
		require.NoError(t, err)
		_, err = f.svc.AddManualCompetitor(ctx, organizerID, match.ID, 2, ManualCompetitorInput{Name: "Walk-in"})
		require.NoError(t, err)
		_, err = f.svc.ConfirmCompetitor(ctx, organizerID, c1.ID)
		require.NoError(t, err)

		f.competitions.createErr = errors.New("history insert failed")

		withdrawal, err := f.svc.Withdraw(ctx, athleteID, match.ID, "injured", nil)
		require.NoError(t, err)
		assert.Equal(t, models.ReasonInjury, withdrawal.Reason)

		// Транзакция ухода уже зафиксирована: слот свободен, матч в pending.
		_, err = f.competitors.FindByMatchAndUser(ctx, match.ID, athleteID)
		assert.ErrorIs(t, err, repositories.ErrCompetitorNotFound)
		stored, err := f.matches.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusPending, stored.Status)
		assert.Len(t, f.withdrawals.withdrawals, 1)
		assert.Empty(t, f.competitions.entries)
	})

	t.Run("terminal match rejected", func(t *testing.T) {
		f := newMatchServiceFixture(t)
		match := f.createMatch(t)
		require.NoError(t, f.svc.CancelMatch(ctx, organizerID, match.ID))

		_, err := f.svc.Withdraw(ctx, athleteID, match.ID, "injury", nil)
		assert.ErrorIs(t, err, ErrMatchTerminal)
	})
}

func TestRecordResult(t *testing.T) {
	ctx := context.Background()
	f := newMatchServiceFixture(t)
	match := f.createMatch(t)

	first, err := f.svc.RequestSlot(ctx, athleteID, match.ID, 1, nil)
	require.NoError(t, err)
	_, err = f.svc.ApproveRequest(ctx, organizerID, first.ID)
	require.NoError(t, err)
	second, err := f.svc.RequestSlot(ctx, rivalID, match.ID, 2, nil)
	require.NoError(t, err)
	_, err = f.svc.ApproveRequest(ctx, organizerID, second.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RecordResult(ctx, organizerID, match.ID, 1))

	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, stored.Status)
	require.NotNil(t, stored.WinnerPosition)
	assert.Equal(t, 1, *stored.WinnerPosition)

	// Каждому участнику с аккаунтом синтезирована запись истории.
	require.Len(t, f.competitions.entries, 2)
	results := map[int]models.CompetitionResult{}
	for _, entry := range f.competitions.entries {
		require.NotNil(t, entry.Result)
		results[entry.UserID] = *entry.Result
	}
	assert.Equal(t, models.ResultWin, results[athleteID])
	assert.Equal(t, models.ResultLoss, results[rivalID])

	t.Run("completed match is terminal", func(t *testing.T) {
		err := f.svc.RecordResult(ctx, organizerID, match.ID, 2)
		assert.ErrorIs(t, err, ErrMatchTerminal)
	})
}

func TestCheckEligibility(t *testing.T) {
	ctx := context.Background()
	f := newMatchServiceFixture(t)

	belt := models.BeltPurple
	gender := "male"
	limit := 80.0
	match, err := f.svc.CreateMatch(ctx, organizerID, CreateMatchInput{
		EventID:       10,
		Format:        models.FormatGi,
		BeltLevel:     &belt,
		Gender:        &gender,
		WeightLimitKG: &limit,
	})
	require.NoError(t, err)

	t.Run("matching profile is eligible", func(t *testing.T) {
		eligible, err := f.svc.CheckEligibility(ctx, athleteID, match.ID)
		require.NoError(t, err)
		assert.True(t, eligible)
	})

	t.Run("missing profile fields fail closed", func(t *testing.T) {
		f.users.users[athleteID].WeightKG = nil
		defer func() {
			weight := 77.0
			f.users.users[athleteID].WeightKG = &weight
		}()

		eligible, err := f.svc.CheckEligibility(ctx, athleteID, match.ID)
		require.NoError(t, err)
		assert.False(t, eligible)
	})

	t.Run("over weight limit is ineligible", func(t *testing.T) {
		heavy := 95.0
		f.users.users[rivalID].WeightKG = &heavy

		eligible, err := f.svc.CheckEligibility(ctx, rivalID, match.ID)
		require.NoError(t, err)
		assert.False(t, eligible)
	})
}

func TestComputeStatus(t *testing.T) {
	confirmed := func(position int) *models.MatchCompetitor {
		return &models.MatchCompetitor{Position: position, Confirmed: true}
	}
	unconfirmed := func(position int) *models.MatchCompetitor {
		return &models.MatchCompetitor{Position: position}
	}

	tests := []struct {
		name        string
		current     models.MatchStatus
		competitors []*models.MatchCompetitor
		want        models.MatchStatus
	}{
		{"empty match stays pending", models.MatchStatusPending, nil, models.MatchStatusPending},
		{"one confirmed slot stays pending", models.MatchStatusPending, []*models.MatchCompetitor{confirmed(1)}, models.MatchStatusPending},
		{"two unconfirmed slots stay pending", models.MatchStatusPending, []*models.MatchCompetitor{unconfirmed(1), unconfirmed(2)}, models.MatchStatusPending},
		{"two confirmed slots become confirmed", models.MatchStatusPending, []*models.MatchCompetitor{confirmed(1), confirmed(2)}, models.MatchStatusConfirmed},
		{"confirmed match reverts when slot drops", models.MatchStatusConfirmed, []*models.MatchCompetitor{confirmed(1)}, models.MatchStatusPending},
		{"completed is never recomputed", models.MatchStatusCompleted, nil, models.MatchStatusCompleted},
		{"cancelled is never recomputed", models.MatchStatusCancelled, []*models.MatchCompetitor{confirmed(1), confirmed(2)}, models.MatchStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatus(tt.current, tt.competitors))
		})
	}
}
