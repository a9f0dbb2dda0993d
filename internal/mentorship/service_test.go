package mentorship_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbfs "github.com/garnizeh/mentorhub/db"
	"github.com/garnizeh/mentorhub/internal/db"
	"github.com/garnizeh/mentorhub/internal/mentorship"
	"github.com/garnizeh/mentorhub/internal/notify"
	"github.com/garnizeh/mentorhub/internal/repository/sqlite"
	"github.com/garnizeh/mentorhub/pkg/models"
)

type sent struct {
	to int64
	ev notify.Event
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []sent
}

func (f *fakeNotifier) SendTo(identity int64, ev notify.Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sent{to: identity, ev: ev})
	return 1
}

func (f *fakeNotifier) sent() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.events...)
}

type fixture struct {
	svc      *mentorship.Service
	repo     *sqlite.SQLiteRepo
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	conn, err := db.New(ctx, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn, dbfs.Migrations))

	repo := sqlite.New(conn, nil)
	n := &fakeNotifier{}
	return &fixture{svc: mentorship.NewService(repo, n, nil), repo: repo, notifier: n}
}

func (f *fixture) user(t *testing.T, name string, role models.Role) int64 {
	t.Helper()
	id, err := f.repo.CreateUser(context.Background(), &models.User{Name: name, Email: name + "@uni.edu", PasswordHash: "x", Mentorship: role})
	require.NoError(t, err)
	return id
}

func (f *fixture) get(t *testing.T, id int64) *models.User {
	t.Helper()
	u, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func TestRequestThenAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u3 := f.user(t, "U3", models.RoleMentor)
	u7 := f.user(t, "U7", models.RoleMentee)

	require.NoError(t, f.svc.RequestMentor(ctx, u7, u3, "Interested in ML"))

	mentee := f.get(t, u7)
	assert.Equal(t, models.StatusRequested, mentee.Status)
	require.NotNil(t, mentee.MentorID)
	assert.Equal(t, u3, *mentee.MentorID)

	notes, total, err := f.svc.Notifications(ctx, u3, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, models.NotificationMentorshipRequest, notes[0].Type)
	assert.Equal(t, "You have a new mentorship request from U7.", notes[0].Message)

	pushed := f.notifier.sent()
	require.Len(t, pushed, 1)
	assert.Equal(t, u3, pushed[0].to)
	assert.Equal(t, string(models.NotificationMentorshipRequest), pushed[0].ev.Type)
	payload := pushed[0].ev.Payload.(mentorship.Payload)
	assert.Equal(t, u3, payload.UserID)
	assert.Equal(t, u7, payload.FromUserID)
	assert.Equal(t, notes[0].ID, payload.NotificationID)

	pending, err := f.svc.ListPendingRequests(ctx, u3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, u7, pending[0].ID)
	assert.Equal(t, "Interested in ML", pending[0].Note)
	assert.Equal(t, models.StatusRequested, pending[0].Status)

	require.NoError(t, f.svc.Respond(ctx, u3, u7, models.StatusAccepted))

	mentee = f.get(t, u7)
	assert.Equal(t, models.StatusAccepted, mentee.Status)
	require.NotNil(t, mentee.MentorID)
	assert.Equal(t, u3, *mentee.MentorID)

	notes, _, err = f.svc.Notifications(ctx, u7, 10, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationMentorshipResponse, notes[0].Type)
	assert.Equal(t, "Your mentorship request to U3 has been accepted.", notes[0].Message)

	pushed = f.notifier.sent()
	require.Len(t, pushed, 2)
	assert.Equal(t, u7, pushed[1].to)
	assert.Equal(t, "accepted", pushed[1].ev.Payload.(mentorship.Payload).Status)

	mentees, err := f.svc.GetMentees(ctx, u3)
	require.NoError(t, err)
	require.Len(t, mentees, 1)
	assert.Equal(t, u7, mentees[0].ID)

	mentor, err := f.svc.GetMentor(ctx, u7)
	require.NoError(t, err)
	require.Len(t, mentor, 1)
	assert.Equal(t, u3, mentor[0].ID)

	pending, err = f.svc.ListPendingRequests(ctx, u3)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRespondRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.user(t, "mentor", models.RoleMentor)
	e := f.user(t, "mentee", models.RoleMentee)

	require.NoError(t, f.svc.RequestMentor(ctx, e, m, ""))
	require.NoError(t, f.svc.Respond(ctx, m, e, models.StatusRejected))

	mentee := f.get(t, e)
	assert.Equal(t, models.StatusRejected, mentee.Status)
	assert.Nil(t, mentee.MentorID)

	mentees, err := f.svc.GetMentees(ctx, m)
	require.NoError(t, err)
	assert.Empty(t, mentees)

	_, err = f.svc.GetMentor(ctx, e)
	assert.ErrorIs(t, err, mentorship.ErrNotFound)

	// rejected -> requested is allowed
	require.NoError(t, f.svc.RequestMentor(ctx, e, m, "again"))
	assert.Equal(t, models.StatusRequested, f.get(t, e).Status)
}

func TestListMentorsExcludesLinked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.user(t, "m1", models.RoleMentor)
	m2 := f.user(t, "m2", models.RoleMentor)
	e := f.user(t, "e", models.RoleMentee)

	list, err := f.svc.ListMentors(ctx, e)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, f.svc.RequestMentor(ctx, e, m1, ""))
	require.NoError(t, f.svc.Respond(ctx, m1, e, models.StatusAccepted))

	list, err = f.svc.ListMentors(ctx, e)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m2, list[0].ID)

	// the mentor does not see itself
	list, err = f.svc.ListMentors(ctx, m1)
	require.NoError(t, err)
	for _, l := range list {
		assert.NotEqual(t, m1, l.ID)
	}
}

func TestRequestMentorErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.user(t, "m1", models.RoleMentor)
	m2 := f.user(t, "m2", models.RoleMentor)
	e := f.user(t, "e", models.RoleMentee)
	plain := f.user(t, "plain", "")

	long := make([]byte, 2001)
	for i := range long {
		long[i] = 'a'
	}

	cases := []struct {
		name   string
		caller int64
		target int64
		note   string
		want   error
	}{
		{name: "MissingTarget", caller: e, target: 0, want: mentorship.ErrValidation},
		{name: "NoteTooLong", caller: e, target: m1, note: string(long), want: mentorship.ErrValidation},
		{name: "UnknownTarget", caller: e, target: 999, want: mentorship.ErrNotFound},
		{name: "TargetNotMentor", caller: m1, target: e, want: mentorship.ErrNotFound},
		{name: "UnknownCaller", caller: 999, target: m1, want: mentorship.ErrNotFound},
		{name: "Self", caller: m1, target: m1, want: mentorship.ErrInvalidState},
		{name: "CallerIsMentor", caller: m2, target: m1, want: mentorship.ErrInvalidState},
		{name: "CallerWithoutRole", caller: plain, target: m1, want: mentorship.ErrInvalidState},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := f.svc.RequestMentor(ctx, c.caller, c.target, c.note)
			assert.ErrorIs(t, err, c.want)
		})
	}
	assert.Empty(t, f.notifier.sent())
}

func TestRequestWhilePendingIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.user(t, "m1", models.RoleMentor)
	m2 := f.user(t, "m2", models.RoleMentor)
	e := f.user(t, "e", models.RoleMentee)

	require.NoError(t, f.svc.RequestMentor(ctx, e, m1, "first"))
	err := f.svc.RequestMentor(ctx, e, m2, "second")
	assert.ErrorIs(t, err, mentorship.ErrInvalidState)

	mentee := f.get(t, e)
	assert.Equal(t, *mentee.MentorID, m1)
	assert.Equal(t, "first", mentee.Note)

	pending, err := f.svc.ListPendingRequests(ctx, m2)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReRequestSupersedesAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.user(t, "m1", models.RoleMentor)
	m2 := f.user(t, "m2", models.RoleMentor)
	e := f.user(t, "e", models.RoleMentee)

	require.NoError(t, f.svc.RequestMentor(ctx, e, m1, ""))
	require.NoError(t, f.svc.Respond(ctx, m1, e, models.StatusAccepted))

	// same mentor again is refused
	assert.ErrorIs(t, f.svc.RequestMentor(ctx, e, m1, ""), mentorship.ErrInvalidState)

	require.NoError(t, f.svc.RequestMentor(ctx, e, m2, "switch"))

	mentees, err := f.svc.GetMentees(ctx, m1)
	require.NoError(t, err)
	assert.Empty(t, mentees)

	_, err = f.svc.GetMentor(ctx, e)
	assert.ErrorIs(t, err, mentorship.ErrNotFound)

	pending, err := f.svc.ListPendingRequests(ctx, m2)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "switch", pending[0].Note)
}

func TestRespondErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.user(t, "m1", models.RoleMentor)
	m2 := f.user(t, "m2", models.RoleMentor)
	e := f.user(t, "e", models.RoleMentee)
	idle := f.user(t, "idle", models.RoleMentee)
	require.NoError(t, f.svc.RequestMentor(ctx, e, m1, ""))

	cases := []struct {
		name     string
		mentor   int64
		mentee   int64
		decision models.Status
		want     error
	}{
		{name: "BadDecision", mentor: m1, mentee: e, decision: models.StatusRequested, want: mentorship.ErrValidation},
		{name: "MissingMentee", mentor: m1, mentee: 0, decision: models.StatusAccepted, want: mentorship.ErrValidation},
		{name: "UnknownMentee", mentor: m1, mentee: 999, decision: models.StatusAccepted, want: mentorship.ErrNotFound},
		{name: "UnknownMentor", mentor: 999, mentee: e, decision: models.StatusAccepted, want: mentorship.ErrNotFound},
		{name: "NothingPending", mentor: m1, mentee: idle, decision: models.StatusAccepted, want: mentorship.ErrInvalidState},
		{name: "AddressedToOther", mentor: m2, mentee: e, decision: models.StatusAccepted, want: mentorship.ErrInvalidState},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.ErrorIs(t, f.svc.Respond(ctx, c.mentor, c.mentee, c.decision), c.want)
		})
	}

	// the pending request survived every failed attempt
	assert.Equal(t, models.StatusRequested, f.get(t, e).Status)
}

func TestConcurrentRespondsOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.user(t, "m", models.RoleMentor)
	e := f.user(t, "e", models.RoleMentee)
	require.NoError(t, f.svc.RequestMentor(ctx, e, m, ""))

	decisions := []models.Status{models.StatusAccepted, models.StatusRejected, models.StatusAccepted, models.StatusRejected}
	errs := make([]error, len(decisions))
	var wg sync.WaitGroup
	for i, d := range decisions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.svc.Respond(ctx, m, e, d)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, mentorship.ErrInvalidState)
	}
	assert.Equal(t, 1, wins)

	notes, total, err := f.svc.Notifications(ctx, e, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, notes, 1)
}

func TestUserRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.user(t, "m", models.RoleMentor)

	r1, err := f.svc.UserRole(ctx, m)
	require.NoError(t, err)
	r2, err := f.svc.UserRole(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMentor, r1)
	assert.Equal(t, r1, r2)

	_, err = f.svc.UserRole(ctx, 999)
	assert.True(t, errors.Is(err, mentorship.ErrNotFound))
}

func TestGetMenteesUnknownMentor(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetMentees(context.Background(), 999)
	assert.ErrorIs(t, err, mentorship.ErrNotFound)
}

func TestNotificationsEmpty(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "u", models.RoleMentee)

	items, total, err := f.svc.Notifications(context.Background(), u, 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestNilNotifierSkipsPush(t *testing.T) {
	ctx := context.Background()
	conn, err := db.New(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, db.Migrate(ctx, conn, dbfs.Migrations))

	repo := sqlite.New(conn, nil)
	svc := mentorship.NewService(repo, nil, nil)
	m, _ := repo.CreateUser(ctx, &models.User{Name: "m", Email: "m@uni.edu", PasswordHash: "x", Mentorship: models.RoleMentor})
	e, _ := repo.CreateUser(ctx, &models.User{Name: "e", Email: "e@uni.edu", PasswordHash: "x", Mentorship: models.RoleMentee})

	assert.NoError(t, svc.RequestMentor(ctx, e, m, ""))
}
