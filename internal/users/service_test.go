package users

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showcase-api/showcase/internal/auth"
	"github.com/showcase-api/showcase/internal/cache"
	"github.com/showcase-api/showcase/internal/shared"
)

type storedUser struct {
	User
	passwordHash string
	confirmCode  string
}

type mockRepo struct {
	rows   map[int64]storedUser
	nextID int64
	writes int
}

func newMockRepo(rows ...storedUser) *mockRepo {
	m := &mockRepo{rows: map[int64]storedUser{}, nextID: 1}
	for _, row := range rows {
		m.rows[row.ID] = row
		if row.ID >= m.nextID {
			m.nextID = row.ID + 1
		}
	}
	return m
}

func (m *mockRepo) List(_ context.Context, q shared.ListQuery) ([]User, error) {
	var out []User
	for _, row := range m.rows {
		match := true
		for _, f := range q.Filters {
			switch f.Column {
			case "username":
				if row.Username != f.Value.(string) {
					match = false
				}
			case "email":
				if row.Email != f.Value.(string) {
					match = false
				}
			}
		}
		if match {
			out = append(out, row.User)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Offset >= len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*User, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	u := row.User
	return &u, nil
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, row := range m.rows {
		if row.Username == username {
			u := row.User
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: user %q", shared.ErrNotFound, username)
}

func (m *mockRepo) Create(_ context.Context, record NewUser) (*User, error) {
	m.writes++
	for _, row := range m.rows {
		if row.Username == record.Username || row.Email == record.Email {
			return nil, fmt.Errorf("%w: username or email already in use", shared.ErrConflict)
		}
	}
	row := storedUser{
		User: User{
			ID:          m.nextID,
			Username:    record.Username,
			Email:       record.Email,
			IsSuperuser: record.IsSuperuser,
			IsActive:    true,
			Confirmed:   record.ConfirmCode == "",
			DateJoined:  time.Now().UTC(),
		},
		passwordHash: record.PasswordHash,
		confirmCode:  record.ConfirmCode,
	}
	m.nextID++
	m.rows[row.ID] = row
	u := row.User
	return &u, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, input Input) (int64, error) {
	m.writes++
	row, ok := m.rows[id]
	if !ok {
		return 0, nil
	}
	row.Username = input.Username
	row.Email = input.Email
	m.rows[id] = row
	return 1, nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) (int64, error) {
	m.writes++
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *mockRepo) Confirm(_ context.Context, code string) (*User, error) {
	for id, row := range m.rows {
		if row.confirmCode == code && row.confirmCode != "" && !row.Confirmed {
			row.Confirmed = true
			row.confirmCode = ""
			m.rows[id] = row
			u := row.User
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: confirmation code", shared.ErrNotFound)
}

type mockMailer struct {
	sent []string // "email|username|code"
	err  error
}

func (m *mockMailer) EnqueueConfirmation(_ context.Context, email, username, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, fmt.Sprintf("%s|%s|%s", email, username, code))
	return nil
}

func newTestService(t *testing.T, rows ...storedUser) (*Service, *mockRepo, *mockMailer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMockRepo(rows...)
	mailer := &mockMailer{}
	return NewService(repo, cache.New(client, time.Minute, nil, nil), mailer, nil), repo, mailer, mr
}

var (
	admin  = &auth.Principal{ID: 1, Username: "admin", IsSuperuser: true}
	viewer = &auth.Principal{ID: 2, Username: "bob"}
)

func account(id int64, username string) storedUser {
	return storedUser{User: User{
		ID:         id,
		Username:   username,
		Email:      username + "@example.com",
		IsActive:   true,
		Confirmed:  true,
		DateJoined: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
}

func TestBareListIsCached(t *testing.T) {
	svc, repo, _, mr := newTestService(t, account(1, "admin"))
	ctx := context.Background()

	rows, err := svc.List(ctx, shared.NewListQuery(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, mr.Exists(listCacheKey))

	repo.rows[2] = account(2, "bob")
	rows, err = svc.List(ctx, shared.NewListQuery(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilteredListBypassesCache(t *testing.T) {
	svc, _, _, mr := newTestService(t, account(1, "admin"), account(2, "bob"))
	ctx := context.Background()

	username := "bob"
	rows, err := svc.List(ctx, shared.NewListQuery(), ListFilter{Username: &username})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0].Username)
	assert.False(t, mr.Exists(listCacheKey))

	email := "admin@example.com"
	rows, err = svc.List(ctx, shared.NewListQuery(), ListFilter{Email: &email})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "admin", rows[0].Username)
}

func TestRegisterCreatesAccountAndQueuesEmail(t *testing.T) {
	svc, repo, mailer, mr := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		Username: "carol",
		Password: "long-enough-password",
		Email:    "carol@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "carol", created.Username)
	assert.False(t, created.Confirmed)
	assert.True(t, created.IsActive)

	stored := repo.rows[created.ID]
	assert.NotEqual(t, "long-enough-password", stored.passwordHash)
	assert.True(t, auth.VerifyPassword("long-enough-password", stored.passwordHash))
	require.NotEmpty(t, stored.confirmCode)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, fmt.Sprintf("carol@example.com|carol|%s", stored.confirmCode), mailer.sent[0])
	assert.False(t, mr.Exists(listCacheKey))
}

func TestRegisterSurvivesMailerFailure(t *testing.T) {
	svc, _, mailer, _ := newTestService(t)
	mailer.err = fmt.Errorf("queue unreachable")

	created, err := svc.Register(context.Background(), RegisterInput{
		Username: "carol",
		Password: "long-enough-password",
		Email:    "carol@example.com",
	})
	require.NoError(t, err, "a mail queue outage must not fail registration")
	assert.NotNil(t, created)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _, _, _ := newTestService(t, account(1, "carol"))

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "carol",
		Password: "long-enough-password",
		Email:    "other@example.com",
	})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestConfirmEmailFlow(t *testing.T) {
	svc, repo, mailer, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		Username: "carol",
		Password: "long-enough-password",
		Email:    "carol@example.com",
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	code := repo.rows[created.ID].confirmCode

	status, err := svc.ConfirmEmail(ctx, code)
	require.NoError(t, err)
	assert.Contains(t, status.Message, "carol")
	assert.True(t, repo.rows[created.ID].Confirmed)

	// Codes are single-use.
	_, err = svc.ConfirmEmail(ctx, code)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.ConfirmEmail(ctx, "")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.ConfirmEmail(ctx, "bogus")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestConfirmEmailRefreshesCachedViews(t *testing.T) {
	svc, repo, _, mr := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		Username: "carol",
		Password: "long-enough-password",
		Email:    "carol@example.com",
	})
	require.NoError(t, err)

	// Warm the per-id entry with the unconfirmed row.
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Confirmed)

	_, err = svc.ConfirmEmail(ctx, repo.rows[created.ID].confirmCode)
	require.NoError(t, err)
	assert.False(t, mr.Exists(itemKey(created.ID)))

	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
}

func TestAdminCreateRequiresSuperuser(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	input := CreateInput{Username: "dave", Password: "long-enough-password", Email: "dave@example.com"}
	_, err := svc.Create(ctx, viewer, input)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Zero(t, repo.writes)

	created, err := svc.Create(ctx, admin, input)
	require.NoError(t, err)
	assert.True(t, created.Confirmed, "admin-created accounts need no confirmation")
}

func TestProfileReadsThroughProfileKey(t *testing.T) {
	svc, repo, _, mr := newTestService(t, account(2, "bob"))
	ctx := context.Background()

	got, err := svc.Profile(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.True(t, mr.Exists(profileKey("bob")))

	repo.rows[2] = account(2, "bob") // unchanged; cached copy served regardless
	got, err = svc.Profile(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)

	_, err = svc.Profile(ctx, nil)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestProfileNeverCachesAbsence(t *testing.T) {
	svc, _, _, mr := newTestService(t)

	ghost := &auth.Principal{ID: 9, Username: "ghost"}
	_, err := svc.Profile(context.Background(), ghost)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.False(t, mr.Exists(profileKey("ghost")))
}

func TestUpdateSelfInvalidatesProfileKeys(t *testing.T) {
	svc, _, _, mr := newTestService(t, account(2, "bob"))
	ctx := context.Background()

	_, err := svc.Profile(ctx, viewer)
	require.NoError(t, err)
	_, err = svc.Get(ctx, 2)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, viewer, 2, Input{Username: "robert", Email: "robert@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "robert", updated.Username)

	assert.False(t, mr.Exists(profileKey("bob")), "old profile entry must drop")
	assert.False(t, mr.Exists(listCacheKey))
	require.True(t, mr.Exists(itemKey(2)))

	got, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "robert", got.Username)
}

func TestUpdateDeniedForOtherUsers(t *testing.T) {
	svc, repo, _, _ := newTestService(t, account(1, "admin"), account(2, "bob"))
	ctx := context.Background()

	_, err := svc.Update(ctx, viewer, 1, Input{Username: "hijack", Email: "x@example.com"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Zero(t, repo.writes)

	_, err = svc.Update(ctx, admin, 2, Input{Username: "bobby", Email: "bobby@example.com"})
	require.NoError(t, err, "superusers may update any record")
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), admin, 99, Input{Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteDropsRowAndEveryKey(t *testing.T) {
	svc, _, _, mr := newTestService(t, account(2, "bob"))
	ctx := context.Background()

	_, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	_, err = svc.Profile(ctx, viewer)
	require.NoError(t, err)
	_, err = svc.List(ctx, shared.NewListQuery(), ListFilter{})
	require.NoError(t, err)

	status, err := svc.Delete(ctx, admin, 2)
	require.NoError(t, err)
	assert.Equal(t, "User 2 deleted", status.Message)
	assert.False(t, mr.Exists(itemKey(2)))
	assert.False(t, mr.Exists(profileKey("bob")))
	assert.False(t, mr.Exists(listCacheKey))

	_, err = svc.Get(ctx, 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteRequiresSuperuser(t *testing.T) {
	svc, repo, _, _ := newTestService(t, account(2, "bob"))

	_, err := svc.Delete(context.Background(), viewer, 2)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Zero(t, repo.writes)
}
