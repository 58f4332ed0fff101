package service

import (
	"context"
	"database/sql"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/mailer"
)

type mockUserRepo struct {
	mu          sync.Mutex
	users       map[int64]*models.User
	nextID      int64
	seats       int
	lastFilter  models.UserFilter
	passwordSet map[int64]string
}

func newMockUserRepo(seats int, users ...models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[int64]*models.User{}, seats: seats, passwordSet: map[int64]string{}}
	for i := range users {
		u := users[i]
		repo.users[u.ID] = &u
		if u.ID > repo.nextID {
			repo.nextID = u.ID
		}
	}
	return repo
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	var out []models.User
	for _, u := range m.users {
		if filter.SchoolID != nil && u.SchoolID != *filter.SchoolID {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == models.NormalizeEmail(email) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindInSchool(ctx context.Context, schoolID, id int64) (*models.User, error) {
	u, err := m.FindByID(ctx, id)
	if err != nil || u.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) activeSeats(schoolID int64) int {
	n := 0
	for _, u := range m.users {
		if u.SchoolID == schoolID && u.Active && u.Role != models.RoleSuperAdmin {
			n++
		}
	}
	return n
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.Active && m.activeSeats(user.SchoolID) >= m.seats {
		return appErrors.ErrSeatsExhausted
	}
	m.nextID++
	user.ID = m.nextID
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) UpdateAccess(ctx context.Context, schoolID, id int64, mutate func(user *models.User) error) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.users[id]
	if !ok || current.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	next := *current
	if err := mutate(&next); err != nil {
		return nil, err
	}
	wasAdmin := current.Active && current.Role == models.RoleAdmin
	staysAdmin := next.Active && next.Role == models.RoleAdmin
	if wasAdmin && !staysAdmin {
		admins := 0
		for _, u := range m.users {
			if u.SchoolID == schoolID && u.Active && u.Role == models.RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return nil, appErrors.ErrLastAdmin
		}
	}
	if !current.Active && next.Active && m.activeSeats(schoolID) >= m.seats {
		return nil, appErrors.ErrSeatsExhausted
	}
	*current = next
	copy := next
	return &copy, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	m.users[id].PasswordHash = passwordHash
	m.passwordSet[id] = passwordHash
	return nil
}

func (m *mockUserRepo) HasSuperAdmin(ctx context.Context) (bool, error) {
	for _, u := range m.users {
		if u.Role == models.RoleSuperAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	return nil
}

type mockInviteRepo struct {
	tokens   []models.RegistrationToken
	redeemed []int64
	users    *mockUserRepo
}

func (m *mockInviteRepo) Create(ctx context.Context, token *models.RegistrationToken) error {
	token.ID = int64(len(m.tokens) + 1)
	m.tokens = append(m.tokens, *token)
	return nil
}

func (m *mockInviteRepo) ListPending(ctx context.Context, schoolID int64, now time.Time) ([]models.RegistrationToken, error) {
	var out []models.RegistrationToken
	for _, t := range m.tokens {
		if t.SchoolID == schoolID && t.UsedAt == nil && t.ExpiresAt.After(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockInviteRepo) FindRedeemable(ctx context.Context, schoolID int64, email string, now time.Time) ([]models.RegistrationToken, error) {
	var out []models.RegistrationToken
	for _, t := range m.tokens {
		if t.SchoolID == schoolID && t.Email == email && t.UsedAt == nil && t.ExpiresAt.After(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockInviteRepo) Redeem(ctx context.Context, tokenID int64, user *models.User, usedAt time.Time) error {
	for i := range m.tokens {
		if m.tokens[i].ID == tokenID {
			if m.tokens[i].UsedAt != nil {
				return appErrors.Clone(appErrors.ErrNotFound, "invite not found")
			}
			m.tokens[i].UsedAt = &usedAt
			m.redeemed = append(m.redeemed, tokenID)
			return m.users.Create(ctx, user)
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "invite not found")
}

type mockAuditRepo struct {
	audits []models.Audit
}

func (m *mockAuditRepo) Create(ctx context.Context, audit *models.Audit) error {
	audit.ID = int64(len(m.audits) + 1)
	m.audits = append(m.audits, *audit)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, filter models.AuditFilter) ([]models.Audit, error) {
	return m.audits, nil
}

func (m *mockAuditRepo) actions() []models.AuditAction {
	out := make([]models.AuditAction, 0, len(m.audits))
	for _, a := range m.audits {
		out = append(out, a.Action)
	}
	return out
}

type captureMailer struct {
	sent []mailer.Message
}

func (c *captureMailer) Send(ctx context.Context, msg mailer.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func newTestUserService(repo *mockUserRepo) (*UserService, *mockInviteRepo, *mockAuditRepo, *captureMailer) {
	invites := &mockInviteRepo{users: repo}
	audits := &mockAuditRepo{}
	mail := &captureMailer{}
	svc := NewUserService(repo, invites, mail, NewAuditService(audits, nil), nil, nil, UserServiceConfig{
		InviteTTL:     time.Hour,
		InviteBaseURL: "https://app.passpilot.test/",
		PasswordCost:  bcrypt.MinCost,
	})
	return svc, invites, audits, mail
}

func schoolUsers() []models.User {
	return []models.User{
		{ID: 1, SchoolID: 1, Email: "admin@school.test", Role: models.RoleAdmin, Active: true},
		{ID: 2, SchoolID: 1, Email: "teacher@school.test", Role: models.RoleTeacher, Active: true},
		{ID: 3, SchoolID: 1, Email: "former@school.test", Role: models.RoleTeacher, Active: false},
		{ID: 4, SchoolID: 2, Email: "other@school.test", Role: models.RoleAdmin, Active: true},
	}
}

func TestUserServiceListClampsPaging(t *testing.T) {
	repo := newMockUserRepo(10, schoolUsers()...)
	svc, _, _, _ := newTestUserService(repo)
	school := int64(1)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{SchoolID: &school, PageSize: 1000})
	require.NoError(t, err)
	assert.Len(t, users, 3)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 100, pagination.PageSize)
	assert.Equal(t, 3, pagination.TotalCount)
}

func TestUserServiceCreate(t *testing.T) {
	repo := newMockUserRepo(3, schoolUsers()...)
	svc, _, audits, _ := newTestUserService(repo)

	user, err := svc.Create(context.Background(), adminActor, 1, dto.CreateUserRequest{Email: "NEW@School.test", Role: models.RoleTeacher, Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "new@school.test", user.Email)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password1")))
	assert.Equal(t, []models.AuditAction{models.AuditUserCreate}, audits.actions())

	_, err = svc.Create(context.Background(), adminActor, 1, dto.CreateUserRequest{Email: "teacher@school.test", Role: models.RoleTeacher, Password: "password1"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), adminActor, 1, dto.CreateUserRequest{Email: "late@school.test", Role: models.RoleTeacher, Password: "password1"})
	assert.Equal(t, appErrors.ErrSeatsExhausted.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), adminActor, 1, dto.CreateUserRequest{Email: "bad", Role: models.RoleSuperAdmin, Password: "short"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Len(t, appErr.Fields, 3)
}

func TestUserServiceInvite(t *testing.T) {
	repo := newMockUserRepo(10, schoolUsers()...)
	svc, invites, audits, mail := newTestUserService(repo)
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	resp, err := svc.Invite(context.Background(), adminActor, 1, dto.InviteRequest{Email: "Invitee@School.test", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{6}$`), resp.Code)
	assert.Equal(t, now.Add(time.Hour), resp.ExpiresAt)
	assert.Equal(t, "admin", resp.Role)

	link, err := url.Parse(resp.ActivationURL)
	require.NoError(t, err)
	assert.Equal(t, "/activate", link.Path)
	assert.Equal(t, "invitee@school.test", link.Query().Get("email"))
	assert.Equal(t, resp.Code, link.Query().Get("code"))

	require.Len(t, invites.tokens, 1)
	assert.NotEqual(t, resp.Code, invites.tokens[0].CodeHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(invites.tokens[0].CodeHash), []byte(resp.Code)))

	require.Len(t, mail.sent, 1)
	assert.True(t, strings.Contains(mail.sent[0].Text, resp.Code))
	assert.Equal(t, []models.AuditAction{models.AuditInviteCreate}, audits.actions())

	minutes := 30
	resp, err = svc.Invite(context.Background(), adminActor, 1, dto.InviteRequest{Email: "second@school.test", Role: models.RoleTeacher, ExpiresInMinutes: &minutes})
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), resp.ExpiresAt)

	pending, err := svc.PendingInvites(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestUserServiceSetActiveAndLastAdmin(t *testing.T) {
	repo := newMockUserRepo(3, schoolUsers()...)
	svc, _, audits, _ := newTestUserService(repo)
	ctx := context.Background()
	off, on := false, true

	_, err := svc.SetActive(ctx, adminActor, 1, 1, dto.SetActiveRequest{Active: &off})
	assert.ErrorIs(t, err, appErrors.ErrLastAdmin)

	_, err = svc.Demote(ctx, adminActor, 1, 1)
	assert.ErrorIs(t, err, appErrors.ErrLastAdmin)

	promoted, err := svc.Promote(ctx, adminActor, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = svc.Promote(ctx, adminActor, 1, 2)
	require.NoError(t, err)

	demoted, err := svc.Demote(ctx, adminActor, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, demoted.Role)

	_, err = svc.Demote(ctx, adminActor, 1, 1)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// school 1 now has two active seats of three
	activated, err := svc.SetActive(ctx, adminActor, 1, 3, dto.SetActiveRequest{Active: &on})
	require.NoError(t, err)
	assert.True(t, activated.Active)

	_, err = svc.SetActive(ctx, adminActor, 1, 4, dto.SetActiveRequest{Active: &off})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	assert.Equal(t, []models.AuditAction{
		models.AuditUserPromoteAdmin,
		models.AuditUserDemoteTeacher,
		models.AuditUserActivate,
	}, audits.actions())
}

func TestUserServiceSeatCheckOnActivation(t *testing.T) {
	repo := newMockUserRepo(2, schoolUsers()...)
	svc, _, _, _ := newTestUserService(repo)
	on := true

	_, err := svc.SetActive(context.Background(), adminActor, 1, 3, dto.SetActiveRequest{Active: &on})
	assert.ErrorIs(t, err, appErrors.ErrSeatsExhausted)
}

func TestUserServiceResetPassword(t *testing.T) {
	repo := newMockUserRepo(10, schoolUsers()...)
	svc, _, audits, _ := newTestUserService(repo)

	require.NoError(t, svc.ResetPassword(context.Background(), adminActor, 1, 2, dto.ResetPasswordRequest{NewPassword: "new-password"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordSet[2]), []byte("new-password")))
	require.Len(t, audits.audits, 1)
	assert.Equal(t, models.AuditUserPasswordReset, audits.audits[0].Action)
	assert.Equal(t, types.JSONText(`{}`), audits.audits[0].Data)

	err := svc.ResetPassword(context.Background(), adminActor, 1, 4, dto.ResetPasswordRequest{NewPassword: "new-password"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
