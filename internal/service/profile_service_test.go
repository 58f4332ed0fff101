package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

type profileRepoStub struct {
	*mockUserRepo
	conflictEmail string
}

func (p *profileRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	if user.Email == p.conflictEmail {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	copy := *user
	p.users[user.ID] = &copy
	return nil
}

func TestProfileServiceUpdateAndPassword(t *testing.T) {
	users := newMockUserRepo(10, models.User{ID: 10, SchoolID: 1, Email: "t@school.test", Role: models.RoleTeacher, Active: true, PasswordHash: hashed(t, "old-password")})
	repo := &profileRepoStub{mockUserRepo: users, conflictEmail: "taken@school.test"}
	svc := NewProfileService(repo, nil, nil)
	svc.cost = bcrypt.MinCost
	ctx := context.Background()

	name, email := "  Ms. Teacher ", "Renamed@School.test"
	user, err := svc.Update(ctx, teacherActor, models.UpdateProfileRequest{Email: &email, DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed@school.test", user.Email)
	assert.Equal(t, "Ms. Teacher", *user.DisplayName)

	taken := "taken@school.test"
	_, err = svc.Update(ctx, teacherActor, models.UpdateProfileRequest{Email: &taken})
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	err = svc.ChangePassword(ctx, teacherActor, models.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "new-password"})
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	require.NoError(t, svc.ChangePassword(ctx, teacherActor, models.ChangePasswordRequest{CurrentPassword: "old-password", NewPassword: "new-password"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.passwordSet[10]), []byte("new-password")))

	_, err = svc.Get(ctx, Actor{UserID: 10, SchoolID: 2})
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
