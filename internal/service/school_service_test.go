package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

var superAdmin = Actor{UserID: 99, SchoolID: 9, Role: models.RoleSuperAdmin}

func newTestSchoolService() (*SchoolService, *mockSchoolRepo, *mockAuditRepo, *recordingInvalidator) {
	users := newMockUserRepo(10, schoolUsers()...)
	repo := &mockSchoolRepo{users: users, schools: map[int64]*models.School{
		1: {ID: 1, Name: "North High", SeatsAllowed: 10, Active: true},
		9: {ID: 9, Name: BootstrapSchoolName, Active: true},
	}}
	audits := &mockAuditRepo{}
	reports := &recordingInvalidator{}
	svc := NewSchoolService(repo, users, reports, NewAuditService(audits, nil), nil, nil)
	svc.cost = bcrypt.MinCost
	return svc, repo, audits, reports
}

func TestSchoolServiceCreate(t *testing.T) {
	svc, repo, audits, _ := newTestSchoolService()
	ctx := context.Background()

	resp, err := svc.Create(ctx, superAdmin, dto.SchoolCreateRequest{Name: " South High "})
	require.NoError(t, err)
	assert.Equal(t, "South High", resp.School.Name)
	assert.Equal(t, DefaultSeatsAllowed, resp.School.SeatsAllowed)
	assert.True(t, resp.School.Active)
	assert.Nil(t, resp.Admin)

	email := "Principal@East.test"
	password := "long-enough-pw"
	resp, err = svc.Create(ctx, superAdmin, dto.SchoolCreateRequest{Name: "East High", AdminEmail: &email, AdminPassword: &password})
	require.NoError(t, err)
	require.NotNil(t, resp.Admin)
	assert.Equal(t, "principal@east.test", resp.Admin.Email)
	assert.Equal(t, models.RoleAdmin, resp.Admin.Role)
	assert.Equal(t, resp.School.ID, resp.Admin.SchoolID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(resp.Admin.PasswordHash), []byte(password)))
	assert.Len(t, repo.schools, 4)

	_, err = svc.Create(ctx, superAdmin, dto.SchoolCreateRequest{Name: "West High", AdminEmail: &email})
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "adminPassword", appErr.Fields[0].Field)

	taken := "teacher@school.test"
	_, err = svc.Create(ctx, superAdmin, dto.SchoolCreateRequest{Name: "West High", AdminEmail: &taken, AdminPassword: &password})
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	assert.Equal(t, []models.AuditAction{models.AuditSchoolCreate, models.AuditSchoolCreate}, audits.actions())
}

func TestSchoolServiceUpdateAndRename(t *testing.T) {
	svc, _, audits, _ := newTestSchoolService()
	ctx := context.Background()

	seats := 25
	school, err := svc.Update(ctx, superAdmin, 1, dto.SchoolUpdateRequest{SeatsAllowed: &seats})
	require.NoError(t, err)
	assert.Equal(t, 25, school.SeatsAllowed)
	assert.Equal(t, "North High", school.Name)

	admin := Actor{UserID: 1, SchoolID: 1, Role: models.RoleAdmin}
	school, err = svc.Rename(ctx, admin, 1, dto.UpdateSchoolRequest{Name: "  North Campus "})
	require.NoError(t, err)
	assert.Equal(t, "North Campus", school.Name)

	_, err = svc.Rename(ctx, admin, 1, dto.UpdateSchoolRequest{Name: "  "})
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	_, err = svc.Update(ctx, superAdmin, 42, dto.SchoolUpdateRequest{})
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	require.Len(t, audits.audits, 2)
	assert.Equal(t, models.AuditSchoolUpdate, audits.audits[1].Action)
	assert.Contains(t, string(audits.audits[1].Data), `"name":"North Campus"`)
}

func TestSchoolServiceDelete(t *testing.T) {
	svc, repo, audits, reports := newTestSchoolService()
	ctx := context.Background()

	err := svc.Delete(ctx, superAdmin, 9)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
	assert.Equal(t, "cannot delete your own school", appErr.Message)

	err = svc.Delete(ctx, superAdmin, 42)
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	require.NoError(t, svc.Delete(ctx, superAdmin, 1))
	assert.Equal(t, []int64{1}, repo.deleted)
	assert.Equal(t, []int64{1}, reports.schools)
	require.Len(t, audits.audits, 1)
	assert.Equal(t, models.AuditSchoolDelete, audits.audits[0].Action)
	assert.Nil(t, audits.audits[0].SchoolID)
}
