package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

type fakeGradeRepo struct {
	grades    map[int64]*models.Grade
	selection map[int64]map[int64]bool
	nextID    int64
}

func newFakeGradeRepo(grades ...models.Grade) *fakeGradeRepo {
	repo := &fakeGradeRepo{grades: map[int64]*models.Grade{}, selection: map[int64]map[int64]bool{}, nextID: 100}
	for i := range grades {
		g := grades[i]
		repo.grades[g.ID] = &g
	}
	return repo
}

func (f *fakeGradeRepo) List(ctx context.Context, schoolID int64, includeInactive bool) ([]models.Grade, error) {
	var out []models.Grade
	for _, g := range f.grades {
		if g.SchoolID == schoolID && (includeInactive || g.IsActive) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGradeRepo) FindByID(ctx context.Context, schoolID, id int64) (*models.Grade, error) {
	g, ok := f.grades[id]
	if !ok || g.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *g
	return &copy, nil
}

func (f *fakeGradeRepo) FindByIDs(ctx context.Context, schoolID int64, ids []int64) ([]models.Grade, error) {
	var out []models.Grade
	for _, id := range ids {
		if g, err := f.FindByID(ctx, schoolID, id); err == nil {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	for _, g := range f.grades {
		if g.SchoolID == grade.SchoolID && g.Name == grade.Name {
			return appErrors.Clone(appErrors.ErrConflict, "grade name already exists")
		}
	}
	f.nextID++
	grade.ID = f.nextID
	copy := *grade
	f.grades[grade.ID] = &copy
	return nil
}

func (f *fakeGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	copy := *grade
	f.grades[grade.ID] = &copy
	return nil
}

func (f *fakeGradeRepo) SelectedGradeIDs(ctx context.Context, userID, schoolID int64) ([]int64, error) {
	var out []int64
	for id := range f.selection[userID] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *fakeGradeRepo) ReplaceSelection(ctx context.Context, userID, schoolID int64, gradeIDs []int64) error {
	found, _ := f.FindByIDs(ctx, schoolID, gradeIDs)
	if len(found) != len(gradeIDs) {
		return sql.ErrNoRows
	}
	f.selection[userID] = map[int64]bool{}
	for _, id := range gradeIDs {
		f.selection[userID][id] = true
	}
	return nil
}

func (f *fakeGradeRepo) Select(ctx context.Context, userID, schoolID, gradeID int64) error {
	if f.selection[userID] == nil {
		f.selection[userID] = map[int64]bool{}
	}
	f.selection[userID][gradeID] = true
	return nil
}

func (f *fakeGradeRepo) Deselect(ctx context.Context, userID, schoolID, gradeID int64) error {
	delete(f.selection[userID], gradeID)
	return nil
}

type fakeStudentRepo struct {
	students map[int64]*models.Student
	nextID   int64
	board    []models.ClassStudent
	boardIDs []int64
}

func (f *fakeStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	var out []models.Student
	for _, s := range f.students {
		if s.SchoolID == filter.SchoolID && (filter.IncludeInactive || s.IsActive) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, schoolID, id int64) (*models.Student, error) {
	s, ok := f.students[id]
	if !ok || s.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *s
	return &copy, nil
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	f.nextID++
	student.ID = f.nextID
	copy := *student
	f.students[student.ID] = &copy
	return nil
}

func (f *fakeStudentRepo) BulkCreate(ctx context.Context, students []models.Student) error {
	for i := range students {
		if err := f.Create(ctx, &students[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	copy := *student
	f.students[student.ID] = &copy
	return nil
}

func (f *fakeStudentRepo) ClassBoard(ctx context.Context, schoolID int64, gradeIDs []int64) ([]models.ClassStudent, error) {
	f.boardIDs = gradeIDs
	return f.board, nil
}

func rosterFixture() (*RosterService, *fakeGradeRepo, *fakeStudentRepo) {
	svc, grades, students, _ := rosterFixtureWithReports()
	return svc, grades, students
}

func rosterFixtureWithReports() (*RosterService, *fakeGradeRepo, *fakeStudentRepo, *recordingInvalidator) {
	grades := newFakeGradeRepo(
		models.Grade{ID: 1, SchoolID: 1, Name: "Grade 9", IsActive: true},
		models.Grade{ID: 2, SchoolID: 1, Name: "Grade 10", IsActive: true},
		models.Grade{ID: 3, SchoolID: 2, Name: "Grade 9", IsActive: true},
		models.Grade{ID: 4, SchoolID: 1, Name: "Grade 8", IsActive: false},
	)
	students := &fakeStudentRepo{students: map[int64]*models.Student{}}
	reports := &recordingInvalidator{}
	return NewRosterService(grades, students, reports, nil, nil), grades, students, reports
}

func TestRosterServiceGrades(t *testing.T) {
	svc, grades, _ := rosterFixture()
	ctx := context.Background()

	grade, err := svc.CreateGrade(ctx, 1, dto.CreateGradeRequest{Name: "  Grade 11 "})
	require.NoError(t, err)
	assert.Equal(t, "Grade 11", grade.Name)

	_, err = svc.CreateGrade(ctx, 1, dto.CreateGradeRequest{Name: "Grade 9"})
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	_, err = svc.CreateGrade(ctx, 1, dto.CreateGradeRequest{Name: "   "})
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	require.NoError(t, svc.DeactivateGrade(ctx, 1, 2))
	assert.False(t, grades.grades[2].IsActive)

	list, err := svc.ListGrades(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	err = svc.DeactivateGrade(ctx, 1, 3)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestRosterServiceStudents(t *testing.T) {
	svc, _, students := rosterFixture()
	ctx := context.Background()

	code := " S-1 "
	student, err := svc.CreateStudent(ctx, 1, dto.CreateStudentRequest{Name: "Ada", GradeID: 1, StudentCode: &code})
	require.NoError(t, err)
	assert.Equal(t, "S-1", *student.StudentCode)
	assert.True(t, student.IsActive)

	_, err = svc.CreateStudent(ctx, 1, dto.CreateStudentRequest{Name: "Eve", GradeID: 3})
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	imported, err := svc.BulkCreateStudents(ctx, 1, dto.BulkStudentsRequest{
		GradeID:  int64Ref(1),
		Students: []dto.BulkStudent{{Name: "Bo"}, {Name: "Cy", GradeID: int64Ref(2)}},
	})
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, int64(1), *imported[0].GradeID)
	assert.Equal(t, int64(2), *imported[1].GradeID)

	before := len(students.students)
	_, err = svc.BulkCreateStudents(ctx, 1, dto.BulkStudentsRequest{Students: []dto.BulkStudent{{Name: "Di", GradeID: int64Ref(1)}, {Name: "Ed", GradeID: int64Ref(3)}}})
	assert.Equal(t, 404, appErrors.FromError(err).Status)
	assert.Len(t, students.students, before)

	_, err = svc.BulkCreateStudents(ctx, 1, dto.BulkStudentsRequest{})
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	moved, err := svc.UpdateStudent(ctx, 1, student.ID, dto.UpdateStudentRequest{GradeID: int64Ref(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), *moved.GradeID)

	require.NoError(t, svc.DeactivateStudent(ctx, 1, student.ID))
	assert.False(t, students.students[student.ID].IsActive)

	_, err = svc.UpdateStudent(ctx, 2, student.ID, dto.UpdateStudentRequest{})
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestRosterServiceSelection(t *testing.T) {
	svc, _, _ := rosterFixture()
	ctx := context.Background()

	ids, err := svc.SetSelection(ctx, teacherActor, dto.RosterSelectionRequest{GradeIDs: []int64{2, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids)

	_, err = svc.SetSelection(ctx, teacherActor, dto.RosterSelectionRequest{GradeIDs: []int64{1, 3}})
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	ids, err = svc.Toggle(ctx, teacherActor, dto.RosterToggleRequest{GradeID: 1, Selected: false})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	ids, err = svc.Toggle(ctx, teacherActor, dto.RosterToggleRequest{GradeID: 1, Selected: true})
	require.NoError(t, err)
	ids, err = svc.Toggle(ctx, teacherActor, dto.RosterToggleRequest{GradeID: 1, Selected: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	_, err = svc.Toggle(ctx, teacherActor, dto.RosterToggleRequest{GradeID: 3, Selected: true})
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	roster, err := svc.Roster(ctx, teacherActor)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, roster.SelectedGradeIDs)
	assert.Len(t, roster.Grades, 2)
	assert.NotNil(t, roster.Students)
}

func TestRosterServiceRejectsStudentsWithoutGrade(t *testing.T) {
	svc, _, students := rosterFixture()
	ctx := context.Background()

	_, err := svc.BulkCreateStudents(ctx, 1, dto.BulkStudentsRequest{
		Students: []dto.BulkStudent{{Name: "Has", GradeID: int64Ref(1)}, {Name: "NoGrade"}},
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, 400, appErr.Status)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "students[1].gradeId", appErr.Fields[0].Field)
	assert.Empty(t, students.students)

	imported, err := svc.BulkCreateStudents(ctx, 1, dto.BulkStudentsRequest{
		GradeID:  int64Ref(2),
		Students: []dto.BulkStudent{{Name: "Inherits"}},
	})
	require.NoError(t, err)
	require.NotNil(t, imported[0].GradeID)
	assert.Equal(t, int64(2), *imported[0].GradeID)
}

func TestRosterServiceRejectsInactiveGrades(t *testing.T) {
	svc, _, students := rosterFixture()
	ctx := context.Background()

	_, err := svc.CreateStudent(ctx, 1, dto.CreateStudentRequest{Name: "Ada", GradeID: 4})
	appErr := appErrors.FromError(err)
	require.Equal(t, 400, appErr.Status)
	assert.Equal(t, "gradeId", appErr.Fields[0].Field)
	assert.Empty(t, students.students)

	_, err = svc.BulkCreateStudents(ctx, 1, dto.BulkStudentsRequest{GradeID: int64Ref(4), Students: []dto.BulkStudent{{Name: "Bo"}}})
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.Empty(t, students.students)

	student, err := svc.CreateStudent(ctx, 1, dto.CreateStudentRequest{Name: "Cy", GradeID: 1})
	require.NoError(t, err)
	_, err = svc.UpdateStudent(ctx, 1, student.ID, dto.UpdateStudentRequest{GradeID: int64Ref(4)})
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.Equal(t, int64(1), *students.students[student.ID].GradeID)

	_, err = svc.Toggle(ctx, teacherActor, dto.RosterToggleRequest{GradeID: 4, Selected: true})
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestRosterServiceInvalidatesReports(t *testing.T) {
	svc, _, _, reports := rosterFixtureWithReports()
	ctx := context.Background()

	student, err := svc.CreateStudent(ctx, 1, dto.CreateStudentRequest{Name: "Ada", GradeID: 1})
	require.NoError(t, err)
	assert.Empty(t, reports.schools)

	_, err = svc.SetSelection(ctx, teacherActor, dto.RosterSelectionRequest{GradeIDs: []int64{1}})
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, teacherActor, dto.RosterToggleRequest{GradeID: 2, Selected: true})
	require.NoError(t, err)
	_, err = svc.UpdateStudent(ctx, 1, student.ID, dto.UpdateStudentRequest{GradeID: int64Ref(2)})
	require.NoError(t, err)
	name := "Grade Nine"
	_, err = svc.UpdateGrade(ctx, 1, 1, dto.UpdateGradeRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 1, 1}, reports.schools)

	_, err = svc.SetSelection(ctx, teacherActor, dto.RosterSelectionRequest{GradeIDs: []int64{3}})
	require.Error(t, err)
	assert.Len(t, reports.schools, 4)
}

type fakeSettings struct {
	current *int64
	err     error
}

func (f *fakeSettings) GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.current == nil {
		return nil, sql.ErrNoRows
	}
	return &models.UserSettings{UserID: userID, LastActiveGradeID: f.current}, nil
}

func (f *fakeSettings) SaveCurrentGrade(ctx context.Context, userID, schoolID int64, gradeID *int64) error {
	f.current = gradeID
	return nil
}

func TestMyClassServiceBoard(t *testing.T) {
	_, grades, students := rosterFixture()
	settings := &fakeSettings{}
	svc := NewMyClassService(grades, students, settings, nil)
	ctx := context.Background()

	empty, err := svc.Board(ctx, teacherActor, nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Students)
	assert.Nil(t, empty.CurrentGradeID)

	require.NoError(t, grades.ReplaceSelection(ctx, teacherActor.UserID, 1, []int64{1, 2}))
	students.board = []models.ClassStudent{
		{Student: models.Student{ID: 1, Name: "Ada"}, IsOut: true, ActivePassID: int64Ref(9)},
		{Student: models.Student{ID: 2, Name: "Bo"}},
	}

	board, err := svc.Board(ctx, teacherActor, nil)
	require.NoError(t, err)
	assert.Equal(t, dto.MyClassStats{Total: 2, Out: 1, Available: 1}, board.Stats)
	assert.Equal(t, int64(1), *board.CurrentGradeID)
	assert.Equal(t, []int64{1, 2}, students.boardIDs)

	_, err = svc.Board(ctx, teacherActor, int64Ref(3))
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	require.NoError(t, svc.SwitchGrade(ctx, teacherActor, dto.SwitchGradeRequest{GradeID: 2}))
	board, err = svc.Board(ctx, teacherActor, int64Ref(2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), *board.CurrentGradeID)
	assert.Equal(t, []int64{2}, students.boardIDs)

	err = svc.SwitchGrade(ctx, teacherActor, dto.SwitchGradeRequest{GradeID: 3})
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}
