package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
	ErrExists   = errors.New("a student with this external login id already exists")
)

type (
	// Repository persists Students. Deleting a Student deletes its selection records.
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Student.FullName.
		QueryStudents(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByExternalLoginID(ctx context.Context, loginID string) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// checkUniqueness makes sure no other Student uses loginID.
func (svc *Service) checkUniqueness(ctx context.Context, loginID string, excludedID string) error {
	if loginID == "" {
		return nil
	}
	s, err := svc.repo.GetStudentByExternalLoginID(ctx, loginID)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case s.ID == excludedID:
		return nil
	}
	return core.NewValidationError(ErrExists, core.FieldError{Field: "external_login_id", Error: ErrExists.Error()})
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	ns.Clean()
	if err := svc.checkUniqueness(ctx, ns.ExternalLoginID, ""); err != nil {
		return Student{}, err
	}

	now := time.Now().UTC()
	s := Student{
		ID:              uuid.New().String(),
		FullName:        ns.FullName,
		ClassName:       ns.ClassName,
		ExternalLoginID: ns.ExternalLoginID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, QueryFilter{})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error) {
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) GetByExternalLoginID(ctx context.Context, loginID string) (Student, error) {
	return svc.repo.GetStudentByExternalLoginID(ctx, core.CleanString(loginID))
}

// Update overwrites the Student identified by id.
// ns is expected to be the validated result of UpdateStudent.Validate.
func (svc *Service) Update(ctx context.Context, id string, ns NewStudent) (Student, error) {
	if err := svc.checkUniqueness(ctx, ns.ExternalLoginID, id); err != nil {
		return Student{}, err
	}
	s := Student{
		ID:              id,
		FullName:        ns.FullName,
		ClassName:       ns.ClassName,
		ExternalLoginID: ns.ExternalLoginID,
		UpdatedAt:       time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}
