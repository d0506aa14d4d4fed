package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

// byLoginID must be called with the lock held.
func (repo *studentRepository) byLoginID(loginID string) (student.Student, bool) {
	if loginID == "" {
		return student.Student{}, false
	}
	for _, s := range repo.db.students {
		if s.ExternalLoginID == loginID {
			return s, true
		}
	}
	return student.Student{}, false
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, exists := repo.byLoginID(s.ExternalLoginID); exists {
		return student.Student{}, student.ErrExists
	}
	repo.db.students[s.ID] = s
	return s, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter, _ ...core.DBOrdering) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	students := make([]student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		if filter.ClassName != "" && s.ClassName != filter.ClassName {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.FullName), search) {
			continue
		}
		students = append(students, s)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].ClassName != students[j].ClassName {
			return students[i].ClassName < students[j].ClassName
		}
		return students[i].FullName < students[j].FullName
	})
	return students, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByExternalLoginID(_ context.Context, loginID string) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.byLoginID(loginID); ok {
		return s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.students[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if other, exists := repo.byLoginID(s.ExternalLoginID); exists && other.ID != s.ID {
		return student.Student{}, student.ErrExists
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.students[s.ID] = s
	return s, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.students, id)
		for _, sel := range repo.db.selections {
			delete(sel, id)
		}
	}
	return nil
}
