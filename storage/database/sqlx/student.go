package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/student"
)

const studentColumns = "id, full_name, class_name, external_login_id, created_at, updated_at"

var studentOrderings = map[string]bool{
	"full_name":  true,
	"class_name": true,
	"created_at": true,
}

// studentRow is the database representation of student.Student.
type studentRow struct {
	ID              string      `db:"id"`
	FullName        string      `db:"full_name"`
	ClassName       string      `db:"class_name"`
	ExternalLoginID null.String `db:"external_login_id"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func toStudentRow(s student.Student) studentRow {
	return studentRow{
		ID:              s.ID,
		FullName:        s.FullName,
		ClassName:       s.ClassName,
		ExternalLoginID: null.NewString(s.ExternalLoginID, s.ExternalLoginID != ""),
		CreatedAt:       s.CreatedAt.UTC(),
		UpdatedAt:       s.UpdatedAt.UTC(),
	}
}

func (row studentRow) student() student.Student {
	return student.Student{
		ID:              row.ID,
		FullName:        row.FullName,
		ClassName:       row.ClassName,
		ExternalLoginID: row.ExternalLoginID.String,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func studentsFromRows(rows []studentRow) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students
}

type studentRepository struct {
	db core.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db core.DB) *studentRepository {
	return &studentRepository{db: db}
}

// trapNoRowsErr maps "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	row := toStudentRow(s)
	q := `INSERT INTO student (` + studentColumns + `)
		VALUES (:id, :full_name, :class_name, :external_login_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.GetStudentByID(ctx, s.ID)
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, ordering ...core.DBOrdering) ([]student.Student, error) {
	var where []string
	var args []interface{}

	if filter.ClassName != "" {
		where = append(where, "class_name = ?")
		args = append(args, filter.ClassName)
	}
	// students with FullName matching the search keyword
	if filter.Search != "" {
		where = append(where, "LOWER(full_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	q := `SELECT ` + studentColumns + ` FROM student`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering, studentOrderings,
		core.DBOrdering{Field: "class_name", Ascending: true}, core.DBOrdering{Field: "full_name", Ascending: true})

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return studentsFromRows(rows), nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	q := repo.db.Rebind(`SELECT ` + studentColumns + ` FROM student WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by ID")
	}
	return row.student(), nil
}

func (repo studentRepository) GetStudentByExternalLoginID(ctx context.Context, loginID string) (student.Student, error) {
	if loginID == "" {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	q := repo.db.Rebind(`SELECT ` + studentColumns + ` FROM student WHERE external_login_id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, loginID); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by external login ID")
	}
	return row.student(), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	row := toStudentRow(s)
	q := `UPDATE student SET full_name = :full_name, class_name = :class_name,
		external_login_id = :external_login_id, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, s.ID)
}

// DeleteStudentsByID deletes the students along with their selections (ON DELETE CASCADE).
func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM student WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}
