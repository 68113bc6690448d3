package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnhub/api/internal/models"
)

// CourseRepository keeps each course as one JSONB document next to a
// revision column used for conditional saves.
type CourseRepository struct {
	pool *pgxpool.Pool
}

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

func (r *CourseRepository) Create(ctx context.Context, course models.Course) (models.Course, error) {
	course.Revision = 1
	const query = `
		INSERT INTO courses (id, revision, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`
	if _, err := r.pool.Exec(ctx, query, course.ID, course.Revision, course, course.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return models.Course{}, ErrDuplicate
		}
		return models.Course{}, fmt.Errorf("insert course: %w", err)
	}
	return course, nil
}

func (r *CourseRepository) Get(ctx context.Context, id string) (models.Course, error) {
	const query = `SELECT revision, document FROM courses WHERE id = $1`
	return scanCourse(r.pool.QueryRow(ctx, query, id))
}

func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT revision, document FROM courses ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func (r *CourseRepository) Save(ctx context.Context, course models.Course) (models.Course, error) {
	expected := course.Revision
	course.Revision = expected + 1

	const query = `
		UPDATE courses SET document = $3, revision = $4, updated_at = $5
		WHERE id = $1 AND revision = $2
	`
	cmd, err := r.pool.Exec(ctx, query, course.ID, expected, course, course.Revision, course.UpdatedAt)
	if err != nil {
		return models.Course{}, fmt.Errorf("save course: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return course, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, course.ID).Scan(&exists); err != nil {
		return models.Course{}, fmt.Errorf("check course: %w", err)
	}
	if !exists {
		return models.Course{}, ErrNotFound
	}
	return models.Course{}, ErrStaleRevision
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCourse(row pgx.Row) (models.Course, error) {
	var (
		revision int64
		course   models.Course
	)
	if err := row.Scan(&revision, &course); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Course{}, ErrNotFound
		}
		return models.Course{}, err
	}
	course.Revision = revision
	return course, nil
}
