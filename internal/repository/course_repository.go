package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openexam/examportal-backend/internal/model"
)

// CourseRepository handles course reference data access.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// List returns all courses ordered by name.
func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM courses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO courses (name) VALUES ($1) RETURNING id`,
		c.Name,
	).Scan(&c.ID)
}

// GetByID retrieves a course by primary key.
func (r *CourseRepository) GetByID(ctx context.Context, id int) (*model.Course, error) {
	c := &model.Course{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM courses WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, err
	}
	return c, nil
}
