package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openexam/examportal-backend/internal/model"
)

// PaperRepository handles question paper data access.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// GetByID retrieves a paper by primary key.
func (r *PaperRepository) GetByID(ctx context.Context, id int) (*model.QuestionPaper, error) {
	p := &model.QuestionPaper{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, total_marks, duration_minutes
		 FROM question_papers WHERE id = $1`, id,
	).Scan(&p.ID, &p.CourseID, &p.Title, &p.TotalMarks, &p.DurationMinutes)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByCourseName returns papers for a student's enrolled course.
func (r *PaperRepository) ListByCourseName(ctx context.Context, courseName string) ([]model.QuestionPaper, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT qp.id, qp.course_id, qp.title, qp.total_marks, qp.duration_minutes
		 FROM question_papers qp
		 JOIN courses c ON c.id = qp.course_id
		 WHERE c.name = $1
		 ORDER BY qp.id`, courseName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []model.QuestionPaper
	for rows.Next() {
		var p model.QuestionPaper
		if err := rows.Scan(&p.ID, &p.CourseID, &p.Title, &p.TotalMarks, &p.DurationMinutes); err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// ListAll returns every paper joined with its course name, for the admin list.
func (r *PaperRepository) ListAll(ctx context.Context) ([]model.PaperListItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT qp.id, qp.course_id, qp.title, qp.total_marks, qp.duration_minutes,
		        COALESCE(c.name, '')
		 FROM question_papers qp
		 LEFT JOIN courses c ON c.id = qp.course_id
		 ORDER BY qp.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.PaperListItem
	for rows.Next() {
		var it model.PaperListItem
		if err := rows.Scan(&it.ID, &it.CourseID, &it.Title, &it.TotalMarks, &it.DurationMinutes, &it.CourseName); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateWithQuestions inserts a paper and its questions in one transaction.
func (r *PaperRepository) CreateWithQuestions(ctx context.Context, p *model.QuestionPaper, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO question_papers (course_id, title, total_marks, duration_minutes)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		p.CourseID, p.Title, p.TotalMarks, p.DurationMinutes,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}

	for i := range questions {
		q := &questions[i]
		q.QuestionPaperID = p.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO questions
			   (question_paper_id, text, option_a, option_b, option_c, option_d, correct_option, marks)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			q.QuestionPaperID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.Marks,
		).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// DeleteCascade removes a paper together with its questions and every result
// referencing it. All three deletes run in one transaction so a crash can
// never leave orphaned rows.
func (r *PaperRepository) DeleteCascade(ctx context.Context, id int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE question_paper_id = $1`, id); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM results WHERE question_paper_id = $1`, id); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM question_papers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}

	return tx.Commit(ctx)
}
