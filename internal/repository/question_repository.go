package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openexam/examportal-backend/internal/model"
)

// ErrNoRows is returned when a mutation touched nothing.
var ErrNoRows = errors.New("no rows affected")

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByPaper retrieves all questions of a paper, in insertion order.
func (r *QuestionRepository) ListByPaper(ctx context.Context, paperID int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_paper_id, text, option_a, option_b, option_c, option_d, correct_option, marks
		 FROM questions WHERE question_paper_id = $1
		 ORDER BY id`, paperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionPaperID, &q.Text, &q.OptionA, &q.OptionB,
			&q.OptionC, &q.OptionD, &q.CorrectOption, &q.Marks); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AnswerKey loads only what scoring needs: question IDs, correct options and
// marks. The full question bodies never enter the submission path.
func (r *QuestionRepository) AnswerKey(ctx context.Context, paperID int) ([]model.AnswerKeyEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, correct_option, marks
		 FROM questions WHERE question_paper_id = $1
		 ORDER BY id`, paperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var key []model.AnswerKeyEntry
	for rows.Next() {
		var e model.AnswerKeyEntry
		if err := rows.Scan(&e.QuestionID, &e.CorrectOption, &e.Marks); err != nil {
			return nil, err
		}
		key = append(key, e)
	}
	return key, rows.Err()
}

// Create inserts a single question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions
		   (question_paper_id, text, option_a, option_b, option_c, option_d, correct_option, marks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		q.QuestionPaperID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.Marks,
	).Scan(&q.ID)
}

// Update edits a question in place.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET text = $1, option_a = $2, option_b = $3, option_c = $4, option_d = $5,
		     correct_option = $6, marks = $7
		 WHERE id = $8`,
		q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.Marks, q.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// GetByID retrieves a question by primary key.
func (r *QuestionRepository) GetByID(ctx context.Context, id int) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_paper_id, text, option_a, option_b, option_c, option_d, correct_option, marks
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.QuestionPaperID, &q.Text, &q.OptionA, &q.OptionB,
		&q.OptionC, &q.OptionD, &q.CorrectOption, &q.Marks)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes a single question.
func (r *QuestionRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}
