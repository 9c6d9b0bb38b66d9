package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openexam/examportal-backend/internal/model"
)

// ResultRepository handles the append-only result store.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create appends one result row. Results are never updated afterwards;
// repeat submissions for the same paper append further rows.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO results
		   (user_id, question_paper_id, score, correct_count, wrong_count, total_questions, taken_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 RETURNING id, taken_at`,
		res.UserID, res.QuestionPaperID, res.Score, res.CorrectCount, res.WrongCount, res.TotalQuestions,
	).Scan(&res.ID, &res.TakenAt)
}

// CountAttempts returns how many results a user already has for a paper.
func (r *ResultRepository) CountAttempts(ctx context.Context, userID, paperID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE user_id = $1 AND question_paper_id = $2`,
		userID, paperID,
	).Scan(&n)
	return n, err
}

// ListByUser returns a user's attempt history joined with paper metadata,
// ordered by paper then attempt time.
func (r *ResultRepository) ListByUser(ctx context.Context, userID int) ([]model.ResultHistoryRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.question_paper_id, qp.title, qp.total_marks,
		        r.score, r.correct_count, r.wrong_count, r.total_questions, r.taken_at
		 FROM results r
		 JOIN question_papers qp ON qp.id = r.question_paper_id
		 WHERE r.user_id = $1
		 ORDER BY r.question_paper_id, r.taken_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.ResultHistoryRow
	for rows.Next() {
		var h model.ResultHistoryRow
		if err := rows.Scan(&h.ResultID, &h.QuestionPaperID, &h.PaperTitle, &h.TotalMarks,
			&h.Score, &h.CorrectCount, &h.WrongCount, &h.TotalQuestions, &h.TakenAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
