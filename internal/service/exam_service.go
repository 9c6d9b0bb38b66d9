package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/openexam/examportal-backend/internal/config"
	"github.com/openexam/examportal-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrPaperNotFound       = errors.New("question paper not found")
	ErrAttemptLimitReached = errors.New("attempt limit reached for this paper")
)

// PaperStore is the paper access the exam engine needs.
type PaperStore interface {
	GetByID(ctx context.Context, id int) (*model.QuestionPaper, error)
	ListAll(ctx context.Context) ([]model.PaperListItem, error)
}

// QuestionStore separates the sanitized fetch path from the answer key path.
type QuestionStore interface {
	ListByPaper(ctx context.Context, paperID int) ([]model.Question, error)
	AnswerKey(ctx context.Context, paperID int) ([]model.AnswerKeyEntry, error)
}

// ResultStore is the append-only attempt record.
type ResultStore interface {
	Create(ctx context.Context, res *model.Result) error
	CountAttempts(ctx context.Context, userID, paperID int) (int, error)
}

// Translator attaches translated fields to a student-facing question,
// falling back per string on failure.
type Translator interface {
	TranslateQuestion(ctx context.Context, q *model.ExamQuestion, targetLang string)
}

// ExamPayload is the student-facing exam: paper metadata plus questions with
// the correct options withheld.
type ExamPayload struct {
	Paper     model.ExamPaper      `json:"paper"`
	Questions []model.ExamQuestion `json:"questions"`
}

// ExamService is the server side of the exam session engine: sanitized paper
// assembly and authoritative scoring.
type ExamService struct {
	papers     PaperStore
	questions  QuestionStore
	results    ResultStore
	translator Translator
	rdb        *redis.Client
	cfg        *config.Config
	log        zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	papers PaperStore,
	questions QuestionStore,
	results ResultStore,
	translator Translator,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		papers:     papers,
		questions:  questions,
		results:    results,
		translator: translator,
		rdb:        rdb,
		cfg:        cfg,
		log:        log.With().Str("component", "exam_service").Logger(),
	}
}

// GetExam assembles the student-facing payload for a paper. The questions
// carry only id, text, options and marks — the answer key stays server-side.
// When targetLang is non-empty each question additionally gets translated
// fields; every translation failure falls back to the source text, so a
// translation outage never blocks exam progress.
func (s *ExamService) GetExam(ctx context.Context, paperID int, targetLang string) (*ExamPayload, error) {
	payload, err := s.loadPayload(ctx, paperID)
	if err != nil {
		return nil, err
	}

	if targetLang != "" && s.translator != nil {
		// Per-question fan-out; the payload is only returned once the
		// whole batch has resolved.
		var wg sync.WaitGroup
		for i := range payload.Questions {
			wg.Add(1)
			go func(q *model.ExamQuestion) {
				defer wg.Done()
				s.translator.TranslateQuestion(ctx, q, targetLang)
			}(&payload.Questions[i])
		}
		wg.Wait()
	}

	return payload, nil
}

// loadPayload reads the sanitized payload from Redis, falling back to
// PostgreSQL and re-caching on a miss. Cache failures degrade to the
// database silently.
func (s *ExamService) loadPayload(ctx context.Context, paperID int) (*ExamPayload, error) {
	key := config.CacheKey.PaperPayloadKey(paperID)

	if raw, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var payload ExamPayload
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			return &payload, nil
		}
		// Corrupt cache entry: drop it and rebuild from the database.
		s.rdb.Del(ctx, key)
	}

	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	questions, err := s.questions.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	payload := buildPayload(paper, questions)

	if raw, err := json.Marshal(payload); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cfg.ExamCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Int("paper_id", paperID).Msg("Payload cache write failed")
		}
	}

	return payload, nil
}

// buildPayload strips questions down to their student-facing shape.
func buildPayload(paper *model.QuestionPaper, questions []model.Question) *ExamPayload {
	out := make([]model.ExamQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, model.ExamQuestion{
			ID:      q.ID,
			Text:    q.Text,
			OptionA: q.OptionA,
			OptionB: q.OptionB,
			OptionC: q.OptionC,
			OptionD: q.OptionD,
			Marks:   q.Marks,
		})
	}
	return &ExamPayload{
		Paper: model.ExamPaper{
			ID:              paper.ID,
			Title:           paper.Title,
			TotalMarks:      paper.TotalMarks,
			DurationMinutes: paper.DurationMinutes,
		},
		Questions: out,
	}
}

// SubmitExam scores a submission against the stored answer key and appends
// one result row. Nothing from the client is trusted beyond the selected
// letters: correctness and marks come from the database.
//
// Unanswered questions are skipped — they count in neither tally. The call
// is deliberately not idempotent: each submission is its own attempt.
func (s *ExamService) SubmitExam(ctx context.Context, userID int, req model.SubmitExamRequest) (*model.ExamResultSummary, error) {
	if _, err := s.papers.GetByID(ctx, req.PaperID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	if s.cfg.MaxAttempts > 0 {
		attempts, err := s.results.CountAttempts(ctx, userID, req.PaperID)
		if err != nil {
			return nil, fmt.Errorf("count attempts: %w", err)
		}
		if attempts >= s.cfg.MaxAttempts {
			return nil, ErrAttemptLimitReached
		}
	}

	key, err := s.questions.AnswerKey(ctx, req.PaperID)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}

	var score, correct, wrong int
	for _, entry := range key {
		selected := req.Answers[entry.QuestionID]
		if selected == "" {
			continue
		}
		if strings.EqualFold(selected, entry.CorrectOption) {
			score += entry.Marks
			correct++
		} else {
			wrong++
		}
	}

	result := &model.Result{
		UserID:          userID,
		QuestionPaperID: req.PaperID,
		Score:           score,
		CorrectCount:    correct,
		WrongCount:      wrong,
		TotalQuestions:  len(key),
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}

	s.log.Info().
		Int("user_id", userID).
		Int("paper_id", req.PaperID).
		Int("score", score).
		Msg("Exam submitted")

	return &model.ExamResultSummary{
		Score:          score,
		CorrectCount:   correct,
		WrongCount:     wrong,
		TotalQuestions: len(key),
	}, nil
}

// PrewarmAllCaches loads every paper's payload into Redis. Called once at
// startup so the first students in never stampede PostgreSQL.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	papers, err := s.papers.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list papers: %w", err)
	}

	for i := range papers {
		if err := s.WarmPaperCache(ctx, &papers[i].QuestionPaper); err != nil {
			s.log.Warn().Err(err).Int("paper_id", papers[i].ID).Msg("Prewarm failed")
		}
	}

	s.log.Info().Int("papers", len(papers)).Msg("Payload caches prewarmed")
	return nil
}

// WarmPaperCache rebuilds one paper's cached payload from PostgreSQL.
func (s *ExamService) WarmPaperCache(ctx context.Context, paper *model.QuestionPaper) error {
	questions, err := s.questions.ListByPaper(ctx, paper.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}

	raw, err := json.Marshal(buildPayload(paper, questions))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return s.rdb.Set(ctx, config.CacheKey.PaperPayloadKey(paper.ID), raw, s.cfg.ExamCacheTTL).Err()
}

// InvalidateCache drops a paper's cached payload after a mutation.
func (s *ExamService) InvalidateCache(ctx context.Context, paperID int) {
	if err := s.rdb.Del(ctx, config.CacheKey.PaperPayloadKey(paperID)).Err(); err != nil {
		s.log.Warn().Err(err).Int("paper_id", paperID).Msg("Cache invalidation failed")
	}
}
