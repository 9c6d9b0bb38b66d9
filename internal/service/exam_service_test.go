package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/openexam/examportal-backend/internal/config"
	"github.com/openexam/examportal-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// fakePaperStore serves papers from memory.
type fakePaperStore struct {
	papers map[int]*model.QuestionPaper
}

func (f *fakePaperStore) GetByID(ctx context.Context, id int) (*model.QuestionPaper, error) {
	p, ok := f.papers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakePaperStore) ListAll(ctx context.Context) ([]model.PaperListItem, error) {
	var out []model.PaperListItem
	for _, p := range f.papers {
		out = append(out, model.PaperListItem{QuestionPaper: *p})
	}
	return out, nil
}

// fakeQuestionStore serves one paper's questions.
type fakeQuestionStore struct {
	questions []model.Question
}

func (f *fakeQuestionStore) ListByPaper(ctx context.Context, paperID int) ([]model.Question, error) {
	return f.questions, nil
}

func (f *fakeQuestionStore) AnswerKey(ctx context.Context, paperID int) ([]model.AnswerKeyEntry, error) {
	key := make([]model.AnswerKeyEntry, 0, len(f.questions))
	for _, q := range f.questions {
		key = append(key, model.AnswerKeyEntry{QuestionID: q.ID, CorrectOption: q.CorrectOption, Marks: q.Marks})
	}
	return key, nil
}

// fakeResultStore records every created row.
type fakeResultStore struct {
	created []*model.Result
}

func (f *fakeResultStore) Create(ctx context.Context, res *model.Result) error {
	res.ID = len(f.created) + 1
	res.TakenAt = time.Now()
	f.created = append(f.created, res)
	return nil
}

func (f *fakeResultStore) CountAttempts(ctx context.Context, userID, paperID int) (int, error) {
	n := 0
	for _, r := range f.created {
		if r.UserID == userID && r.QuestionPaperID == paperID {
			n++
		}
	}
	return n, nil
}

// suffixTranslator marks translated fields deterministically.
type suffixTranslator struct{}

func (suffixTranslator) TranslateQuestion(ctx context.Context, q *model.ExamQuestion, targetLang string) {
	q.TextHi = q.Text + "-" + targetLang
	q.OptionAHi = q.OptionA + "-" + targetLang
	q.OptionBHi = q.OptionB + "-" + targetLang
	q.OptionCHi = q.OptionC + "-" + targetLang
	q.OptionDHi = q.OptionD + "-" + targetLang
}

func twoQuestionFixture() (*fakePaperStore, *fakeQuestionStore) {
	papers := &fakePaperStore{papers: map[int]*model.QuestionPaper{
		1: {ID: 1, CourseID: 1, Title: "Algebra Basics", TotalMarks: 10, DurationMinutes: 30},
	}}
	questions := &fakeQuestionStore{questions: []model.Question{
		{ID: 1, QuestionPaperID: 1, Text: "2+2?", OptionA: "4", OptionB: "5", OptionC: "6", OptionD: "7", CorrectOption: "A", Marks: 5},
		{ID: 2, QuestionPaperID: 1, Text: "3*3?", OptionA: "6", OptionB: "9", OptionC: "12", OptionD: "3", CorrectOption: "B", Marks: 5},
	}}
	return papers, questions
}

func newTestExamService(t *testing.T, papers PaperStore, questions QuestionStore, results ResultStore, cfg *config.Config) *ExamService {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	if cfg == nil {
		cfg = &config.Config{ExamCacheTTL: time.Minute}
	}
	return NewExamService(papers, questions, results, suffixTranslator{}, rdb, cfg, zerolog.Nop())
}

func TestGetExamWithholdsCorrectOptions(t *testing.T) {
	papers, questions := twoQuestionFixture()
	svc := newTestExamService(t, papers, questions, &fakeResultStore{}, nil)

	payload, err := svc.GetExam(context.Background(), 1, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(payload.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(payload.Questions))
	}

	// The serialized payload is what crosses the wire; the answer key must
	// not appear in it in any form.
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "correct") {
		t.Fatalf("payload leaks the answer key: %s", raw)
	}
}

func TestGetExamUnknownPaper(t *testing.T) {
	papers, questions := twoQuestionFixture()
	svc := newTestExamService(t, papers, questions, &fakeResultStore{}, nil)

	if _, err := svc.GetExam(context.Background(), 99, ""); !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestGetExamServesFromCacheAfterFirstLoad(t *testing.T) {
	papers, questions := twoQuestionFixture()
	svc := newTestExamService(t, papers, questions, &fakeResultStore{}, nil)

	if _, err := svc.GetExam(context.Background(), 1, ""); err != nil {
		t.Fatal(err)
	}

	// Remove the paper from the backing store; the cached payload should
	// still serve.
	delete(papers.papers, 1)
	payload, err := svc.GetExam(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("cache should satisfy the second fetch: %v", err)
	}
	if payload.Paper.Title != "Algebra Basics" {
		t.Fatalf("unexpected cached paper: %+v", payload.Paper)
	}
}

func TestGetExamAttachesTranslations(t *testing.T) {
	papers, questions := twoQuestionFixture()
	svc := newTestExamService(t, papers, questions, &fakeResultStore{}, nil)

	payload, err := svc.GetExam(context.Background(), 1, "hi")
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range payload.Questions {
		if q.TextHi != q.Text+"-hi" {
			t.Fatalf("translation missing on question %d: %+v", q.ID, q)
		}
		if q.OptionDHi != q.OptionD+"-hi" {
			t.Fatalf("option translation missing on question %d", q.ID)
		}
	}
}

func TestSubmitExamScoring(t *testing.T) {
	papers, questions := twoQuestionFixture()
	results := &fakeResultStore{}
	svc := newTestExamService(t, papers, questions, results, nil)

	summary, err := svc.SubmitExam(context.Background(), 42, model.SubmitExamRequest{
		PaperID: 1,
		Answers: map[int]string{1: "A", 2: "C"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Score != 5 || summary.CorrectCount != 1 || summary.WrongCount != 1 || summary.TotalQuestions != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(results.created) != 1 {
		t.Fatalf("expected 1 persisted result, got %d", len(results.created))
	}
	if r := results.created[0]; r.UserID != 42 || r.Score != 5 {
		t.Fatalf("unexpected persisted row: %+v", r)
	}
}

func TestSubmitExamSkipsUnanswered(t *testing.T) {
	papers, questions := twoQuestionFixture()
	results := &fakeResultStore{}
	svc := newTestExamService(t, papers, questions, results, nil)

	summary, err := svc.SubmitExam(context.Background(), 42, model.SubmitExamRequest{
		PaperID: 1,
		Answers: map[int]string{},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Unanswered questions count in neither tally, but the total still
	// reflects the whole paper.
	if summary.Score != 0 || summary.CorrectCount != 0 || summary.WrongCount != 0 {
		t.Fatalf("unanswered sheet must score zero everywhere: %+v", summary)
	}
	if summary.TotalQuestions != 2 {
		t.Fatalf("total must be the question count, got %d", summary.TotalQuestions)
	}
	if len(results.created) != 1 {
		t.Fatal("an empty sheet is still an attempt and must persist")
	}
}

func TestSubmitExamMatchesCaseInsensitively(t *testing.T) {
	papers, questions := twoQuestionFixture()
	svc := newTestExamService(t, papers, questions, &fakeResultStore{}, nil)

	summary, err := svc.SubmitExam(context.Background(), 42, model.SubmitExamRequest{
		PaperID: 1,
		Answers: map[int]string{1: "a", 2: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Score != 10 || summary.CorrectCount != 2 {
		t.Fatalf("lowercase selections must match: %+v", summary)
	}
}

func TestSubmitExamAppendsEveryAttempt(t *testing.T) {
	papers, questions := twoQuestionFixture()
	results := &fakeResultStore{}
	svc := newTestExamService(t, papers, questions, results, nil)

	req := model.SubmitExamRequest{PaperID: 1, Answers: map[int]string{1: "A"}}
	if _, err := svc.SubmitExam(context.Background(), 42, req); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitExam(context.Background(), 42, req); err != nil {
		t.Fatal(err)
	}

	if len(results.created) != 2 {
		t.Fatalf("repeat submissions must append, got %d rows", len(results.created))
	}
}

func TestSubmitExamAttemptLimit(t *testing.T) {
	papers, questions := twoQuestionFixture()
	results := &fakeResultStore{}
	cfg := &config.Config{ExamCacheTTL: time.Minute, MaxAttempts: 1}
	svc := newTestExamService(t, papers, questions, results, cfg)

	req := model.SubmitExamRequest{PaperID: 1, Answers: map[int]string{1: "A"}}
	if _, err := svc.SubmitExam(context.Background(), 42, req); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitExam(context.Background(), 42, req); !errors.Is(err, ErrAttemptLimitReached) {
		t.Fatalf("expected ErrAttemptLimitReached, got %v", err)
	}

	// The limit is per user: another student may still attempt.
	if _, err := svc.SubmitExam(context.Background(), 43, req); err != nil {
		t.Fatalf("limit must not leak across users: %v", err)
	}
}

func TestSubmitExamUnknownPaper(t *testing.T) {
	papers, questions := twoQuestionFixture()
	svc := newTestExamService(t, papers, questions, &fakeResultStore{}, nil)

	_, err := svc.SubmitExam(context.Background(), 42, model.SubmitExamRequest{PaperID: 99})
	if !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestSubmitExamIgnoresBogusQuestionIDs(t *testing.T) {
	papers, questions := twoQuestionFixture()
	svc := newTestExamService(t, papers, questions, &fakeResultStore{}, nil)

	summary, err := svc.SubmitExam(context.Background(), 42, model.SubmitExamRequest{
		PaperID: 1,
		Answers: map[int]string{1: "A", 999: "D"},
	})
	if err != nil {
		t.Fatal(err)
	}
	// The stray ID is not in the key, so it cannot affect any tally.
	if summary.Score != 5 || summary.CorrectCount != 1 || summary.WrongCount != 0 {
		t.Fatalf("bogus question ID affected scoring: %+v", summary)
	}
}

func TestPrewarmPopulatesCache(t *testing.T) {
	papers, questions := twoQuestionFixture()
	svc := newTestExamService(t, papers, questions, &fakeResultStore{}, nil)

	if err := svc.PrewarmAllCaches(context.Background()); err != nil {
		t.Fatal(err)
	}

	delete(papers.papers, 1)
	if _, err := svc.GetExam(context.Background(), 1, ""); err != nil {
		t.Fatalf("prewarmed paper should serve from cache: %v", err)
	}

	svc.InvalidateCache(context.Background(), 1)
	if _, err := svc.GetExam(context.Background(), 1, ""); !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("invalidated cache must fall through to the store, got %v", err)
	}
}
