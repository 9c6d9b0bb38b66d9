package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/openexam/examportal-backend/internal/config"
	"github.com/openexam/examportal-backend/internal/middleware"
	"github.com/openexam/examportal-backend/internal/model"
	"github.com/openexam/examportal-backend/internal/response"
	"github.com/openexam/examportal-backend/internal/service"
	"github.com/openexam/examportal-backend/internal/validator"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type stubPaperStore struct {
	paper *model.QuestionPaper
}

func (s *stubPaperStore) GetByID(ctx context.Context, id int) (*model.QuestionPaper, error) {
	if s.paper == nil || s.paper.ID != id {
		return nil, pgx.ErrNoRows
	}
	return s.paper, nil
}

func (s *stubPaperStore) ListAll(ctx context.Context) ([]model.PaperListItem, error) {
	if s.paper == nil {
		return nil, nil
	}
	return []model.PaperListItem{{QuestionPaper: *s.paper}}, nil
}

type stubQuestionStore struct {
	questions []model.Question
}

func (s *stubQuestionStore) ListByPaper(ctx context.Context, paperID int) ([]model.Question, error) {
	return s.questions, nil
}

func (s *stubQuestionStore) AnswerKey(ctx context.Context, paperID int) ([]model.AnswerKeyEntry, error) {
	key := make([]model.AnswerKeyEntry, 0, len(s.questions))
	for _, q := range s.questions {
		key = append(key, model.AnswerKeyEntry{QuestionID: q.ID, CorrectOption: q.CorrectOption, Marks: q.Marks})
	}
	return key, nil
}

type stubResultStore struct {
	created int
}

func (s *stubResultStore) Create(ctx context.Context, res *model.Result) error {
	s.created++
	res.ID = s.created
	res.TakenAt = time.Now()
	return nil
}

func (s *stubResultStore) CountAttempts(ctx context.Context, userID, paperID int) (int, error) {
	return 0, nil
}

type noopTranslator struct{}

func (noopTranslator) TranslateQuestion(ctx context.Context, q *model.ExamQuestion, targetLang string) {
}

type stubUserStore struct {
	user *model.User
}

func (s *stubUserStore) Create(ctx context.Context, u *model.User) error { return nil }

func (s *stubUserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, pgx.ErrNoRows
	}
	return s.user, nil
}

// newExamTestServer builds a minimal Gin engine with the real JWT middleware
// in front of the exam handler, and returns a valid student token.
func newExamTestServer(t *testing.T) (*gin.Engine, string, *stubResultStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		JWTSecret:    "test-secret",
		JWTExpiry:    time.Hour,
		BcryptCost:   bcrypt.MinCost,
		ExamCacheTTL: time.Minute,
	}

	papers := &stubPaperStore{paper: &model.QuestionPaper{
		ID: 1, CourseID: 1, Title: "Sample", TotalMarks: 10, DurationMinutes: 30,
	}}
	questions := &stubQuestionStore{questions: []model.Question{
		{ID: 1, QuestionPaperID: 1, Text: "2+2?", OptionA: "4", OptionB: "5", OptionC: "6", OptionD: "7", CorrectOption: "A", Marks: 5},
		{ID: 2, QuestionPaperID: 1, Text: "3*3?", OptionA: "6", OptionB: "9", OptionC: "12", OptionD: "3", CorrectOption: "B", Marks: 5},
	}}
	results := &stubResultStore{}

	course := "Maths"
	authService := service.NewAuthService(cfg, &stubUserStore{user: &model.User{
		ID: 42, Username: "student", Role: model.RoleStudent, Course: &course,
	}})
	examService := service.NewExamService(papers, questions, results, noopTranslator{}, rdb, cfg, zerolog.Nop())
	h := NewExamHandler(examService)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	api.GET("/exam/:paper_id", h.GetExam)
	api.POST("/exam/submit", h.SubmitExam)

	token, err := authService.GenerateToken(&model.User{ID: 42, Username: "student", Role: model.RoleStudent, Course: &course})
	if err != nil {
		t.Fatal(err)
	}
	return r, token, results
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var env response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	return env
}

func TestGetExamRequiresToken(t *testing.T) {
	r, _, _ := newExamTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exam/1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Error == nil || env.Error.Code != response.ErrTokenInvalid {
		t.Fatalf("unexpected error body: %+v", env.Error)
	}
}

func TestGetExamPayloadOmitsAnswerKey(t *testing.T) {
	r, token, _ := newExamTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exam/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "correct") {
		t.Fatalf("response leaks the answer key: %s", w.Body.String())
	}
}

func TestGetExamInvalidID(t *testing.T) {
	r, token, _ := newExamTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exam/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetExamUnknownPaperReturns404(t *testing.T) {
	r, token, _ := newExamTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exam/99", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSubmitExamValidationError(t *testing.T) {
	r, token, results := newExamTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exam/submit", strings.NewReader(`{"answers":{"1":"A"}}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing paper_id must 400, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Error == nil || env.Error.Code != response.ErrValidation {
		t.Fatalf("unexpected error body: %+v", env.Error)
	}
	if _, ok := env.Error.Fields["paper_id"]; !ok {
		t.Fatalf("expected field error for paper_id, got %v", env.Error.Fields)
	}
	if results.created != 0 {
		t.Fatal("invalid submission must not persist a result")
	}
}

func TestSubmitExamReturnsScore(t *testing.T) {
	r, token, results := newExamTestServer(t)

	body := `{"paper_id":1,"answers":{"1":"A","2":"C"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exam/submit", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	raw, _ := json.Marshal(env.Data)
	var summary model.ExamResultSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Score != 5 || summary.CorrectCount != 1 || summary.WrongCount != 1 || summary.TotalQuestions != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if results.created != 1 {
		t.Fatalf("expected 1 persisted result, got %d", results.created)
	}
}

func TestSubmitExamUnknownPaper(t *testing.T) {
	r, token, _ := newExamTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/exam/submit", strings.NewReader(`{"paper_id":99}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
