package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/openexam/examportal-backend/internal/model"
	"github.com/openexam/examportal-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ErrQuestionNotFound is returned when a question mutation targets nothing.
var ErrQuestionNotFound = errors.New("question not found")

// ContentPaperStore is the admin-facing paper access.
type ContentPaperStore interface {
	GetByID(ctx context.Context, id int) (*model.QuestionPaper, error)
	ListAll(ctx context.Context) ([]model.PaperListItem, error)
	CreateWithQuestions(ctx context.Context, p *model.QuestionPaper, questions []model.Question) error
	DeleteCascade(ctx context.Context, id int) error
}

// ContentQuestionStore is the admin-facing question access.
type ContentQuestionStore interface {
	ListByPaper(ctx context.Context, paperID int) ([]model.Question, error)
	GetByID(ctx context.Context, id int) (*model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id int) error
}

// CourseStore is the course reference data access.
type CourseStore interface {
	List(ctx context.Context) ([]model.Course, error)
	Create(ctx context.Context, c *model.Course) error
	GetByID(ctx context.Context, id int) (*model.Course, error)
}

// RosterStore is the student roster slice of the credential store.
type RosterStore interface {
	ListStudents(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
}

// HistoryStore exposes per-student attempt history.
type HistoryStore interface {
	ListByUser(ctx context.Context, userID int) ([]model.ResultHistoryRow, error)
}

// ContentService is the admin CRUD surface over courses, papers, questions
// and the student roster. Mutations invalidate the exam payload cache.
type ContentService struct {
	papers    ContentPaperStore
	questions ContentQuestionStore
	courses   CourseStore
	roster    RosterStore
	history   HistoryStore
	exams     *ExamService
	log       zerolog.Logger
}

// NewContentService creates a new ContentService.
func NewContentService(
	papers ContentPaperStore,
	questions ContentQuestionStore,
	courses CourseStore,
	roster RosterStore,
	history HistoryStore,
	exams *ExamService,
	log zerolog.Logger,
) *ContentService {
	return &ContentService{
		papers:    papers,
		questions: questions,
		courses:   courses,
		roster:    roster,
		history:   history,
		exams:     exams,
		log:       log.With().Str("component", "content_service").Logger(),
	}
}

// ListCourses returns all courses.
func (s *ContentService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.courses.List(ctx)
}

// CreateCourse adds a course.
func (s *ContentService) CreateCourse(ctx context.Context, req model.CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{Name: req.Name}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

// ListPapers returns every paper with its course name.
func (s *ContentService) ListPapers(ctx context.Context) ([]model.PaperListItem, error) {
	return s.papers.ListAll(ctx)
}

// GetPaperDetail returns a paper and its full question set, answer key
// included — this is the admin view, never served to students.
func (s *ContentService) GetPaperDetail(ctx context.Context, paperID int) (*model.PaperDetail, error) {
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
	if questions == nil {
		questions = []model.Question{}
	}

	return &model.PaperDetail{Paper: *paper, Questions: questions}, nil
}

// CreatePaper creates a paper together with its questions in one transaction.
func (s *ContentService) CreatePaper(ctx context.Context, req model.CreatePaperRequest) (*model.QuestionPaper, error) {
	if _, err := s.courses.GetByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("course %d: %w", req.CourseID, pgx.ErrNoRows)
		}
		return nil, fmt.Errorf("get course: %w", err)
	}

	paper := &model.QuestionPaper{
		CourseID:        req.CourseID,
		Title:           req.Title,
		TotalMarks:      req.TotalMarks,
		DurationMinutes: req.DurationMinutes,
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for _, in := range req.Questions {
		questions = append(questions, model.Question{
			Text:          in.Text,
			OptionA:       in.OptionA,
			OptionB:       in.OptionB,
			OptionC:       in.OptionC,
			OptionD:       in.OptionD,
			CorrectOption: strings.ToUpper(in.CorrectOption),
			Marks:         in.Marks,
		})
	}

	if err := s.papers.CreateWithQuestions(ctx, paper, questions); err != nil {
		return nil, fmt.Errorf("create paper: %w", err)
	}

	s.log.Info().Int("paper_id", paper.ID).Int("questions", len(questions)).Msg("Paper created")
	return paper, nil
}

// DeletePaper removes a paper, its questions and its results atomically.
func (s *ContentService) DeletePaper(ctx context.Context, paperID int) error {
	if err := s.papers.DeleteCascade(ctx, paperID); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return ErrPaperNotFound
		}
		return fmt.Errorf("delete paper: %w", err)
	}

	s.exams.InvalidateCache(ctx, paperID)
	s.log.Info().Int("paper_id", paperID).Msg("Paper deleted with cascade")
	return nil
}

// AddQuestion appends a question to an existing paper.
func (s *ContentService) AddQuestion(ctx context.Context, req model.AddQuestionRequest) (*model.Question, error) {
	if _, err := s.papers.GetByID(ctx, req.QuestionPaperID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	q := &model.Question{
		QuestionPaperID: req.QuestionPaperID,
		Text:            req.Text,
		OptionA:         req.OptionA,
		OptionB:         req.OptionB,
		OptionC:         req.OptionC,
		OptionD:         req.OptionD,
		CorrectOption:   strings.ToUpper(req.CorrectOption),
		Marks:           req.Marks,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.exams.InvalidateCache(ctx, req.QuestionPaperID)
	return q, nil
}

// UpdateQuestion edits a question in place.
func (s *ContentService) UpdateQuestion(ctx context.Context, questionID int, req model.UpdateQuestionRequest) error {
	existing, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("get question: %w", err)
	}

	marks := req.Marks
	if marks == 0 {
		marks = existing.Marks
	}

	q := &model.Question{
		ID:            questionID,
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: strings.ToUpper(req.CorrectOption),
		Marks:         marks,
	}
	if err := s.questions.Update(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("update question: %w", err)
	}

	s.exams.InvalidateCache(ctx, existing.QuestionPaperID)
	return nil
}

// DeleteQuestion removes a single question.
func (s *ContentService) DeleteQuestion(ctx context.Context, questionID int) error {
	existing, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("get question: %w", err)
	}

	if err := s.questions.Delete(ctx, questionID); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}

	s.exams.InvalidateCache(ctx, existing.QuestionPaperID)
	return nil
}

// ListStudents returns the roster.
func (s *ContentService) ListStudents(ctx context.Context) ([]model.User, error) {
	return s.roster.ListStudents(ctx)
}

// GetStudent returns one student account.
func (s *ContentService) GetStudent(ctx context.Context, id int) (*model.User, error) {
	user, err := s.roster.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleStudent {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

// StudentResults returns a student's attempt history.
func (s *ContentService) StudentResults(ctx context.Context, userID int) ([]model.ResultHistoryRow, error) {
	return s.history.ListByUser(ctx, userID)
}
