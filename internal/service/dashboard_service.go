package service

import (
	"context"
	"fmt"

	"github.com/openexam/examportal-backend/internal/model"
)

// DashboardPaperStore lists papers visible to a course.
type DashboardPaperStore interface {
	ListByCourseName(ctx context.Context, courseName string) ([]model.QuestionPaper, error)
}

// Dashboard is the student landing view: identity, the papers available to
// the enrolled course, and the caller's own attempt history.
type Dashboard struct {
	User    DashboardUser            `json:"user"`
	Papers  []model.QuestionPaper    `json:"papers"`
	Results []model.ResultHistoryRow `json:"results"`
}

// DashboardUser is the identity block of the dashboard.
type DashboardUser struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	Course   *string `json:"course,omitempty"`
}

// DashboardService composes the read-only dashboard. No state machine here,
// just query composition.
type DashboardService struct {
	papers  DashboardPaperStore
	history HistoryStore
	users   RosterStore
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(papers DashboardPaperStore, history HistoryStore, users RosterStore) *DashboardService {
	return &DashboardService{papers: papers, history: history, users: users}
}

// GetDashboard builds the dashboard for the authenticated caller. Admins get
// an empty paper list — they have no enrolled course.
func (s *DashboardService) GetDashboard(ctx context.Context, userID int, course *string) (*Dashboard, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	papers := []model.QuestionPaper{}
	if course != nil && *course != "" {
		papers, err = s.papers.ListByCourseName(ctx, *course)
		if err != nil {
			return nil, fmt.Errorf("list papers: %w", err)
		}
		if papers == nil {
			papers = []model.QuestionPaper{}
		}
	}

	results, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if results == nil {
		results = []model.ResultHistoryRow{}
	}

	return &Dashboard{
		User: DashboardUser{
			ID:       user.ID,
			Username: user.Username,
			Role:     string(user.Role),
			Course:   user.Course,
		},
		Papers:  papers,
		Results: results,
	}, nil
}
