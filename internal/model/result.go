package model

import "time"

// Result is one completed attempt. Rows are append-only: they are never
// updated, and deleted only by the paper cascade.
type Result struct {
	ID              int       `json:"id"`
	UserID          int       `json:"user_id"`
	QuestionPaperID int       `json:"question_paper_id"`
	Score           int       `json:"score"`
	CorrectCount    int       `json:"correct_count"`
	WrongCount      int       `json:"wrong_count"`
	TotalQuestions  int       `json:"total_questions"`
	TakenAt         time.Time `json:"taken_at"`
}

// ResultHistoryRow is a result joined with its paper, for attempt history
// views (student dashboard and admin per-student results).
type ResultHistoryRow struct {
	ResultID        int       `json:"result_id"`
	QuestionPaperID int       `json:"question_paper_id"`
	PaperTitle      string    `json:"paper_title"`
	TotalMarks      int       `json:"total_marks"`
	Score           int       `json:"score"`
	CorrectCount    int       `json:"correct_count"`
	WrongCount      int       `json:"wrong_count"`
	TotalQuestions  int       `json:"total_questions"`
	TakenAt         time.Time `json:"taken_at"`
}

// SubmitExamRequest carries a student's answers for one paper. Answers maps
// question ID to the selected option letter; unanswered questions are absent.
type SubmitExamRequest struct {
	PaperID int            `json:"paper_id" binding:"required"`
	Answers map[int]string `json:"answers"`
}

// ExamResultSummary is the immediate score returned by submission.
type ExamResultSummary struct {
	Score          int `json:"score"`
	CorrectCount   int `json:"correct"`
	WrongCount     int `json:"wrong"`
	TotalQuestions int `json:"total"`
}
