package model

// QuestionPaper is a named, timed set of questions worth a total marks value.
// TotalMarks should equal the sum of the paper's question marks; that is a
// soft invariant the system does not enforce.
type QuestionPaper struct {
	ID              int    `json:"id"`
	CourseID        int    `json:"course_id"`
	Title           string `json:"title"`
	TotalMarks      int    `json:"total_marks"`
	DurationMinutes int    `json:"duration_minutes"`
}

// PaperListItem is the admin list row, joined with the course name.
type PaperListItem struct {
	QuestionPaper
	CourseName string `json:"course_name"`
}

// PaperDetail is the admin detail view: paper metadata plus the full
// question set, correct options included.
type PaperDetail struct {
	Paper     QuestionPaper `json:"paper"`
	Questions []Question    `json:"questions"`
}

// CreatePaperRequest creates a paper together with its questions.
type CreatePaperRequest struct {
	CourseID        int                `json:"course_id" binding:"required"`
	Title           string             `json:"title" binding:"required,min=3,max=255"`
	TotalMarks      int                `json:"total_marks" binding:"required,min=1"`
	DurationMinutes int                `json:"duration_minutes" binding:"required,min=1,max=480"`
	Questions       []AddQuestionInput `json:"questions" binding:"omitempty,dive"`
}

// ExamPaper is the student-facing paper metadata returned by the exam fetch.
type ExamPaper struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	TotalMarks      int    `json:"total_marks"`
	DurationMinutes int    `json:"duration_minutes"`
}
