package model

// Question is a four-option multiple-choice question owned by one paper.
type Question struct {
	ID              int    `json:"id"`
	QuestionPaperID int    `json:"question_paper_id"`
	Text            string `json:"text"`
	OptionA         string `json:"option_a"`
	OptionB         string `json:"option_b"`
	OptionC         string `json:"option_c"`
	OptionD         string `json:"option_d"`
	CorrectOption   string `json:"correct_option"`
	Marks           int    `json:"marks"`
}

// ExamQuestion is the student-facing view of a question. It deliberately has
// no correct-option field: the answer key never crosses the wire before
// submission.
type ExamQuestion struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c"`
	OptionD string `json:"option_d"`
	Marks   int    `json:"marks"`

	// Parallel translated fields, attached when a target language is
	// requested. Each falls back to the source text independently.
	TextHi    string `json:"text_hi,omitempty"`
	OptionAHi string `json:"option_a_hi,omitempty"`
	OptionBHi string `json:"option_b_hi,omitempty"`
	OptionCHi string `json:"option_c_hi,omitempty"`
	OptionDHi string `json:"option_d_hi,omitempty"`
}

// AnswerKeyEntry is the authoritative scoring row loaded at submission time.
type AnswerKeyEntry struct {
	QuestionID    int
	CorrectOption string
	Marks         int
}

// AddQuestionInput is one question in a bulk paper create.
type AddQuestionInput struct {
	Text          string `json:"text" binding:"required,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"required,max=1000"`
	OptionB       string `json:"option_b" binding:"required,max=1000"`
	OptionC       string `json:"option_c" binding:"required,max=1000"`
	OptionD       string `json:"option_d" binding:"required,max=1000"`
	CorrectOption string `json:"correct_option" binding:"required,oneof=A B C D a b c d"`
	Marks         int    `json:"marks" binding:"required,min=1"`
}

// AddQuestionRequest adds a single question to an existing paper.
type AddQuestionRequest struct {
	QuestionPaperID int    `json:"question_paper_id" binding:"required"`
	Text            string `json:"text" binding:"required,min=1,max=2000"`
	OptionA         string `json:"option_a" binding:"required,max=1000"`
	OptionB         string `json:"option_b" binding:"required,max=1000"`
	OptionC         string `json:"option_c" binding:"required,max=1000"`
	OptionD         string `json:"option_d" binding:"required,max=1000"`
	CorrectOption   string `json:"correct_option" binding:"required,oneof=A B C D a b c d"`
	Marks           int    `json:"marks" binding:"required,min=1"`
}

// UpdateQuestionRequest edits an existing question in place.
type UpdateQuestionRequest struct {
	Text          string `json:"text" binding:"required,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"required,max=1000"`
	OptionB       string `json:"option_b" binding:"required,max=1000"`
	OptionC       string `json:"option_c" binding:"required,max=1000"`
	OptionD       string `json:"option_d" binding:"required,max=1000"`
	CorrectOption string `json:"correct_option" binding:"required,oneof=A B C D a b c d"`
	Marks         int    `json:"marks" binding:"omitempty,min=1"`
}
