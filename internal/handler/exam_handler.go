package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openexam/examportal-backend/internal/middleware"
	"github.com/openexam/examportal-backend/internal/model"
	"github.com/openexam/examportal-backend/internal/response"
	"github.com/openexam/examportal-backend/internal/service"
	"github.com/openexam/examportal-backend/internal/validator"
)

// ExamHandler handles the student-facing exam endpoints: sanitized paper
// fetch and authoritative submission.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// GetExam godoc
// GET /api/v1/exam/:paper_id?lang=hi
// Returns paper metadata and the question set without correct options.
func (h *ExamHandler) GetExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	paperID, err := strconv.Atoi(c.Param("paper_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.examService.GetExam(c.Request.Context(), paperID, c.Query("lang"))
	if err != nil {
		if errors.Is(err, service.ErrPaperNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, payload)
}

// SubmitExam godoc
// POST /api/v1/exam/submit
// Scores the answer sheet against the stored key and appends one result.
// Repeat calls create further attempts — the client-side guard is the only
// duplicate suppression.
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	summary, err := h.examService.SubmitExam(c.Request.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaperNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAttemptLimitReached):
			response.Fail(c, http.StatusConflict, response.ErrAttemptLimit)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, summary)
}
