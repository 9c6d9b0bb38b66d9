package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/openexam/examportal-backend/internal/model"
	"github.com/openexam/examportal-backend/internal/response"
	"github.com/openexam/examportal-backend/internal/service"
	"github.com/openexam/examportal-backend/internal/validator"
)

// AdminHandler handles the admin CRUD surface: courses, papers, questions
// and the student roster.
type AdminHandler struct {
	contentService *service.ContentService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(contentService *service.ContentService) *AdminHandler {
	return &AdminHandler{contentService: contentService}
}

// ─── Courses ────────────────────────────────────────────────────────────

// ListCourses godoc
// GET /api/v1/courses (public — the registration form needs it pre-auth)
func (h *AdminHandler) ListCourses(c *gin.Context) {
	courses, err := h.contentService.ListCourses(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// CreateCourse godoc
// POST /api/v1/admin/courses
func (h *AdminHandler) CreateCourse(c *gin.Context) {
	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.contentService.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// ─── Papers ─────────────────────────────────────────────────────────────

// ListPapers godoc
// GET /api/v1/admin/papers
func (h *AdminHandler) ListPapers(c *gin.Context) {
	papers, err := h.contentService.ListPapers(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if papers == nil {
		papers = []model.PaperListItem{}
	}
	response.Success(c, http.StatusOK, gin.H{"papers": papers})
}

// GetPaper godoc
// GET /api/v1/admin/papers/:id
// Full paper detail including correct options — admin only.
func (h *AdminHandler) GetPaper(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.contentService.GetPaperDetail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPaperNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// CreatePaper godoc
// POST /api/v1/admin/papers
// Creates a paper and its questions together, in one transaction.
func (h *AdminHandler) CreatePaper(c *gin.Context) {
	var req model.CreatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.contentService.CreatePaper(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"paper": paper})
}

// DeletePaper godoc
// DELETE /api/v1/admin/papers/:id
// Cascade-deletes questions and results with the paper, atomically.
func (h *AdminHandler) DeletePaper(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.contentService.DeletePaper(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrPaperNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Question paper deleted"})
}

// ─── Questions ──────────────────────────────────────────────────────────

// AddQuestion godoc
// POST /api/v1/admin/questions
func (h *AdminHandler) AddQuestion(c *gin.Context) {
	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.contentService.AddQuestion(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrPaperNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
func (h *AdminHandler) UpdateQuestion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.contentService.UpdateQuestion(c.Request.Context(), id, req); err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Question updated"})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.contentService.DeleteQuestion(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Question deleted"})
}

// ─── Students ───────────────────────────────────────────────────────────

// ListStudents godoc
// GET /api/v1/admin/students
func (h *AdminHandler) ListStudents(c *gin.Context) {
	students, err := h.contentService.ListStudents(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if students == nil {
		students = []model.User{}
	}
	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// GetStudent godoc
// GET /api/v1/admin/students/:id
func (h *AdminHandler) GetStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	student, err := h.contentService.GetStudent(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// GetStudentResults godoc
// GET /api/v1/admin/students/:id/results
func (h *AdminHandler) GetStudentResults(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	results, err := h.contentService.StudentResults(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []model.ResultHistoryRow{}
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}
