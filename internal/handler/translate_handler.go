package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openexam/examportal-backend/internal/response"
	"github.com/openexam/examportal-backend/internal/service"
	"github.com/openexam/examportal-backend/internal/validator"
)

// TranslateHandler exposes the translation adapter over HTTP.
type TranslateHandler struct {
	translateService *service.TranslateService
}

// NewTranslateHandler creates a new TranslateHandler.
func NewTranslateHandler(translateService *service.TranslateService) *TranslateHandler {
	return &TranslateHandler{translateService: translateService}
}

type translateBody struct {
	Text       string `json:"text" binding:"required,min=1,max=4000"`
	TargetLang string `json:"target_lang" binding:"omitempty,len=2"`
}

// Translate godoc
// POST /api/v1/translate
// Returns the translated text, or the input unchanged when the translation
// backend is down — this endpoint never fails a caller over an outage.
func (h *TranslateHandler) Translate(c *gin.Context) {
	var req translateBody
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lang := req.TargetLang
	if lang == "" {
		lang = "hi"
	}

	translated := h.translateService.Translate(c.Request.Context(), req.Text, lang)
	response.Success(c, http.StatusOK, gin.H{
		"english":    req.Text,
		"translated": translated,
		"lang":       lang,
	})
}
