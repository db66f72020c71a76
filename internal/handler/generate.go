package handler

import (
	"net/http"

	"github.com/sumanskitchen/kitchen-go/internal/model"
	"github.com/sumanskitchen/kitchen-go/internal/service"
)

// GenerateHandler handles HTTP requests for AI recipe generation.
type GenerateHandler struct {
	service *service.GeneratorService
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(svc *service.GeneratorService) *GenerateHandler {
	return &GenerateHandler{service: svc}
}

// HandleFromPrompt handles POST /api/generate/from-prompt requests.
func (h *GenerateHandler) HandleFromPrompt(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateFromPromptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft, err := h.service.FromPrompt(r.Context(), req.PromptText)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// HandleFromImage handles POST /api/generate/from-image requests.
func (h *GenerateHandler) HandleFromImage(w http.ResponseWriter, r *http.Request) {
	contentType, data, ok := readImage(w, r)
	if !ok {
		return
	}

	draft, err := h.service.FromImage(r.Context(), contentType, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}
