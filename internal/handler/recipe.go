package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sumanskitchen/kitchen-go/internal/middleware"
	"github.com/sumanskitchen/kitchen-go/internal/model"
	"github.com/sumanskitchen/kitchen-go/internal/service"
)

// RecipeHandler handles HTTP requests for recipes.
type RecipeHandler struct {
	service *service.RecipeService
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(svc *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{service: svc}
}

// HandleListPublic handles GET /api/recipes requests.
func (h *RecipeHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.service.ListPublic(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipes)
}

// HandleListMine handles GET /api/recipes/mine requests.
func (h *RecipeHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	recipes, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipes)
}

// HandleGet handles GET /api/recipes/{id} requests. Authentication is optional.
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	var caller *model.ID
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		caller = &userID
	}

	recipe, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// HandleCreate handles POST /api/recipes requests.
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	var req model.RecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recipe, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, recipe)
}

// HandleUpdate handles PUT /api/recipes/{id} requests.
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	var req model.RecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recipe, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// HandleDelete handles DELETE /api/recipes/{id} requests.
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadImage handles POST /api/recipes/{id}/image requests.
func (h *RecipeHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	contentType, data, ok := readImage(w, r)
	if !ok {
		return
	}

	recipe, err := h.service.AttachImage(r.Context(), userID, chi.URLParam(r, "id"), contentType, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}
