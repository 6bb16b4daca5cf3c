package handler

import (
	"log/slog"
	"net/http"

	"github.com/recipebox/recipebox/internal/auth"
	"github.com/recipebox/recipebox/internal/handler/dto"
	"github.com/recipebox/recipebox/internal/service"
)

// IngredientHandler handles HTTP requests for the caller's ingredients.
type IngredientHandler struct {
	svc    *service.IngredientService
	logger *slog.Logger
}

// NewIngredientHandler creates a new IngredientHandler.
func NewIngredientHandler(svc *service.IngredientService, logger *slog.Logger) *IngredientHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngredientHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/v1/ingredients.
// With assigned_only set, only ingredients used by one of the caller's
// recipes are returned, each once.
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	assignedOnly, qerr := boolQuery(r, "assigned_only")
	if qerr != nil {
		qerr.write(w)
		return
	}

	ingredients, err := h.svc.List(r.Context(), service.ListInput{
		UserID:       userID,
		AssignedOnly: assignedOnly,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToIngredientListResponse(ingredients))
}

// Create handles POST /api/v1/ingredients.
func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	req, berr := decodeBody(r, dto.NamedRequestFromForm)
	if berr != nil {
		berr.write(w)
		return
	}

	ingredient, err := h.svc.Create(r.Context(), service.CreateNamedInput{
		UserID: userID,
		Name:   req.Name,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToIngredientResponse(ingredient))
}

// requireUser returns the authenticated user's id, answering 401 when the
// request carries no principal.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Authentication required"}}`))
		return "", false
	}
	return userID, true
}
