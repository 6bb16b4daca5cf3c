package handler

import (
	"log/slog"
	"net/http"

	"github.com/recipebox/recipebox/internal/handler/dto"
	"github.com/recipebox/recipebox/internal/service"
)

// TagHandler handles HTTP requests for the caller's tags.
type TagHandler struct {
	svc    *service.TagService
	logger *slog.Logger
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(svc *service.TagService, logger *slog.Logger) *TagHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	assignedOnly, qerr := boolQuery(r, "assigned_only")
	if qerr != nil {
		qerr.write(w)
		return
	}

	tags, err := h.svc.List(r.Context(), service.ListInput{UserID: userID, AssignedOnly: assignedOnly})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTagListResponse(tags))
}

// Create handles POST /api/v1/tags.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	req, berr := decodeBody(r, dto.NamedRequestFromForm)
	if berr != nil {
		berr.write(w)
		return
	}

	tag, err := h.svc.Create(r.Context(), service.CreateNamedInput{UserID: userID, Name: req.Name})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToTagResponse(tag))
}
