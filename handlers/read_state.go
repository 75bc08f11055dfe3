package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/akinalp/feedmark/models"
	"github.com/akinalp/feedmark/pkg"
	"github.com/akinalp/feedmark/services"
)

// ReadStateHandler, /api/datasets/{datasetId}/... endpoint'leri.
// Her endpoint auth middleware arkasındadır; durum context'teki
// kullanıcının namespace'inden okunur.
type ReadStateHandler struct {
	readStateService services.ReadStateService
}

// NewReadStateHandler, constructor.
func NewReadStateHandler(readStateService services.ReadStateService) *ReadStateHandler {
	return &ReadStateHandler{readStateService: readStateService}
}

// Get godoc
// GET /api/datasets/{datasetId}/read-state
func (h *ReadStateHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.readStateService.Get(r.Context(), user.ID, r.PathValue("datasetId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, view)
}

// Status godoc
// POST /api/datasets/{datasetId}/read-state/status
// Body: { "ids": [1, 2, 3] } → [{ "id": 1, "read": true }, ...]
func (h *ReadStateHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, req, ok := decodeIDs(w, r, false)
	if !ok {
		return
	}

	statuses, err := h.readStateService.Status(r.Context(), user.ID, r.PathValue("datasetId"), req.IDs)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, statuses)
}

// Unread godoc
// POST /api/datasets/{datasetId}/read-state/unread
// Body: { "ids": [...] } → verilen sırayla okunmamış id'ler.
func (h *ReadStateHandler) Unread(w http.ResponseWriter, r *http.Request) {
	user, req, ok := decodeIDs(w, r, false)
	if !ok {
		return
	}

	unread, err := h.readStateService.FilterUnread(r.Context(), user.ID, r.PathValue("datasetId"), req.IDs)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string][]int64{"ids": unread})
}

// MarkRead godoc
// POST /api/datasets/{datasetId}/read-state/read
func (h *ReadStateHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, req, ok := decodeIDs(w, r, true)
	if !ok {
		return
	}

	view, err := h.readStateService.MarkRead(r.Context(), user.ID, r.PathValue("datasetId"), req.IDs...)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, view)
}

// MarkUnread godoc
// POST /api/datasets/{datasetId}/read-state/unread-mark
func (h *ReadStateHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	user, req, ok := decodeIDs(w, r, true)
	if !ok {
		return
	}

	view, err := h.readStateService.MarkUnread(r.Context(), user.ID, r.PathValue("datasetId"), req.IDs...)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, view)
}

// Toggle godoc
// POST /api/datasets/{datasetId}/items/{itemId}/toggle
func (h *ReadStateHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	itemID, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil {
		pkg.Error(w, fmt.Errorf("%w: invalid item id", pkg.ErrBadRequest))
		return
	}

	result, err := h.readStateService.Toggle(r.Context(), user.ID, r.PathValue("datasetId"), itemID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, result)
}

// MarkAllRead godoc
// POST /api/datasets/{datasetId}/read-state/read-all
// Body: { "up_to": 120 } veya { "ids": [...] } (en büyük id kullanılır)
func (h *ReadStateHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.MarkAllReadRequest
	if err := pkg.DecodeJSON(w, r, &req); err != nil {
		pkg.Error(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		pkg.Error(w, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error()))
		return
	}

	var (
		view *models.ReadStateView
		err  error
	)
	if req.UpTo != nil {
		view, err = h.readStateService.MarkAllRead(r.Context(), user.ID, r.PathValue("datasetId"), *req.UpTo)
	} else {
		view, err = h.readStateService.MarkAllReadOf(r.Context(), user.ID, r.PathValue("datasetId"), req.IDs)
	}
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, view)
}

// Reset godoc
// DELETE /api/datasets/{datasetId}/read-state
func (h *ReadStateHandler) Reset(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.readStateService.Reset(r.Context(), user.ID, r.PathValue("datasetId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, view)
}

func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
	}
	return user, ok
}

// decodeIDs, kullanıcıyı ve { "ids": [...] } body'sini okur. required ise
// boş liste reddedilir. Hata yanıtı yazıldıysa ok=false döner.
func decodeIDs(w http.ResponseWriter, r *http.Request, required bool) (*models.User, *models.ItemIDsRequest, bool) {
	user, ok := requireUser(w, r)
	if !ok {
		return nil, nil, false
	}

	var req models.ItemIDsRequest
	if err := pkg.DecodeJSON(w, r, &req); err != nil {
		pkg.Error(w, err)
		return nil, nil, false
	}

	var verr error
	if required {
		verr = req.Validate()
	} else {
		verr = models.ValidateItemIDs(req.IDs)
	}
	if verr != nil {
		pkg.Error(w, fmt.Errorf("%w: %s", pkg.ErrBadRequest, verr.Error()))
		return nil, nil, false
	}

	return user, &req, true
}
