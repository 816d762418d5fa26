package examples

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/showcase-api/showcase/internal/auth"
	"github.com/showcase-api/showcase/internal/platform/httpx"
	"github.com/showcase-api/showcase/internal/shared"
)

// Handler wires HTTP endpoints for examples.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auth      *auth.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authService *auth.Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		auth:      authService,
		validator: validator.New(),
	}
}

// MountRoutes registers example routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(auth.Require(h.auth))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type exampleRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Age         *int    `json:"age" validate:"omitempty,min=1"`
	Price       float64 `json:"price" validate:"min=1"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	CategoryID  int64   `json:"category_id" validate:"required,min=1"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := httpx.ListQuery(r)
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	result, err := h.service.List(r.Context(), q, filter)
	if err != nil {
		h.logger.Error("list examples", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	example, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, example)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), auth.PrincipalFromContext(r.Context()), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), auth.PrincipalFromContext(r.Context()), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	status, err := h.service.Delete(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var req exampleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return Input{}, false
	}
	if req.Price == 0 {
		req.Price = 1
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err))
		return Input{}, false
	}
	return Input{
		Title:       req.Title,
		Age:         req.Age,
		Price:       req.Price,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}, true
}

func parseFilter(r *http.Request) (ListFilter, error) {
	values := r.URL.Query()
	filter := ListFilter{}

	if title := values.Get("title"); title != "" {
		filter.Title = &title
	}
	if raw := values.Get("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 1 {
			return ListFilter{}, fmt.Errorf("%w: price must be a number >= 1", shared.ErrValidation)
		}
		filter.Price = &price
	}
	if raw := values.Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID < 1 {
			return ListFilter{}, fmt.Errorf("%w: category_id must be an integer >= 1", shared.ErrValidation)
		}
		filter.CategoryID = &categoryID
	}
	if raw := values.Get("example_id"); raw != "" {
		exampleID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || exampleID < 1 {
			return ListFilter{}, fmt.Errorf("%w: example_id must be an integer >= 1", shared.ErrValidation)
		}
		filter.ID = &exampleID
	}
	return filter, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", shared.ErrValidation))
		return 0, false
	}
	return id, true
}
