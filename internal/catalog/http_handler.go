package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pokedex/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHTTPHandler(svc *Service, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{svc: svc, logger: logger}
}

// Routes registers the catalog endpoints on mux.
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/pokemon", h.List)
	mux.HandleFunc("GET /v1/pokemon/{name}", h.Get)
	mux.HandleFunc("GET /v1/pokemon/{name}/evolutions", h.Evolutions)
}

type listQuery struct {
	Page int `validate:"gte=1"`
}

type nameParam struct {
	Name string `validate:"required,max=64,pokemon_name"`
}

// List handles GET /v1/pokemon
// @Summary List Pokémon
// @Description One assembled catalog page; every entry carries sprites and types
// @Tags pokemon
// @Produce json
// @Param page query int false "Page number" default(1)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/pokemon [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	q := listQuery{Page: 1}
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "page must be a number", nil)
			return
		}
		q.Page = page
	}
	if errs := httpx.ValidateStruct(q); errs != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid query", errs)
		return
	}

	page, err := h.svc.FetchPage(r.Context(), q.Page)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, page.Entries, map[string]any{
		"page":      page.Number,
		"page_size": h.svc.PageSize(),
		"has_more":  page.HasMore,
	})
}

// Get handles GET /v1/pokemon/{name}
// @Summary Get Pokémon detail
// @Description Stats, abilities, sprites, types and evolution lines
// @Tags pokemon
// @Produce json
// @Param name path string true "Pokémon name or id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/pokemon/{name} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, ok := h.name(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.GetDetail(r.Context(), name)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, detail, map[string]any{"title": detail.Title()})
}

// Evolutions handles GET /v1/pokemon/{name}/evolutions
// @Summary Get evolution lines
// @Tags pokemon
// @Produce json
// @Param name path string true "Species name"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/pokemon/{name}/evolutions [get]
func (h *HTTPHandler) Evolutions(w http.ResponseWriter, r *http.Request) {
	name, ok := h.name(w, r)
	if !ok {
		return
	}

	lines, err := h.svc.EvolutionLines(r.Context(), name)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, lines, map[string]any{"count": len(lines)})
}

func (h *HTTPHandler) name(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := nameParam{Name: strings.ToLower(strings.TrimSpace(r.PathValue("name")))}
	if errs := httpx.ValidateStruct(p); errs != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid pokemon name", errs)
		return "", false
	}
	return p.Name, true
}

func (h *HTTPHandler) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Pokémon not found", nil)
		return
	}
	h.logger.Error("upstream request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", httpx.RequestIDFrom(r)),
		zap.Error(err),
	)
	httpx.JSONError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "PokeAPI request failed", nil)
}
