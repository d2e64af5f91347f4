package ingest

import (
	"net/http"

	"pokedex/internal/httpx"
)

type HTTPHandler struct {
	svc    *Service
	secret string
}

func NewHTTPHandler(svc *Service, secret string) *HTTPHandler {
	return &HTTPHandler{svc: svc, secret: secret}
}

// Routes registers the job endpoint on mux.
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /internal/jobs/warm", h.Warm)
}

// Warm handles POST /internal/jobs/warm
// @Summary Trigger cache warming
// @Description Walk catalog pages so their upstream responses are cached
// @Tags internal
// @Produce json
// @Param X-Internal-Secret header string true "Internal secret for authentication"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /internal/jobs/warm [post]
func (h *HTTPHandler) Warm(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Internal-Secret")
	if h.secret != "" && secret != h.secret {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid internal secret", nil)
		return
	}

	run, err := h.svc.Run(r.Context())
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "WARM_FAILED", err.Error(), nil)
		return
	}

	httpx.JSONSuccess(w, r, run, nil)
}
