package series

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode"
)

// Handler serves GET /series/{name}/{n}.
type Handler struct {
	log *slog.Logger
}

func NewHandler(log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log}
}

type seriesResponse struct {
	Series  string `json:"series"`
	N       int    `json:"n"`
	Result  []int  `json:"result"`
	Message string `json:"message,omitempty"`
}

// Register wires the series route onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /series/{name}/{n}", h.get)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	// Negative or malformed n never matches, same as a {n:min(0)} route
	// constraint.
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 0 {
		http.NotFound(w, r)
		return
	}

	resp := seriesResponse{Series: sentenceCase(name), N: n}
	result, known := Generate(name, n)
	if known {
		resp.Result = result
	} else {
		resp.Message = "no series named " + strconv.Quote(name)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.WarnContext(r.Context(), "series.write.failed", "err", err.Error())
	}
}

func sentenceCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
