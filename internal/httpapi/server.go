package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-arena/internal/archive"
	"github.com/park285/cheese-arena/internal/board"
	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/park285/cheese-arena/pkg/arenadto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Lobby is the read side of the arena manager.
type Lobby interface {
	ServerInfo() arenadto.ServerInfo
	Position(sessionID string) (rules.Position, bool)
}

// ResultStore looks up archived games.
type ResultStore interface {
	Get(ctx context.Context, id string) (*archive.Record, error)
	ByPlayer(ctx context.Context, name string) ([]*archive.Record, error)
}

type Server struct {
	lobby   Lobby
	ws      http.Handler
	results ResultStore
	timeout time.Duration
}

// New builds the HTTP surface. ws serves /ws; results may be nil when no archive
// store is configured.
func New(lobby Lobby, ws http.Handler, results ResultStore) *Server {
	return &Server{lobby: lobby, ws: ws, results: results, timeout: 5 * time.Second}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /test", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("200 OK"))
	})
	mux.HandleFunc("GET /serverInfo", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.lobby.ServerInfo())
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.ws != nil {
		mux.Handle("/ws", s.ws)
	}
	mux.HandleFunc("GET /sessions/{id}/board.png", s.boardPNG)
	mux.HandleFunc("GET /results/{id}", s.result)
	mux.HandleFunc("GET /players/{name}/results", s.playerResults)
	return mux
}

func (s *Server) boardPNG(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pos, ok := s.lobby.Position(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no live session "+id)
		return
	}
	opts := board.Options{Flip: strings.EqualFold(r.URL.Query().Get("orientation"), "black")}
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < board.MinSize || n > board.MaxSize {
			writeError(w, http.StatusBadRequest, "size must be an integer between "+strconv.Itoa(board.MinSize)+" and "+strconv.Itoa(board.MaxSize))
			return
		}
		opts.Size = n
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	img, err := board.RenderPosition(ctx, pos, opts)
	if err != nil {
		obslog.L().Warn("http_board_render_error", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

func (s *Server) result(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result archive not configured")
		return
	}
	id := r.PathValue("id")
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	rec, err := s.results.Get(ctx, id)
	if err != nil {
		obslog.L().Warn("http_result_error", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, "result lookup failed")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no result for "+id)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) playerResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result archive not configured")
		return
	}
	name := r.PathValue("name")
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	recs, err := s.results.ByPlayer(ctx, name)
	if err != nil {
		obslog.L().Warn("http_player_results_error", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusBadGateway, "result lookup failed")
		return
	}
	if recs == nil {
		recs = []*archive.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obslog.L().Debug("http_encode_error", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, arenadto.Reason{Reason: msg})
}
