package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"prodbot/internal/config"
	"prodbot/internal/game"
)

// Server is the operations API. It exposes read endpoints for dashboards
// and token-guarded admin endpoints mirroring the moderator slash commands,
// so operators can drive the economy without a chat client.
type Server struct {
	cfg  config.BotConfig
	log  *slog.Logger
	game *game.Service
	pub  *game.Publisher
	mux  *chi.Mux
}

func New(cfg config.BotConfig, logger *slog.Logger, gameSvc *game.Service, pub *game.Publisher) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		game: gameSvc,
		pub:  pub,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/users/{id}/stats", s.handleUserStats)
		r.Get("/tokens/top", s.handleTopTokens)

		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/admin/publish", s.handlePublish)
			r.Post("/admin/reset", s.handleReset)
			r.Post("/admin/points", s.handlePointsAdjust)
			r.Post("/admin/tokens", s.handleTokensAdjust)
		})
	})
}

func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.OpsToken == "" {
			writeError(w, http.StatusForbidden, "admin endpoints are disabled")
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.OpsToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := s.game.TopN(r.Context(), game.LeaderboardSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows := make([]map[string]any, 0, len(top))
	for i, entry := range top {
		rows = append(rows, map[string]any{
			"position": i + 1,
			"user_id":  strconv.FormatInt(entry.UserID, 10),
			"score":    entry.Score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	stats, err := s.game.UserStats(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	wallet, hasWallet, err := s.game.WalletAddress(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := map[string]any{
		"user_id":         strconv.FormatInt(userID, 10),
		"ranked":          stats.Ranked,
		"rank":            stats.RankLabel(),
		"score":           stats.Score,
		"seasons_played":  stats.SeasonsPlayed,
		"top_30_finishes": stats.Top30Finishes,
		"token_balance":   stats.TokenBalance,
		"token_value_usd": game.TokenValueUSD(stats.TokenBalance, s.cfg.SandPriceUSD),
	}
	if hasWallet {
		out["wallet_address"] = wallet
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTopTokens(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}
	top, err := s.game.TopTokenHolders(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows := make([]map[string]any, 0, len(top))
	for i, entry := range top {
		rows = append(rows, map[string]any{
			"position": i + 1,
			"user_id":  strconv.FormatInt(entry.UserID, 10),
			"balance":  entry.Score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if err := s.pub.Publish(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ScoresOnly bool `json:"scores_only"`
	}
	// An empty body means a full season reset.
	if err := decodeJSON(r, &in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.ScoresOnly {
		if err := s.game.ResetScores(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	summary, err := s.game.SeasonReset(r.Context(), s.cfg.SeasonLength)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"previous_run":  summary.PreviousRun,
		"current_run":   summary.CurrentRun,
		"deadline":      summary.Deadline.UTC().Format(time.RFC3339),
		"participants":  summary.Participants,
		"top_finishers": len(summary.TopFinishers),
	})
}

func (s *Server) handlePointsAdjust(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"user_id"`
		Amount int64  `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := strconv.ParseInt(in.UserID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var score int64
	if in.Amount >= 0 {
		score, err = s.game.GivePoints(r.Context(), userID, in.Amount)
	} else {
		score, err = s.game.TakePoints(r.Context(), userID, -in.Amount)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// Point mutations republish the leaderboard no matter which surface
	// triggered them.
	if err := s.pub.Publish(r.Context()); err != nil {
		s.log.Error("leaderboard publish failed", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": in.UserID, "score": score})
}

func (s *Server) handleTokensAdjust(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"user_id"`
		Amount int64  `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := strconv.ParseInt(in.UserID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var balance int64
	if in.Amount >= 0 {
		balance, err = s.game.GiveTokens(r.Context(), userID, in.Amount)
	} else {
		balance, err = s.game.TakeTokens(r.Context(), userID, -in.Amount)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": in.UserID, "balance": balance})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidWallet),
		errors.Is(err, game.ErrScoreNotRaised):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrWalletNotFound), errors.Is(err, game.ErrNoChallenge):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrWalletExists),
		errors.Is(err, game.ErrChallengePending),
		errors.Is(err, game.ErrChallengerBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInsufficientTokens), errors.Is(err, game.ErrSelfChallenge):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
