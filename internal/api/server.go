package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/lnwatch/eclair-dashboard/internal/db"
	"github.com/lnwatch/eclair-dashboard/internal/stats"
)

// Server serves the dashboard API over the shared snapshot store
type Server struct {
	store  *stats.Store
	db     *db.Database
	router *mux.Router
	log    zerolog.Logger
}

// APIResponse is the envelope for all JSON responses
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// snapshotView wraps a Snapshot for serialization. JSON cannot carry
// non-finite numbers, so the derived rates become null when undefined.
type snapshotView struct {
	*stats.Snapshot
	ReturnRate     *float64 `json:"returnRate"`
	RelayedPercent *float64 `json:"relayedPercent"`
}

func viewOf(snap *stats.Snapshot) snapshotView {
	return snapshotView{
		Snapshot:       snap,
		ReturnRate:     finiteOrNil(snap.ReturnRate),
		RelayedPercent: finiteOrNil(snap.RelayedPercent()),
	}
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewServer creates a dashboard API server. The database is optional; the
// history endpoints answer 404 without it.
func NewServer(store *stats.Store, database *db.Database, logger zerolog.Logger) *Server {
	s := &Server{
		store:  store,
		db:     database,
		router: mux.NewRouter(),
		log:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/snapshot", s.handleSnapshot).Methods("GET")
	api.HandleFunc("/channels", s.handleChannels).Methods("GET")
	api.HandleFunc("/errors", s.handleErrors).Methods("GET")
	api.HandleFunc("/errors/clear", s.handleClearErrors).Methods("POST")
	api.HandleFunc("/resize", s.handleResize).Methods("POST")
	api.HandleFunc("/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/history/fees", s.handleHistoryFees).Methods("GET")
	api.HandleFunc("/history/relays", s.handleHistoryRelays).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the CORS-wrapped root handler
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap == nil {
		s.writeError(w, http.StatusNotFound, "No snapshot available yet")
		return
	}

	s.writeJSON(w, APIResponse{Success: true, Data: viewOf(snap)})
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap == nil {
		s.writeError(w, http.StatusNotFound, "No snapshot available yet")
		return
	}

	// Busiest channels first, like the dashboard grid
	channels := make([]stats.ChannelStat, 0,
		len(snap.Channels)+len(snap.HostedChannels)+len(snap.FiatChannels))
	channels = append(channels, snap.Channels...)
	channels = append(channels, snap.HostedChannels...)
	channels = append(channels, snap.FiatChannels...)
	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].RelayVolumeMsat > channels[j].RelayVolumeMsat
	})

	s.writeJSON(w, APIResponse{Success: true, Data: channels})
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	errs := s.store.Errors()
	if errs == nil {
		errs = []string{}
	}
	s.writeJSON(w, APIResponse{Success: true, Data: errs})
}

func (s *Server) handleClearErrors(w http.ResponseWriter, r *http.Request) {
	s.store.ClearErrors()
	s.writeJSON(w, APIResponse{Success: true})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width int `json:"width"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid resize request")
		return
	}
	if req.Width <= 0 {
		s.writeError(w, http.StatusBadRequest, "Width must be positive")
		return
	}

	s.store.Resize(req.Width)
	s.writeJSON(w, APIResponse{Success: true})
}

// historyWindow derives the [from, to] range from the days query parameter,
// defaulting to the trailing 30 days
func historyWindow(r *http.Request) (time.Time, time.Time) {
	days := 30
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	to := time.Now()
	return to.AddDate(0, 0, -days), to
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusNotFound, "History archive not configured")
		return
	}

	from, to := historyWindow(r)

	snapshots, err := s.db.GetCycleSnapshots(from, to)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get cycle snapshots")
		s.writeError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}

	s.writeJSON(w, APIResponse{Success: true, Data: snapshots})
}

func (s *Server) handleHistoryFees(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusNotFound, "History archive not configured")
		return
	}

	from, to := historyWindow(r)

	feeData, err := s.db.GetRelayFees(from, to)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get relay fees")
		s.writeError(w, http.StatusInternalServerError, "Failed to get fee history")
		return
	}
	if feeData == nil {
		feeData = []db.DailyFeeData{}
	}

	s.writeJSON(w, APIResponse{Success: true, Data: feeData})
}

func (s *Server) handleHistoryRelays(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusNotFound, "History archive not configured")
		return
	}

	from, to := historyWindow(r)

	events, err := s.db.GetRelayEvents(from, to)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get relay events")
		s.writeError(w, http.StatusInternalServerError, "Failed to get relay history")
		return
	}
	if events == nil {
		events = []db.RelayEvent{}
	}

	s.writeJSON(w, APIResponse{Success: true, Data: events})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}

	if s.db != nil {
		latest, err := s.db.GetLatestCycleSnapshot()
		switch {
		case err == nil:
			data["lastCycleAt"] = latest.Timestamp.Format(time.RFC3339)
		case errors.Is(err, db.ErrNotFound):
			// Nothing archived yet, still healthy
		default:
			s.log.Warn().Err(err).Msg("Failed to get latest cycle snapshot")
		}
	}

	s.writeJSON(w, APIResponse{Success: true, Data: data})
}

func (s *Server) writeJSON(w http.ResponseWriter, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message}); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON error response")
	}
}
