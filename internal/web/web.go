package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"netsched/internal/config"
	"netsched/internal/ics"
	appLog "netsched/internal/log"
	"netsched/internal/model"
	"netsched/internal/schedule"
	"netsched/internal/telemetry"
)

// Options wires a Server to its collaborators.
type Options struct {
	Config   *config.Config
	Resolver *schedule.Resolver

	// Source and Region describe the catalog in API responses.
	Source string
	Region string

	// Now supplies the wall clock; it is the only clock read in a request.
	// If nil, time.Now in Location is used.
	Now      func() time.Time
	Location *time.Location

	// Metrics is optional; when set, /metrics is served and requests are
	// counted.
	Metrics *telemetry.Metrics
}

// Server provides the HTTP API over the schedule resolver. Every request
// takes a fresh reference instant; nothing is cached between requests.
type Server struct {
	cfg      *config.Config
	resolver *schedule.Resolver
	source   string
	region   string
	now      func() time.Time
	loc      *time.Location
	metrics  *telemetry.Metrics
	router   chi.Router
}

// NewServer constructs a new Server.
func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().In(loc) }
	}

	s := &Server{
		cfg:      cfg,
		resolver: opts.Resolver,
		source:   opts.Source,
		region:   opts.Region,
		now:      now,
		loc:      loc,
		metrics:  opts.Metrics,
		router:   chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="netsched", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// StartServer serves the API on cfg.Listen until ctx is cancelled, then
// shuts down gracefully.
func StartServer(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		r.Use(s.basicAuthMiddleware)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/api/now", s.handleNow)
	r.Get("/api/day/{weekday}", s.handleDay)
	r.Get("/api/counts", s.handleCounts)
	r.Get("/api/occurrences", s.handleOccurrences)
	r.Get("/nets.ics", s.handleICS)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// referenceDTO describes the instant a response was computed for.
type referenceDTO struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Weekday string `json:"weekday"`
	Minutes int    `json:"minutes"`
}

// netDTO is a JSON-friendly view of a net definition.
type netDTO struct {
	Name        string   `json:"name"`
	Time        string   `json:"time"`
	TimeLabel   string   `json:"time_label"`
	Days        []string `json:"days"`
	Weeks       string   `json:"weeks,omitempty"`
	Channel     string   `json:"channel"`
	ChannelKind string   `json:"channel_kind"`
	Repeater    string   `json:"repeater,omitempty"`
	Frequency   string   `json:"frequency,omitempty"`
	Offset      string   `json:"offset,omitempty"`
	ToneHz      float64  `json:"tone_hz,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	System      string   `json:"system,omitempty"`
	Note        string   `json:"note,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// nowResponse is the JSON response shape for /api/now.
type nowResponse struct {
	Reference     referenceDTO `json:"reference"`
	Region        string       `json:"region,omitempty"`
	Source        string       `json:"source,omitempty"`
	Live          []netDTO     `json:"live"`
	Soon          []netDTO     `json:"soon"`
	Upcoming      []netDTO     `json:"upcoming"`
	UpcomingTotal int          `json:"upcoming_total"`
}

// dayResponse is the JSON response shape for /api/day/{weekday}.
type dayResponse struct {
	Reference referenceDTO `json:"reference"`
	Day       string       `json:"day"`
	Today     bool         `json:"today"`
	Nets      []netDTO     `json:"nets"`
}

type countsResponse struct {
	Reference referenceDTO   `json:"reference"`
	Counts    map[string]int `json:"counts"`
}

type occurrenceDTO struct {
	InstanceKey string    `json:"instance_key"`
	Date        string    `json:"date"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Net         netDTO    `json:"net"`
}

type occurrencesResponse struct {
	From        string          `json:"from"`
	Days        int             `json:"days"`
	Occurrences []occurrenceDTO `json:"occurrences"`
	Truncated   []int           `json:"truncated,omitempty"`
}

func (s *Server) reference() (time.Time, model.ReferenceInstant) {
	now := s.now()
	return now, model.InstantOf(now)
}

func toReferenceDTO(now time.Time, ref model.ReferenceInstant) referenceDTO {
	return referenceDTO{
		Date:    ref.Date.String(),
		Time:    now.Format("15:04"),
		Weekday: model.WeekdayName(ref.Weekday()),
		Minutes: ref.Minutes,
	}
}

func toNetDTO(n model.NetDefinition, c model.Classification) netDTO {
	days := make([]string, 0, 7)
	for _, d := range n.Days.Days() {
		days = append(days, model.WeekdayName(d))
	}
	dto := netDTO{
		Name:        n.Name,
		Time:        n.Time.String(),
		TimeLabel:   n.Time.Format12h(),
		Days:        days,
		Weeks:       n.RuleText,
		Channel:     n.Channel.String(),
		ChannelKind: n.Channel.Kind.String(),
		Repeater:    n.Channel.RepeaterID,
		Frequency:   n.Channel.Frequency,
		Offset:      n.Channel.Offset,
		ToneHz:      n.Channel.ToneHz,
		Mode:        n.Channel.Mode,
		System:      n.Channel.SystemName,
		Note:        n.Note,
	}
	if c != model.ClassNone {
		dto.Status = string(c)
	}
	return dto
}

func toNetDTOs(nets []model.NetDefinition, c model.Classification) []netDTO {
	out := make([]netDTO, 0, len(nets))
	for _, n := range nets {
		out = append(out, toNetDTO(n, c))
	}
	return out
}

// handleNow returns today's live, soon and upcoming nets.
//
// GET /api/now?limit=5
//   - limit: maximum number of upcoming nets (default config upcoming_limit)
func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	now, ref := s.reference()
	b := s.resolver.ClassifyToday(ref)

	limit := parseIntDefault(r.URL.Query().Get("limit"), s.cfg.UpcomingLimit)
	if limit <= 0 {
		limit = s.cfg.UpcomingLimit
	}
	upcoming := b.Upcoming
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}

	writeJSON(w, http.StatusOK, nowResponse{
		Reference:     toReferenceDTO(now, ref),
		Region:        s.region,
		Source:        s.source,
		Live:          toNetDTOs(b.Live, model.ClassLive),
		Soon:          toNetDTOs(b.Soon, model.ClassSoon),
		Upcoming:      toNetDTOs(upcoming, model.ClassUpcoming),
		UpcomingTotal: len(b.Upcoming),
	})
}

// handleDay returns the full listing for a weekday ("monday", "Mon" or
// "today").
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	now, ref := s.reference()

	param := chi.URLParam(r, "weekday")
	day := ref.Weekday()
	if !strings.EqualFold(param, "today") {
		d, err := model.ParseWeekday(param)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		day = d
	}

	occ, err := s.resolver.Day(ref, day)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	nets := make([]netDTO, 0, len(occ))
	for _, o := range occ {
		nets = append(nets, toNetDTO(o.Net, o.Classification))
	}
	writeJSON(w, http.StatusOK, dayResponse{
		Reference: toReferenceDTO(now, ref),
		Day:       model.WeekdayName(day),
		Today:     day == ref.Weekday(),
		Nets:      nets,
	})
}

// handleCounts returns the number of nets per weekday.
func (s *Server) handleCounts(w http.ResponseWriter, _ *http.Request) {
	now, ref := s.reference()
	counts := s.resolver.Counts(ref)

	out := make(map[string]int, len(counts))
	for d, n := range counts {
		out[model.WeekdayName(time.Weekday(d))] = n
	}
	writeJSON(w, http.StatusOK, countsResponse{
		Reference: toReferenceDTO(now, ref),
		Counts:    out,
	})
}

func (s *Server) expand(r *http.Request) (model.CalendarDate, int, schedule.ExpandResult, error) {
	days := parseIntDefault(r.URL.Query().Get("days"), s.cfg.HorizonDays)
	if days <= 0 {
		days = s.cfg.HorizonDays
	}
	from := model.DateOf(s.now())
	res, err := schedule.Expand(s.resolver.Nets(), schedule.ExpandConfig{
		Location: s.loc,
		From:     from,
		Days:     days,
	})
	return from, days, res, err
}

// writeExpandError maps an expansion failure to a response. An oversized
// window is the client's fault.
func writeExpandError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, schedule.ErrWindowTooLarge) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error(what+": expand failed", err)
	writeError(w, http.StatusInternalServerError, "failed to expand occurrences")
}

// handleOccurrences returns dated occurrences starting today.
//
// GET /api/occurrences?days=14
//   - days: window length; above schedule.MaxWindowDays is a 400
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	from, days, res, err := s.expand(r)
	if err != nil {
		writeExpandError(w, "api occurrences", err)
		return
	}

	dtos := make([]occurrenceDTO, 0, len(res.Occurrences))
	for _, o := range res.Occurrences {
		dtos = append(dtos, occurrenceDTO{
			InstanceKey: o.InstanceKey(),
			Date:        o.Date.String(),
			Start:       o.Start,
			End:         o.End,
			Net:         toNetDTO(o.Net, model.ClassNone),
		})
	}
	writeJSON(w, http.StatusOK, occurrencesResponse{
		From:        from.String(),
		Days:        days,
		Occurrences: dtos,
		Truncated:   res.TruncatedNets,
	})
}

// handleICS serves the upcoming occurrences as an iCalendar feed.
//
// GET /nets.ics?days=14
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	_, _, res, err := s.expand(r)
	if err != nil {
		writeExpandError(w, "ics feed", err)
		return
	}

	name := s.region
	if name == "" {
		name = "Nets"
	}
	body, err := ics.Export(res.Occurrences, ics.ExportOptions{Name: name, Stamp: s.now()})
	if err != nil {
		appLog.Error("ics feed: export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
