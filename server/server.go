package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/meriemdhouibi13/hashtablesmd/core"
)

// Server exposes one table over HTTP.  Every request that touches the
// table holds mutex for its whole duration, so operations are applied
// strictly one at a time.
type Server struct {
	table   *core.Table
	mutex   sync.Mutex
	pool    *ClientPool
	metrics *metrics
	router  *mux.Router
}

// OpRequest is the body of the insert, search, and delete endpoints.
type OpRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// OpResponse describes the result of one table operation.
type OpResponse struct {
	Op      string `json:"op"`
	Outcome string `json:"outcome"`
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Index   int    `json:"index"`
	Line    string `json:"line"`
	Clear   bool   `json:"clear"`
	Error   string `json:"error,omitempty"`
}

// SlotResponse is one entry of GET /api/table.
type SlotResponse struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TableResponse is the body of GET /api/table.
type TableResponse struct {
	Size    int            `json:"size"`
	Entries []SlotResponse `json:"entries"`
}

// LogResponse is the body of GET /api/log.
type LogResponse struct {
	Lines []string `json:"lines"`
}

// HashResponse is the body of GET /api/hash/{key}.
type HashResponse struct {
	Key   string `json:"key"`
	Index int    `json:"index"`
}

// VersionResponse is the body of GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}

// New returns a server for table.  The server takes ownership of the
// table; callers must not use it directly afterwards.
func New(table *core.Table) *Server {
	s := &Server{
		table:   table,
		pool:    NewClientPool(),
		metrics: newMetrics(table.Size()),
		router:  mux.NewRouter(),
	}
	s.pool.onChange = func(n int) { s.metrics.wsClients.Set(float64(n)) }
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// full paths on the root router; a subrouter here turns method
	// mismatches into 404s once /ws and /metrics are added
	s.router.HandleFunc("/api/insert", s.handleInsert).Methods(http.MethodPost)
	s.router.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodPost)
	s.router.HandleFunc("/api/delete", s.handleDelete).Methods(http.MethodPost)
	s.router.HandleFunc("/api/log", s.handleLog).Methods(http.MethodGet)
	s.router.HandleFunc("/api/table", s.handleTable).Methods(http.MethodGet)
	s.router.HandleFunc("/api/hash", s.handleHash).Methods(http.MethodGet)
	s.router.HandleFunc("/api/hash/{key}", s.handleHash).Methods(http.MethodGet)
	s.router.HandleFunc("/api/version", s.handleVersion).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWS)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	s.router.Use(logRequests)
}

// Router returns the HTTP handler serving the API.
func (s *Server) Router() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() {
		log.Infof("Starting server at %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	s.pool.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if lerr := <-errc; err == nil && !errors.Is(lerr, http.ErrServerClosed) {
		err = lerr
	}
	return err
}

// Close disconnects websocket clients.
func (s *Server) Close() {
	s.pool.Close()
}

// apply runs op under the table lock, then records and broadcasts
// the log line it appended.
func (s *Server) apply(op func(*core.Table) core.Result) core.Result {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	res := op(s.table)
	s.metrics.observe(res, s.table)
	s.pool.Broadcast(LogMessage{Seq: s.table.LogLen() - 1, Line: res.Line})
	return res
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOp(w, r)
	if !ok {
		return
	}
	log.Infof("Server processing insert request for key=%q", req.Key)
	res := s.apply(func(t *core.Table) core.Result { return t.Insert(req.Key, req.Value) })
	writeJSON(w, http.StatusOK, opResponse(res))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOp(w, r)
	if !ok {
		return
	}
	log.Infof("Server processing search request for key=%q", req.Key)
	res := s.apply(func(t *core.Table) core.Result { return t.Search(req.Key) })
	writeJSON(w, http.StatusOK, opResponse(res))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOp(w, r)
	if !ok {
		return
	}
	log.Infof("Server processing delete request for key=%q", req.Key)
	res := s.apply(func(t *core.Table) core.Result { return t.Delete(req.Key) })
	writeJSON(w, http.StatusOK, opResponse(res))
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	lines := s.table.Log()
	s.mutex.Unlock()
	writeJSON(w, http.StatusOK, LogResponse{Lines: lines})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	resp := TableResponse{Size: s.table.Size(), Entries: []SlotResponse{}}
	for _, slot := range s.table.Entries() {
		resp.Entries = append(resp.Entries, SlotResponse{Index: slot.Index, Key: slot.Key, Value: slot.Value})
	}
	s.mutex.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	// ?key= can carry the empty key and keys containing a slash
	key, ok := mux.Vars(r)["key"]
	if !ok {
		key = r.URL.Query().Get("key")
	}
	// size is fixed at construction, no lock needed
	writeJSON(w, http.StatusOK, HashResponse{Key: key, Index: s.table.Hash(key)})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: core.CodeVersion()})
}

// handleWS upgrades to a websocket that replays the log and then
// streams each new line.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade error: %v", err)
		return
	}
	c := &WSClient{
		conn: conn,
		send: make(chan LogMessage, sendBuffer),
		pool: s.pool,
	}

	// snapshot and register under the table lock so that no line is
	// both replayed and broadcast
	s.mutex.Lock()
	for seq, line := range s.table.Log() {
		c.backlog = append(c.backlog, LogMessage{Seq: seq, Line: line})
	}
	ok := s.pool.register(c)
	s.mutex.Unlock()
	if !ok {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func opResponse(res core.Result) (resp OpResponse) {
	resp = OpResponse{
		Op:      res.Op.String(),
		Outcome: res.Outcome.String(),
		Key:     res.Key,
		Value:   res.Value,
		Index:   res.Index,
		Line:    res.Line,
		Clear:   res.Clear,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	return
}

func decodeOp(w http.ResponseWriter, r *http.Request) (req OpRequest, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("failed to encode response: %v", err)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request")
	})
}
