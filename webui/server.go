// Package webui serves the address form over HTTP. Every browser tab gets its
// own session with its own controller.
package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"
	"github.com/syifan/goseth"

	"github.com/sarchlab/postcode/fieldsync"
	"github.com/sarchlab/postcode/tracing"
	"github.com/sarchlab/postcode/webui/web"
)

// Server turns the address form into a web application.
type Server struct {
	portNumber     int
	tracer         *tracing.EditTracer
	sessionTimeout time.Duration
	now            func() time.Time

	sessionsLock sync.Mutex
	sessions     map[string]*session

	httpServer *http.Server
	stopSweep  chan struct{}
}

// A session serializes the edits of one browser tab.
type session struct {
	lock    sync.Mutex
	id      string
	created time.Time
	ctrl    *fieldsync.Controller

	// lastUsed is guarded by the server's sessionsLock.
	lastUsed time.Time
}

// DefaultSessionTimeout is how long a session may stay unused before it is
// dropped.
const DefaultSessionTimeout = 30 * time.Minute

// NewServer creates a new Server that listens on a random port.
func NewServer() *Server {
	return &Server{
		sessionTimeout: DefaultSessionTimeout,
		now:            time.Now,
		sessions:       make(map[string]*session),
	}
}

// WithSessionTimeout sets how long an unused session is kept. 0 keeps
// sessions until they are deleted.
func (s *Server) WithSessionTimeout(d time.Duration) *Server {
	if d < 0 {
		d = 0
	}

	s.sessionTimeout = d

	return s
}

// WithPortNumber sets the port number of the server. 0 picks a free port.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber != 0 && portNumber < 1000 {
		log.Warnf("Port number %d is not allowed for the web form, "+
			"using a random port instead.", portNumber)
		portNumber = 0
	}

	s.portNumber = portNumber

	return s
}

// WithTracer makes every new session report its edits to t.
func (s *Server) WithTracer(t *tracing.EditTracer) *Server {
	s.tracer = t
	return s
}

// Router returns the handler of the whole application.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/sessions", s.createSession).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions", s.listSessions).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", s.sessionState).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", s.deleteSession).
		Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/inspect", s.inspectSession).
		Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}/fields/{field}", s.editField).
		Methods(http.MethodPost)
	r.HandleFunc("/api/resource", s.listResources)
	r.HandleFunc("/api/profile", s.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// Start listens on the configured port and serves in the background. It
// returns the URL of the form.
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(s.portNumber))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panic(err)
		}
	}()

	if s.sessionTimeout > 0 {
		s.stopSweep = make(chan struct{})
		go s.sweep(s.stopSweep)
	}

	log.Infof("Serving the address form at %s", url)

	return url, nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	if s.stopSweep != nil {
		close(s.stopSweep)
		s.stopSweep = nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) sweep(stop <-chan struct{}) {
	ticker := time.NewTicker(sweepInterval(s.sessionTimeout))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.ExpireIdleSessions()
		}
	}
}

func sweepInterval(timeout time.Duration) time.Duration {
	interval := timeout / 2
	if interval < time.Second {
		interval = time.Second
	}

	return interval
}

// ExpireIdleSessions drops the sessions that have not been used for the
// session timeout and returns how many were dropped.
func (s *Server) ExpireIdleSessions() int {
	if s.sessionTimeout == 0 {
		return 0
	}

	now := s.now()

	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()

	expired := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) < s.sessionTimeout {
			continue
		}

		delete(s.sessions, id)
		expired++

		log.WithField("session", id).Debug("session expired")
	}

	return expired
}

// NumSessions returns the number of open sessions.
func (s *Server) NumSessions() int {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()

	return len(s.sessions)
}

type sessionRsp struct {
	ID     string     `json:"id"`
	Fields []fieldRsp `json:"fields,omitempty"`
}

type fieldRsp struct {
	Field string `json:"field"`
	Text  string `json:"text"`
	Valid bool   `json:"valid"`
}

type updateRsp struct {
	Field   string `json:"field"`
	Valid   bool   `json:"valid"`
	Rewrite bool   `json:"rewrite"`
	Text    string `json:"text,omitempty"`
}

type editReq struct {
	Text string `json:"text"`
}

type editRsp struct {
	Suppressed bool        `json:"suppressed"`
	Updates    []updateRsp `json:"updates"`
	Fields     []fieldRsp  `json:"fields"`
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	id := xid.New().String()
	now := s.now()
	sess := &session{
		id:       id,
		created:  now,
		lastUsed: now,
		ctrl:     fieldsync.NewController("Session." + id),
	}

	if s.tracer != nil {
		tracing.CollectTrace(sess.ctrl, s.tracer)
	}

	s.sessionsLock.Lock()
	s.sessions[id] = sess
	s.sessionsLock.Unlock()

	log.WithField("session", id).Debug("session created")

	writeJSON(w, http.StatusCreated, sessionRsp{ID: id})
}

func (s *Server) listSessions(w http.ResponseWriter, _ *http.Request) {
	s.sessionsLock.Lock()
	all := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.sessionsLock.Unlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].created.Before(all[j].created)
	})

	ids := make([]string, 0, len(all))
	for _, sess := range all {
		ids = append(ids, sess.id)
	}

	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) sessionState(w http.ResponseWriter, r *http.Request) {
	sess := s.findSessionOr404(w, r)
	if sess == nil {
		return
	}

	sess.lock.Lock()
	defer sess.lock.Unlock()

	writeJSON(w, http.StatusOK, sessionRsp{
		ID:     sess.id,
		Fields: fieldStates(sess.ctrl),
	})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.sessionsLock.Lock()
	_, found := s.sessions[id]
	delete(s.sessions, id)
	s.sessionsLock.Unlock()

	if !found {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	log.WithField("session", id).Debug("session closed")

	w.WriteHeader(http.StatusNoContent)
}

type inspectState struct {
	ID          string
	Name        string
	Created     string
	Propagating bool
	NumHooks    int
	Fields      []fieldsync.FieldState
}

func (s *Server) inspectSession(w http.ResponseWriter, r *http.Request) {
	sess := s.findSessionOr404(w, r)
	if sess == nil {
		return
	}

	sess.lock.Lock()
	state := &inspectState{
		ID:          sess.id,
		Name:        sess.ctrl.Name(),
		Created:     sess.created.Format(time.RFC3339),
		Propagating: sess.ctrl.Propagating(),
		NumHooks:    sess.ctrl.NumHooks(),
		Fields:      sess.ctrl.Snapshot(),
	}
	sess.lock.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(state)
	serializer.SetMaxDepth(2)

	err := serializer.Serialize(w)
	if err != nil {
		log.Error(err)
	}
}

func (s *Server) editField(w http.ResponseWriter, r *http.Request) {
	sess := s.findSessionOr404(w, r)
	if sess == nil {
		return
	}

	field, ok := fieldsync.ParseFieldID(mux.Vars(r)["field"])
	if !ok {
		http.Error(w, "Unknown field", http.StatusNotFound)
		return
	}

	req := editReq{}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %s", err),
			http.StatusBadRequest)
		return
	}

	sess.lock.Lock()
	defer sess.lock.Unlock()

	outcome := sess.ctrl.EditField(field, req.Text)

	rsp := editRsp{
		Suppressed: outcome.Suppressed,
		Updates:    make([]updateRsp, 0, len(outcome.Updates)),
		Fields:     fieldStates(sess.ctrl),
	}
	for _, u := range outcome.Updates {
		rsp.Updates = append(rsp.Updates, updateRsp{
			Field:   u.Field.String(),
			Valid:   u.Valid,
			Rewrite: u.Rewrite,
			Text:    u.Text,
		})
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (s *Server) findSessionOr404(
	w http.ResponseWriter,
	r *http.Request,
) *session {
	id := mux.Vars(r)["id"]

	s.sessionsLock.Lock()
	sess := s.sessions[id]
	if sess != nil {
		sess.lastUsed = s.now()
	}
	s.sessionsLock.Unlock()

	if sess == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
	}

	return sess
}

func fieldStates(c *fieldsync.Controller) []fieldRsp {
	states := c.Snapshot()
	fields := make([]fieldRsp, 0, len(states))
	for _, st := range states {
		fields = append(fields, fieldRsp{
			Field: st.Field.String(),
			Text:  st.Text,
			Valid: st.Valid,
		})
	}

	return fields
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	if err != nil {
		internalError(w, err)
		return
	}

	cpuPercent, err := process.CPUPercent()
	if err != nil {
		internalError(w, err)
		return
	}

	memorySize, err := process.MemoryInfo()
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (s *Server) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		internalError(w, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prof)
}

func internalError(w http.ResponseWriter, err error) {
	log.Error(err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(bytes)
	if err != nil {
		log.Error(err)
	}
}
