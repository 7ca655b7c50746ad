package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"

	"github.com/dasmlab/lingosense/pkg/pipeline"
	"github.com/dasmlab/lingosense/pkg/service"
	"github.com/dasmlab/lingosense/pkg/translate"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// HTTPServer exposes the pipeline, job status and SSE progress updates over HTTP.
type HTTPServer struct {
	pipeline   *pipeline.Pipeline
	translator translate.Translator
	jobQueue   *service.JobQueue
	logger     *logrus.Logger
	port       int

	// pollInterval is how often SSE streams check job state.
	pollInterval time.Duration
	srv          *http.Server
	// done ends SSE streams on shutdown.
	done      chan struct{}
	closeOnce sync.Once
}

// NewHTTPServer creates a new HTTP server. translator is only used for
// health reporting and may be nil.
func NewHTTPServer(p *pipeline.Pipeline, translator translate.Translator, jobQueue *service.JobQueue, logger *logrus.Logger, port int) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	s := &HTTPServer{
		pipeline:     p,
		translator:   translator,
		jobQueue:     jobQueue,
		logger:       logger,
		port:         port,
		pollInterval: time.Second,
		done:         make(chan struct{}),
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler builds the router.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// SSE streams outlive any request timeout.
		r.Get("/jobs/{jobID}/events", s.handleJobEventsSSE)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(5 * time.Minute))
			r.Post("/pipeline", s.handlePipeline)
			r.Post("/transliterate", s.handleTransliterate)
			r.Post("/normalize", s.handleNormalize)
			r.Post("/detect", s.handleDetect)
			r.Get("/languages", s.handleLanguages)
			r.Post("/jobs", s.handleCreateJob)
			r.Get("/jobs/{jobID}", s.handleJobStatus)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port": s.port,
	}).Info("Starting HTTP server for pipeline, job status and SSE")

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open SSE streams and gracefully stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_ip":   r.RemoteAddr,
			"request_id":  chimw.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

// textRequest is the body of the single-stage endpoints.
type textRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// pipelineRequest is the body of POST /api/v1/pipeline.
type pipelineRequest struct {
	Text    string   `json:"text"`
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
}

func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to write JSON response")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

// httpStatus maps a pipeline error to an HTTP status code.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound
	}
	switch service.Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req pipelineRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Source == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("source is required"))
		return
	}

	startTime := time.Now()
	res, err := s.pipeline.Run(r.Context(), req.Text, req.Source, req.Targets)
	if err != nil {
		s.logger.WithError(err).WithField("source_lang", req.Source).Warn("Pipeline request failed")
		s.writeError(w, httpStatus(err), err)
		return
	}

	view := service.ResultView(res)
	view["duration_seconds"] = time.Since(startTime).Seconds()
	s.writeJSON(w, http.StatusOK, view)
}

// stage runs one single-stage operation for the text endpoints.
func (s *HTTPServer) stage(w http.ResponseWriter, r *http.Request, key string, run func(text, source string) (interface{}, error)) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Source == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("source is required"))
		return
	}
	out, err := run(req.Text, req.Source)
	if err != nil {
		s.writeError(w, httpStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{key: out})
}

func (s *HTTPServer) handleTransliterate(w http.ResponseWriter, r *http.Request) {
	s.stage(w, r, "native", func(text, source string) (interface{}, error) {
		return s.pipeline.TransliterateToNative(text, source)
	})
}

func (s *HTTPServer) handleNormalize(w http.ResponseWriter, r *http.Request) {
	s.stage(w, r, "normalized", func(text, source string) (interface{}, error) {
		return s.pipeline.Normalize(text, source)
	})
}

func (s *HTTPServer) handleDetect(w http.ResponseWriter, r *http.Request) {
	s.stage(w, r, "tokens", func(text, source string) (interface{}, error) {
		return s.pipeline.DetectCodeMix(text, source)
	})
}

func (s *HTTPServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, service.LanguagesView(s.pipeline.Registry()))
}

func (s *HTTPServer) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req service.JobRequest
	if !s.decode(w, r, &req) {
		return
	}
	jobID, err := s.jobQueue.CreateJob(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Location", "/api/v1/jobs/"+jobID)
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     jobID,
		"request_id": req.RequestID,
		"status":     string(service.JobStatusQueued),
	})
}

func (s *HTTPServer) lookupJob(w http.ResponseWriter, r *http.Request) (*service.PipelineJob, bool) {
	job, err := s.jobQueue.GetJob(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return job, true
}

// handleJobStatus returns the current status of a pipeline job as JSON.
func (s *HTTPServer) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, job.Snapshot().View())
}

// handleJobEventsSSE streams job progress as Server-Sent Events until the
// job finishes or the client goes away.
func (s *HTTPServer) handleJobEventsSSE(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	snap := job.Snapshot()
	s.sendSSEEvent(w, "status", snap)
	if snap.Status.Finished() {
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	lastStatus := snap.Status
	lastProgress := snap.ProgressPercent
	lastStage := snap.Stage

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			snap := job.Snapshot()
			if snap.Status == lastStatus && snap.ProgressPercent == lastProgress && snap.Stage == lastStage {
				continue
			}
			s.sendSSEEvent(w, "status", snap)
			lastStatus, lastProgress, lastStage = snap.Status, snap.ProgressPercent, snap.Stage
			if snap.Status.Finished() {
				return
			}
		}
	}
}

// sendSSEEvent writes one event in "event: <type>\ndata: <json>\n\n" form.
func (s *HTTPServer) sendSSEEvent(w http.ResponseWriter, eventType string, snap service.JobSnapshot) {
	event := snap.View()
	event["timestamp"] = time.Now().Format(time.RFC3339)

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal SSE event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", data)

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// handleHealth reports translator health; the server itself is always up.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "healthy"}
	code := http.StatusOK
	if s.translator != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.translator.CheckHealth(ctx); err != nil {
			body["status"] = "degraded"
			body["translator"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	s.writeJSON(w, code, body)
}
