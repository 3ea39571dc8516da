package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"minutes/internal/config"
	"minutes/internal/intake"
	"minutes/internal/logging"
	"minutes/internal/render"
	"minutes/internal/workflow"
)

const (
	// formField matches the backend's multipart field.
	formField = "audio"
	// uploadSlack covers multipart framing on top of the recording itself.
	uploadSlack = 1 << 20
)

// Server serves the browser rendition of the upload workflow.
type Server struct {
	bind       string
	controller *workflow.Controller
	logger     *slog.Logger
	handler    http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	flash    string
	running  sync.WaitGroup

	// background is the parent of upload sequences; they outlive the request.
	background context.Context
}

// New builds the server for the controller.
func New(cfg *config.Config, controller *workflow.Controller, logger *slog.Logger) (*Server, error) {
	if controller == nil {
		return nil, errors.New("webui: controller is required")
	}
	bind := "127.0.0.1:7490"
	if cfg != nil && cfg.UI.Bind != "" {
		bind = cfg.UI.Bind
	}
	s := &Server{
		bind:       bind,
		controller: controller,
		logger:     logging.NewComponentLogger(logger, "webui"),
		background: context.Background(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /clear", s.handleClear)
	mux.HandleFunc("POST /transcript/toggle", s.handleToggle)
	mux.HandleFunc("POST /confirm", s.handleConfirm)
	mux.HandleFunc("POST /export", s.handleExport)
	mux.HandleFunc("POST /copy", s.handleCopy)
	mux.HandleFunc("POST /reset", s.handleReset)
	s.handler = mux
	return s, nil
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.bind, err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.srv = srv
	s.listener = listener
	s.background = context.WithoutCancel(ctx)
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web ui server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("web ui listening", logging.String("address", "http://"+listener.Addr().String()))
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down and waits for running upload sequences.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("web ui shutdown error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "webui_shutdown_failed"),
			)
		}
	}
	s.running.Wait()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := render.NewPage(s.controller.Snapshot(), s.takeFlash())
	var buf bytes.Buffer
	if err := render.WritePage(&buf, page); err != nil {
		s.logger.Error("render page failed", logging.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newStateResponse(s.controller.Snapshot()))
}

// handleUpload validates and enters the processing view synchronously, then
// runs the network calls in the background so the browser can poll.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, intake.MaxUploadBytes+uploadSlack)
	file, header, err := r.FormFile(formField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			verr := &intake.ValidationError{Err: intake.ErrTooLarge}
			s.redirectWithFlash(w, r, verr.Message())
			return
		}
		s.redirectWithFlash(w, r, "Error: no audio file provided")
		return
	}
	defer file.Close()

	if err := intake.Validate(header.Filename, header.Size); err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			s.redirectWithFlash(w, r, verr.Message())
			return
		}
		s.redirectWithFlash(w, r, "Error: "+err.Error())
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.redirectWithFlash(w, r, "Error: "+err.Error())
		return
	}
	recording := intake.FromBytes(filepath.Base(header.Filename), data)

	s.mu.Lock()
	parent := s.background
	s.mu.Unlock()
	ctx := context.WithoutCancel(parent)

	// The processing view must be in place before the redirect is answered.
	finish, err := s.controller.StartFile(ctx, recording)
	if errors.Is(err, workflow.ErrBusy) {
		s.redirectWithFlash(w, r, "Error: "+workflow.ErrBusy.Error())
		return
	}
	if err != nil {
		s.redirectWithFlash(w, r, workflow.UserMessage(err))
		return
	}
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		if err := finish(ctx); err != nil {
			s.setFlash(workflow.UserMessage(err))
		}
	}()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.controller.ClearFile(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.controller.ToggleTranscript(r.Context())
	http.Redirect(w, r, "/#transcript-content", http.StatusSeeOther)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.finish(w, r, s.controller.Confirm(r.Context()))
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	s.finish(w, r, s.controller.Copy(r.Context()))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.finish(w, r, s.controller.Reset(r.Context()))
}

// handleExport streams the markdown back as a file download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sink := &attachmentSink{}
	exported, err := s.controller.Export(r.Context(), sink)
	if err != nil {
		s.finish(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exported.FileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sink.data)
}

func (s *Server) finish(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.setFlash(workflow.UserMessage(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, message string) {
	s.setFlash(message)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) setFlash(message string) {
	s.mu.Lock()
	s.flash = message
	s.mu.Unlock()
}

func (s *Server) takeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

// attachmentSink holds the export so the handler can write it as the response.
type attachmentSink struct {
	name string
	data []byte
}

func (a *attachmentSink) Deliver(_ context.Context, filename string, markdown []byte) (string, error) {
	a.name = filename
	a.data = append([]byte(nil), markdown...)
	return "browser download", nil
}
