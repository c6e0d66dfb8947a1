package home

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/chartdash/internal/dashboard"
	"github.com/leapstack-labs/chartdash/internal/ui/notifier"
)

const (
	sessionName      = "chartdash"
	sessionKeyWsID   = "workspace"
	pageTitle        = "Automatic Data Analysis"
	bytesPerMegabyte = 1 << 20
)

// Config configures the home feature.
type Config struct {
	Registry     *dashboard.Registry
	SessionStore sessions.Store
	Notifier     *notifier.Notifier
	Logger       *slog.Logger
	IsDev        bool
	PlotlySrc    string
	// MaxUploadMB caps the upload request body. Zero means unlimited.
	MaxUploadMB int
}

// Handlers provides HTTP handlers for the home feature.
type Handlers struct {
	registry     *dashboard.Registry
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
	isDev        bool
	plotlySrc    string
	maxUpload    int64
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg Config) *Handlers {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handlers{
		registry:     cfg.Registry,
		sessionStore: cfg.SessionStore,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger,
		isDev:        cfg.IsDev,
		plotlySrc:    cfg.PlotlySrc,
		maxUpload:    int64(cfg.MaxUploadMB) * bytesPerMegabyte,
	}
}

// HomePage renders the dashboard with the current workspace state.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	snap := ws.Snapshot()

	view, err := buildViewData(snap)
	if err != nil {
		h.logger.Error("failed to build view", "workspace", ws.ID(), "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	signals, err := signalsJSON(snap.Controls)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := PageData{
		Title:     pageTitle,
		IsDev:     h.isDev,
		PlotlySrc: h.plotlySrc,
		Signals:   signals,
		View:      view,
	}
	if err := Page(page).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HomePageUpdates is the long-lived SSE endpoint for the dashboard page.
// It does not send initial state; that is rendered by HomePage. Each change
// to the workspace patches the view and the control signals.
func (h *Handlers) HomePageUpdates(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	ws.Acquire()
	defer ws.Release()

	updates := h.notifier.Subscribe(ws.ID())
	defer h.notifier.Unsubscribe(ws.ID(), updates)

	sse := datastar.NewSSE(w, r)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := h.sendView(sse, ws.Snapshot()); err != nil {
				_ = sse.ConsoleError(err)
				// Keep the stream open; the next update retries
			}
		}
	}
}

// Upload accepts a file as a data URL payload. The new state reaches the
// browser through the updates stream.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		if r.ContentLength > h.maxUpload {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	var signals UploadSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	ws := h.workspace(w, r)
	snap := ws.Upload(signals.Contents, signals.Filename)
	h.logger.Debug("upload applied", "workspace", ws.ID(), "file", signals.Filename, "revision", snap.Revision)
	w.WriteHeader(http.StatusNoContent)
}

// Controls applies the chart type and axis selects.
func (h *Handlers) Controls(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals ControlSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return
	}

	ws := h.workspace(w, r)
	snap := ws.SetControls(signals.controls())

	sse := datastar.NewSSE(w, r)
	if err := patchView(sse, snap); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Reset clears the workspace.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	snap := ws.Reset()

	sse := datastar.NewSSE(w, r)
	if err := h.sendView(sse, snap); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// FigureJSON returns the current plotly figure, "{}" when there is nothing
// to draw.
func (h *Handlers) FigureJSON(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if err := writeJSON(w, http.StatusOK, ws.Snapshot().Figure()); err != nil {
		h.logger.Error("failed to encode figure", "workspace", ws.ID(), "error", err)
		http.Error(w, "failed to encode figure", http.StatusInternalServerError)
	}
}

// sendView pushes the control signals and the view for snap.
func (h *Handlers) sendView(sse *datastar.ServerSentEventGenerator, snap dashboard.Snapshot) error {
	if err := sse.MarshalAndPatchSignals(signalsFor(snap.Controls)); err != nil {
		return err
	}
	return patchView(sse, snap)
}

func patchView(sse *datastar.ServerSentEventGenerator, snap dashboard.Snapshot) error {
	v, err := buildViewData(snap)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(View(v))
}
