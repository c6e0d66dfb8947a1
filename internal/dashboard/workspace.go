// Package dashboard holds the per-browser dashboard state and applies user
// events to it.
//
// A Workspace keeps the current upload, control values and derived outputs
// of one dashboard. Every event runs to completion under the workspace lock
// and recomputes only the outputs that depend on what changed:
//
//	upload       -> table -> axis options, chart
//	chart type   -> chart
//	axes         -> chart
//
// Outputs are pure functions of the current inputs, so a new upload simply
// supersedes whatever was derived from the previous one.
package dashboard

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/chartdash/internal/chart"
	"github.com/leapstack-labs/chartdash/internal/table"
)

// NoticeDecodeFailed is shown to the user when an upload cannot be decoded.
// The cause is only logged.
const NoticeDecodeFailed = "There was an error processing this file."

// Broadcaster is notified with the workspace id after every event.
type Broadcaster interface {
	Broadcast(topic string)
}

// Controls are the user-chosen inputs of the chart.
type Controls struct {
	ChartType chart.ChartType `json:"chartType"`
	X         string          `json:"xAxis"`
	Y         string          `json:"yAxis"`
}

// DefaultControls returns the controls of a fresh dashboard.
func DefaultControls() Controls {
	return Controls{ChartType: chart.DefaultChartType}
}

// Snapshot is an immutable view of a workspace after an event. Callers must
// not modify its slices.
type Snapshot struct {
	ID         string
	Revision   uint64
	HasPayload bool
	Filename   string
	Seeded     bool
	Table      *table.Table
	XOptions   []string
	YOptions   []string
	Controls   Controls
	Spec       chart.Spec
	Notice     string
}

// Figure returns the plotly figure for the snapshot's chart.
func (s Snapshot) Figure() chart.FigureJSON {
	return chart.Figure(s.Spec, s.Table)
}

// WorkspaceConfig configures a Workspace.
type WorkspaceConfig struct {
	ID       string
	Logger   *slog.Logger
	Notifier Broadcaster

	// Decode turns an upload payload into a table. Defaults to table.Decode.
	Decode func(payload string) (*table.Table, error)

	// Now defaults to time.Now.
	Now func() time.Time
}

// Workspace is the state of one dashboard.
type Workspace struct {
	id       string
	logger   *slog.Logger
	notifier Broadcaster
	decode   func(string) (*table.Table, error)
	now      func() time.Time

	mu       sync.Mutex
	state    Snapshot
	lastUsed time.Time
	holders  int
}

// NewWorkspace creates a workspace in its default state.
func NewWorkspace(cfg WorkspaceConfig) *Workspace {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Decode == nil {
		cfg.Decode = table.Decode
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	w := &Workspace{
		id:       cfg.ID,
		logger:   cfg.Logger.With("workspace", cfg.ID),
		notifier: cfg.Notifier,
		decode:   cfg.Decode,
		now:      cfg.Now,
	}
	w.state = initialState(cfg.ID)
	w.lastUsed = cfg.Now()
	return w
}

func initialState(id string) Snapshot {
	x, y := chart.ResolveOptions(nil)
	return Snapshot{
		ID:       id,
		XOptions: x,
		YOptions: y,
		Controls: DefaultControls(),
		Spec:     chart.Empty,
	}
}

// ID returns the workspace id.
func (w *Workspace) ID() string {
	return w.id
}

// Snapshot returns the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastUsed = w.now()
	return w.state
}

// Upload replaces the dataset with a newly uploaded payload. The axis
// selection is cleared because the offered columns change. A payload that
// cannot be decoded leaves the workspace without a table and sets the
// generic notice.
func (w *Workspace) Upload(payload, filename string) Snapshot {
	return w.update(func(s *Snapshot) {
		w.upload(s, payload, filename)
		s.Seeded = false
	})
}

// uploadSeed is Upload for the operator's seed file.
func (w *Workspace) uploadSeed(payload, filename string) Snapshot {
	return w.update(func(s *Snapshot) {
		w.upload(s, payload, filename)
		s.Seeded = true
	})
}

func (w *Workspace) upload(s *Snapshot, payload, filename string) {
	s.HasPayload = true
	s.Filename = filename

	t, err := w.decode(payload)
	if err != nil {
		attrs := []any{"file", filename, "error", err}
		var decErr *table.DecodeError
		if errors.As(err, &decErr) {
			attrs = append(attrs, "stage", string(decErr.Stage))
		}
		w.logger.Warn("failed to decode upload", attrs...)
		t = nil
		s.Notice = NoticeDecodeFailed
	} else {
		w.logger.Debug("decoded upload", "file", filename, "shape", table.Summary(t))
		s.Notice = ""
	}

	s.Table = t
	s.XOptions, s.YOptions = chart.ResolveOptions(t)
	s.Controls.X, s.Controls.Y = "", ""
	s.Spec = chart.BuildChart(s.Table, s.Controls.X, s.Controls.Y, s.Controls.ChartType)
}

// SetChartType changes the chart type. Values outside the enumerated set
// are kept as given and produce the empty chart.
func (w *Workspace) SetChartType(ct chart.ChartType) Snapshot {
	return w.update(func(s *Snapshot) {
		s.Controls.ChartType = ct
		w.rebuildChart(s)
	})
}

// SetAxes changes the X and Y column selection. Empty strings unset an axis.
func (w *Workspace) SetAxes(x, y string) Snapshot {
	return w.update(func(s *Snapshot) {
		s.Controls.X, s.Controls.Y = x, y
		w.rebuildChart(s)
	})
}

// SetControls applies all three control values as one event.
func (w *Workspace) SetControls(c Controls) Snapshot {
	return w.update(func(s *Snapshot) {
		s.Controls = c
		w.rebuildChart(s)
	})
}

// Reset returns the workspace to its initial state.
func (w *Workspace) Reset() Snapshot {
	return w.update(func(s *Snapshot) {
		rev := s.Revision
		*s = initialState(w.id)
		s.Revision = rev
	})
}

func (w *Workspace) rebuildChart(s *Snapshot) {
	s.Spec = chart.BuildChart(s.Table, s.Controls.X, s.Controls.Y, s.Controls.ChartType)
	w.logger.Debug("chart rebuilt", "chart", chart.Describe(s.Spec))
}

// update runs one event under the lock, bumps the revision and notifies
// subscribers once the lock is released.
func (w *Workspace) update(apply func(*Snapshot)) Snapshot {
	w.mu.Lock()
	apply(&w.state)
	w.state.Revision++
	w.lastUsed = w.now()
	snap := w.state
	w.mu.Unlock()

	if w.notifier != nil {
		w.notifier.Broadcast(snap.ID)
	}
	return snap
}

// Acquire marks the workspace as in use by a long-lived connection. Held
// workspaces are never evicted. Every Acquire must be paired with Release.
func (w *Workspace) Acquire() {
	w.mu.Lock()
	w.holders++
	w.lastUsed = w.now()
	w.mu.Unlock()
}

// Release undoes Acquire.
func (w *Workspace) Release() {
	w.mu.Lock()
	if w.holders > 0 {
		w.holders--
	}
	w.lastUsed = w.now()
	w.mu.Unlock()
}

// idleSince reports when the workspace was last used, and false while it is
// held.
func (w *Workspace) idleSince() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed, w.holders == 0
}

func (w *Workspace) isSeeded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Seeded
}
