package home

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/leapstack-labs/chartdash/internal/ui/features"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T, seed string) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t, seed)

	handlers := NewHandlers(Config{
		Registry:     fixture.Registry,
		SessionStore: fixture.SessionStore,
		Notifier:     fixture.Notifier,
		Logger:       fixture.Logger,
		IsDev:        true,
		PlotlySrc:    "/plotly.js",
		MaxUploadMB:  1,
	})

	return handlers, fixture
}

// browser carries the session cookie between requests like a real client.
type browser struct {
	t       *testing.T
	cookies []*http.Cookie
}

func (b *browser) do(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		b.cookies = set
	}
	return rec
}

func postJSON(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// elementIDs returns the id attribute of every element in an HTML document.
func elementIDs(t *testing.T, body string) map[string]bool {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)

	ids := make(map[string]bool)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" {
					ids[a.Val] = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return ids
}

// =============================================================================
// HomePage Tests - Full HTML page responses with server-rendered content
// =============================================================================

func TestHomePage(t *testing.T) {
	tests := []struct {
		name     string
		seed     string
		wantBody []string
		wantIDs  []string
	}{
		{
			name: "empty dashboard",
			wantBody: []string{
				"<!doctype html>",
				"<title>Automatic Data Analysis - chartdash</title>",
				"Automatic Data Analysis",
				"Graph Type",
				"Select X-axis:",
				"Select Y-axis:",
				"Upload CSV File",
				`data-init="@get('/updates')"`,
				`data-init="@get('/reload')"`,
				`src="/plotly.js"`,
				`data-figure="{}"`,
				`aria-label="empty chart"`,
			},
			wantIDs: []string{
				"graph-type-dropdown", "x-axis-dropdown", "y-axis-dropdown",
				"upload-data", "upload-button", "visualization", "plot", "dashboard",
			},
		},
		{
			name: "seeded dashboard offers columns",
			seed: features.SampleCSV,
			wantBody: []string{
				"seed.csv",
				"3 rows, 2 columns",
				`<option value="city">city</option>`,
				`<option value="pop">pop</option>`,
			},
			wantIDs: []string{"profile"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t, tt.seed)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			h.HomePage(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want, "response should contain %q", want)
			}
			ids := elementIDs(t, body)
			for _, id := range tt.wantIDs {
				assert.True(t, ids[id], "page should contain element #%s", id)
			}
			assert.NotEmpty(t, rec.Result().Cookies(), "first visit should set the session cookie")
		})
	}
}

func TestHomePage_ReusesWorkspace(t *testing.T) {
	h, fixture := setupTestHandlers(t, "")
	b := &browser{t: t}

	b.do(h.HomePage, httptest.NewRequest(http.MethodGet, "/", nil))
	b.do(h.HomePage, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1, fixture.Registry.Len())
}

// =============================================================================
// Upload and Controls Tests
// =============================================================================

func TestUpload(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   []string
	}{
		{
			name:       "valid csv",
			body:       `{"contents":"` + features.CSVPayload(features.SampleCSV) + `","filename":"cities.csv"}`,
			wantStatus: http.StatusNoContent,
			wantBody:   []string{"cities.csv", `<option value="city">city</option>`},
		},
		{
			name:       "undecodable payload shows notice",
			body:       `{"contents":"data:text/csv;base64,!!!","filename":"broken.csv"}`,
			wantStatus: http.StatusNoContent,
			wantBody:   []string{"There was an error processing this file."},
		},
		{
			name:       "malformed request",
			body:       `{"contents":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too large",
			body:       `{"contents":"` + strings.Repeat("A", 2<<20) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t, "")
			b := &browser{t: t}

			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(tt.body))
			rec := b.do(h.Upload, req)
			assert.Equal(t, tt.wantStatus, rec.Code)

			page := b.do(h.HomePage, httptest.NewRequest(http.MethodGet, "/", nil))
			for _, want := range tt.wantBody {
				assert.Contains(t, page.Body.String(), want)
			}
		})
	}
}

func TestControls(t *testing.T) {
	tests := []struct {
		name     string
		signals  ControlSignals
		wantBody []string
		wantNot  []string
	}{
		{
			name:    "pie chart",
			signals: ControlSignals{ChartType: "pie", XAxis: "city", YAxis: "pop"},
			wantBody: []string{
				"event: datastar-patch-elements",
				`id="dashboard"`,
				"&#34;type&#34;:&#34;pie&#34;",
				"Pie Chart of pop by city",
				"/export.svg",
			},
		},
		{
			name:     "missing y axis",
			signals:  ControlSignals{ChartType: "scatter", XAxis: "city"},
			wantBody: []string{`data-figure="{}"`, "empty chart"},
			wantNot:  []string{"/export.svg"},
		},
		{
			name:     "unknown chart type",
			signals:  ControlSignals{ChartType: "radar", XAxis: "city", YAxis: "pop"},
			wantBody: []string{`data-figure="{}"`},
		},
		{
			name:     "box plot is drawn but not exportable",
			signals:  ControlSignals{ChartType: "box", XAxis: "city", YAxis: "pop"},
			wantBody: []string{"&#34;type&#34;:&#34;box&#34;"},
			wantNot:  []string{"/export.svg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t, features.SampleCSV)
			b := &browser{t: t}

			rec := b.do(h.Controls, postJSON(t, "/controls", tt.signals))

			assert.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
			for _, not := range tt.wantNot {
				assert.NotContains(t, body, not)
			}
		})
	}
}

func TestControls_InvalidSignals(t *testing.T) {
	h, _ := setupTestHandlers(t, "")

	req := httptest.NewRequest(http.MethodPost, "/controls", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.Controls(rec, req)

	assert.Contains(t, rec.Body.String(), "console.error")
}

func TestReset(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleCSV)
	b := &browser{t: t}

	b.do(h.Controls, postJSON(t, "/controls", ControlSignals{ChartType: "pie", XAxis: "city", YAxis: "pop"}))
	rec := b.do(h.Reset, httptest.NewRequest(http.MethodPost, "/reset", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "event: datastar-patch-signals")
	assert.Contains(t, body, `"chartType":"scatter"`)
	assert.Contains(t, body, `data-figure="{}"`)
	assert.NotContains(t, body, "city")
}

// =============================================================================
// Figure and Export Tests
// =============================================================================

func TestFigureJSON(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleCSV)
	b := &browser{t: t}

	rec := b.do(h.FigureJSON, httptest.NewRequest(http.MethodGet, "/figure.json", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{}`, rec.Body.String())

	b.do(h.Controls, postJSON(t, "/controls", ControlSignals{ChartType: "bar", XAxis: "city", YAxis: "pop"}))
	rec = b.do(h.FigureJSON, httptest.NewRequest(http.MethodGet, "/figure.json", nil))

	var fig struct {
		Data []struct {
			Type string `json:"type"`
			X    []any  `json:"x"`
			Y    []any  `json:"y"`
		} `json:"data"`
		Layout struct {
			Height       int    `json:"height"`
			PaperBGColor string `json:"paper_bgcolor"`
		} `json:"layout"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fig))
	require.Len(t, fig.Data, 1)
	assert.Equal(t, "bar", fig.Data[0].Type)
	assert.Equal(t, []any{"A", "B", "C"}, fig.Data[0].X)
	assert.Equal(t, []any{10.0, 20.0, 30.0}, fig.Data[0].Y)
	assert.Equal(t, 700, fig.Layout.Height)
	assert.Equal(t, "LightSteelBlue", fig.Layout.PaperBGColor)
}

func TestNAAndNonFiniteCells(t *testing.T) {
	h, _ := setupTestHandlers(t, "city,pop\nA,10\nB,NaN\nC,inf\nD,25\n")
	b := &browser{t: t}

	rec := b.do(h.HomePage, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	for _, ct := range []string{"scatter", "histogram", "bubble", "heatmap"} {
		t.Run(ct, func(t *testing.T) {
			b.do(h.Controls, postJSON(t, "/controls", ControlSignals{ChartType: ct, XAxis: "city", YAxis: "pop"}))

			rec := b.do(h.HomePage, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)

			rec = b.do(h.FigureJSON, httptest.NewRequest(http.MethodGet, "/figure.json", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, json.Valid(rec.Body.Bytes()), "figure must be valid JSON: %s", rec.Body.String())
		})
	}

	b.do(h.Controls, postJSON(t, "/controls", ControlSignals{ChartType: "histogram", XAxis: "pop", YAxis: "pop"}))
	req := httptest.NewRequest(http.MethodGet, "/export.png", nil)
	rec = b.do(h.Export, features.RequestWithPathParam(req, "format", "png"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExport(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		query       string
		signals     *ControlSignals
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{
			name:       "nothing to export",
			format:     "svg",
			wantStatus: http.StatusConflict,
		},
		{
			name:        "svg",
			format:      "svg",
			signals:     &ControlSignals{ChartType: "pie", XAxis: "city", YAxis: "pop"},
			wantStatus:  http.StatusOK,
			wantType:    "image/svg+xml",
			wantContain: "<svg",
		},
		{
			name:        "png",
			format:      "PNG",
			signals:     &ControlSignals{ChartType: "bar", XAxis: "city", YAxis: "pop"},
			wantStatus:  http.StatusOK,
			wantType:    "image/png",
			wantContain: "\x89PNG",
		},
		{
			name:       "unsupported chart",
			format:     "svg",
			signals:    &ControlSignals{ChartType: "sunburst", XAxis: "city", YAxis: "pop"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown format",
			format:     "gif",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "custom size",
			format:      "svg",
			query:       "?width=640&height=480",
			signals:     &ControlSignals{ChartType: "bar", XAxis: "city", YAxis: "pop"},
			wantStatus:  http.StatusOK,
			wantType:    "image/svg+xml",
			wantContain: `width="640"`,
		},
		{
			name:       "oversized canvas",
			format:     "png",
			query:      "?width=100000&height=100000",
			signals:    &ControlSignals{ChartType: "bar", XAxis: "city", YAxis: "pop"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative height",
			format:     "png",
			query:      "?height=-1",
			signals:    &ControlSignals{ChartType: "bar", XAxis: "city", YAxis: "pop"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "width not a number",
			format:     "svg",
			query:      "?width=wide",
			signals:    &ControlSignals{ChartType: "bar", XAxis: "city", YAxis: "pop"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t, features.SampleCSV)
			b := &browser{t: t}

			if tt.signals != nil {
				b.do(h.Controls, postJSON(t, "/controls", tt.signals))
			}

			req := httptest.NewRequest(http.MethodGet, "/export."+tt.format+tt.query, nil)
			req = features.RequestWithPathParam(req, "format", tt.format)
			rec := b.do(h.Export, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
			assert.Contains(t, rec.Body.String(), tt.wantContain)
		})
	}
}

// =============================================================================
// HomePageUpdates Tests - SSE endpoint for live updates only
// =============================================================================

func TestHomePageUpdates_SendsUpdateOnUpload(t *testing.T) {
	h, _ := setupTestHandlers(t, "")
	b := &browser{t: t}

	// Establish the session first so both requests share a workspace
	b.do(h.HomePage, httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HomePageUpdates(rec, req)
		close(done)
	}()

	// Wait a bit then upload, simulating the browser's upload control
	time.Sleep(50 * time.Millisecond)
	up := b.do(h.Upload, postJSON(t, "/upload", UploadSignals{
		Contents: features.CSVPayload(features.SampleCSV),
		Filename: "cities.csv",
	}))
	require.Equal(t, http.StatusNoContent, up.Code)

	<-done

	body := rec.Body.String()
	eventCount := strings.Count(body, "event:")
	assert.GreaterOrEqual(t, eventCount, 2, "should patch signals and the view")
	assert.Contains(t, body, "cities.csv")
	assert.Contains(t, body, `"xAxis":""`)
}

func TestHomePageUpdates_NoInitialState(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	req = features.RequestWithTimeout(t, req, 50*time.Millisecond)

	rec := httptest.NewRecorder()
	h.HomePageUpdates(rec, req)

	eventCount := strings.Count(rec.Body.String(), "event:")
	assert.Equal(t, 0, eventCount, "should have no SSE events without a change")
}

func TestHomePageUpdates_IgnoresOtherWorkspaces(t *testing.T) {
	h, fixture := setupTestHandlers(t, "")

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	req = features.RequestWithTimeout(t, req, 200*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HomePageUpdates(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	other := fixture.Registry.Create()
	other.SetAxes("a", "b")

	<-done

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"))
}
