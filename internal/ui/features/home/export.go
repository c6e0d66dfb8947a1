package home

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/chartdash/internal/render"
)

// Export renders the current chart as a downloadable image. The format
// comes from the URL extension.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	size, err := exportSize(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws := h.workspace(w, r)
	snap := ws.Snapshot()

	var buf bytes.Buffer
	err = render.Write(&buf, snap.Spec, snap.Table, format, size)
	switch {
	case errors.Is(err, render.ErrEmpty):
		http.Error(w, "no chart to export yet", http.StatusConflict)
		return
	case errors.Is(err, render.ErrUnsupported), errors.Is(err, render.ErrInvalidData):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		h.logger.Error("failed to render export", "workspace", ws.ID(), "chart", snap.Spec.Type, "error", err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="chart.`+string(format)+`"`)
	_, _ = w.Write(buf.Bytes())
}

// exportSize reads the optional width and height query parameters.
func exportSize(r *http.Request) (render.Size, error) {
	var size render.Size
	for _, p := range []struct {
		name string
		dst  *int
	}{{"width", &size.Width}, {"height", &size.Height}} {
		v := r.URL.Query().Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return render.Size{}, fmt.Errorf("invalid %s %q", p.name, v)
		}
		*p.dst = n
	}
	if err := size.Validate(); err != nil {
		return render.Size{}, err
	}
	return size, nil
}
