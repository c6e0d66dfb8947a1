package home

import (
	"encoding/json"
	"net/http"

	"github.com/leapstack-labs/chartdash/internal/dashboard"
)

// workspace returns the caller's workspace, creating one and storing its id
// in the session cookie when the browser has none or its workspace was
// evicted. Must run before anything is written to w.
func (h *Handlers) workspace(w http.ResponseWriter, r *http.Request) *dashboard.Workspace {
	// A cookie that fails to decode still yields a usable new session
	sess, err := h.sessionStore.Get(r, sessionName)
	if err != nil {
		h.logger.Debug("discarding unreadable session", "error", err)
	}

	id, _ := sess.Values[sessionKeyWsID].(string)
	ws := h.registry.GetOrCreate(id)
	if ws.ID() != id {
		sess.Values[sessionKeyWsID] = ws.ID()
		if err := sess.Save(r, w); err != nil {
			h.logger.Error("failed to save session", "error", err)
		}
	}
	return ws
}

// writeJSON encodes v before touching w so a failed encode can still be
// answered with an error status.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(b, '\n'))
	return err
}
