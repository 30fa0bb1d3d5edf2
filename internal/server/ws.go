package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"espforge/internal/builder"
)

const buildWSWriteWait = 10 * time.Second

var buildWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type buildWSInbound struct {
	Type    string               `json:"type"`
	Context builder.BuildContext `json:"context"`
}

type buildWSOutbound struct {
	Type     string               `json:"type"`
	Message  string               `json:"message,omitempty"`
	Progress int                  `json:"progress,omitempty"`
	Result   *builder.BuildResult `json:"result,omitempty"`
}

// handleBuildWS streams build progress over a websocket: fixed-shape progress
// events before and after the generation call, then the full result.
func (h *Handlers) handleBuildWS(w http.ResponseWriter, r *http.Request) {
	conn, err := buildWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var in buildWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: build ws read: %v", err)
			}
			return
		}
		if in.Type != "build" {
			h.pushBuildWS(conn, buildWSOutbound{Type: "error", Message: "unknown message type"})
			continue
		}
		if err := builder.ValidateContext(in.Context); err != nil {
			h.pushBuildWS(conn, buildWSOutbound{Type: "error", Message: err.Error()})
			continue
		}

		h.pushBuildWS(conn, buildWSOutbound{Type: "progress", Message: "Starting build...", Progress: 10})

		result := h.Builder.Generate(r.Context(), in.Context)
		h.record(in.Context, result)

		h.pushBuildWS(conn, buildWSOutbound{Type: "progress", Message: "Code generated...", Progress: 50})
		h.pushBuildWS(conn, buildWSOutbound{Type: "complete", Result: result})
	}
}

func (h *Handlers) pushBuildWS(conn *websocket.Conn, out buildWSOutbound) {
	_ = conn.SetWriteDeadline(time.Now().Add(buildWSWriteWait))
	if err := conn.WriteJSON(out); err != nil {
		log.Printf("server: build ws write: %v", err)
	}
}
