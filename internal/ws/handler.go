package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"triage-backend/internal/triage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The board runs on a trusted LAN; every screen in the
		// department must be able to connect.
		return true
	},
}

// Handler upgrades connections and bridges them to the core.
type Handler struct {
	core *triage.Core
}

func NewHandler(core *triage.Core) *Handler {
	return &Handler{core: core}
}

// Handle is the gin endpoint for GET /ws.
func (h *Handler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return // upgrader already wrote the error response
	}

	client := newClient(uuid.NewString(), conn)
	sess := h.core.Attach(client)

	go client.writePump()
	go h.readPump(client, sess)
}

// readPump parses inbound frames and submits them until the connection
// closes, then detaches the session.
func (h *Handler) readPump(client *Client, sess *triage.Session) {
	defer func() {
		h.core.Detach(sess)
		close(client.done)
		client.conn.Close()
	}()

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue // malformed frame, ignore
		}

		h.core.Submit(sess, frame.Op, frame.Data)
	}
}
