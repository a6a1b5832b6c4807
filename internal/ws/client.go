// Package ws is the realtime transport: it upgrades HTTP connections,
// pumps frames in both directions, and hands every inbound op to the
// triage core. All protocol decisions live in the core; this package only
// moves bytes.
package ws

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

// inboundFrame is what clients send: a named op plus its payload.
type inboundFrame struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

// outboundFrame is what the server emits: a named event plus its payload.
type outboundFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client is one websocket connection with a buffered outbound queue.
// It implements triage.Sender.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

// Send marshals the event and queues it. Called from the core loop, so
// the payload is serialized before any later mutation can touch it. A
// full buffer drops the frame rather than stall the whole board.
func (c *Client) Send(event string, data interface{}) {
	frame, err := json.Marshal(outboundFrame{Event: event, Data: data})
	if err != nil {
		log.Printf("ws: marshal %s failed: %v", event, err)
		return
	}

	select {
	case c.send <- frame:
	default:
		// Slow client; it will resync on the next broadcast.
	}
}

// writePump drains the send queue onto the wire until the connection
// dies or the reader signals done.
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
