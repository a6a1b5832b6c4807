package ws

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"triage-backend/internal/store"
	"triage-backend/internal/triage"
)

type testFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// startServer boots a real core on a throwaway database behind an
// httptest server, the same wiring main uses.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)

	core, err := triage.New(st, nil, triage.Options{
		JWTSecret:     "test-secret",
		AdminPassword: "master",
	})
	require.NoError(t, err)
	core.Run()

	r := gin.New()
	r.GET("/ws", NewHandler(core).Handle)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendOp(t *testing.T, conn *websocket.Conn, op string, data interface{}) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err)
		raw = b
	}
	frame, err := json.Marshal(map[string]interface{}{"op": op, "data": raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// waitFor reads frames until the named event arrives.
func waitFor(t *testing.T, conn *websocket.Conn, event string) testFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", event)

		var frame testFrame
		require.NoError(t, json.Unmarshal(raw, &frame))
		if frame.Event == event {
			return frame
		}
	}
}

func TestConnectPushesPublicSnapshot(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv)

	// The TV display gets the full public state without authenticating.
	seen := map[string]bool{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for len(seen) < 3 {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var frame testFrame
		require.NoError(t, json.Unmarshal(raw, &frame))
		seen[frame.Event] = true
	}

	require.True(t, seen["update_patient_list"])
	require.True(t, seen["emergency_status_update"])
	require.True(t, seen["update_call"])
}

func TestLoginAndRegisterOverTheWire(t *testing.T) {
	srv := startServer(t)

	desk := dial(t, srv)
	tv := dial(t, srv)
	waitFor(t, tv, "update_call") // drain the tv's snapshot

	// Seeded registrar account.
	sendOp(t, desk, "authenticate_password", map[string]string{
		"username": "desk",
		"password": "desk2025",
	})
	auth := waitFor(t, desk, "auth_success")

	var payload struct {
		Token    string `json:"token"`
		Role     string `json:"role"`
		FullName string `json:"full_name"`
	}
	require.NoError(t, json.Unmarshal(auth.Data, &payload))
	require.NotEmpty(t, payload.Token)
	require.Equal(t, "registrar", payload.Role)

	// Registrars receive the preset catalog on login.
	waitFor(t, desk, "update_preset_list")

	sendOp(t, desk, "register_patient", map[string]string{
		"name":  "María López",
		"level": "yellow",
	})

	// Everyone sees the arrival, even the unauthenticated display.
	list := waitFor(t, tv, "update_patient_list")
	var patients []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(list.Data, &patients))
	require.Len(t, patients, 1)

	notif := waitFor(t, tv, "new_patient_notification")
	var arrival struct {
		Patient struct {
			Name  string `json:"name"`
			Level string `json:"level"`
		} `json:"patient"`
		PatientCount int `json:"patient_count"`
	}
	require.NoError(t, json.Unmarshal(notif.Data, &arrival))
	require.Equal(t, "María López", arrival.Patient.Name)
	require.Equal(t, "yellow", arrival.Patient.Level)
	require.Equal(t, 1, arrival.PatientCount)
}

func TestBadCredentialsOverTheWire(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv)

	sendOp(t, conn, "authenticate_password", map[string]string{
		"username": "desk",
		"password": "wrong",
	})
	waitFor(t, conn, "auth_fail")
}

func TestMalformedFrameIsIgnored(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv)
	waitFor(t, conn, "update_call")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	// The connection stays up and keeps serving.
	sendOp(t, conn, "authenticate_password", map[string]string{
		"username": "desk",
		"password": "desk2025",
	})
	waitFor(t, conn, "auth_success")
}
