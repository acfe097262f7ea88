package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/goalseek/internal/control"
	"github.com/san-kum/goalseek/internal/dynamo"
	"github.com/san-kum/goalseek/internal/logging"
)

func newTestServer() (*Server, *control.GoalSeeker) {
	seeker := control.NewGoalSeeker(dynamo.DefaultGains(), control.WithLogger(logging.Discard()))
	return NewServer(seeker, logging.Discard()), seeker
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"pose", `{"type":"pose","pose":{"x":1,"y":2,"theta":0.5}}`, false},
		{"goal", `{"type":"goal","goal":{"x":1,"y":2}}`, false},
		{"pose without body", `{"type":"pose"}`, true},
		{"goal without body", `{"type":"goal","pose":{"x":1}}`, true},
		{"unknown type", `{"type":"twist"}`, true},
		{"outbound type", `{"type":"cmd","cmd":{"linear":1}}`, true},
		{"not json", `hello`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOutboundShape(t *testing.T) {
	data, err := CmdMessage(dynamo.Command{Linear: 0.5}).Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"cmd","cmd":{"linear":0.5,"angular":0}}`, string(data))

	data, err = ArrivedMessage(dynamo.Goal{X: 5, Y: 5}).Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"arrived","goal":{"x":5,"y":5}}`, string(data))
}

func TestGoalAndStatusEndpoints(t *testing.T) {
	srv, seeker := newTestServer()

	req := httptest.NewRequest("POST", "/goal", strings.NewReader(`{"x":3,"y":4}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	g, armed := seeker.Goal()
	assert.True(t, armed)
	assert.Equal(t, dynamo.Goal{X: 3, Y: 4}, g)

	resp, err = srv.App().Test(httptest.NewRequest("GET", "/status", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var st Status
	require.NoError(t, json.Unmarshal(body, &st), "body %s", body)
	assert.True(t, st.Armed)
	require.NotNil(t, st.Goal)
	assert.Equal(t, 3.0, st.Goal.X)
}

func TestStatusIsConsistent(t *testing.T) {
	srv, seeker := newTestServer()

	const n = 1000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for k := 1; k <= n; k++ {
			seeker.SetGoal(float64(k), 0)
			seeker.OnPose(dynamo.Pose{X: float64(k)})
		}
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		st := srv.Status()
		if st.Armed {
			require.NotNil(t, st.Goal)
			require.Equal(t, st.Goal.X-1, st.Pose.X, "status %+v", st)
		} else {
			require.Nil(t, st.Goal)
		}
		require.Equal(t, int(st.Pose.X), st.Arrivals, "status %+v", st)
	}
	assert.Equal(t, n, srv.Status().Arrivals)
}

func TestGoalEndpointRejectsGarbage(t *testing.T) {
	srv, seeker := newTestServer()

	req := httptest.NewRequest("POST", "/goal", strings.NewReader(`{"x":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.False(t, seeker.Armed(), "garbage must not arm the seeker")
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	srv, _ := newTestServer()
	resp, err := srv.App().Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}

func dial(t *testing.T, srv *Server) (*websocket.Conn, func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, ln)
		close(done)
	}()

	var ws *websocket.Conn
	require.Eventually(t, func() bool {
		ws, _, err = websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "websocket dial")

	return ws, func() {
		ws.Close()
		cancel()
		<-done
	}
}

func send(t *testing.T, ws *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func readEnvelope(t *testing.T, ws *websocket.Conn) Envelope {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, ws.ReadJSON(&env))
	return env
}

func TestWebSocketSession(t *testing.T) {
	srv, seeker := newTestServer()
	ws, closeAll := dial(t, srv)
	defer closeAll()

	// idle: zero command
	send(t, ws, `{"type":"pose","pose":{"x":0,"y":0,"theta":0}}`)
	env := readEnvelope(t, ws)
	require.Equal(t, TypeCmd, env.Type)
	require.NotNil(t, env.Cmd)
	assert.True(t, env.Cmd.IsZero())

	send(t, ws, `{"type":"goal","goal":{"x":0,"y":2}}`)
	// malformed lines are skipped, the session stays up
	send(t, ws, `not json`)

	send(t, ws, `{"type":"pose","pose":{"x":0,"y":0,"theta":0}}`)
	env = readEnvelope(t, ws)
	require.NotNil(t, env.Cmd)
	assert.Zero(t, env.Cmd.Linear)
	assert.Greater(t, env.Cmd.Angular, 0.0, "expected a rotate-only left turn")

	send(t, ws, `{"type":"pose","pose":{"x":0,"y":1.95,"theta":1.5707963}}`)
	env = readEnvelope(t, ws)
	require.NotNil(t, env.Cmd)
	assert.True(t, env.Cmd.IsZero(), "expected zero cmd on arrival, got %+v", env.Cmd)

	env = readEnvelope(t, ws)
	assert.Equal(t, TypeArrived, env.Type)
	require.NotNil(t, env.Goal)
	assert.Equal(t, dynamo.Goal{X: 0, Y: 2}, *env.Goal)

	assert.Equal(t, 1, seeker.Arrivals())
	assert.False(t, seeker.Armed())

	st := srv.Status()
	assert.Equal(t, 1, st.Sessions)
	assert.EqualValues(t, 5, st.MessagesReceived)
}
