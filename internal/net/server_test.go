package net

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RevealBoard/internal/geom"
	"RevealBoard/internal/state"
)

type fakeController struct {
	restarts atomic.Int32
	fail     bool
}

func (f *fakeController) Status(context.Context) (state.Status, error) {
	if f.fail {
		return state.Status{}, errors.New("engine gone")
	}
	return state.Status{Session: "s1", Phase: "running", Run: 3, Width: 8, Height: 4}, nil
}

func (f *fakeController) Frame(context.Context) (image.Image, error) {
	if f.fail {
		return nil, errors.New("engine gone")
	}
	return image.NewRGBA(image.Rect(0, 0, 8, 4)), nil
}

func (f *fakeController) Restart(context.Context) error {
	if f.fail {
		return errors.New("engine gone")
	}
	f.restarts.Add(1)
	return nil
}

func newTestServer(t *testing.T, ctl Controller) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	hub.Hello = func() *state.Status {
		st, _ := ctl.Status(context.Background())
		return &st
	}
	srv := httptest.NewServer(NewRouter(hub, ctl, nil))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestFeedDeliversEventsInOrder(t *testing.T) {
	hub, srv := newTestServer(t, &fakeController{})
	conn := dial(t, srv)

	hello := readMessage(t, conn)
	assert.Equal(t, MessageHello, hello.Type)
	require.NotNil(t, hello.Status)
	assert.Equal(t, 3, hello.Status.Run)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.QueueStroke(state.Stroke{Seq: 1, X1: 2, Color: geom.Color{R: 10}})
	hub.QueueStroke(state.Stroke{Seq: 2})
	hub.Broadcast(Message{Type: MessageRestart, Restart: &state.Restart{Run: 4, Width: 8, Height: 4}})

	batch := readMessage(t, conn)
	assert.Equal(t, MessageStrokes, batch.Type)
	require.Len(t, batch.Strokes, 2)
	assert.Equal(t, uint64(1), batch.Strokes[0].Seq)
	assert.Equal(t, 10.0, batch.Strokes[0].Color.R)

	restart := readMessage(t, conn)
	assert.Equal(t, MessageRestart, restart.Type)
	assert.Equal(t, 4, restart.Restart.Run)
}

func TestHubRunFlushesAndCloses(t *testing.T) {
	hub, srv := newTestServer(t, &fakeController{})
	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	hub.QueueStroke(state.Stroke{Seq: 7})
	msg := readMessage(t, conn)
	assert.Equal(t, MessageStrokes, msg.Type)

	cancel()
	<-done
	assert.Zero(t, hub.Clients())
}

func TestPeriodicFlushKeepsRestartOrder(t *testing.T) {
	hub, srv := newTestServer(t, &fakeController{})
	hub.interval = time.Millisecond
	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	const runs = 20
	go func() {
		for run := range runs {
			for i := range 5 {
				hub.QueueStroke(state.Stroke{Run: run, Seq: uint64(i)})
			}
			time.Sleep(time.Millisecond)
			hub.Broadcast(Message{Type: MessageRestart, Restart: &state.Restart{Run: run + 1}})
		}
	}()

	current := 0
	for current < runs {
		msg := readMessage(t, conn)
		switch msg.Type {
		case MessageStrokes:
			for _, s := range msg.Strokes {
				require.Equal(t, current, s.Run, "stroke delivered after the restart that ended its run")
			}
		case MessageRestart:
			require.Equal(t, current+1, msg.Restart.Run)
			current = msg.Restart.Run
		}
	}
}

func TestStatusAndRestartEndpoints(t *testing.T) {
	ctl := &fakeController{}
	_, srv := newTestServer(t, ctl)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var st state.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "running", st.Phase)

	resp, err = http.Post(srv.URL+"/restart", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int32(1), ctl.restarts.Load())

	resp, err = http.Get(srv.URL + "/restart")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestFrameEndpoint(t *testing.T) {
	_, srv := newTestServer(t, &fakeController{})

	resp, err := http.Get(srv.URL + "/frame.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
}

func TestEndpointsReportControllerErrors(t *testing.T) {
	_, srv := newTestServer(t, &fakeController{fail: true})
	for _, path := range []string{"/status", "/frame.png"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}
}

func TestViewerPage(t *testing.T) {
	_, srv := newTestServer(t, &fakeController{})
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestPortAndShareURL(t *testing.T) {
	port, err := Port(":8888")
	require.NoError(t, err)
	assert.Equal(t, 8888, port)

	_, err = Port("nope")
	assert.Error(t, err)

	url, err := ShareURL("192.168.1.5:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.5:9000/", url)
}
