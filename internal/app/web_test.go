package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/imu_gesture/internal/gesture"
	"github.com/relabs-tech/imu_gesture/internal/imu"
)

func TestLiveStateAPI(t *testing.T) {
	state := newLiveState()
	srv := httptest.NewServer(state.handler())
	defer srv.Close()

	for _, path := range []string{"/api/gesture", "/api/orientation", "/api/status"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("GET %s before data = %d, want 503", path, resp.StatusCode)
		}
	}

	state.PublishGesture(NewGestureEvent(upResult, time.Now()))
	state.PublishSample(NewSampleRecord(imu.Sample{T: 1, Quat: imu.Identity}))

	resp, err := http.Get(srv.URL + "/api/gesture")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/gesture = %d", resp.StatusCode)
	}
	var ev GestureEvent
	if err := json.NewDecoder(resp.Body).Decode(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Label != gesture.Up {
		t.Errorf("label = %s, want UP", ev.Label)
	}

	resp2, err := http.Get(srv.URL + "/api/orientation")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var rec SampleRecord
	if err := json.NewDecoder(resp2.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.T != 1 || rec.Pose.Roll != 0 || rec.Pose.Yaw != 0 {
		t.Errorf("orientation = %+v", rec)
	}
}

func TestLiveStateWebsocket(t *testing.T) {
	state := newLiveState()
	srv := httptest.NewServer(state.handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// The server registers the client after the handshake completes.
	deadline := time.Now().Add(time.Second)
	for {
		state.mu.RLock()
		n := len(state.clients)
		state.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	state.PublishGesture(NewGestureEvent(upResult, time.Now()))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg struct {
		Type string       `json:"type"`
		Data GestureEvent `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != "gesture" || msg.Data.Label != gesture.Up {
		t.Errorf("message = %+v", msg)
	}
}
