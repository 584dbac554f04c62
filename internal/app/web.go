package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/bus"
	"github.com/relabs-tech/imu_gesture/internal/config"
)

// liveState keeps the latest record of each kind and fans gestures out to
// websocket clients.
type liveState struct {
	mu      sync.RWMutex
	gesture *GestureEvent
	sample  *SampleRecord
	status  *StatusRecord

	clients map[*websocket.Conn]chan []byte
}

func newLiveState() *liveState {
	return &liveState{clients: make(map[*websocket.Conn]chan []byte)}
}

// wsMessage is what /ws clients receive.
type wsMessage struct {
	Type string `json:"type"` // "gesture", "sample" or "status"
	Data any    `json:"data"`
}

func (s *liveState) PublishGesture(ev GestureEvent) error {
	s.mu.Lock()
	s.gesture = &ev
	s.mu.Unlock()
	s.broadcast(wsMessage{Type: "gesture", Data: ev})
	return nil
}

func (s *liveState) PublishSample(rec SampleRecord) error {
	s.mu.Lock()
	s.sample = &rec
	s.mu.Unlock()
	s.broadcast(wsMessage{Type: "sample", Data: rec})
	return nil
}

func (s *liveState) PublishStatus(st StatusRecord) error {
	s.mu.Lock()
	s.status = &st
	s.mu.Unlock()
	s.broadcast(wsMessage{Type: "status", Data: st})
	return nil
}

// broadcast queues msg for every client. Slow clients miss messages.
func (s *liveState) broadcast(msg wsMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.clients {
		select {
		case ch <- b:
		default:
		}
	}
}

func (s *liveState) add(c *websocket.Conn) chan []byte {
	ch := make(chan []byte, 16)
	s.mu.Lock()
	s.clients[c] = ch
	s.mu.Unlock()
	return ch
}

func (s *liveState) remove(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *liveState) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/gesture", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		writeLatest(w, s.gesture)
	})
	mux.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		writeLatest(w, s.sample)
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		writeLatest(w, s.status)
	})
	mux.HandleFunc("/ws", s.serveWS)
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

func writeLatest[T any](w http.ResponseWriter, v *T) {
	if v == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("web: json encode error: %v", err)
	}
}

func (s *liveState) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("web: websocket upgrade: %v", err)
		return
	}
	ch := s.add(conn)
	defer func() {
		s.remove(conn)
		conn.Close()
	}()

	// Reader goroutine only notices the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case b := <-ch:
			conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

// RunWeb serves the latest gesture, sample and status over HTTP and a
// websocket stream until ctx is cancelled. Records come from MQTT, or with
// local set, from a pipeline on the configured bus in this process.
func RunWeb(ctx context.Context, local bool) error {
	cfg := config.Get()
	logger := log.WithField("component", "web")
	state := newLiveState()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: state.handler(),
	}

	errCh := make(chan error, 1)
	if local {
		dev, err := bus.Open(cfg)
		if err != nil {
			return fmt.Errorf("open %s bus: %w", cfg.BusType, err)
		}
		defer dev.Close()
		go func() { errCh <- runPipeline(ctx, cfg, dev, state) }()
	} else {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		logger.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

		if err := subscribeJSON(client, cfg.TopicGesture, logger, func(ev GestureEvent) { state.PublishGesture(ev) }); err != nil {
			return err
		}
		if err := subscribeJSON(client, cfg.TopicSample, logger, func(rec SampleRecord) { state.PublishSample(rec) }); err != nil {
			return err
		}
		if err := subscribeJSON(client, cfg.TopicStatus, logger, func(st StatusRecord) { state.PublishStatus(st) }); err != nil {
			return err
		}
	}

	go func() {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				logger.Errorf("pipeline: %v", err)
			}
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
