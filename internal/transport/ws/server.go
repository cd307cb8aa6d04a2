// Package ws exposes the engine over HTTP: a JSON status endpoint and a
// websocket stream of block-change events.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voxeld/internal/engine"
	"voxeld/internal/world"
)

type Server struct {
	world *engine.World
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(w *engine.World, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Handler returns the HTTP mux for the transport.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.statusHandler())
	mux.HandleFunc("/events", s.eventsHandler())
	return mux
}

type statusResponse struct {
	ResidentChunks int          `json:"resident_chunks"`
	Meshes         []meshStatus `json:"meshes"`
}

type meshStatus struct {
	Coord     world.ChunkCoord `json:"chunk"`
	LOD       int              `json:"lod"`
	Triangles int              `json:"triangles"`
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		meshes := s.world.Meshes()
		resp := statusResponse{
			ResidentChunks: s.world.ResidentCount(),
			Meshes:         make([]meshStatus, 0, len(meshes)),
		}
		for _, m := range meshes {
			resp.Meshes = append(resp.Meshes, meshStatus{
				Coord:     m.Coord,
				LOD:       m.LOD,
				Triangles: m.TriangleCount(),
			})
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

// eventsHandler upgrades the connection and streams block changes until the
// client goes away. Events a slow client cannot drain are dropped by the
// engine's bus rather than buffered without bound here.
func (s *Server) eventsHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id := s.nextID.Add(1)
		events, cancel := s.world.Subscribe(256)
		defer cancel()

		// Writer goroutine; the reader loop below owns connection teardown.
		writeErr := make(chan error, 1)
		go func() {
			for ev := range events {
				b, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
			writeErr <- nil
		}()

		// Reader loop: the client sends nothing meaningful, but reading is
		// what surfaces close frames and dead peers.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		select {
		case err := <-writeErr:
			if err != nil {
				s.log.Printf("ws: subscriber %d: %v", id, err)
			}
		case <-time.After(500 * time.Millisecond):
		}
	}
}
