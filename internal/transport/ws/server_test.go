package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxeld/internal/block"
	"voxeld/internal/config"
	"voxeld/internal/engine"
	"voxeld/internal/storage"
	"voxeld/internal/world"
)

func testServer(t *testing.T) (*engine.World, *httptest.Server) {
	t.Helper()
	store, err := storage.OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.World.ViewRadius = 1
	cfg.World.UnloadRadius = 2
	cfg.Mesher.LODStep = 0
	reg := block.DefaultRegistry()
	w := engine.NewWorld(cfg, reg, block.NewGridAtlas(reg, 16), store)

	ts := httptest.NewServer(NewServer(w, nil).Handler())
	t.Cleanup(func() {
		ts.Close()
		if err := w.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return w, ts
}

func TestStatusEndpoint(t *testing.T) {
	w, ts := testServer(t)
	if _, err := w.LoadChunk(context.Background(), world.ChunkCoord{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	var body struct {
		ResidentChunks int `json:"resident_chunks"`
		Meshes         []struct {
			LOD       int `json:"lod"`
			Triangles int `json:"triangles"`
		} `json:"meshes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.ResidentChunks != 1 || len(body.Meshes) != 1 {
		t.Errorf("status reports %d chunks, %d meshes", body.ResidentChunks, len(body.Meshes))
	}
	if body.Meshes[0].Triangles == 0 {
		t.Error("status reports an empty mesh for terrain")
	}
}

func TestStatusRejectsNonGet(t *testing.T) {
	_, ts := testServer(t)
	resp, err := http.Post(ts.URL+"/status", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status %d, want 405", resp.StatusCode)
	}
}

func TestEventStream(t *testing.T) {
	w, ts := testServer(t)
	if _, err := w.LoadChunk(context.Background(), world.ChunkCoord{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Give the subscriber a moment to register before mutating.
	time.Sleep(50 * time.Millisecond)
	if err := w.UpdateBlock(3, 100, 3, block.Glowstone); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var ev engine.BlockChange
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.X != 3 || ev.Y != 100 || ev.Z != 3 || ev.New != block.Glowstone {
		t.Errorf("unexpected event %+v", ev)
	}
}
