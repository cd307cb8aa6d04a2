package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/xlab/closer"

	"voxeld/internal/block"
	"voxeld/internal/config"
	"voxeld/internal/engine"
	"voxeld/internal/physics"
	"voxeld/internal/storage"
	"voxeld/internal/transport/ws"
	"voxeld/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (empty = defaults)")
		seed       = flag.Int64("seed", 0, "override world seed (0 = keep config value)")
		addr       = flag.String("addr", "", "override transport listen address")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("voxeld: %v", err)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *addr != "" {
		cfg.Transport.Addr = *addr
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("voxeld: open storage: %v", err)
	}

	reg := block.DefaultRegistry()
	w := engine.NewWorld(cfg, reg, block.NewGridAtlas(reg, 0), store)
	w.Start()
	closer.Bind(func() {
		if err := w.Close(); err != nil {
			log.Printf("voxeld: shutdown: %v", err)
		}
	})

	// Seed residency around the origin so the server has something to serve
	// before the first viewpoint update arrives.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	w.UpdateLoadedSet(ctx, []world.ChunkCoord{{X: 0, Z: 0}})
	cancel()
	ground := physics.FindGroundLevel(w, 8, 8, world.SizeY-1)
	log.Printf("voxeld: seed %d, %d chunks resident, spawn ground y=%d",
		cfg.World.Seed, w.ResidentCount(), ground)

	if cfg.Transport.Addr != "" {
		srv := ws.NewServer(w, log.Default())
		httpServer := &http.Server{Addr: cfg.Transport.Addr, Handler: srv.Handler()}
		closer.Bind(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		})
		go func() {
			log.Printf("voxeld: listening on %s", cfg.Transport.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("voxeld: http server: %v", err)
				closer.Close()
			}
		}()
	}

	closer.Hold()
}

func openStore(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "leveldb":
		return storage.OpenLevelStore(cfg.Storage.Path)
	default:
		return storage.OpenFileStore(cfg.Storage.Path)
	}
}
