package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wave-arena/internal/api"
	"wave-arena/internal/config"
	"wave-arena/internal/game"
	"wave-arena/internal/render"
	"wave-arena/internal/replay"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  WAVE ARENA - GO SERVER")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	simCfg := appConfig.Simulation
	serverCfg := appConfig.Server

	log.Printf("🎮 Config: dt=1/%d every %v, arena %.0fx%.0f, max %d players",
		simCfg.TickRate, simCfg.TickInterval, simCfg.ArenaWidth, simCfg.ArenaHeight, simCfg.MaxPlayers)

	engine := game.NewEngine(game.EngineConfig{
		TickRate:     simCfg.TickRate,
		TickInterval: simCfg.TickInterval,
		ArenaWidth:   simCfg.ArenaWidth,
		ArenaHeight:  simCfg.ArenaHeight,
		MaxPlayers:   simCfg.MaxPlayers,
		Seed:         simCfg.Seed,
	})
	engine.OnTick(api.RecordTick)

	// Event log (audit trail)
	if path := appConfig.Recording.EventLogPath; path != "" {
		if err := engine.StartEventLog(path); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", path)
		}
	}

	// Replay bundle
	var recorder *replay.Writer
	if dir := appConfig.Recording.ReplayDir; dir != "" {
		w, manifest, err := replay.NewWriter(dir, replay.Options{
			Seed:        engine.Seed(),
			TickRate:    simCfg.TickRate,
			ArenaWidth:  simCfg.ArenaWidth,
			ArenaHeight: simCfg.ArenaHeight,
		})
		if err != nil {
			log.Printf("⚠️ Replay recording disabled: %v", err)
		} else {
			recorder = w
			engine.SetRecorder(w)
			log.Printf("🎞️ Recording replay to %s (one frame every %d ticks)", w.Directory(), manifest.FrameEvery)
		}
	}

	// Start debug server
	debugCfg := api.DefaultObservabilityConfig()
	debugCfg.Enabled = appConfig.Debug.Enabled
	debugCfg.ListenAddr = appConfig.Debug.Addr
	if err := api.StartDebugServer(debugCfg); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	api.SetAllowedOrigins(serverCfg.AllowedOrigins)
	server := api.NewServer(engine, api.ServerConfig{
		Hub: api.HubConfig{
			InputRate:  serverCfg.InputRate,
			InputBurst: serverCfg.InputBurst,
			TrustProxy: serverCfg.TrustProxy,
		},
		Renderer: render.NewArenaRenderer(int(simCfg.ArenaWidth), int(simCfg.ArenaHeight), simCfg.ArenaWidth, simCfg.ArenaHeight),
	})

	// Bind before starting the simulation; a taken port is fatal
	ln, err := server.Listen(serverCfg.Addr())
	if err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	engine.Start()

	// Export event log counters alongside the tick metrics
	statsDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats := engine.GetEventLogStats()
				total, _ := stats["total"].(uint64)
				dropped, _ := stats["dropped"].(uint64)
				api.UpdateEventLogStats(total, dropped)
			case <-statsDone:
				return
			}
		}
	}()

	go func() {
		if err := server.Serve(ln); err != nil {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	close(statsDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}

	engine.Stop()
	engine.StopEventLog()
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			log.Printf("⚠️ Replay close: %v", err)
		}
	}
	log.Println("👋 Goodbye!")
}
