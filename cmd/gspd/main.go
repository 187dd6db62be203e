// Command gspd runs the game-state processor: it loads a chain's
// read-only configuration, opens its store, and drives blocks fed to it
// on stdin (one JSON moveproc.BlockEnvelope per line) through
// internal/engine, pushing each result to any websocket subscribers via
// internal/feed.
//
// Grounded on klingon-v2/cmd/klingond/main.go's shape: flag parsing,
// logger construction and SetDefault, data-dir resolution, context
// cancellation wired to os/signal, and a deferred store close — with the
// libp2p node/wallet/swap wiring replaced by this module's engine and
// feed hub, since block transport and wallet integration are this
// module's explicit Non-goals (spec.md §1).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/engine"
	"github.com/hexrealm/taurion-gsp/internal/feed"
	"github.com/hexrealm/taurion-gsp/internal/moveproc"
	"github.com/hexrealm/taurion-gsp/internal/store"
	"github.com/hexrealm/taurion-gsp/pkg/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	dataDir := flag.String("data-dir", "~/.taurion-gsp", "directory for the chain's SQLite store")
	chainFlag := flag.String("chain", "main", "chain id: main, test, or regtest")
	configPath := flag.String("config", "", "path to a YAML chain config overriding the embedded default")
	listen := flag.String("listen", "127.0.0.1:8787", "address the state-feed websocket server listens on")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	inMemory := flag.Bool("in-memory", false, "use an in-memory store instead of a file on disk")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("gspd %s (%s)\n", version, commit)
		return
	}

	log := logging.New(&logging.Config{
		Level:      *logLevel,
		TimeFormat: time.TimeOnly,
		Output:     os.Stderr,
	})
	logging.SetDefault(log)

	chainID := config.ChainID(*chainFlag)
	cfg, err := loadConfig(chainID, *configPath)
	if err != nil {
		log.Fatal("failed to load chain config", "error", err)
	}
	log.Info("chain config loaded", "chain", chainID)

	dataPath := expandPath(*dataDir)
	if !*inMemory {
		if err := os.MkdirAll(dataPath, 0o755); err != nil {
			log.Fatal("failed to create data directory", "path", dataPath, "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storeCfg := &store.Config{DataDir: dataPath, InMemory: *inMemory}
	eng, err := engine.New(ctx, storeCfg, cfg)
	if err != nil {
		log.Fatal("failed to start engine", "error", err)
	}
	defer eng.Close()
	log.Info("engine started", "data_dir", dataPath)

	hub := feed.NewHub()
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	httpServer := &http.Server{Addr: *listen, Handler: mux}

	go func() {
		log.Info("state feed listening", "addr", *listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("state feed server error", "error", err)
		}
	}()

	blocksDone := make(chan struct{})
	go func() {
		defer close(blocksDone)
		runBlockFeed(ctx, log, eng, hub, os.Stdin)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig)
	case <-blocksDone:
		log.Info("block input closed, shutting down")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("state feed server shutdown error", "error", err)
	}
	log.Info("gspd stopped", "uptime", eng.Uptime())
}

// runBlockFeed reads newline-delimited JSON moveproc.BlockEnvelope values
// from r and drives each through the engine in order, pushing every
// result to the feed hub. A malformed or rejected block is logged and
// skipped rather than aborting the whole process, since a single bad
// line on stdin is an operator/transport error, not a state-consensus
// one (spec.md §9's determinism requirement binds committed blocks, not
// the channel they arrive on).
func runBlockFeed(ctx context.Context, log *logging.Logger, eng *engine.Engine, hub *feed.Hub, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var env moveproc.BlockEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			log.Error("failed to decode block envelope", "error", err)
			continue
		}

		result, err := eng.ProcessBlock(&env)
		if err != nil {
			log.Error("failed to process block", "height", env.Block.Height, "error", err)
			continue
		}
		hub.PushBlock(result)
	}
	if err := scanner.Err(); err != nil {
		log.Error("block input scanner error", "error", err)
	}
}

func loadConfig(chain config.ChainID, path string) (*config.ChainConfig, error) {
	if path == "" {
		return config.LoadEmbedded(chain)
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	return config.Load(chain, doc)
}

func expandPath(path string) string {
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				return home
			}
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
