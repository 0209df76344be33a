// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/NestorKrdona/Audio-Play-Robot/internal/api/connect"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/api/web"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/jukebox"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/infra/audio"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/infra/config"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/infra/logger"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/infra/tags"
)

var (
	app        = kingpin.New("audioplay-server", "Web-controlled looping audio player")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: from config)").String()

	// list-tracks command
	listTracksCmd = app.Command("list-tracks", "List configured tracks and exit")

	// list-backends command
	listBackendsCmd = app.Command("list-backends", "List available audio backends and exit")
)

func init() {
	// start command (default)
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listBackendsCmd.FullCommand() {
		printBackends()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config from %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	if command == listTracksCmd.FullCommand() {
		printTracks(cfg)
		return
	}

	// Command-line flags override the log section
	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	zlog.Info().Msgf("Loaded config from %s", *configPath)

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %+v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	output, err := audio.New(cfg.Audio.Backend, cfg.Audio.Settings)
	if err != nil {
		return err
	}
	zlog.Info().Msgf("Audio backend: %s", cfg.Audio.Backend)

	tracks := tags.Enrich(cfg.TrackList(), tags.Read)

	mgr, err := jukebox.NewManager(tracks, output)
	if err != nil {
		_ = output.Close()
		return err
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			zlog.Error().Msgf("Failed to close player: %v", err)
		}
	}()

	mux := http.NewServeMux()
	web.NewHandler(mgr, "").Register(mux)

	var rpcOpts []connect.HandlerOption
	if cfg.IsAdminAuthEnabled() {
		rpcOpts = append(rpcOpts, connect.WithInterceptors(apiconnect.NewAdminAuthInterceptor(cfg.Admin.Token)))
	} else {
		zlog.Warn().Msg("admin.token not set, control RPC is unauthenticated")
	}
	rpcPath, rpcHandler := apiconnect.NewPlayerServiceHandler(apiconnect.NewPlayerService(mgr), rpcOpts...)
	mux.Handle(rpcPath, rpcHandler)

	// HTTP/2 cleartext so RPC clients can stream without TLS
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(web.WithRequestLogging(mux), &http2.Server{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := mgr.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error().Msgf("Player event loop stopped: %v", err)
		}
	}()

	serverErrCh := make(chan error, 1)
	listening := make(chan struct{})
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s tracks=%d", cfg.Server.Addr, len(tracks))
		close(listening)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()
	<-listening

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	// Stop playback before draining connections so streams end promptly
	if err := mgr.Close(); err != nil {
		zlog.Error().Msgf("Failed to stop playback: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printTracks prints the configured tracks with their tag metadata.
func printTracks(cfg *config.Config) {
	fmt.Println("Configured Tracks:")
	for _, t := range tags.Enrich(cfg.TrackList(), tags.Read) {
		duration := "-"
		if t.Duration > 0 {
			duration = t.Duration.String()
		}
		fmt.Printf("  %-16s %-32s %-10s %s\n", t.ID, t.DisplayName(), duration, t.Path)
	}
}

// printBackends prints available audio backends.
func printBackends() {
	fmt.Println("Available Audio Backends:")
	for _, b := range audio.Backends() {
		fmt.Printf("  %-8s - %s\n", b.Name, b.Description)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
