// Package main provides the admin CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"google.golang.org/protobuf/types/known/structpb"

	apiconnect "github.com/NestorKrdona/Audio-Play-Robot/internal/api/connect"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/infra/config"
)

var (
	app    = kingpin.New("audioplay-admincli", "Audio player control client")
	server = app.Flag("server", "Server address").Default("http://localhost:5000").String()
	token  = app.Flag("token", "Admin token (or set "+config.AdminTokenEnv+" env)").Envar(config.AdminTokenEnv).String()

	// status command
	statusCmd = app.Command("status", "Get playback status")

	// tracks command
	tracksCmd = app.Command("tracks", "List registered tracks").Alias("list")

	// play command
	playCmd   = app.Command("play", "Start looping a track")
	playTrack = playCmd.Arg("track-id", "Track ID").Required().String()

	// stop command
	stopCmd = app.Command("stop", "Stop playback")

	// watch command
	watchCmd = app.Command("watch", "Stream playback events")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var opts []connect.ClientOption
	if *token != "" {
		opts = append(opts, connect.WithInterceptors(apiconnect.NewTokenClientInterceptor(*token)))
	}
	client := apiconnect.NewPlayerServiceClient(http.DefaultClient, *server, opts...)

	ctx := context.Background()

	switch command {
	case statusCmd.FullCommand():
		status(ctx, client)
	case tracksCmd.FullCommand():
		listTracks(ctx, client)
	case playCmd.FullCommand():
		play(ctx, client, *playTrack)
	case stopCmd.FullCommand():
		stop(ctx, client)
	case watchCmd.FullCommand():
		watch(ctx, client)
	}
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	if connect.CodeOf(err) == connect.CodeUnauthenticated {
		fmt.Println("Error: invalid or missing admin token (use --token or " + config.AdminTokenEnv + " env)")
	} else {
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}

func status(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	s, err := client.GetStatus(ctx)
	exitOnError(err)

	fmt.Println("\n=== PLAYBACK STATUS ===")
	fmt.Printf("State: %s\n", formatState(stringField(s, "status")))
	fmt.Printf("Subscribers: %d\n", int(s.Fields["subscribers"].GetNumberValue()))

	if audio := stringField(s, "audio"); audio != "" {
		fmt.Println("\nCurrently Looping:")
		fmt.Printf("  Track ID: %s\n", audio)
		fmt.Printf("  Title: %s\n", stringField(s, "title"))
		fmt.Printf("  Path: %s\n", stringField(s, "path"))
	} else {
		fmt.Println("\nNothing playing")
	}
	fmt.Println()
}

func listTracks(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	resp, err := client.ListTracks(ctx)
	exitOnError(err)

	tracks := resp.Fields["tracks"].GetListValue().GetValues()
	fmt.Printf("Tracks (%d):\n", len(tracks))
	for _, v := range tracks {
		t := v.GetStructValue()
		duration := "-"
		if sec := t.Fields["duration_sec"].GetNumberValue(); sec > 0 {
			duration = (time.Duration(sec * float64(time.Second))).Round(time.Second).String()
		}
		fmt.Printf("  %s: %s (%s, %s)\n",
			stringField(t, "id"), stringField(t, "title"), duration, stringField(t, "path"))
	}
}

func play(ctx context.Context, client *apiconnect.PlayerServiceClient, id string) {
	resp, err := client.Play(ctx, id)
	if connect.CodeOf(err) == connect.CodeNotFound {
		fmt.Printf("Audio not found: %s\n", id)
		os.Exit(1)
	}
	exitOnError(err)

	fmt.Printf("Playing %s\n", stringField(resp, "audio"))
}

func stop(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	_, err := client.Stop(ctx)
	exitOnError(err)

	fmt.Println("Playback stopped")
}

func watch(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stream, err := client.SubscribeEvents(ctx)
	exitOnError(err)
	defer stream.Close()

	fmt.Println("Watching playback events. Press Ctrl+C to exit.")

	for stream.Receive() {
		printEvent(stream.Msg())
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		fmt.Printf("Stream error: %v\n", err)
		os.Exit(1)
	}
}

func printEvent(n *structpb.Struct) {
	fmt.Printf("[Sequence: %d] ", int64(n.Fields["sequence_no"].GetNumberValue()))

	switch stringField(n, "type") {
	case "initial_state":
		fmt.Print("INITIAL STATE")
	case "track_started":
		fmt.Print("TRACK STARTED")
	case "track_stopped":
		fmt.Print("TRACK STOPPED")
	case "playback_failed":
		fmt.Print("PLAYBACK FAILED")
	default:
		fmt.Printf("UNKNOWN EVENT (%s)", stringField(n, "type"))
	}

	fmt.Printf(" state=%s", formatState(stringField(n, "state")))
	if audio := stringField(n, "audio"); audio != "" {
		fmt.Printf(" audio=%s", audio)
	}
	if at := stringField(n, "time"); at != "" {
		fmt.Printf(" at=%s", at)
	}
	fmt.Println()
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func formatState(state string) string {
	switch state {
	case "playing":
		return "▶️  Playing"
	case "idle":
		return "⏹  Idle"
	default:
		return "❓ Unknown"
	}
}
