// Package main provides the user CLI entry point for testing.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"github.com/NestorKrdona/Audio-Play-Robot/internal/api/web"
)

var (
	app     = kingpin.New("audioplay-usercli", "Audio player web client for testing")
	server  = app.Flag("server", "Server address").Default("http://localhost:5000").String()
	timeout = app.Flag("timeout", "Request timeout").Default("5s").Duration()

	// play command
	playCmd   = app.Command("play", "Start looping a track")
	playTrack = playCmd.Arg("track-id", "Track ID").Required().String()

	// stop command
	stopCmd = app.Command("stop", "Stop playback")

	// status command
	statusCmd = app.Command("status", "Show the current track")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		code int
		resp web.Response
		err  error
	)
	switch command {
	case playCmd.FullCommand():
		code, resp, err = call(ctx, http.MethodPost, "/play/"+url.PathEscape(*playTrack))
	case stopCmd.FullCommand():
		code, resp, err = call(ctx, http.MethodPost, "/stop")
	case statusCmd.FullCommand():
		code, resp, err = call(ctx, http.MethodGet, "/status")
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	printResponse(code, resp)
	if code != http.StatusOK {
		os.Exit(1)
	}
}

// call issues one request against the web routes and decodes the JSON body.
func call(ctx context.Context, method, path string) (int, web.Response, error) {
	var body web.Response

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(*server, "/")+path, nil)
	if err != nil {
		return 0, body, errors.Wrap(err, "failed to build request")
	}

	client := &http.Client{Timeout: *timeout}
	res, err := client.Do(req)
	if err != nil {
		return 0, body, errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return res.StatusCode, body, errors.Wrapf(err, "unexpected response (HTTP %d)", res.StatusCode)
	}
	return res.StatusCode, body, nil
}

func printResponse(code int, resp web.Response) {
	switch resp.Status {
	case web.StatusPlaying:
		fmt.Printf("▶️  Playing %s\n", resp.Audio)
	case web.StatusStopped:
		fmt.Println("⏹  Stopped")
	case web.StatusIdle:
		fmt.Println("⏹  Idle")
	case web.StatusError:
		fmt.Printf("Error [%d]: %s\n", code, resp.Message)
	default:
		fmt.Printf("Unexpected response [%d]: %+v\n", code, resp)
	}
}
