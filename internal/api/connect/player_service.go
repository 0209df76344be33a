package connect

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/jukebox"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/notification"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/playback"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/domain/track"
)

// ServiceName is the fully-qualified name of the player service.
const ServiceName = "audioplay.v1.PlayerService"

// Procedure paths.
const (
	PlayProcedure            = "/" + ServiceName + "/Play"
	StopProcedure            = "/" + ServiceName + "/Stop"
	GetStatusProcedure       = "/" + ServiceName + "/GetStatus"
	ListTracksProcedure      = "/" + ServiceName + "/ListTracks"
	SubscribeEventsProcedure = "/" + ServiceName + "/SubscribeEvents"
)

// Player is the part of the jukebox the service needs.
type Player interface {
	Has(id string) bool
	Tracks() []track.Track
	Play(id string) error
	Stop() error
	GetStatus() jukebox.Status
	InitialNotification() *notification.Notification
	GetNotificationManager() *notification.Manager
}

// PlayerService implements the player control RPC.
type PlayerService struct {
	player Player
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(player Player) *PlayerService {
	return &PlayerService{player: player}
}

// NewPlayerServiceHandler builds an HTTP handler serving every procedure of
// the service. It returns the path prefix to mount it on.
// Unary options (such as interceptors) apply to unary procedures only.
func NewPlayerServiceHandler(svc *PlayerService, unaryOpts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(PlayProcedure, connect.NewUnaryHandler(PlayProcedure, svc.Play, unaryOpts...))
	mux.Handle(StopProcedure, connect.NewUnaryHandler(StopProcedure, svc.Stop, unaryOpts...))
	mux.Handle(GetStatusProcedure, connect.NewUnaryHandler(GetStatusProcedure, svc.GetStatus, unaryOpts...))
	mux.Handle(ListTracksProcedure, connect.NewUnaryHandler(ListTracksProcedure, svc.ListTracks, unaryOpts...))
	mux.Handle(SubscribeEventsProcedure, connect.NewServerStreamHandler(SubscribeEventsProcedure, svc.SubscribeEvents))
	return "/" + ServiceName + "/", mux
}

// Play starts looping a track.
func (s *PlayerService) Play(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[structpb.Struct], error) {
	id := req.Msg.GetValue()
	if !s.player.Has(id) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("Audio not found"))
	}

	if err := s.player.Play(id); err != nil {
		if errors.Is(err, playback.ErrTrackNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, errors.New("Audio not found"))
		}
		if errors.Is(err, playback.ErrClosed) {
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
		return nil, connect.NewError(connect.CodeInternal, errors.Wrap(err, "Playback failed"))
	}

	return newStructResponse(map[string]any{
		"status": "playing",
		"audio":  id,
	})
}

// Stop stops playback.
func (s *PlayerService) Stop(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	if err := s.player.Stop(); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return newStructResponse(map[string]any{"status": "stopped"})
}

// GetStatus returns the current playback status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	status := s.player.GetStatus()

	fields := map[string]any{
		"status":      status.State.String(),
		"subscribers": status.Subscribers,
	}
	if status.Current != nil {
		fields["audio"] = status.Current.ID
		fields["title"] = status.Current.DisplayName()
		fields["path"] = status.Current.Path
	}
	return newStructResponse(fields)
}

// ListTracks returns the registered tracks.
func (s *PlayerService) ListTracks(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	tracks := s.player.Tracks()
	list := make([]any, 0, len(tracks))
	for _, t := range tracks {
		list = append(list, map[string]any{
			"id":           t.ID,
			"title":        t.DisplayName(),
			"path":         t.Path,
			"duration_sec": t.Duration.Seconds(),
		})
	}
	return newStructResponse(map[string]any{"tracks": list})
}

// SubscribeEvents streams the current state followed by every playback event.
func (s *PlayerService) SubscribeEvents(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	notifManager := s.player.GetNotificationManager()

	// Subscribe before taking the snapshot so no event falls in between.
	sub := notifManager.Subscribe()
	defer notifManager.Unsubscribe(sub.ID())

	initial := s.player.InitialNotification()
	err := sub.Forward(ctx, &notificationStreamAdapter{stream: stream}, initial)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	stream *connect.ServerStream[structpb.Struct]
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	msg, err := NotificationToStruct(n)
	if err != nil {
		return err
	}
	return a.stream.Send(msg)
}

// NotificationToStruct converts a notification to its wire form.
func NotificationToStruct(n *notification.Notification) (*structpb.Struct, error) {
	fields := map[string]any{
		"sequence_no": n.SequenceNo,
		"type":        n.Type,
		"state":       n.State,
	}
	if n.TrackID != "" {
		fields["audio"] = n.TrackID
	}
	if !n.Time.IsZero() {
		fields["time"] = n.Time.Format(time.RFC3339)
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode notification")
	}
	return msg, nil
}

func newStructResponse(fields map[string]any) (*connect.Response[structpb.Struct], error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}
