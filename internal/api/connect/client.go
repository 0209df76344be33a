package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// PlayerServiceClient is a client for the player service.
type PlayerServiceClient struct {
	play            *connect.Client[wrapperspb.StringValue, structpb.Struct]
	stop            *connect.Client[emptypb.Empty, structpb.Struct]
	getStatus       *connect.Client[emptypb.Empty, structpb.Struct]
	listTracks      *connect.Client[emptypb.Empty, structpb.Struct]
	subscribeEvents *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewPlayerServiceClient creates a client for the service at baseURL
// (e.g. http://localhost:5000).
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &PlayerServiceClient{
		play:            connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+PlayProcedure, opts...),
		stop:            connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+StopProcedure, opts...),
		getStatus:       connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetStatusProcedure, opts...),
		listTracks:      connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ListTracksProcedure, opts...),
		subscribeEvents: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+SubscribeEventsProcedure, opts...),
	}
}

// Play starts looping the track registered under id.
func (c *PlayerServiceClient) Play(ctx context.Context, id string) (*structpb.Struct, error) {
	resp, err := c.play.CallUnary(ctx, connect.NewRequest(wrapperspb.String(id)))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Stop stops playback.
func (c *PlayerServiceClient) Stop(ctx context.Context) (*structpb.Struct, error) {
	resp, err := c.stop.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// GetStatus returns the playback status.
func (c *PlayerServiceClient) GetStatus(ctx context.Context) (*structpb.Struct, error) {
	resp, err := c.getStatus.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ListTracks returns the registered tracks.
func (c *PlayerServiceClient) ListTracks(ctx context.Context) (*structpb.Struct, error) {
	resp, err := c.listTracks.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// SubscribeEvents opens the event stream. The caller must Close it.
func (c *PlayerServiceClient) SubscribeEvents(ctx context.Context) (*connect.ServerStreamForClient[structpb.Struct], error) {
	return c.subscribeEvents.CallServerStream(ctx, connect.NewRequest(&emptypb.Empty{}))
}
