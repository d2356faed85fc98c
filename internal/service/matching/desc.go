package matching

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "matching.v1.MatchingService"

// MatchingServer is the server API for MatchingService.
type MatchingServer interface {
	Discover(context.Context, *DiscoverRequest) (*DiscoverResponse, error)
	Swipe(context.Context, *SwipeRequest) (*SwipeResponse, error)
	UnseenLikesCount(context.Context, *UnseenLikesCountRequest) (*UnseenLikesCountResponse, error)
	MarkSeen(context.Context, *MarkSeenRequest) (*MarkSeenResponse, error)
	ListPendingLikes(context.Context, *ListPendingLikesRequest) (*ListPendingLikesResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	UpdateLocation(context.Context, *UpdateLocationRequest) (*UpdateLocationResponse, error)
}

// ServiceDesc describes MatchingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Discover", MatchingServer.Discover),
		unary("Swipe", MatchingServer.Swipe),
		unary("UnseenLikesCount", MatchingServer.UnseenLikesCount),
		unary("MarkSeen", MatchingServer.MarkSeen),
		unary("ListPendingLikes", MatchingServer.ListPendingLikes),
		unary("ListMatches", MatchingServer.ListMatches),
		unary("UpdateLocation", MatchingServer.UpdateLocation),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "matching/v1/matching",
}

// RegisterMatchingServer attaches srv to s.
func RegisterMatchingServer(s grpc.ServiceRegistrar, srv MatchingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(MatchingServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MatchingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchingServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls MatchingService over any connection, using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Discover(ctx context.Context, in *DiscoverRequest, opts ...grpc.CallOption) (*DiscoverResponse, error) {
	return invoke[DiscoverResponse](ctx, c, "Discover", in, opts)
}

func (c *Client) Swipe(ctx context.Context, in *SwipeRequest, opts ...grpc.CallOption) (*SwipeResponse, error) {
	return invoke[SwipeResponse](ctx, c, "Swipe", in, opts)
}

func (c *Client) UnseenLikesCount(ctx context.Context, in *UnseenLikesCountRequest, opts ...grpc.CallOption) (*UnseenLikesCountResponse, error) {
	return invoke[UnseenLikesCountResponse](ctx, c, "UnseenLikesCount", in, opts)
}

func (c *Client) MarkSeen(ctx context.Context, in *MarkSeenRequest, opts ...grpc.CallOption) (*MarkSeenResponse, error) {
	return invoke[MarkSeenResponse](ctx, c, "MarkSeen", in, opts)
}

func (c *Client) ListPendingLikes(ctx context.Context, in *ListPendingLikesRequest, opts ...grpc.CallOption) (*ListPendingLikesResponse, error) {
	return invoke[ListPendingLikesResponse](ctx, c, "ListPendingLikes", in, opts)
}

func (c *Client) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c, "ListMatches", in, opts)
}

func (c *Client) UpdateLocation(ctx context.Context, in *UpdateLocationRequest, opts ...grpc.CallOption) (*UpdateLocationResponse, error) {
	return invoke[UpdateLocationResponse](ctx, c, "UpdateLocation", in, opts)
}
