package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// identityContextKey keys the caller identity in a request context.
type identityContextKey struct{}

// peerIdentity extracts the owner identity from the verified client
// leaf certificate: the first Organization attribute of its subject.
// The transport has already verified the chain against the pinned CA,
// so a present identity is an authenticated one.
func peerIdentity(ctx context.Context) (string, error) {
	p, ok := peer.FromContext(ctx)
	if !ok {
		return "", fmt.Errorf("failed to get peer info from context")
	}

	tlsInfo, ok := p.AuthInfo.(credentials.TLSInfo)
	if !ok {
		return "", fmt.Errorf("failed to get TLS info from peer auth info")
	}

	if len(tlsInfo.State.VerifiedChains) == 0 ||
		len(tlsInfo.State.VerifiedChains[0]) == 0 {
		return "", fmt.Errorf("no verified chains in TLS info")
	}

	cert := tlsInfo.State.VerifiedChains[0][0]

	if len(cert.Subject.Organization) == 0 || cert.Subject.Organization[0] == "" {
		return "", fmt.Errorf("client certificate carries no organization")
	}

	return cert.Subject.Organization[0], nil
}

// identityFromContext returns the identity placed in ctx by the
// interceptors. Handlers read identity only from here, never from
// request payloads.
func identityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(string)
	return identity, ok && identity != ""
}

// identityUnaryInterceptor refuses requests without an authenticated
// identity and tags the context for the handler.
func identityUnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		identity, err := peerIdentity(ctx)
		if err != nil {
			logger.Warn("reject unauthenticated request",
				zap.String("method", info.FullMethod),
				zap.Error(err),
			)

			return nil, status.Error(codes.Unauthenticated, "not authenticated")
		}

		return handler(context.WithValue(ctx, identityContextKey{}, identity), req)
	}
}

// identityStreamInterceptor is the streaming counterpart of
// identityUnaryInterceptor.
func identityStreamInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		identity, err := peerIdentity(ss.Context())
		if err != nil {
			logger.Warn("reject unauthenticated stream",
				zap.String("method", info.FullMethod),
				zap.Error(err),
			)

			return status.Error(codes.Unauthenticated, "not authenticated")
		}

		ctx := context.WithValue(ss.Context(), identityContextKey{}, identity)

		return handler(srv, &identityServerStream{ServerStream: ss, ctx: ctx})
	}
}

// identityServerStream overrides Context to expose the tagged context
// to stream handlers.
type identityServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityServerStream) Context() context.Context {
	return s.ctx
}
