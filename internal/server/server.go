// Package server exposes the job manager over mutually-authenticated
// gRPC. Every operation is gated on the caller identity the transport
// established; handlers never trust identifiers in payloads.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	apiv1 "workerd/api/v1"
	"workerd/internal/config"
	"workerd/internal/jobmanager"
	"workerd/internal/tlsconfig"
)

// streamBufferSize is the read size for streaming worker output.
// 4KB aligns with typical pipe buffer sizes.
const streamBufferSize = 4096

// Server implements worker.v1.WorkerService.
type Server struct {
	apiv1.UnimplementedWorkerServiceServer

	manager    *jobmanager.Manager
	logger     *zap.Logger
	cfg        *config.Server
	grpcServer *grpc.Server
}

// New creates a Server around manager.
func New(manager *jobmanager.Manager, logger *zap.Logger, cfg *config.Server) *Server {
	return &Server{manager: manager, logger: logger, cfg: cfg}
}

// Serve builds the mTLS credentials and serves gRPC on listener until
// Shutdown or a fatal accept error.
func (s *Server) Serve(listener net.Listener) error {
	tlsConfig, err := tlsconfig.Setup(&tlsconfig.Config{
		CertPath:   s.cfg.CertPath,
		KeyPath:    s.cfg.KeyPath,
		CACertPath: s.cfg.CACertPath,
		Server:     true,
	})
	if err != nil {
		return err
	}

	limiter := newRateLimiter(s.cfg.RequestsPerSecond)

	s.grpcServer = grpc.NewServer(
		grpc.Creds(credentials.NewTLS(tlsConfig)),
		grpc.ChainUnaryInterceptor(
			contextCheckUnaryInterceptor,
			identityUnaryInterceptor(s.logger),
			limiter.unaryInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			identityStreamInterceptor(s.logger),
			limiter.streamInterceptor(),
		),
	)

	apiv1.RegisterWorkerServiceServer(s.grpcServer, s)

	return s.grpcServer.Serve(listener)
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *Server) Shutdown() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

// Start launches a new worker owned by the caller.
func (s *Server) Start(
	ctx context.Context,
	req *apiv1.StartRequest,
) (*apiv1.StartResponse, error) {
	identity, ok := identityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}

	if len(req.Command) == 0 || req.Command[0] == "" {
		return nil, status.Error(codes.InvalidArgument, "command is empty")
	}

	id, err := s.manager.Start(identity, req.Command)
	if err != nil {
		return nil, s.mapError("start worker", identity, err)
	}

	return &apiv1.StartResponse{WorkerId: id}, nil
}

// Stop terminates the caller's worker. Stopping a finished worker
// succeeds as a no-op.
func (s *Server) Stop(
	ctx context.Context,
	req *apiv1.StopRequest,
) (*apiv1.StopResponse, error) {
	identity, ok := identityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}

	if req.WorkerId == "" {
		return nil, status.Error(codes.InvalidArgument, "worker_id is empty")
	}

	if err := s.manager.Stop(identity, req.WorkerId); err != nil {
		return nil, s.mapError("stop worker", identity, err)
	}

	return &apiv1.StopResponse{}, nil
}

// GetStatus returns a snapshot of the caller's worker.
func (s *Server) GetStatus(
	ctx context.Context,
	req *apiv1.GetStatusRequest,
) (*apiv1.GetStatusResponse, error) {
	identity, ok := identityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}

	if req.WorkerId == "" {
		return nil, status.Error(codes.InvalidArgument, "worker_id is empty")
	}

	st, err := s.manager.Status(identity, req.WorkerId)
	if err != nil {
		return nil, s.mapError("get worker status", identity, err)
	}

	return &apiv1.GetStatusResponse{
		State:         mapState(st.State),
		Done:          st.Done,
		Exited:        st.Exited,
		ExitCode:      int32(st.ExitCode),
		Pid:           int32(st.PID),
		FailureReason: st.FailureReason,
	}, nil
}

// StreamOutput streams the worker's stdout and stderr to the caller as
// labelled chunks: full history first, then the live tail, then EOF.
// Chunks from the two streams are not ordered with respect to each
// other.
func (s *Server) StreamOutput(
	req *apiv1.StreamOutputRequest,
	stream grpc.ServerStreamingServer[apiv1.StreamOutputResponse],
) error {
	identity, ok := identityFromContext(stream.Context())
	if !ok {
		return status.Error(codes.Unauthenticated, "not authenticated")
	}

	if req.WorkerId == "" {
		return status.Error(codes.InvalidArgument, "worker_id is empty")
	}

	stdout, stderr, err := s.manager.OutputReaders(identity, req.WorkerId)
	if err != nil {
		return s.mapError("stream worker output", identity, err)
	}

	defer stdout.Close()
	defer stderr.Close()

	g, ctx := errgroup.WithContext(stream.Context())

	// Readers block on the log's condition variable, which knows nothing
	// about the RPC; closing them on context cancellation is what wakes
	// a blocked Read when the client goes away.
	go func() {
		<-ctx.Done()
		stdout.Close()
		stderr.Close()
	}()

	// stream.Send must not be called concurrently.
	var sendMu sync.Mutex

	send := func(resp *apiv1.StreamOutputResponse) error {
		sendMu.Lock()
		defer sendMu.Unlock()

		return stream.Send(resp)
	}

	g.Go(func() error {
		return pumpStream(stdout, func(chunk []byte) error {
			return send(&apiv1.StreamOutputResponse{StdoutChunk: chunk})
		})
	})

	g.Go(func() error {
		return pumpStream(stderr, func(chunk []byte) error {
			return send(&apiv1.StreamOutputResponse{StderrChunk: chunk})
		})
	})

	if err := g.Wait(); err != nil {
		if stream.Context().Err() != nil {
			return status.FromContextError(stream.Context().Err()).Err()
		}

		s.logger.Warn("stream worker output",
			zap.String("worker_id", req.WorkerId),
			zap.Error(err),
		)

		return status.Error(codes.DataLoss, "failed to stream output")
	}

	// Readers closed by cancellation drain as a clean EOF; report the
	// cancellation rather than a successful stream.
	if err := stream.Context().Err(); err != nil {
		return status.FromContextError(err).Err()
	}

	return nil
}

// pumpStream copies a reader to the client until EOF. Each chunk is
// copied out of the read buffer because Send retains its argument
// until the frame is written.
func pumpStream(r io.Reader, send func([]byte) error) error {
	buf := make([]byte, streamBufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			if err := send(chunk); err != nil {
				return err
			}
		}

		if err != nil {
			if err == io.EOF {
				return nil
			}

			return err
		}
	}
}

// mapError translates jobmanager errors to gRPC status errors. Unknown
// ids and ownership mismatches collapse into one NotFound on the wire
// so callers can't probe for foreign worker ids; the log keeps them
// distinct.
func (s *Server) mapError(logMsg, identity string, err error) error {
	switch {
	case errors.Is(err, jobmanager.ErrWorkerNotFound),
		errors.Is(err, jobmanager.ErrPermissionDenied):
		s.logger.Warn(logMsg, zap.String("identity", identity), zap.Error(err))
		return status.Error(codes.NotFound, "worker not found or not authorized")

	case errors.Is(err, jobmanager.ErrInvalidArgument):
		s.logger.Warn(logMsg, zap.String("identity", identity), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.As(err, new(jobmanager.InvalidStateError)):
		s.logger.Warn(logMsg, zap.String("identity", identity), zap.Error(err))
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.As(err, new(jobmanager.SpawnError)):
		s.logger.Error(logMsg, zap.String("identity", identity), zap.Error(err))
		return status.Error(codes.Internal, err.Error())

	default:
		s.logger.Error(logMsg, zap.String("identity", identity), zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}

// mapState translates lifecycle states to their wire enum values.
func mapState(state jobmanager.State) apiv1.WorkerState {
	switch state {
	case jobmanager.StateStarting:
		return apiv1.WorkerState_WORKER_STATE_STARTING
	case jobmanager.StateRunning:
		return apiv1.WorkerState_WORKER_STATE_RUNNING
	case jobmanager.StateExited:
		return apiv1.WorkerState_WORKER_STATE_EXITED
	case jobmanager.StateFailed:
		return apiv1.WorkerState_WORKER_STATE_FAILED
	default:
		return apiv1.WorkerState_WORKER_STATE_UNSPECIFIED
	}
}

// contextCheckUnaryInterceptor rejects requests with a cancelled
// context before any work happens.
func contextCheckUnaryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	if ctx.Err() != nil {
		return nil, status.FromContextError(ctx.Err()).Err()
	}

	return handler(ctx, req)
}
