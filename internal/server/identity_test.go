package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	apiv1 "workerd/api/v1"
	"workerd/certs"
	"workerd/internal/jobmanager"
)

func peerContext(t *testing.T, certFile string) context.Context {
	t.Helper()

	data, err := certs.FS.ReadFile(certFile)
	if err != nil {
		t.Fatalf("read cert %s: %v", certFile, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		t.Fatalf("no PEM block in %s", certFile)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert %s: %v", certFile, err)
	}

	return peer.NewContext(context.Background(), &peer.Peer{
		AuthInfo: credentials.TLSInfo{
			State: tls.ConnectionState{
				VerifiedChains: [][]*x509.Certificate{{cert}},
			},
		},
	})
}

func TestPeerIdentity(t *testing.T) {
	t.Parallel()

	t.Run("Test identity from organization", func(t *testing.T) {
		t.Parallel()

		ctx := peerContext(t, "client-alice.crt")

		identity, err := peerIdentity(ctx)
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if identity != "alice" {
			t.Errorf("expected identity: got '%s', want 'alice'", identity)
		}
	})

	t.Run("Test certificate without organization", func(t *testing.T) {
		t.Parallel()

		// The server certificate has a CN but no O.
		ctx := peerContext(t, "server.crt")

		if _, err := peerIdentity(ctx); err == nil {
			t.Error("expected missing organization to return error")
		}
	})

	t.Run("Test context without peer", func(t *testing.T) {
		t.Parallel()

		if _, err := peerIdentity(context.Background()); err == nil {
			t.Error("expected missing peer to return error")
		}
	})

	t.Run("Test context without verified chains", func(t *testing.T) {
		t.Parallel()

		ctx := peer.NewContext(context.Background(), &peer.Peer{
			AuthInfo: credentials.TLSInfo{},
		})

		if _, err := peerIdentity(ctx); err == nil {
			t.Error("expected missing chains to return error")
		}
	})
}

func TestIdentityFromContext(t *testing.T) {
	t.Parallel()

	if _, ok := identityFromContext(context.Background()); ok {
		t.Error("expected no identity in empty context")
	}

	ctx := context.WithValue(context.Background(), identityContextKey{}, "alice")

	identity, ok := identityFromContext(ctx)
	if !ok {
		t.Fatal("expected identity to be present")
	}

	if identity != "alice" {
		t.Errorf("expected identity: got '%s', want 'alice'", identity)
	}
}

func TestMapState(t *testing.T) {
	t.Parallel()

	scenarios := map[jobmanager.State]apiv1.WorkerState{
		jobmanager.StateStarting: apiv1.WorkerState_WORKER_STATE_STARTING,
		jobmanager.StateRunning:  apiv1.WorkerState_WORKER_STATE_RUNNING,
		jobmanager.StateExited:   apiv1.WorkerState_WORKER_STATE_EXITED,
		jobmanager.StateFailed:   apiv1.WorkerState_WORKER_STATE_FAILED,
		jobmanager.StateUnknown:  apiv1.WorkerState_WORKER_STATE_UNSPECIFIED,
	}

	for state, want := range scenarios {
		if got := mapState(state); got != want {
			t.Errorf("expected mapped state for %s: got '%v', want '%v'", state, got, want)
		}
	}
}

func TestMapErrorCollapsesLookupErrors(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	notFound := s.mapError("op", "alice", jobmanager.ErrWorkerNotFound)
	denied := s.mapError("op", "bob", jobmanager.ErrPermissionDenied)

	if status.Code(notFound) != codes.NotFound {
		t.Errorf("expected NotFound: got '%v'", status.Code(notFound))
	}

	if status.Code(denied) != codes.NotFound {
		t.Errorf("expected NotFound for permission denied: got '%v'", status.Code(denied))
	}

	// Both surface the same message so ids can't be probed.
	if status.Convert(notFound).Message() != status.Convert(denied).Message() {
		t.Error("expected identical messages for not-found and denied")
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	r := newRateLimiter(1)

	if !r.allow("alice") {
		t.Error("expected first request to be allowed")
	}

	// Burst of 1: an immediate second request is rejected.
	if r.allow("alice") {
		t.Error("expected second request to be limited")
	}

	// Limits are per identity.
	if !r.allow("bob") {
		t.Error("expected bob's first request to be allowed")
	}
}
