package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	apiv1 "workerd/api/v1"
	"workerd/internal/tlsconfig"
)

// TODO: Inject version at build time.
const version = "0.1.0"

type clientConfig struct {
	host        string
	certPath    string
	certKeyPath string
	caCertPath  string
}

type cli struct {
	client apiv1.WorkerServiceClient
	conn   *grpc.ClientConn
}

func newCLI() *cli {
	return &cli{}
}

func (c *cli) rootCmd() *cobra.Command {
	cfg := &clientConfig{}

	command := &cobra.Command{
		Use:           "workerctl",
		Short:         "CLI for interacting with a workerd server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hostname, _, err := net.SplitHostPort(cfg.host)
			if err != nil {
				return fmt.Errorf("invalid host %q: %w", cfg.host, err)
			}

			tlsConfig, err := tlsconfig.Setup(&tlsconfig.Config{
				CertPath:   cfg.certPath,
				KeyPath:    cfg.certKeyPath,
				CACertPath: cfg.caCertPath,
				ServerName: hostname,
			})
			if err != nil {
				return err
			}

			c.conn, err = grpc.NewClient(
				cfg.host,
				grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)),
			)
			if err != nil {
				return err
			}

			c.client = apiv1.NewWorkerServiceClient(c.conn)

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.conn == nil {
				return nil
			}

			// Connection needs to remain open for duration of any child
			// commands.
			return c.conn.Close()
		},
	}

	command.AddCommand(
		c.startCmd(),
		c.stopCmd(),
		c.getStatusCmd(),
		c.streamOutputCmd(),
	)

	command.CompletionOptions.HiddenDefaultCmd = true

	command.PersistentFlags().StringVar(
		&cfg.host,
		"host",
		"localhost:8443",
		"Server host:port",
	)

	command.PersistentFlags().StringVar(
		&cfg.certPath,
		"cert-path",
		"certs/client.crt",
		"Path to client TLS certificate",
	)

	command.PersistentFlags().StringVar(
		&cfg.certKeyPath,
		"cert-key-path",
		"certs/client.key",
		"Path to client TLS private key",
	)

	command.PersistentFlags().StringVar(
		&cfg.caCertPath,
		"ca-cert-path",
		"certs/ca.crt",
		"Path to CA certificate for mTLS",
	)

	return command
}

func (c *cli) startCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "start [flags] -- COMMAND [ARGS...]",
		Short:   "Start a new worker",
		Example: "  workerctl start -- sh -c 'echo hello'",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.client.Start(
				cmd.Context(),
				&apiv1.StartRequest{Command: args},
			)
			if err != nil {
				return mapError(err)
			}

			return emitJSON(cmd, map[string]string{"workerId": resp.WorkerId})
		},
	}

	// Stop parsing flags after the first positional so flags belonging
	// to the worker command pass through untouched, e.g. `-f` belongs to
	// `tail` in: workerctl start -- tail -f server.log
	command.Flags().SetInterspersed(false)

	return command
}

func (c *cli) stopCmd() *cobra.Command {
	var workerID string

	command := &cobra.Command{
		Use:     "stop [flags]",
		Short:   "Stop a running worker",
		Example: "  workerctl stop --worker-id 9302033c-f8f7-4b6e-9363-a7aa201cce1b",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.client.Stop(
				cmd.Context(),
				&apiv1.StopRequest{WorkerId: workerID},
			); err != nil {
				return mapError(err)
			}

			return emitJSON(cmd, map[string]bool{"stopped": true})
		},
	}

	command.Flags().StringVar(&workerID, "worker-id", "", "Worker id")
	command.MarkFlagRequired("worker-id")

	return command
}

// statusOutput shapes the get-status JSON: exitCode appears only when
// the command actually exited, pid only once known.
type statusOutput struct {
	State         string `json:"state"`
	Done          bool   `json:"done"`
	ExitCode      *int32 `json:"exitCode,omitempty"`
	PID           *int32 `json:"pid,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

func (c *cli) getStatusCmd() *cobra.Command {
	var workerID string

	command := &cobra.Command{
		Use:     "get-status [flags]",
		Short:   "Query the status of a worker",
		Example: "  workerctl get-status --worker-id 9302033c-f8f7-4b6e-9363-a7aa201cce1b",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.client.GetStatus(
				cmd.Context(),
				&apiv1.GetStatusRequest{WorkerId: workerID},
			)
			if err != nil {
				return mapError(err)
			}

			out := statusOutput{
				State:         mapState(resp.State),
				Done:          resp.Done,
				FailureReason: resp.FailureReason,
			}

			if resp.Exited {
				out.ExitCode = &resp.ExitCode
			}

			if resp.Pid > 0 {
				out.PID = &resp.Pid
			}

			return emitJSON(cmd, out)
		},
	}

	command.Flags().StringVar(&workerID, "worker-id", "", "Worker id")
	command.MarkFlagRequired("worker-id")

	return command
}

func (c *cli) streamOutputCmd() *cobra.Command {
	var workerID string

	command := &cobra.Command{
		Use:     "stream-output [flags]",
		Short:   "Stream worker output from the beginning, one JSON object per line",
		Example: "  workerctl stream-output --worker-id 9302033c-f8f7-4b6e-9363-a7aa201cce1b",
		RunE: func(cmd *cobra.Command, args []string) error {
			stream, err := c.client.StreamOutput(
				cmd.Context(),
				&apiv1.StreamOutputRequest{WorkerId: workerID},
			)
			if err != nil {
				return mapError(err)
			}

			for {
				resp, err := stream.Recv()
				if err != nil {
					if err == io.EOF {
						break
					}

					// Interrupt cancels the command context; end cleanly.
					if status.Code(err) == codes.Canceled {
						break
					}

					return mapError(err)
				}

				line := map[string]string{}
				if len(resp.StdoutChunk) > 0 {
					line["stdout"] = string(resp.StdoutChunk)
				}
				if len(resp.StderrChunk) > 0 {
					line["stderr"] = string(resp.StderrChunk)
				}

				if len(line) == 0 {
					continue
				}

				if err := emitJSON(cmd, line); err != nil {
					return err
				}
			}

			return nil
		},
	}

	command.Flags().StringVar(&workerID, "worker-id", "", "Worker id")
	command.MarkFlagRequired("worker-id")

	return command
}

func emitJSON(cmd *cobra.Command, v any) error {
	return json.NewEncoder(cmd.OutOrStdout()).Encode(v)
}

// mapError translates gRPC errors to human-readable messages.
func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return errors.New("worker not found or not authorized")
	case codes.Unauthenticated:
		return errors.New("not authenticated")
	case codes.InvalidArgument:
		return fmt.Errorf("%s", st.Message())
	case codes.ResourceExhausted:
		return errors.New("rate limit exceeded")
	case codes.Unavailable:
		return errors.New("server unavailable")
	default:
		return fmt.Errorf("%s", st.Message())
	}
}

// mapState translates wire enum values to human-readable strings.
func mapState(state apiv1.WorkerState) string {
	switch state {
	case apiv1.WorkerState_WORKER_STATE_STARTING:
		return "Starting"
	case apiv1.WorkerState_WORKER_STATE_RUNNING:
		return "Running"
	case apiv1.WorkerState_WORKER_STATE_EXITED:
		return "Exited"
	case apiv1.WorkerState_WORKER_STATE_FAILED:
		return "Failed"
	default:
		return "Unknown"
	}
}
