package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/zjrosen/gitglance/internal/gateway"
	"github.com/zjrosen/gitglance/internal/log"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the repository to remote gitglance clients over gRPC",
	Long: `Run a host for the repository and accept commands over gRPC.
Clients connect by setting host.mode to grpc and host.address to the
listen address.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default: host.listen)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	h, _, err := openLocalHost(cfg)
	if err != nil {
		return err
	}

	addr := cfg.Host.Listen
	if serveListen != "" {
		addr = serveListen
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on %s\n", repoPath(cfg), lis.Addr())
	return serveHost(ctx, gateway.NewServer(h), lis)
}

// serveHost serves srv on lis until ctx is done, then drains in-flight calls.
func serveHost(ctx context.Context, srv *grpc.Server, lis net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()

	select {
	case <-ctx.Done():
		log.Info(log.CatGateway, "Stopping host server", "addr", lis.Addr().String())
		srv.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	}
}
