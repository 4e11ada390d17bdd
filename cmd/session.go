package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/zjrosen/gitglance/internal/config"
	"github.com/zjrosen/gitglance/internal/gateway"
	"github.com/zjrosen/gitglance/internal/git/infrastructure"
	"github.com/zjrosen/gitglance/internal/host"
	"github.com/zjrosen/gitglance/internal/log"
	"github.com/zjrosen/gitglance/internal/tracing"
)

// session is a traced connection to a host, local or remote.
type session struct {
	invoker gateway.Invoker
	// gitDir is empty when the repository lives on a remote host.
	gitDir string
	// location is shown to the user: a repository path or host address.
	location string
	closers  []func(context.Context) error
}

// openSession connects to the host selected by c.Host.Mode. Spans from the
// stdout exporter go to traceOut.
func openSession(ctx context.Context, c config.Config, traceOut io.Writer) (*session, error) {
	s := &session{}

	switch c.Host.Mode {
	case config.HostModeGRPC:
		client, err := gateway.Dial(c.Host.Address)
		if err != nil {
			return nil, err
		}
		s.invoker = client
		s.location = "grpc://" + c.Host.Address
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
	default:
		h, gitDir, err := openLocalHost(c)
		if err != nil {
			return nil, err
		}
		s.invoker = gateway.NewLocal(h)
		s.gitDir = gitDir
		s.location = repoPath(c)
	}

	tp, err := tracing.Setup(ctx, c.Tracing, traceOut)
	if err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	s.invoker = gateway.WithTracing(s.invoker, tp)
	s.closers = append(s.closers, tp.Shutdown)

	log.Debug(log.CatGateway, "Session opened", "mode", c.Host.Mode, "location", s.location)
	return s, nil
}

// openLocalHost opens the configured repository and wraps it in a host.
func openLocalHost(c config.Config) (*host.Host, string, error) {
	reader, err := infrastructure.OpenRepository(repoPath(c))
	if err != nil {
		return nil, "", err
	}
	return host.New(reader, host.WithCommitLimit(c.CommitLimit)), reader.GitDir(), nil
}

// Close releases the session in reverse order of acquisition.
func (s *session) Close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			log.ErrorErr(log.CatGateway, "Closing session", err)
		}
	}
	s.closers = nil
}
