package pipeline

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"
)

// Supervisor keeps the tick worker subprocess alive. Any exit, clean or not,
// schedules a respawn after the backoff; the supervising service itself
// survives worker death. Extra env entries are appended to the inherited
// environment so the worker sees the broker endpoints from the yaml config.
type Supervisor struct {
	bin     string
	backoff time.Duration
	env     []string
}

func NewSupervisor(bin string, backoff time.Duration, env ...string) *Supervisor {
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	return &Supervisor{bin: bin, backoff: backoff, env: env}
}

func (s *Supervisor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cmd := exec.CommandContext(ctx, s.bin)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Env = append(os.Environ(), s.env...)

		logger.Info("supervisor: starting tick worker %s", s.bin)
		err := cmd.Run()
		if ctx.Err() != nil {
			return
		}
		logger.Error("supervisor: tick worker exited: %v, restart in %s", err, s.backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.backoff):
		}
	}
}
