package autodiff

import (
	"io"
	"log"
	"os"
)

// DefaultPreventLargeFusedOp is the default ceiling on the number of
// additions folded into one running gradient sum along a single-output
// accumulation chain before the sum is flagged stop-fuse (spec §4.6).
const DefaultPreventLargeFusedOp = 16

type config struct {
	preventLargeFusedOp int
	logger              *log.Logger
}

func newConfig(opts []Option) *config {
	c := &config{
		preventLargeFusedOp: DefaultPreventLargeFusedOp,
		logger:              log.New(os.Stderr, "autodiff: ", log.LstdFlags),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Option configures an Engine.
type Option func(*config)

// WithPreventLargeFusedOp overrides the fuse-guard threshold. A value of
// 0 or less disables the guard entirely.
func WithPreventLargeFusedOp(n int) Option {
	return func(c *config) { c.preventLargeFusedOp = n }
}

// WithLogger overrides the engine's warning logger, used to report
// targets left without a gradient (spec §7's non-fatal "missing
// gradient" case).
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOutput is a convenience over WithLogger, keeping the engine's
// "autodiff: " prefix and flags but redirecting where it writes.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.logger = log.New(w, "autodiff: ", log.LstdFlags) }
}
