package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/carthorse/carthorse/internal/config"
	"github.com/carthorse/carthorse/internal/store"
)

// Context bundles the run-wide state a Stage needs: the run's Config, the
// Workspace it reads from and writes to, and a logger scoped to the run.
// The stage's context.Context (carrying its deadline) is passed to
// Stage.Run as a separate argument. Context is passed explicitly through
// every call; nothing here is ever stored in a package-level variable.
type Context struct {
	Config    config.Config
	Workspace store.Workspace
	Log       *zap.Logger
}

// WithStageDeadline derives a child context bounded by the given deadline,
// if one is configured for the stage; a zero duration means no deadline.
func WithStageDeadline(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
