package visitor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/core/ports"
	"github.com/sortify/conveyor-dashboard/internal/core/service"
	"github.com/sortify/conveyor-dashboard/internal/infrastructure/backend"
)

// BackendFactory wires a backend client and session controller for each
// new visitor and runs the controller's startup probe.
func BackendFactory(
	dir *backend.Directory,
	auth *backend.Auth,
	tokens ports.TokenStorage,
	scheduler ports.TaskScheduler,
	log zerolog.Logger,
) Factory {
	return func(ctx context.Context, id string) (*Visitor, error) {
		client := backend.NewClient(dir, auth, tokens, id, log)
		inbox := service.NewNotificationQueue()
		ctrl := service.NewSessionController(client, scheduler, inbox, log, id)
		ctrl.Start(ctx)
		return New(id, ctrl, inbox, ctrl.Close), nil
	}
}
