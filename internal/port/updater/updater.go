// Package updater defines the port for the remote endpoint that performs field updates.
package updater

import (
	"context"

	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
)

// FieldUpdater sends one field update to the source of truth.
//
// A returned error means the exchange failed at the transport level (network
// error, unexpected status, undecodable body). An application-level refusal
// is reported as a nil error with UpdateResult.Success == false.
type FieldUpdater interface {
	UpdateField(ctx context.Context, req toggle.UpdateRequest, token string) (toggle.UpdateResult, error)
}
