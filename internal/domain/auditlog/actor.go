package auditlog

import (
	"context"

	"github.com/clinic/waitlist/internal/platform/auth"
)

// SystemActor is used for entries written without an authenticated caller,
// such as CLI exports.
var SystemActor = Actor{Name: "system", Role: "system"}

// ActorFromContext returns the authenticated caller as an audit actor.
func ActorFromContext(ctx context.Context) Actor {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return SystemActor
	}
	return Actor{Name: id.DisplayName(), Role: id.PrimaryRole()}
}
