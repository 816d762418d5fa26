package auth

import (
	"fmt"

	"github.com/showcase-api/showcase/internal/shared"
)

// Principal is the resolved identity and privilege level of the caller for a
// single request. It is passed explicitly into service operations and never
// cached across requests.
type Principal struct {
	ID          int64
	Username    string
	IsSuperuser bool
}

// RequireSuperuser allows only privileged principals. A nil principal is
// unauthenticated, an unprivileged one is forbidden.
func RequireSuperuser(p *Principal) error {
	if p == nil {
		return fmt.Errorf("%w: credentials required", shared.ErrUnauthenticated)
	}
	if !p.IsSuperuser {
		return fmt.Errorf("%w: you have not enough permissions", shared.ErrForbidden)
	}
	return nil
}

// RequireSelfOrSuperuser allows privileged principals, or any principal
// acting on its own record.
func RequireSelfOrSuperuser(p *Principal, targetID int64) error {
	if p == nil {
		return fmt.Errorf("%w: credentials required", shared.ErrUnauthenticated)
	}
	if p.IsSuperuser || p.ID == targetID {
		return nil
	}
	return fmt.Errorf("%w: you have not enough permissions", shared.ErrForbidden)
}
