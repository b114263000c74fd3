package access

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// AccessChecker decides whether a (possibly anonymous) user may perform an
// operation at a required level on a resource. The decision order is
// fixed: resource existence, owner bypass, public read, contributor grant.
// Reordering changes observable behavior and is not permitted.
type AccessChecker struct {
	resources    Resources
	contributors Contributors
	logger       Logger
}

// NewAccessChecker returns a checker over the resource and contributor
// repositories.
func NewAccessChecker(resources Resources, contributors Contributors) *AccessChecker {
	return &AccessChecker{
		resources:    resources,
		contributors: contributors,
		logger:       defLogger{},
	}
}

func (c *AccessChecker) WithLogger(logger Logger) *AccessChecker {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// CheckAccess returns nil when user may act on the resource at the
// required level, a level-specific authz denial when not, and
// ErrResourceNotFound when the target does not exist. A nil user is an
// anonymous caller. Pending contributors count: the level is granted at
// invite time, acceptance only flips the pending flag.
func (c *AccessChecker) CheckAccess(ctx context.Context, user *User, resourceID string, required AccessLevel) error {
	if !required.IsValid() {
		return ErrInvalidAccessLevel
	}

	resource, err := c.resources.GetByID(ctx, resourceID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrResourceNotFound.WithMetadata(map[string]any{
				"resource_id": resourceID,
			})
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to load resource for access check")
	}

	// owner bypasses every further check, at every level
	if user != nil && resource.IsOwnedBy(user.ID) {
		return nil
	}

	// public resources grant read to everyone, anonymous included
	if required == AccessLevelRead && resource.IsPublic() {
		return nil
	}

	if user == nil {
		return ErrNotAuthorized
	}

	contributor, err := c.contributors.Find(ctx, user.ID, resourceID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrNotAuthorized
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to load contributor for access check").
			WithMetadata(map[string]any{
				"user_id":     user.ID,
				"resource_id": resourceID,
			})
	}

	if contributor.AccessLevel.Satisfies(required) {
		return nil
	}

	c.logger.Debug("denied %s on %s for user %s: holds %s", required, resourceID, user.ID, contributor.AccessLevel)

	return denialFor(required)
}

// AuthorizationStatus summarizes a caller's relationship to a resource.
type AuthorizationStatus string

const (
	AuthorizationNone        AuthorizationStatus = "none"
	AuthorizationOwner       AuthorizationStatus = "owner"
	AuthorizationInvited     AuthorizationStatus = "invite"
	AuthorizationContributor AuthorizationStatus = "contributor"
)

// Authorization reports how user relates to a resource: owner, accepted
// contributor, pending invitee, or nothing. The contributor row is
// returned for the two contributor states.
func (c *AccessChecker) Authorization(ctx context.Context, user *User, resourceID string) (AuthorizationStatus, *Contributor, error) {
	if user == nil {
		return AuthorizationNone, nil, nil
	}

	resource, err := c.resources.GetByID(ctx, resourceID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return AuthorizationNone, nil, ErrResourceNotFound.WithMetadata(map[string]any{
				"resource_id": resourceID,
			})
		}
		return AuthorizationNone, nil, errors.Wrap(err, errors.CategoryInternal, "failed to load resource for authorization status")
	}

	if resource.IsOwnedBy(user.ID) {
		return AuthorizationOwner, nil, nil
	}

	contributor, err := c.contributors.Find(ctx, user.ID, resourceID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return AuthorizationNone, nil, nil
		}
		return AuthorizationNone, nil, errors.Wrap(err, errors.CategoryInternal, "failed to load contributor for authorization status")
	}

	if contributor.Pending {
		return AuthorizationInvited, contributor, nil
	}

	return AuthorizationContributor, contributor, nil
}
