package access

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// IdentityResolver maps a verified subject identifier to a local user
// record. Both lookup strategies run in order: the explicit external-id
// column first, then the raw subject as primary key.
type IdentityResolver struct {
	users  Users
	logger Logger
}

// NewIdentityResolver returns a resolver backed by the users repository.
func NewIdentityResolver(users Users) *IdentityResolver {
	return &IdentityResolver{
		users:  users,
		logger: defLogger{},
	}
}

func (r *IdentityResolver) WithLogger(logger Logger) *IdentityResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Resolve returns the local user for a verified subject, failing with
// ErrIdentityNotLinked when no row matches under either strategy.
func (r *IdentityResolver) Resolve(ctx context.Context, subject string) (*User, error) {
	if subject == "" {
		return nil, ErrIdentityNotLinked.WithMetadata(map[string]any{
			"reason": "empty subject",
		})
	}

	user, err := r.users.GetByExternalID(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve identity by external id")
	}

	user, err = r.users.GetByID(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve identity by id")
	}

	r.logger.Debug("no local user for subject %s", subject)

	return nil, ErrIdentityNotLinked.WithMetadata(map[string]any{
		"subject": subject,
	})
}
