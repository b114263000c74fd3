package access

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// InvitationState is the lifecycle position of a (user, resource) grant.
// NONE means no row; PENDING a row created by invite; ACCEPTED a row the
// invitee confirmed. Rejection and revocation delete the row, returning
// the pair to NONE.
type InvitationState string

const (
	InvitationStateNone     InvitationState = "none"
	InvitationStatePending  InvitationState = "pending"
	InvitationStateAccepted InvitationState = "accepted"
)

// InviteRequest carries the parameters of an invite transition. Level
// defaults to read when empty.
type InviteRequest struct {
	ResourceID string
	Email      string
	Level      AccessLevel
}

// InvitationOption customizes workflow construction.
type InvitationOption func(*InvitationWorkflow)

// WithInvitationClock injects a custom clock (useful for tests).
func WithInvitationClock(clock func() time.Time) InvitationOption {
	return func(w *InvitationWorkflow) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithInvitationActivitySink sets the sink used to publish invite events.
func WithInvitationActivitySink(sink ActivitySink) InvitationOption {
	return func(w *InvitationWorkflow) {
		w.activitySink = normalizeActivitySink(sink)
	}
}

// WithInvitationLogger overrides the logger used for sink failures.
func WithInvitationLogger(logger Logger) InvitationOption {
	return func(w *InvitationWorkflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// InvitationWorkflow drives the contributor grant lifecycle. Admin
// preconditions (invite, revoke, access-level changes require the caller
// to hold admin on the resource) are enforced by the guards that front
// these transitions, not re-checked here. All mutating transitions go
// through conditional store writes so concurrent invites or duplicate
// accepts cannot produce two rows or corrupt state.
type InvitationWorkflow struct {
	users        Users
	contributors Contributors
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

// NewInvitationWorkflow returns the default implementation backed by the
// provided repositories.
func NewInvitationWorkflow(users Users, contributors Contributors, opts ...InvitationOption) *InvitationWorkflow {
	w := &InvitationWorkflow{
		users:        users,
		contributors: contributors,
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	return w
}

// Invite creates a pending contributor row for the user registered under
// req.Email. The sender must not invite themselves; an existing pending
// row fails with ErrAlreadyInvited, an accepted one with ErrAlreadyMember,
// and an unregistered email with ErrUnknownInvitee.
func (w *InvitationWorkflow) Invite(ctx context.Context, sender *User, req InviteRequest) (*Contributor, error) {
	if sender == nil {
		return nil, ErrNotAuthorized
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, ErrUnknownInvitee
	}
	if email == sender.Email {
		return nil, ErrSelfInvite
	}

	level := req.Level
	if level == "" {
		level = AccessLevelRead
	}
	if !level.IsValid() {
		return nil, ErrInvalidAccessLevel
	}

	existing, err := w.contributors.FindByEmail(ctx, email, req.ResourceID)
	if err == nil {
		return nil, w.conflictFor(existing)
	}
	if !repository.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check existing invitation")
	}

	invitee, err := w.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			w.logger.Info("invite for unregistered email on resource %s", req.ResourceID)
			return nil, ErrUnknownInvitee
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up invitee")
	}

	invitedAt := w.now()
	contributor := &Contributor{
		ID:          w.contributorID(invitee.ID, req.ResourceID),
		UserID:      invitee.ID,
		Username:    invitee.Username,
		Email:       invitee.Email,
		ResourceID:  req.ResourceID,
		AccessLevel: level,
		InvitedBy:   sender.ID,
		InvitedAt:   &invitedAt,
		Pending:     true,
	}

	created, err := w.contributors.CreatePending(ctx, contributor)
	if err != nil {
		if hasTextCode(err, TextCodeContributorConflict) {
			// lost a race with a concurrent invite; classify from the row that won
			if existing, ferr := w.contributors.Find(ctx, invitee.ID, req.ResourceID); ferr == nil {
				return nil, w.conflictFor(existing)
			}
			return nil, ErrAlreadyInvited
		}
		return nil, err
	}

	w.logger.Info("contributor invited: %s", created.ID)
	w.emit(ctx, ActivityEvent{
		EventType:  ActivityEventInviteSent,
		Actor:      ActorRef{ID: sender.ID, Type: "user"},
		UserID:     invitee.ID,
		ResourceID: req.ResourceID,
		Metadata: map[string]any{
			"access_level": string(level),
		},
	})

	return created, nil
}

// Accept confirms a pending invitation for the calling user. Accepting
// again after the flag flipped fails with ErrNoPendingInvite; that is an
// observable contract, not an implementation detail. The denormalized
// username is refreshed from the accepting user.
func (w *InvitationWorkflow) Accept(ctx context.Context, user *User, resourceID string) (*Contributor, error) {
	if user == nil {
		return nil, ErrNotAuthorized
	}

	contributor, err := w.contributors.AcceptPending(ctx, user.ID, resourceID, user.Username, w.now())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrNoPendingInvite
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to accept invitation")
	}

	w.logger.Info("contributor accepted invite: %s with access level %s, invited by %s",
		contributor.Email, contributor.AccessLevel, contributor.InvitedBy)
	w.emit(ctx, ActivityEvent{
		EventType:  ActivityEventInviteAccepted,
		Actor:      ActorRef{ID: user.ID, Type: "user"},
		UserID:     user.ID,
		ResourceID: resourceID,
		Metadata: map[string]any{
			"access_level": string(contributor.AccessLevel),
		},
	})

	return contributor, nil
}

// Reject deletes the caller's contributor row, pending or accepted,
// returning the pair to NONE. Fails with ErrNoPendingInvite when no row
// exists.
func (w *InvitationWorkflow) Reject(ctx context.Context, user *User, resourceID string) error {
	if user == nil {
		return ErrNotAuthorized
	}

	if err := w.contributors.DeleteByUserResource(ctx, user.ID, resourceID); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrNoPendingInvite
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to reject invitation")
	}

	w.emit(ctx, ActivityEvent{
		EventType:  ActivityEventInviteRejected,
		Actor:      ActorRef{ID: user.ID, Type: "user"},
		UserID:     user.ID,
		ResourceID: resourceID,
	})

	return nil
}

// Revoke deletes a contributor row regardless of pending state. Fails
// with ErrContributorNotFound when the row does not exist.
func (w *InvitationWorkflow) Revoke(ctx context.Context, actor *User, resourceID string, contributorID uuid.UUID) error {
	contributor, err := w.contributors.FindByID(ctx, contributorID, resourceID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrContributorNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to load contributor for revocation")
	}

	if err := w.contributors.Delete(ctx, contributorID, resourceID); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrContributorNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke contributor")
	}

	w.logger.Info("contributor revoked: %s with access level %s, invited by %s",
		contributor.Email, contributor.AccessLevel, contributor.InvitedBy)
	w.emit(ctx, ActivityEvent{
		EventType:  ActivityEventInviteRevoked,
		Actor:      actorRefFor(actor),
		UserID:     contributor.UserID,
		ResourceID: resourceID,
		Metadata: map[string]any{
			"was_pending": contributor.Pending,
		},
	})

	return nil
}

// ChangeAccessLevel sets a contributor's level in place without touching
// the pending flag or acceptance timestamp.
func (w *InvitationWorkflow) ChangeAccessLevel(ctx context.Context, actor *User, resourceID string, contributorID uuid.UUID, level AccessLevel) (*Contributor, error) {
	if !level.IsValid() {
		return nil, ErrInvalidAccessLevel
	}

	contributor, err := w.contributors.UpdateAccessLevel(ctx, contributorID, resourceID, level)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrContributorNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to change access level")
	}

	w.emit(ctx, ActivityEvent{
		EventType:  ActivityEventAccessLevelChanged,
		Actor:      actorRefFor(actor),
		UserID:     contributor.UserID,
		ResourceID: resourceID,
		Metadata: map[string]any{
			"access_level": string(level),
		},
	})

	return contributor, nil
}

// StateFor reports the lifecycle position of a (user, resource) pair.
func (w *InvitationWorkflow) StateFor(ctx context.Context, userID, resourceID string) (InvitationState, error) {
	contributor, err := w.contributors.Find(ctx, userID, resourceID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return InvitationStateNone, nil
		}
		return InvitationStateNone, errors.Wrap(err, errors.CategoryInternal, "failed to load invitation state")
	}

	if contributor.Pending {
		return InvitationStatePending, nil
	}
	return InvitationStateAccepted, nil
}

func (w *InvitationWorkflow) conflictFor(existing *Contributor) error {
	if existing.Pending {
		return ErrAlreadyInvited
	}
	return ErrAlreadyMember
}

// contributorID derives a stable row id from the (user, resource) pair so
// retried invites target the same row the conditional insert guards.
func (w *InvitationWorkflow) contributorID(userID, resourceID string) uuid.UUID {
	if id, err := hashid.NewUUID(fmt.Sprintf("%s:%s", userID, resourceID)); err == nil {
		return id
	}
	return uuid.New()
}

func (w *InvitationWorkflow) emit(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = w.now()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	sink := normalizeActivitySink(w.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		w.logger.Warn("invitation activity sink error: %v", err)
	}
}

func actorRefFor(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "system"}
	}
	return ActorRef{ID: user.ID, Type: "user"}
}
