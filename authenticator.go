package access

import (
	"context"
	"time"
)

// Authenticator composes credential extraction, identity-provider
// verification, and local identity resolution into the single entry point
// the guards build on. There are exactly two authentication methods,
// bearer then cookie, tried in order and never combined.
type Authenticator struct {
	extractor    *TokenExtractor
	verifier     IdentityVerifier
	resolver     *IdentityResolver
	logger       Logger
	activitySink ActivitySink
}

// NewAuthenticator returns a new Authenticator over the given verifier and
// users repository.
func NewAuthenticator(verifier IdentityVerifier, users Users) *Authenticator {
	return &Authenticator{
		extractor:    NewTokenExtractor(),
		verifier:     verifier,
		resolver:     NewIdentityResolver(users),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
		a.resolver.WithLogger(logger)
	}
	return a
}

// WithTokenExtractor overrides the credential extractor.
func (a *Authenticator) WithTokenExtractor(extractor *TokenExtractor) *Authenticator {
	if extractor != nil {
		a.extractor = extractor
	}
	return a
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (a *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	a.activitySink = normalizeActivitySink(sink)
	return a
}

// Authenticate resolves a caller from the raw Authorization header and
// session cookie values. A request presenting both uses only the bearer
// result.
func (a *Authenticator) Authenticate(ctx context.Context, authorization, sessionToken string) (*User, error) {
	cred, err := a.extractor.Extract(authorization, sessionToken)
	if err != nil {
		a.emitAuthFailure(ctx, "", err)
		return nil, err
	}

	if cred == nil {
		return nil, ErrNoCredential
	}

	providerUser, err := a.verifyCredential(ctx, cred)
	if err != nil {
		a.emitAuthFailure(ctx, string(cred.Source), err)
		return nil, err
	}

	subject := providerUser.SubjectID
	if providerUser.ExternalID != "" {
		subject = providerUser.ExternalID
	}

	user, err := a.resolver.Resolve(ctx, subject)
	if err != nil {
		a.emitAuthFailure(ctx, string(cred.Source), err)
		return nil, err
	}

	a.logger.Info("authenticated user %s via %s", user.ID, cred.Source)
	a.emitAuthEvent(ctx, ActivityEventAuthSuccess, user.ID, map[string]any{
		"source": string(cred.Source),
	})

	return user, nil
}

// OptionalAuthenticate behaves like Authenticate but converts
// unauthenticated-class failures into an anonymous (nil, nil) result while
// still propagating provider and server errors.
func (a *Authenticator) OptionalAuthenticate(ctx context.Context, authorization, sessionToken string) (*User, error) {
	user, err := a.Authenticate(ctx, authorization, sessionToken)
	if err != nil {
		if IsUnauthenticated(err) {
			a.logger.Debug("optional authentication failed, proceeding anonymous: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// RevokeSession invalidates a session token at the identity provider.
func (a *Authenticator) RevokeSession(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return ErrNoCredential
	}

	if err := a.verifier.RevokeSession(ctx, sessionToken); err != nil {
		return wrapProviderError(err)
	}

	a.emitAuthEvent(ctx, ActivityEventSessionRevoked, "", nil)
	return nil
}

// verifyCredential runs the provider round trips for one credential. The
// bearer path introspects the token, then fetches the provider user record
// for corroboration; the cookie path verifies the session, which returns
// the user inline.
func (a *Authenticator) verifyCredential(ctx context.Context, cred *Credential) (*ProviderUser, error) {
	switch cred.Source {
	case CredentialSourceBearer:
		subject, err := a.verifier.IntrospectAccessToken(ctx, cred.Token)
		if err != nil {
			a.logger.Warn("identity provider rejected bearer token: %v", err)
			return nil, wrapProviderError(err)
		}

		providerUser, err := a.verifier.GetUser(ctx, subject)
		if err != nil {
			a.logger.Warn("identity provider user lookup failed: %v", err)
			return nil, wrapProviderError(err)
		}
		if providerUser == nil {
			return nil, ErrProviderUserMissing
		}

		return providerUser, nil
	default:
		providerUser, err := a.verifier.AuthenticateSession(ctx, cred.Token)
		if err != nil {
			a.logger.Warn("identity provider rejected session token: %v", err)
			return nil, wrapProviderError(err)
		}
		if providerUser == nil {
			return nil, ErrProviderUserMissing
		}

		return providerUser, nil
	}
}

func (a *Authenticator) emitAuthFailure(ctx context.Context, source string, err error) {
	metadata := map[string]any{"error": err.Error()}
	if source != "" {
		metadata["source"] = source
	}
	a.emitAuthEvent(ctx, ActivityEventAuthFailure, "", metadata)
}

func (a *Authenticator) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(a.activitySink)

	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: userID, Type: "user"},
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}
	if userID == "" {
		event.Actor = ActorRef{Type: "unknown"}
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error: %v", err)
	}
}
