// Package access decides who a caller is and what they may do to a
// resource. It is consumed as a library by an HTTP layer and composes four
// pieces: credential extraction, identity-provider verification, local
// identity resolution, and resource-level access decisions.
//
// Identity resolution:
//   - Credentials arrive as a bearer Authorization header or a session
//     cookie; the bearer header wins when both are present. Verified
//     subjects are resolved against the local users table (external id
//     first, then the raw subject as primary key) and unknown subjects
//     fail with ErrIdentityNotLinked rather than a generic error.
//
// Access decisions:
//   - AccessChecker enforces the owner > visibility > contributor order.
//     Access levels form a total order (read < write < admin); a grant at
//     one level clears every lower level. Pending contributors retain the
//     level granted at invite time.
//
// Invitations:
//   - InvitationWorkflow drives the contributor lifecycle (invite, accept,
//     reject, revoke, access-level changes) over conditional store writes,
//     so concurrent invites or duplicate accepts cannot corrupt the
//     contributor table.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the
//     authenticator and the invitation workflow. Sinks run best-effort
//     (errors are logged) so you can forward events to a database or queue
//     without blocking authentication.
package access
