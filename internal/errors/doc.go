// Package errors provides the coded error type shared by every orchestrator
// and repository in aequall-api.
//
// Errors carry a Code (mirroring gRPC status codes), a human-readable
// message, an optional wrapped cause, and optional metadata. The codes map
// onto the failure taxonomy of the game logic:
//
//   - CodeFailedPrecondition: a turn-economy gate rejection (action or move
//     slot already spent, distance over cap) or an insolvent party in a
//     merchant transaction. Non-fatal, surfaced as a user-facing warning.
//   - CodeNotFound: a missing actor, item, combat, or turn-state document.
//   - CodePermissionDenied: a requester acting on an actor it does not own,
//     or a non-authoritative session attempting a privileged mutation.
//   - CodeInternal: unexpected storage or messaging failures. Logged, not
//     retried.
//
// Construct errors with the helpers (NotFound, FailedPrecondition, ...) and
// classify them with the Is* predicates:
//
//	if errors.IsFailedPrecondition(err) {
//		// gate rejection: warn the user, mutate nothing
//	}
//
// Wrap preserves the code of an already-coded cause, so a NotFound from a
// repository stays a NotFound after the orchestrator wraps it with context.
package errors
