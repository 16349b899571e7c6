// Package errors provides structured error types for the simulation bridge.
//
// Errors are categorized by Phase (where in the native lifecycle the error
// occurred) and Kind (error category). The Error type carries the logical
// slot path, host owner type, native type and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAllocate, errors.KindDependencyNotReady).
//		Path("crate", "components[1]").
//		Owner("scene.BoxShape").
//		Native("shape").
//		Detail("parent body has no native object").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AlreadyAllocated(errors.PhaseAdopt, "body", h)
//	err := errors.DependencyNotReady("shape", 0)
//
// Kind-only sentinels match any phase:
//
//	if errors.Is(err, bridgeerrors.ErrDependencyNotReady) { ... }
//
// Violation separates breaches of the bridge contract (programmer errors)
// from environmental failures that callers are expected to retry.
package errors
