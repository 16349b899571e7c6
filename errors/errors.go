package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the native object lifecycle the error occurred
type Phase string

const (
	PhaseAllocate Phase = "allocate" // native creation
	PhaseRelease  Phase = "release"  // native release
	PhaseAdopt    Phase = "adopt"    // handle adoption by an empty barrier
	PhaseAccess   Phase = "access"   // typed accessor forwarding
	PhaseCapture  Phase = "capture"  // snapshot capture before destruction
	PhaseRestore  Phase = "restore"  // snapshot application after construction
	PhasePromote  Phase = "promote"  // template to instance promotion
	PhaseTeardown Phase = "teardown" // session end
	PhaseStep     Phase = "step"     // simulation step
	PhaseLoad     Phase = "load"     // scene and asset loading
	PhaseConfig   Phase = "config"   // configuration
	PhaseStore    Phase = "store"    // asset persistence
)

// Kind categorizes the error
type Kind string

const (
	KindAlreadyAllocated       Kind = "already_allocated"
	KindNotAllocated           Kind = "not_allocated"
	KindDependencyNotReady     Kind = "dependency_not_ready"
	KindAllocation             Kind = "allocation"
	KindInvalidHandle          Kind = "invalid_handle"
	KindReconstructionInFlight Kind = "reconstruction_in_flight"
	KindIncompatibleOwner      Kind = "incompatible_owner"
	KindSlotConflict           Kind = "slot_conflict"
	KindSlotUnresolved         Kind = "slot_unresolved"
	KindUnbound                Kind = "unbound"
	KindNoSession              Kind = "no_session"
	KindNotFound               Kind = "not_found"
	KindNotInitialized         Kind = "not_initialized"
	KindInvalidInput           Kind = "invalid_input"
	KindInvalidData            Kind = "invalid_data"
	KindUnsupported            Kind = "unsupported"
)

// Kind-only sentinels for use with errors.Is. A sentinel with an empty
// Phase matches an error of the same Kind raised in any phase.
var (
	ErrAlreadyAllocated       = &Error{Kind: KindAlreadyAllocated}
	ErrNotAllocated           = &Error{Kind: KindNotAllocated}
	ErrDependencyNotReady     = &Error{Kind: KindDependencyNotReady}
	ErrAllocation             = &Error{Kind: KindAllocation}
	ErrInvalidHandle          = &Error{Kind: KindInvalidHandle}
	ErrReconstructionInFlight = &Error{Kind: KindReconstructionInFlight}
	ErrIncompatibleOwner      = &Error{Kind: KindIncompatibleOwner}
	ErrSlotConflict           = &Error{Kind: KindSlotConflict}
	ErrSlotUnresolved         = &Error{Kind: KindSlotUnresolved}
	ErrNoSession              = &Error{Kind: KindNoSession}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrNotInitialized         = &Error{Kind: KindNotInitialized}
	ErrInvalidData            = &Error{Kind: KindInvalidData}
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Owner  string
	Native string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "/"))
	}

	if e.Owner != "" || e.Native != "" {
		b.WriteString(": ")
		if e.Owner != "" && e.Native != "" {
			b.WriteString("owner ")
			b.WriteString(e.Owner)
			b.WriteString(", native ")
			b.WriteString(e.Native)
		} else if e.Owner != "" {
			b.WriteString("owner ")
			b.WriteString(e.Owner)
		} else {
			b.WriteString("native ")
			b.WriteString(e.Native)
		}
	}

	if e.Detail != "" {
		if e.Owner != "" || e.Native != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Violation reports whether the error is a breach of the bridge's own
// invariants by calling code, as opposed to an environmental failure.
func (e *Error) Violation() bool {
	switch e.Kind {
	case KindAlreadyAllocated, KindNotAllocated, KindReconstructionInFlight, KindInvalidHandle, KindUnbound:
		return true
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the logical slot path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Owner sets the host owner type name
func (b *Builder) Owner(t string) *Builder {
	b.err.Owner = t
	return b
}

// Native sets the native object type name
func (b *Builder) Native(t string) *Builder {
	b.err.Native = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// AlreadyAllocated creates an error for allocating or adopting into a
// barrier that already holds a handle
func AlreadyAllocated(phase Phase, native string, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAlreadyAllocated,
		Native: native,
		Value:  handle,
		Detail: fmt.Sprintf("barrier already holds %v", handle),
	}
}

// NotAllocated creates an error for operating on an empty barrier
func NotAllocated(phase Phase, native string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotAllocated,
		Native: native,
		Detail: "barrier holds no native object",
	}
}

// DependencyNotReady creates an error for a collaborator barrier that has
// not been allocated yet
func DependencyNotReady(native string, index int) *Error {
	return &Error{
		Phase:  PhaseAllocate,
		Kind:   KindDependencyNotReady,
		Native: native,
		Value:  index,
		Detail: fmt.Sprintf("dependency %d has no native object", index),
	}
}

// AllocationFailed creates an error for the engine rejecting a creation
func AllocationFailed(native string, cause error) *Error {
	return &Error{
		Phase:  PhaseAllocate,
		Kind:   KindAllocation,
		Native: native,
		Detail: "native creation failed",
		Cause:  cause,
	}
}

// InvalidHandle creates an error for a handle the engine does not recognise
func InvalidHandle(phase Phase, native string, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Native: native,
		Value:  handle,
		Detail: fmt.Sprintf("handle %v is not a live %s", handle, native),
	}
}

// ReconstructionInFlight creates an error for touching a barrier whose owner
// is waiting for its snapshot
func ReconstructionInFlight(phase Phase, path []string, owner string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReconstructionInFlight,
		Path:   path,
		Owner:  owner,
		Detail: "owner is awaiting snapshot restore",
	}
}

// IncompatibleOwner creates an error for a replacement object that cannot
// be viewed as the snapshot's owner type
func IncompatibleOwner(path []string, want string, got any) *Error {
	return &Error{
		Phase:  PhaseRestore,
		Kind:   KindIncompatibleOwner,
		Path:   path,
		Owner:  want,
		Value:  got,
		Detail: fmt.Sprintf("replacement %T is not a %s", got, want),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates a loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Store creates an asset persistence error
func Store(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseStore,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Join combines errors into one, discarding nils.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// SlotConflict creates an error for a slot claimed by more than one owner
// during a single reconstruction
func SlotConflict(phase Phase, slot string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSlotConflict,
		Path:   []string{slot},
		Detail: detail,
	}
}

// SlotUnresolved creates an error for a snapshot no replacement consumed
func SlotUnresolved(slot string, owner string, handle any) *Error {
	return &Error{
		Phase:  PhaseRestore,
		Kind:   KindSlotUnresolved,
		Path:   []string{slot},
		Owner:  owner,
		Value:  handle,
		Detail: "no replacement restored this slot",
	}
}
