package bridge

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/errors"
)

var (
	strict        atomic.Bool
	violationHook atomic.Pointer[func(*errors.Error)]
)

func init() {
	strict.Store(strictDefault)
}

// Strict reports whether contract violations panic.
func Strict() bool {
	return strict.Load()
}

// SetStrict overrides the build default. In strict mode a contract violation
// panics; otherwise it is logged, the operation is skipped and the error is
// returned.
func SetStrict(v bool) {
	strict.Store(v)
}

// OnViolation installs fn to be called for every violation before the
// strict-mode panic. A nil fn removes the hook.
func OnViolation(fn func(*errors.Error)) {
	if fn == nil {
		violationHook.Store(nil)
		return
	}
	violationHook.Store(&fn)
}

// Violation reports a breach of the bridge contract by calling code.
func Violation(err *errors.Error) error {
	Logger().Error("contract violation",
		zap.String("phase", string(err.Phase)),
		zap.String("kind", string(err.Kind)),
		zap.Error(err),
	)
	if fn := violationHook.Load(); fn != nil {
		(*fn)(err)
	}
	if strict.Load() {
		panic(err)
	}
	return err
}

// Environmental reports a recoverable failure. The caller stays unallocated
// and may retry on the next request.
func Environmental(err *errors.Error) error {
	Logger().Warn("native operation failed",
		zap.String("phase", string(err.Phase)),
		zap.String("kind", string(err.Kind)),
		zap.Error(err),
	)
	return err
}
