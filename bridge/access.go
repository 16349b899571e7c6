package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/errors"
)

// Read returns the native value while the barrier is allocated, otherwise
// the shadow value. A failed native read falls back to the shadow.
func Read[T any](b *Barrier, shadow T, get func() (T, error)) T {
	if !b.HasNative() {
		return shadow
	}
	v, err := get()
	if err != nil {
		Logger().Warn("native read failed, using shadow",
			zap.String("native", b.native),
			zap.Stringer("handle", b.handle),
			zap.Error(err))
		return shadow
	}
	return v
}

// Write stores v in the shadow field and, while the barrier is allocated,
// in the native object. Writes are refused while a snapshot is pending.
func Write[T any](b *Barrier, shadow *T, v T, set func(T) error) error {
	if err := b.CheckWritable(); err != nil {
		return err
	}
	*shadow = v
	if !b.HasNative() {
		return nil
	}
	if err := set(v); err != nil {
		if e, ok := errors.As(err); ok {
			return Environmental(e)
		}
		return Environmental(errors.Wrap(errors.PhaseAccess, errors.KindAllocation, err, "native write failed"))
	}
	return nil
}
