package simbridge

import "github.com/wippyai/sim-bridge/resource"

// NativeOwner is implemented by every host object that wraps a Barrier.
// Generic infrastructure (reconstruction, promotion, registry) uses it to
// move native handles without knowing the concrete owner type.
type NativeOwner interface {
	HasNative() bool
	NativeAddress() resource.Handle
	SetNativeAddress(h resource.Handle) error
}

// Releaser is a NativeOwner whose native reference can be dropped by the
// registry at session end.
type Releaser interface {
	NativeOwner
	ReleaseNative() error
}
