// Package asset promotes shared, native-less templates into per-session
// instances that own a native object.
package asset

import (
	"weak"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Link is embedded in promotable types. On an instance it records the
// template and scope it came from; on a template it keeps a weak reference
// to the latest instance per scope.
type Link[T any] struct {
	template *T
	scope    *Scope
	latest   map[uuid.UUID]weak.Pointer[T]
}

// IsInstance reports whether the value was produced by promotion.
func (l *Link[T]) IsInstance() bool {
	return l.template != nil
}

// Template returns the template an instance was copied from.
func (l *Link[T]) Template() *T {
	return l.template
}

// Scope returns the scope owning an instance.
func (l *Link[T]) Scope() *Scope {
	return l.scope
}

// Latest returns the most recent instance of a template in scope, if it is
// still cached.
func (l *Link[T]) Latest(scope *Scope) (*T, bool) {
	if scope == nil || l.latest == nil {
		return nil, false
	}
	wp, ok := l.latest[scope.id]
	if !ok {
		return nil, false
	}
	v := wp.Value()
	return v, v != nil
}

// Asset is a promotable type: a pointer to T that embeds a Link and can
// copy its host fields.
type Asset[T any] interface {
	*T
	Instance
	Link() *Link[T]
	// Clone returns a deep copy of the host fields with a zero Link and no
	// native object.
	Clone() *T
	// SyncFrom copies the host fields of src, mirroring them into the native
	// object when one exists.
	SyncFrom(src *T) error
}

// GetOrCreateInstance returns the value a runtime caller should use in place
// of tmpl.
//
// Without a scope or session context it returns false: the operation is
// deferred until play begins. Outside a live session the template itself is
// the editing target. An instance cached by scope is returned unchanged; an
// instance left over from another scope, or from this scope before it ended,
// stands for its template. Otherwise the cached instance for (tmpl, scope)
// is returned, created on first request. No native object is allocated here.
func GetOrCreateInstance[T any, P Asset[T]](tmpl P, scope *Scope) (P, bool) {
	if tmpl == nil || !scope.HasSession() {
		var zero P
		return zero, false
	}
	if l := tmpl.Link(); l.IsInstance() {
		if l.scope == scope && !Stale(tmpl) {
			return tmpl, true
		}
		tmpl = P(l.template)
	}
	if !scope.Live() {
		return tmpl, true
	}

	if c, ok := scope.instances[tmpl]; ok {
		return c.inst.(P), true
	}

	inst := P(tmpl.Clone())
	il := inst.Link()
	il.template = (*T)(tmpl)
	il.scope = scope

	tl := tmpl.Link()
	if tl.latest == nil {
		tl.latest = make(map[uuid.UUID]weak.Pointer[T])
	}
	tl.latest[scope.id] = weak.Make((*T)(inst))

	scope.instances[tmpl] = cached{
		inst:   inst,
		forget: func() { delete(tl.latest, scope.id) },
	}
	scope.promoted++

	Logger().Debug("template promoted", zap.Stringer("scope", scope.id))
	return inst, true
}

// Stale reports whether v is an instance its scope no longer caches, as
// after the scope ended.
func Stale[T any, P Asset[T]](v P) bool {
	l := v.Link()
	if !l.IsInstance() {
		return false
	}
	c, ok := l.scope.instances[P(l.template)]
	return !ok || c.inst != Instance(v)
}

// Current returns the template of a stale instance and v otherwise.
func Current[T any, P Asset[T]](v P) P {
	if v != nil && Stale(v) {
		return P(v.Link().template)
	}
	return v
}

// SyncFromTemplate copies the template's current fields into inst. It is
// the only way template edits reach an existing instance. Templates sync
// from nothing and return nil.
func SyncFromTemplate[T any, P Asset[T]](inst P) error {
	l := inst.Link()
	if !l.IsInstance() {
		return nil
	}
	return inst.SyncFrom(l.template)
}
