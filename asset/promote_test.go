package asset

import (
	"testing"

	"github.com/wippyai/sim-bridge/native"
)

type knob struct {
	link     Link[knob]
	tags     []string
	value    float64
	native   bool
	releases int
}

func (k *knob) Link() *Link[knob]    { return &k.link }
func (k *knob) HasNative() bool      { return k.native }
func (k *knob) ReleaseNative() error { k.native = false; k.releases++; return nil }
func (k *knob) SyncFrom(src *knob) error {
	k.value = src.value
	k.tags = append([]string(nil), src.tags...)
	return nil
}

func (k *knob) Clone() *knob {
	return &knob{value: k.value, tags: append([]string(nil), k.tags...)}
}

func newEngine(t *testing.T) *native.Engine {
	t.Helper()
	eng, err := native.New(native.DefaultConfig())
	if err != nil {
		t.Fatalf("native.New: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func liveScope(t *testing.T) *Scope {
	t.Helper()
	s := NewScope(newEngine(t))
	if err := s.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return s
}

func TestPromotionDeferredWithoutSession(t *testing.T) {
	tmpl := &knob{value: 1}

	if got, ok := GetOrCreateInstance(tmpl, nil); ok || got != nil {
		t.Fatal("expected deferral for nil scope")
	}

	s := NewScope(nil)
	if got, ok := GetOrCreateInstance(tmpl, s); ok || got != nil {
		t.Fatal("expected deferral for scope without session")
	}
	if err := s.Begin(); err == nil {
		t.Fatal("expected Begin to fail without engine")
	}
}

func TestPromotionDesignTimeReturnsTemplate(t *testing.T) {
	tmpl := &knob{value: 1}
	s := NewScope(newEngine(t))

	got, ok := GetOrCreateInstance(tmpl, s)
	if !ok || got != tmpl {
		t.Fatal("expected template as design-time target")
	}
	if s.Len() != 0 {
		t.Fatal("design-time access must not create instances")
	}
}

func TestPromotionCaching(t *testing.T) {
	tmpl := &knob{value: 1000, tags: []string{"steel"}}
	s := liveScope(t)

	a, ok := GetOrCreateInstance(tmpl, s)
	if !ok || a == tmpl {
		t.Fatal("expected a new instance")
	}
	b, _ := GetOrCreateInstance(tmpl, s)
	if a != b {
		t.Fatal("expected the same instance on repeated requests")
	}
	if s.Len() != 1 || s.Promoted() != 1 {
		t.Fatalf("expected one cached instance, len=%d promoted=%d", s.Len(), s.Promoted())
	}

	c, _ := GetOrCreateInstance(a, s)
	if c != a {
		t.Fatal("an instance must be returned unchanged")
	}

	if !a.Link().IsInstance() || a.Link().Template() != tmpl || a.Link().Scope() != s {
		t.Fatal("instance link not set")
	}
	if a.native {
		t.Fatal("promotion must not allocate")
	}
}

func TestTemplateIsolation(t *testing.T) {
	tmpl := &knob{value: 1000, tags: []string{"steel"}}
	s := liveScope(t)

	inst, _ := GetOrCreateInstance(tmpl, s)
	inst.value = 2000
	inst.tags[0] = "rubber"

	if tmpl.value != 1000 || tmpl.tags[0] != "steel" {
		t.Fatalf("template changed: %+v", tmpl)
	}

	tmpl.value = 500
	if inst.value != 2000 {
		t.Fatal("template edits must not reach the instance before sync")
	}
	if err := SyncFromTemplate(inst); err != nil {
		t.Fatalf("SyncFromTemplate: %v", err)
	}
	if inst.value != 500 {
		t.Fatalf("expected synced value 500, got %f", inst.value)
	}
	if err := SyncFromTemplate(tmpl); err != nil {
		t.Fatalf("SyncFromTemplate on template: %v", err)
	}
}

func TestInstancesPerScope(t *testing.T) {
	tmpl := &knob{value: 1}
	s1 := liveScope(t)
	s2 := liveScope(t)

	a, _ := GetOrCreateInstance(tmpl, s1)
	b, _ := GetOrCreateInstance(tmpl, s2)
	if a == b {
		t.Fatal("each scope owns its own instance")
	}

	if got, ok := tmpl.Link().Latest(s1); !ok || got != a {
		t.Fatal("expected back reference to s1 instance")
	}
	if got, ok := tmpl.Link().Latest(s2); !ok || got != b {
		t.Fatal("expected back reference to s2 instance")
	}
}

func TestScopeEndReleasesInstances(t *testing.T) {
	tmpl := &knob{value: 1}
	other := &knob{value: 2}
	s := liveScope(t)

	a, _ := GetOrCreateInstance(tmpl, s)
	b, _ := GetOrCreateInstance(other, s)
	a.native = true

	released, err := s.End()
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if released != 1 || a.releases != 1 || b.releases != 0 {
		t.Fatalf("expected only allocated instances released, got %d", released)
	}
	if s.Len() != 0 || s.Live() {
		t.Fatal("expected empty, ended scope")
	}
	if _, ok := tmpl.Link().Latest(s); ok {
		t.Fatal("expected back reference dropped at scope end")
	}

	// after the session a template is the editing target again
	got, ok := GetOrCreateInstance(tmpl, s)
	if !ok || got != tmpl {
		t.Fatal("expected template after scope end")
	}
}

func TestStaleInstanceResolvesToTemplate(t *testing.T) {
	tmpl := &knob{value: 1}
	s := liveScope(t)

	old, _ := GetOrCreateInstance(tmpl, s)
	old.value = 5
	if Stale(old) || Current(old) != old {
		t.Fatal("cached instance must not be stale")
	}
	if _, err := s.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if !Stale(old) || Current(old) != tmpl {
		t.Fatal("expected instance stale after scope end")
	}

	// ended scope: the leftover instance stands for its template
	if got, ok := GetOrCreateInstance(old, s); !ok || got != tmpl {
		t.Fatal("expected template for a leftover instance outside play")
	}

	if err := s.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	fresh, ok := GetOrCreateInstance(old, s)
	if !ok || fresh == old || fresh == tmpl {
		t.Fatal("expected a new instance for the restarted scope")
	}
	if fresh.value != 1 || fresh.Link().Template() != tmpl {
		t.Fatalf("expected copy of the template, got value %f", fresh.value)
	}
	if s.Len() != 1 {
		t.Fatalf("expected new instance cached, got %d", s.Len())
	}

	// an instance of another live scope also stands for its template
	other := liveScope(t)
	inOther, _ := GetOrCreateInstance(old, other)
	if inOther == fresh || inOther.Link().Scope() != other {
		t.Fatal("expected a separate instance in the other scope")
	}
	if got, _ := GetOrCreateInstance(inOther, s); got != fresh {
		t.Fatal("expected the scope's own instance")
	}
}

func TestScopeIDsUnique(t *testing.T) {
	a := NewScope(nil)
	b := NewScope(nil)
	if a.ID() == b.ID() {
		t.Fatal("expected distinct scope ids")
	}
}
