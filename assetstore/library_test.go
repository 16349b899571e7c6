package assetstore

import (
	"context"
	"testing"

	"github.com/wippyai/sim-bridge/errors"
	"github.com/wippyai/sim-bridge/native"
)

func TestLibraryLoad(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Put(ctx, Material("rubber", native.MaterialDef{Density: 1100, Friction: 0.9, Restitution: 0.8})); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, Properties("heavy", native.PropertiesDef{GravityScale: 2})); err != nil {
		t.Fatalf("Put: %v", err)
	}

	lib := NewLibrary()
	if err := lib.Load(ctx, store); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lib.Len() != 2 {
		t.Fatalf("expected 2 templates, got %d", lib.Len())
	}

	m, err := lib.Material("rubber")
	if err != nil {
		t.Fatalf("Material: %v", err)
	}
	if m.Restitution() != 0.8 || m.Link().IsInstance() {
		t.Fatalf("unexpected template %+v", m.Def())
	}
	again, _ := lib.Material("rubber")
	if again != m {
		t.Fatal("expected one template per name")
	}

	p, err := lib.Properties("heavy")
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if p.GravityScale() != 2 {
		t.Fatalf("gravity scale = %f", p.GravityScale())
	}

	if _, err := lib.Material("heavy"); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLibrarySave(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary()
	if err := lib.Add(Material("glass", native.MaterialDef{Density: 2500, Friction: 0.3})); err != nil {
		t.Fatalf("Add: %v", err)
	}
	m, _ := lib.Material("glass")
	if err := m.SetFriction(0.35); err != nil {
		t.Fatalf("SetFriction: %v", err)
	}

	store, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	if err := lib.Save(ctx, store); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r, err := store.Get(ctx, KindMaterial, "glass")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.Material.Friction != 0.35 {
		t.Fatalf("expected edited template saved, got %+v", r.Material)
	}
	if names := lib.Names(KindMaterial); len(names) != 1 || names[0] != "glass" {
		t.Fatalf("unexpected names %v", names)
	}
}
