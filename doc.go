// Package simbridge exposes an external physics engine's object model as
// host scene objects.
//
// Host objects are owned by the host (garbage collected, rebuilt by
// construction scripts, promoted from shared assets). Native objects are
// owned by the engine and intrusively reference counted. This module is the
// bridge between the two lifetimes.
//
// # Architecture Overview
//
//	simbridge/          Root package with the NativeOwner capability
//	├── resource/       Generational, reference counted native handle arena
//	├── native/         The simulation engine behind the arena (box2d)
//	├── bridge/         Barriers, contract policy, reconstruction snapshots
//	├── registry/       Session-scoped set of live owners
//	├── asset/          Template to Instance promotion per scope
//	├── scene/          Host scene objects: bodies, shapes, constraints, materials
//	├── session/        Session begin/end, stepping, reconstruction events
//	├── scenefile/      YAML scene descriptions
//	├── assetstore/     YAML and SQLite persistence of templates
//	├── metrics/        Prometheus collectors
//	├── errors/         Structured error types
//	└── cmd/simbridge/  CLI: run, inspect, assets
//
// # Quick Start
//
//	sess, err := session.New(session.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	_, err = sess.Scene().Spawn("crate", func(a *scene.Actor) {
//	    body := a.AddRigidBody(scene.BodySpec{Motion: native.MotionDynamic})
//	    a.AddBox(body, mgl64.Vec2{0.5, 0.5})
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := sess.Begin(); err != nil {
//	    log.Fatal(err)
//	}
//	sess.StepN(60)
//	sess.Reconstruct("crate") // natives survive the rebuild
//	sess.End()
//
// # Native Lifecycle
//
// A Barrier moves from Fresh to Live (by Allocate or by adopting a handle
// from a snapshot) and back when released. Adoption is only legal into an
// empty Barrier. When a host object is destroyed as part of a
// reconstruction, its handle is captured into a Snapshot bound to the
// logical slot and handed to the replacement instead of being released.
//
// # Thread Safety
//
// All bridge operations run on the single simulation goroutine. Only the
// resource arena is safe for concurrent reads (metrics, inspectors).
package simbridge
