package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/assetstore"
	"github.com/wippyai/sim-bridge/scenefile"
	"github.com/wippyai/sim-bridge/session"
)

// openStore opens the configured template store.
func (a *app) openStore() (assetstore.Store, error) {
	return assetstore.Open(a.cfg.Assets.Driver, a.cfg.Assets.Path)
}

// loadLibrary reads every stored template. Without a configured path the
// library starts empty.
func (a *app) loadLibrary(ctx context.Context) (*assetstore.Library, error) {
	lib := assetstore.NewLibrary()
	if a.cfg.Assets.Path == "" {
		return lib, nil
	}
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("closing asset store", zap.Error(err))
		}
	}()
	if err := lib.Load(ctx, store); err != nil {
		return nil, err
	}
	return lib, nil
}

// openSession creates a session and populates its scene from the file at
// path. The caller closes the session.
func (a *app) openSession(ctx context.Context, path string) (*session.Session, *scenefile.File, error) {
	f, err := scenefile.Load(path)
	if err != nil {
		return nil, nil, err
	}
	lib, err := a.loadLibrary(ctx)
	if err != nil {
		return nil, nil, err
	}

	s, err := session.New(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := f.Populate(s.Scene(), lib); err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return s, f, nil
}
