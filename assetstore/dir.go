package assetstore

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/sim-bridge/errors"
)

// DirStore keeps one YAML file per template under <root>/<kind>/<name>.yaml.
type DirStore struct {
	mu   sync.RWMutex
	root string
}

// OpenDir opens a directory store, creating the directory if needed.
func OpenDir(root string) (*DirStore, error) {
	if root == "" {
		return nil, errors.InvalidInput(errors.PhaseStore, "asset directory path is empty")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.Store("create asset directory", err)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) path(kind Kind, name string) string {
	return filepath.Join(s.root, string(kind), name+".yaml")
}

func (s *DirStore) Put(_ context.Context, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Store("encode template", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.path(r.Kind, r.Name)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return errors.Store("create kind directory", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Store("write template", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return errors.Store("replace template", err)
	}
	Logger().Debug("template stored", zap.String("kind", string(r.Kind)), zap.String("name", r.Name))
	return nil
}

func (s *DirStore) Get(_ context.Context, kind Kind, name string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.path(kind, name), kind, name)
}

func (s *DirStore) read(p string, kind Kind, name string) (Record, error) {
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return Record{}, errors.NotFound(errors.PhaseStore, string(kind), name)
	}
	if err != nil {
		return Record{}, errors.Store("read template", err)
	}

	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Record{}, errors.Store("decode "+p, err)
	}
	if r.Kind != kind || r.Name != name {
		return Record{}, errors.InvalidData(errors.PhaseStore, []string{p}, "file does not match its location")
	}
	return r, r.Validate()
}

func (s *DirStore) Delete(_ context.Context, kind Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(kind, name))
	if os.IsNotExist(err) {
		return errors.NotFound(errors.PhaseStore, string(kind), name)
	}
	if err != nil {
		return errors.Store("delete template", err)
	}
	return nil
}

func (s *DirStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, kind := range []Kind{KindMaterial, KindProperties} {
		dir := filepath.Join(s.root, string(kind))
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Store("list "+dir, err)
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			name, ok := strings.CutSuffix(e.Name(), ".yaml")
			if e.IsDir() || !ok {
				continue
			}
			r, err := s.read(filepath.Join(dir, e.Name()), kind, name)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out, nil
}

// Close is a no-op.
func (s *DirStore) Close() error {
	return nil
}

func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Kind != rs[j].Kind {
			return rs[i].Kind < rs[j].Kind
		}
		return rs[i].Name < rs[j].Name
	})
}
