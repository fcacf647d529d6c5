package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ggufctl/internal/common/fsutil"
	"ggufctl/pkg/types"
)

// Alias maps an identifier onto a fixed weights/projection pair relative to the models root.
type Alias struct {
	Weights    string
	Projection string
}

// Registry enumerates selectable models under a root directory and resolves
// identifiers to the artifacts llama-server needs.
type Registry struct {
	root    string
	aliases map[string]Alias
}

// New builds a registry rooted at dir. The directory is not required to exist
// until List or Resolve is called.
func New(dir string, aliases map[string]Alias) (*Registry, error) {
	abs, err := fsutil.AbsDir(dir)
	if err != nil {
		return nil, err
	}
	cp := make(map[string]Alias, len(aliases))
	for k, v := range aliases {
		cp[k] = v
	}
	return &Registry{root: abs, aliases: cp}, nil
}

// Root returns the absolute models directory.
func (r *Registry) Root() string { return r.root }

// List returns aliases plus the directories and *.gguf files found directly
// under the root, sorted by ID. An alias shadows a root entry of the same name.
func (r *Registry) List() ([]types.Model, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for id, a := range r.aliases {
		models = append(models, types.Model{
			ID:         id,
			Path:       filepath.Join(r.root, filepath.FromSlash(a.Weights)),
			Alias:      true,
			Multimodal: a.Projection != "",
		})
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := r.aliases[name]; ok {
			continue
		}
		if !e.IsDir() && !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		models = append(models, types.Model{ID: name, Path: filepath.Join(r.root, name)})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Resolve maps a model identifier to its on-disk artifacts.
//
// Aliases resolve to their fixed pair. Any other identifier is a relative path
// under the root with no projection file; it is supported only when its first
// element is an entry of the root.
func (r *Registry) Resolve(name string) (types.ModelSpec, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.ModelSpec{}, ErrUnknownModelKind(name)
	}
	if a, ok := r.aliases[name]; ok {
		spec := types.ModelSpec{ID: name, WeightsPath: r.join(a.Weights), Weights: filepath.ToSlash(filepath.Clean(filepath.FromSlash(a.Weights)))}
		if a.Projection != "" {
			spec.ProjectionPath = r.join(a.Projection)
		}
		if !fsutil.IsRegularFile(spec.WeightsPath) {
			return types.ModelSpec{}, ErrMissingArtifact(name, spec.WeightsPath)
		}
		if spec.ProjectionPath != "" && !fsutil.IsRegularFile(spec.ProjectionPath) {
			return types.ModelSpec{}, ErrMissingArtifact(name, spec.ProjectionPath)
		}
		return spec, nil
	}

	rel := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(rel) || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return types.ModelSpec{}, ErrUnknownModelKind(name)
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	if _, err := os.Lstat(filepath.Join(r.root, first)); err != nil {
		return types.ModelSpec{}, ErrUnknownModelKind(name)
	}
	p := filepath.Join(r.root, rel)
	if !fsutil.IsRegularFile(p) {
		return types.ModelSpec{}, ErrMissingArtifact(name, p)
	}
	return types.ModelSpec{ID: name, WeightsPath: p, Weights: filepath.ToSlash(rel)}, nil
}

func (r *Registry) join(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}
