// Package assets loads the on-disk and remote inputs a prompt may reference:
// GBNF grammars, JSON schemas and images.
package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ggufctl/internal/common/fsutil"
	"ggufctl/internal/payload"
)

const (
	grammarExt = ".gbnf"
	schemaExt  = ".json"

	// maxImageBytes caps remote image downloads.
	maxImageBytes = 32 << 20
)

// Store resolves grammar and schema names against their directories.
type Store struct {
	GrammarsDir string
	SchemasDir  string
}

// Grammar returns the GBNF source stored as <GrammarsDir>/<name>.gbnf.
func (s Store) Grammar(name string) (string, error) {
	p, err := assetPath(s.GrammarsDir, name, grammarExt)
	if err != nil {
		return "", err
	}
	b, err := readAsset("grammar", name, p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Schema returns the JSON schema stored as <SchemasDir>/<name>.json. The
// file must hold a JSON object.
func (s Store) Schema(name string) (json.RawMessage, error) {
	p, err := assetPath(s.SchemasDir, name, schemaExt)
	if err != nil {
		return nil, err
	}
	b, err := readAsset("schema", name, p)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("schema %q: %w", name, err)
	}
	return json.RawMessage(b), nil
}

// assetPath joins dir and name, adding ext unless name already carries it.
// Names must stay inside dir.
func assetPath(dir, name, ext string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	if !strings.EqualFold(filepath.Ext(clean), ext) {
		clean += ext
	}
	root, err := fsutil.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, clean), nil
}

func readAsset(kind, name, path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrAssetNotFound(kind, name)
		}
		return nil, fmt.Errorf("read %s %q: %w", kind, name, err)
	}
	return b, nil
}

// IsRemote reports whether ref is an http(s) URL.
func IsRemote(ref string) bool {
	l := strings.ToLower(ref)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// LoadImage turns ref (a file path or http(s) URL) into a payload image.
// Remote images are kept as URLs unless inline is set, in which case their
// bytes are fetched with hc (http.DefaultClient when nil).
func LoadImage(ctx context.Context, ref string, inline bool, hc *http.Client) (*payload.Image, error) {
	if ref == "" {
		return nil, nil
	}
	if !IsRemote(ref) {
		p, err := fsutil.ExpandHome(ref)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		return &payload.Image{Data: b}, nil
	}
	if !inline {
		return &payload.Image{URL: ref}, nil
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	if len(b) > maxImageBytes {
		return nil, fmt.Errorf("fetch image: larger than %d bytes", maxImageBytes)
	}
	return &payload.Image{Data: b}, nil
}
