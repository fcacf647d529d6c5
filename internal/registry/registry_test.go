package registry

import (
	"os"
	"path/filepath"
	"testing"
)

var testAliases = map[string]Alias{
	"gemma":   {Weights: "gemma/gemma-3-4b-it-Q4_K_M.gguf", Projection: "gemma/mmproj-F16.gguf"},
	"smolvlm": {Weights: "smolvlm/SmolVLM-Instruct-Q8_0.gguf", Projection: "smolvlm/mmproj-SmolVLM-Instruct-Q8_0.gguf"},
}

// fixtureTree creates a models root holding every aliased artifact plus a few plain files.
func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"gemma/gemma-3-4b-it-Q4_K_M.gguf",
		"gemma/mmproj-F16.gguf",
		"smolvlm/SmolVLM-Instruct-Q8_0.gguf",
		"smolvlm/mmproj-SmolVLM-Instruct-Q8_0.gguf",
		"tinyllama.Q4_K_M.gguf",
		"qwen/qwen2-0.5b.gguf",
		"notes.txt",
		".hidden.gguf",
	}
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
	return root
}

func TestResolve_Aliases(t *testing.T) {
	root := fixtureTree(t)
	r, err := New(root, testAliases)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for id := range testAliases {
		spec, err := r.Resolve(id)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", id, err)
		}
		if _, err := os.Stat(spec.WeightsPath); err != nil {
			t.Fatalf("weights for %q missing: %v", id, err)
		}
		if !spec.Multimodal() {
			t.Fatalf("expected projection for %q", id)
		}
		if spec.DisplayName() != testAliases[id].Weights {
			t.Fatalf("display name for %q = %q", id, spec.DisplayName())
		}
		if _, err := os.Stat(spec.ProjectionPath); err != nil {
			t.Fatalf("projection for %q missing: %v", id, err)
		}
	}
}

func TestResolve_RelativePath(t *testing.T) {
	root := fixtureTree(t)
	r, _ := New(root, testAliases)

	spec, err := r.Resolve("tinyllama.Q4_K_M.gguf")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if spec.ProjectionPath != "" {
		t.Fatalf("plain model must not carry a projection: %+v", spec)
	}
	if spec.DisplayName() != "tinyllama.Q4_K_M.gguf" {
		t.Fatalf("display name=%q", spec.DisplayName())
	}
	if spec.WeightsPath != filepath.Join(root, "tinyllama.Q4_K_M.gguf") {
		t.Fatalf("weights path=%q", spec.WeightsPath)
	}

	spec, err = r.Resolve("qwen/qwen2-0.5b.gguf")
	if err != nil {
		t.Fatalf("Resolve nested: %v", err)
	}
	if filepath.Base(spec.WeightsPath) != "qwen2-0.5b.gguf" {
		t.Fatalf("weights path=%q", spec.WeightsPath)
	}
}

func TestResolve_Unknown(t *testing.T) {
	r, _ := New(fixtureTree(t), testAliases)
	for _, name := range []string{"", "mistral", "../escape.gguf", "/etc/passwd", "."} {
		if _, err := r.Resolve(name); !IsUnknownModelKind(err) {
			t.Fatalf("Resolve(%q) err=%v, want unknown model kind", name, err)
		}
	}
}

func TestResolve_MissingArtifact(t *testing.T) {
	root := fixtureTree(t)
	if err := os.Remove(filepath.Join(root, "gemma", "mmproj-F16.gguf")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	r, _ := New(root, testAliases)
	if _, err := r.Resolve("gemma"); !IsMissingArtifact(err) {
		t.Fatalf("err=%v, want missing artifact", err)
	}
	if _, err := r.Resolve("qwen/absent.gguf"); !IsMissingArtifact(err) {
		t.Fatalf("err=%v, want missing artifact", err)
	}
	// A directory is not a weights file.
	if _, err := r.Resolve("qwen"); !IsMissingArtifact(err) {
		t.Fatalf("err=%v, want missing artifact", err)
	}
}

func TestList(t *testing.T) {
	r, _ := New(fixtureTree(t), testAliases)
	models, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"gemma", "qwen", "smolvlm", "tinyllama.Q4_K_M.gguf"}
	if len(models) != len(want) {
		t.Fatalf("got %+v, want ids %v", models, want)
	}
	for i, id := range want {
		if models[i].ID != id {
			t.Fatalf("models[%d]=%q, want %q", i, models[i].ID, id)
		}
	}
	if !models[0].Alias || !models[0].Multimodal {
		t.Fatalf("gemma should be a multimodal alias: %+v", models[0])
	}
}

func TestList_MissingRoot(t *testing.T) {
	r, _ := New(filepath.Join(t.TempDir(), "nope"), nil)
	if _, err := r.List(); err == nil {
		t.Fatalf("expected error for missing root")
	}
}
