package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ggufctl/internal/app"
	"ggufctl/internal/config"
	"ggufctl/internal/httpapi"
	"ggufctl/internal/manager"
)

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/internal/e2e/helpers_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

// goBuild compiles pkg (relative to the module root) into a temp dir.
func goBuild(t *testing.T, name, pkg string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("short mode")
	}
	bin := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", bin, pkg)
	cmd.Dir = projectRootFromThisFile(t)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("go build %s failed: %v\n%s", pkg, err, out)
	}
	return bin
}

func buildFakeServer(t *testing.T) string {
	return goBuild(t, "fake_llama_server", "./internal/manager/testdata/fake_llama_server.go")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// fixtureConfig lays out models, grammars and schemas under a temp dir and
// points LlamaBin at the fake server.
func fixtureConfig(t *testing.T, llamaBin string) config.Config {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "models", "gemma", "gemma-3-4b-it-Q4_K_M.gguf"), "")
	writeFile(t, filepath.Join(root, "models", "gemma", "mmproj-F16.gguf"), "")
	writeFile(t, filepath.Join(root, "models", "alpha.gguf"), "")
	writeFile(t, filepath.Join(root, "grammars", "yesno.gbnf"), `root ::= "yes" | "no"`)
	writeFile(t, filepath.Join(root, "schemas", "caption.json"), `{"type":"object","properties":{"caption":{"type":"string"}}}`)
	return config.Config{
		ModelsDir:      filepath.Join(root, "models"),
		GrammarsDir:    filepath.Join(root, "grammars"),
		SchemasDir:     filepath.Join(root, "schemas"),
		LlamaBin:       llamaBin,
		PollIntervalMS: 10,
		StopGraceSec:   2,
	}
}

// newLaunchedServer starts the fake llama-server through an App and serves
// the control API for it over httptest.
func newLaunchedServer(t *testing.T, cfg config.Config, model string) (*httptest.Server, *app.App) {
	t.Helper()
	a, err := app.New(cfg, app.Options{Logger: zerolog.Nop(), Progress: io.Discard})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown() })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := a.Launch(ctx, app.LaunchOptions{Model: model, Port: -1}); err != nil {
		t.Fatalf("launch %s: %v", model, err)
	}
	srv := httptest.NewServer(httpapi.NewMux(a))
	t.Cleanup(srv.Close)
	return srv, a
}

func freePort(t *testing.T) int {
	t.Helper()
	p, err := manager.FreePort("127.0.0.1")
	if err != nil {
		t.Fatalf("free port: %v", err)
	}
	return p
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func httpDo(t *testing.T, method, url string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postPrompt(t *testing.T, base, body string) (*http.Response, []byte) {
	t.Helper()
	return httpDo(t, http.MethodPost, base+"/prompt", []byte(body))
}

// waitStatus polls url until it answers want or the deadline passes.
func waitStatus(t *testing.T, url string, want int, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	last := 0
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			last = resp.StatusCode
			_ = resp.Body.Close()
			if last == want {
				return
			}
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("%s did not answer %d in time; last=%d", url, want, last)
}

func yamlConfig(t *testing.T, cfg config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ggufctl.yaml")
	writeFile(t, path, fmt.Sprintf(
		"models_dir: %s\ngrammars_dir: %s\nschemas_dir: %s\nllama_bin: %s\npoll_interval_ms: 10\nstop_grace_sec: 2\n",
		cfg.ModelsDir, cfg.GrammarsDir, cfg.SchemasDir, cfg.LlamaBin))
	return path
}
