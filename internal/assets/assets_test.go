package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestGrammar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "morse.gbnf"), `root ::= [.-]+`)
	s := Store{GrammarsDir: dir}
	for _, name := range []string{"morse", "morse.gbnf"} {
		g, err := s.Grammar(name)
		if err != nil {
			t.Fatalf("Grammar(%q): %v", name, err)
		}
		if g != `root ::= [.-]+` {
			t.Fatalf("Grammar(%q)=%q", name, g)
		}
	}
	if _, err := s.Grammar("nope"); !IsAssetNotFound(err) {
		t.Fatalf("err=%v, want not found", err)
	}
	if _, err := s.Grammar("../etc/passwd"); err == nil || IsAssetNotFound(err) {
		t.Fatalf("escape not rejected: %v", err)
	}
}

func TestSchema(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "person.json"), `{"type":"object","properties":{"name":{"type":"string"}}}`)
	writeFile(t, filepath.Join(dir, "list.json"), `[1,2,3]`)
	s := Store{SchemasDir: dir}
	raw, err := s.Schema("person")
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if len(raw) == 0 || raw[0] != '{' {
		t.Fatalf("schema=%s", raw)
	}
	if _, err := s.Schema("list.json"); err == nil {
		t.Fatalf("non-object schema accepted")
	}
	if _, err := s.Schema("missing"); !IsAssetNotFound(err) {
		t.Fatalf("err=%v, want not found", err)
	}
}

func TestLoadImage_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.png")
	writeFile(t, p, "\x89PNG fake")
	img, err := LoadImage(context.Background(), p, false, nil)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if string(img.Data) != "\x89PNG fake" || img.URL != "" {
		t.Fatalf("img=%+v", img)
	}
	if img, err := LoadImage(context.Background(), "", false, nil); img != nil || err != nil {
		t.Fatalf("empty ref: %v %v", img, err)
	}
	if _, err := LoadImage(context.Background(), filepath.Join(t.TempDir(), "none.png"), false, nil); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestLoadImage_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("pixels"))
	}))
	defer srv.Close()

	img, err := LoadImage(context.Background(), srv.URL+"/cat.png", false, nil)
	if err != nil || img.URL != srv.URL+"/cat.png" || img.Data != nil {
		t.Fatalf("pass-through: img=%+v err=%v", img, err)
	}
	img, err = LoadImage(context.Background(), srv.URL+"/cat.png", true, srv.Client())
	if err != nil || string(img.Data) != "pixels" {
		t.Fatalf("inline: img=%+v err=%v", img, err)
	}
	if _, err := LoadImage(context.Background(), srv.URL+"/missing.png", true, srv.Client()); err == nil {
		t.Fatalf("404 accepted")
	}
}

func TestStoreAndImage_HomeRelative(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, "grammars", "yesno.gbnf"), `root ::= "yes" | "no"`)
	writeFile(t, filepath.Join(home, "pics", "a.png"), "\x89PNG fake")

	g, err := Store{GrammarsDir: "~/grammars"}.Grammar("yesno")
	if err != nil || g != `root ::= "yes" | "no"` {
		t.Fatalf("Grammar under ~: %q %v", g, err)
	}
	img, err := LoadImage(context.Background(), "~/pics/a.png", false, nil)
	if err != nil || string(img.Data) != "\x89PNG fake" {
		t.Fatalf("LoadImage under ~: %+v %v", img, err)
	}
}
