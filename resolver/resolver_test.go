package resolver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/format"
	"github.com/tsawler/adoc/model"
)

// mockSource is a mock Source for testing
type mockSource struct {
	files map[string]string
	reads int
}

func (m *mockSource) ReadFile(path string) ([]byte, error) {
	m.reads++
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return []byte(data), nil
}

func TestResolveRelative(t *testing.T) {
	base := t.TempDir()
	r := NewResolver(WithBaseDir(base), WithSafeMode(model.SafeModeSafe))

	got, err := r.Resolve("chapters/one.adoc", base, model.Cursor{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := filepath.Join(base, "chapters", "one.adoc"); got.Path != want {
		t.Errorf("Path = %q, want %q", got.Path, want)
	}
	if got.Rel != "chapters/one" {
		t.Errorf("Rel = %q, want chapters/one", got.Rel)
	}
	if got.Format != format.AsciiDoc {
		t.Errorf("Format = %v, want AsciiDoc", got.Format)
	}
	if got.Dir != filepath.Join(base, "chapters") {
		t.Errorf("Dir = %q", got.Dir)
	}
}

func TestResolveRelativeFrameDir(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(base); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	r := NewResolver(WithBaseDir(base), WithSafeMode(model.SafeModeSafe))
	for _, dir := range []string{".", "chapters"} {
		got, err := r.Resolve("one.adoc", dir, model.Cursor{})
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", dir, err)
		}
		if want := filepath.Join(base, dir, "one.adoc"); got.Path != want {
			t.Errorf("Resolve(%q) Path = %q, want %q", dir, got.Path, want)
		}
	}
}

func TestResolveSecureMode(t *testing.T) {
	r := NewResolver()
	if _, err := r.Resolve("a.adoc", "", model.Cursor{}); !errors.Is(err, ErrIncludesDisabled) {
		t.Errorf("Resolve() error = %v, want ErrIncludesDisabled", err)
	}
}

func TestResolveJail(t *testing.T) {
	base := t.TempDir()
	cursor := model.Cursor{Path: "main.adoc", LineNo: 4}

	r := NewResolver(WithBaseDir(base), WithSafeMode(model.SafeModeSafe))
	_, err := r.Resolve("../../etc/passwd", base, cursor)
	var se *diag.SecurityError
	if !errors.As(err, &se) {
		t.Fatalf("Resolve() error = %v, want *diag.SecurityError", err)
	}
	if se.Cursor.LineNo != 4 {
		t.Errorf("SecurityError cursor = %+v", se.Cursor)
	}

	r = NewResolver(WithBaseDir(base), WithSafeMode(model.SafeModeSafe), WithRecover(true))
	got, err := r.Resolve("../../etc/passwd", base, cursor)
	if err != nil {
		t.Fatalf("Resolve() with recover error = %v", err)
	}
	if !got.Recovered {
		t.Error("Recovered = false, want true")
	}
	if want := filepath.Join(base, "etc", "passwd"); got.Path != want {
		t.Errorf("Path = %q, want %q", got.Path, want)
	}

	r = NewResolver(WithBaseDir(base), WithSafeMode(model.SafeModeUnsafe))
	if _, err := r.Resolve("../outside.adoc", base, cursor); err != nil {
		t.Errorf("unsafe mode should not jail: %v", err)
	}
}

func TestReadFile(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "part.adoc"), []byte("included\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewResolver(WithBaseDir(base), WithSafeMode(model.SafeModeServer))

	tgt, err := r.Resolve("part.adoc", "", model.Cursor{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	data, err := r.Read(tgt)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != "included\n" {
		t.Errorf("Read() = %q", data)
	}

	missing, _ := r.Resolve("missing.adoc", "", model.Cursor{})
	if _, err := r.Read(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReadWithSource(t *testing.T) {
	src := &mockSource{files: map[string]string{"/docs/a.adoc": "A"}}
	r := NewResolver(WithBaseDir("/docs"), WithSafeMode(model.SafeModeUnsafe), WithSource(src))
	tgt, err := r.Resolve("a.adoc", "/docs", model.Cursor{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	data, err := r.Read(tgt)
	if err != nil || string(data) != "A" {
		t.Errorf("Read() = %q, %v", data, err)
	}
	if src.reads != 1 {
		t.Errorf("reads = %d, want 1", src.reads)
	}
}

func TestResolveURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/missing.adoc" {
			http.NotFound(w, req)
			return
		}
		fmt.Fprint(w, "remote content")
	}))
	defer srv.Close()

	r := NewResolver(WithSafeMode(model.SafeModeServer))
	if _, err := r.Resolve(srv.URL+"/a.adoc", "", model.Cursor{}); !errors.Is(err, ErrURIReadDisabled) {
		t.Errorf("Resolve(uri) error = %v, want ErrURIReadDisabled", err)
	}

	r = NewResolver(WithSafeMode(model.SafeModeServer), WithURIRead(true), WithHTTPClient(srv.Client()))
	tgt, err := r.Resolve(srv.URL+"/a.adoc", "", model.Cursor{})
	if err != nil {
		t.Fatalf("Resolve(uri) error = %v", err)
	}
	if !tgt.IsURI {
		t.Error("IsURI = false")
	}
	data, err := r.Read(tgt)
	if err != nil || string(data) != "remote content" {
		t.Errorf("Read(uri) = %q, %v", data, err)
	}

	missing, _ := r.Resolve(srv.URL+"/missing.adoc", "", model.Cursor{})
	if _, err := r.Read(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read(missing uri) error = %v, want ErrNotFound", err)
	}
}

func TestCheckDepth(t *testing.T) {
	r := NewResolver(WithMaxDepth(2))
	if err := r.CheckDepth(2); err != nil {
		t.Errorf("CheckDepth(2) error = %v", err)
	}
	if err := r.CheckDepth(3); !errors.Is(err, ErrMaxDepth) {
		t.Errorf("CheckDepth(3) error = %v, want ErrMaxDepth", err)
	}
}

func TestIsURI(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.org/a.adoc", true},
		{"file:///tmp/a.adoc", true},
		{"chapters/a.adoc", false},
		{"C:/docs/a.adoc", false},
	}
	for _, tt := range tests {
		if got := IsURI(tt.in); got != tt.want {
			t.Errorf("IsURI(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
