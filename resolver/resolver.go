package resolver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/format"
	"github.com/tsawler/adoc/model"
)

var (
	// ErrNotFound reports an include target that does not exist.
	ErrNotFound = errors.New("resolver: include file not found")
	// ErrURIReadDisabled reports a URI target while allow-uri-read is off.
	ErrURIReadDisabled = errors.New("resolver: reading from URIs is disabled")
	// ErrIncludesDisabled reports an include under the secure safe mode.
	ErrIncludesDisabled = errors.New("resolver: includes are disabled in secure mode")
	// ErrMaxDepth reports an include nested beyond the maximum depth.
	ErrMaxDepth = errors.New("resolver: maximum include depth exceeded")
)

var uriPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.+-]*://`)

// IsURI reports whether target looks like a URI rather than a path.
func IsURI(target string) bool {
	return uriPattern.MatchString(target)
}

// Source reads include content from the file system.
type Source interface {
	ReadFile(path string) ([]byte, error)
}

type osSource struct{}

func (osSource) ReadFile(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Target is a resolved include target.
type Target struct {
	// Name is the target as written in the directive.
	Name string
	// Path is the absolute file path or the URI.
	Path string
	// Dir is the directory relative includes in the target resolve against.
	Dir string
	// Rel is the path relative to the base directory without extension,
	// as recorded in the catalog.
	Rel    string
	IsURI  bool
	Format format.Format
	// Recovered is set when a path escaping the jail was clamped into it.
	Recovered bool
}

// IncludeResolver turns include targets into readable sources, enforcing
// the safe mode jail and the include depth limit.
type IncludeResolver struct {
	source      Source
	client      *http.Client
	baseDir     string
	safeMode    model.SafeMode
	allowURI    bool
	recoverJail bool
	maxDepth    int
}

// Option configures the resolver
type Option func(*IncludeResolver)

// WithMaxDepth sets the maximum include depth (default: 64)
func WithMaxDepth(depth int) Option {
	return func(r *IncludeResolver) {
		r.maxDepth = depth
	}
}

// WithBaseDir sets the jail root and the directory of the top-level source.
func WithBaseDir(dir string) Option {
	return func(r *IncludeResolver) {
		r.baseDir = dir
	}
}

// WithSafeMode sets the safe mode (default: secure)
func WithSafeMode(mode model.SafeMode) Option {
	return func(r *IncludeResolver) {
		r.safeMode = mode
	}
}

// WithURIRead enables reading include targets from URIs.
func WithURIRead(allow bool) Option {
	return func(r *IncludeResolver) {
		r.allowURI = allow
	}
}

// WithHTTPClient sets the client used for URI targets.
func WithHTTPClient(c *http.Client) Option {
	return func(r *IncludeResolver) {
		r.client = c
	}
}

// WithRecover clamps paths that escape the jail instead of failing.
func WithRecover(enabled bool) Option {
	return func(r *IncludeResolver) {
		r.recoverJail = enabled
	}
}

// WithSource replaces the file system reader.
func WithSource(s Source) Option {
	return func(r *IncludeResolver) {
		r.source = s
	}
}

// NewResolver creates a new include resolver
func NewResolver(opts ...Option) *IncludeResolver {
	r := &IncludeResolver{
		source:   osSource{},
		client:   http.DefaultClient,
		baseDir:  ".",
		safeMode: model.SafeModeSecure,
		maxDepth: 64,
	}

	for _, opt := range opts {
		opt(r)
	}
	if abs, err := filepath.Abs(r.baseDir); err == nil {
		r.baseDir = abs
	}

	return r
}

// BaseDir returns the absolute base directory.
func (r *IncludeResolver) BaseDir() string { return r.baseDir }

// MaxDepth returns the configured include depth limit.
func (r *IncludeResolver) MaxDepth() int { return r.maxDepth }

// SafeMode returns the configured safe mode.
func (r *IncludeResolver) SafeMode() model.SafeMode { return r.safeMode }

// CheckDepth returns ErrMaxDepth when a push at depth would exceed the limit.
func (r *IncludeResolver) CheckDepth(depth int) error {
	if depth > r.maxDepth {
		return fmt.Errorf("%w (%d)", ErrMaxDepth, r.maxDepth)
	}
	return nil
}

// Resolve resolves target against dir, the directory of the including
// file. A path escaping the base directory under a jailing safe mode
// yields a *diag.SecurityError unless recovery is enabled.
func (r *IncludeResolver) Resolve(target, dir string, cursor model.Cursor) (Target, error) {
	t := Target{Name: target, Format: format.Detect(target)}
	if !r.safeMode.CanIncludeFiles() {
		return t, ErrIncludesDisabled
	}

	if IsURI(target) {
		if !r.allowURI {
			return t, ErrURIReadDisabled
		}
		t.IsURI = true
		t.Path = target
		t.Dir = path.Dir(target)
		t.Rel = strings.TrimSuffix(target, path.Ext(target))
		return t, nil
	}
	if IsURI(dir) {
		if !r.allowURI {
			return t, ErrURIReadDisabled
		}
		t.IsURI = true
		t.Path = strings.TrimSuffix(dir, "/") + "/" + target
		t.Dir = path.Dir(t.Path)
		t.Rel = strings.TrimSuffix(t.Path, path.Ext(t.Path))
		return t, nil
	}

	if dir == "" {
		dir = r.baseDir
	} else if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	p := filepath.FromSlash(target)
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	p = filepath.Clean(p)

	if r.safeMode.JailsPaths() {
		rel, err := filepath.Rel(r.baseDir, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			if !r.recoverJail {
				return t, &diag.SecurityError{Target: target, Root: r.baseDir, Cursor: cursor}
			}
			p = r.clamp(rel)
			t.Recovered = true
		}
	}

	t.Path = p
	t.Dir = filepath.Dir(p)
	if rel, err := filepath.Rel(r.baseDir, p); err == nil && !strings.HasPrefix(rel, "..") {
		t.Rel = filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
	} else {
		t.Rel = filepath.ToSlash(strings.TrimSuffix(p, filepath.Ext(p)))
	}
	return t, nil
}

// clamp drops the parent references that climb above the base directory.
func (r *IncludeResolver) clamp(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	i := 0
	for i < len(parts) && (parts[i] == ".." || parts[i] == "") {
		i++
	}
	return filepath.Join(r.baseDir, filepath.FromSlash(strings.Join(parts[i:], "/")))
}

// Read returns the raw content of a resolved target. Files are released
// before Read returns, including on error.
func (r *IncludeResolver) Read(t Target) ([]byte, error) {
	if t.IsURI {
		return r.readURI(t.Path)
	}
	data, err := r.source.ReadFile(t.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, t.Path)
		}
		return nil, fmt.Errorf("failed to read include %s: %w", t.Path, err)
	}
	return data, nil
}

func (r *IncludeResolver) readURI(uri string) ([]byte, error) {
	resp, err := r.client.Get(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to read include %s: %w", uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s (HTTP %d)", ErrNotFound, uri, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
