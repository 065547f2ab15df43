package adoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tsawler/adoc/config"
	"github.com/tsawler/adoc/diag"
	"github.com/tsawler/adoc/format"
	"github.com/tsawler/adoc/internal/logger"
	"github.com/tsawler/adoc/model"
	"github.com/tsawler/adoc/parser"
	"github.com/tsawler/adoc/reader"
	"github.com/tsawler/adoc/resolver"
	"github.com/tsawler/adoc/subs"
)

// Loader provides a fluent interface for loading AsciiDoc documents.
// Each configuration method returns a new Loader instance, making it
// safe for concurrent use and allowing method chaining. A terminal
// operation parses the source from scratch every time it is called.
type Loader struct {
	// Source: a file read lazily, or lines already in memory
	filename string
	lines    []string

	// Configuration
	options LoadOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Loader with a deep copy of options.
func (l *Loader) clone() *Loader {
	return &Loader{
		filename: l.filename,
		lines:    l.lines,
		options:  l.options.clone(),
		err:      l.err,
	}
}

// ============================================================================
// Configuration Methods (return new Loader instance)
// ============================================================================

// SafeMode sets the safe mode. The default is model.SafeModeSecure, which
// disables includes.
//
// Example:
//
//	doc, _, err := adoc.Open("guide.adoc").SafeMode(model.SafeModeSafe).Document()
func (l *Loader) SafeMode(mode model.SafeMode) *Loader {
	newLoader := l.clone()
	newLoader.options.safeMode = mode
	return newLoader
}

// Attributes adds caller attributes. The seed may be a string such as
// "product=ACME icons! draft=yes@", a []string of "name=value" entries, a
// map[string]string or a map[string]any. Entries are locked against the
// document unless they end in "@". Multiple calls are cumulative.
//
// Example:
//
//	doc, _, err := adoc.Load(src).Attributes("product=ACME sectnums").Document()
func (l *Loader) Attributes(seed interface{}) *Loader {
	newLoader := l.clone()
	entries, err := model.ParseAttributeSeed(seed)
	if err != nil {
		if newLoader.err == nil {
			newLoader.err = fmt.Errorf("invalid attributes: %w", err)
		}
		return newLoader
	}
	newLoader.options.attributes = append(newLoader.options.attributes, entries...)
	return newLoader
}

// Sourcemap records the file and directory on every block cursor.
func (l *Loader) Sourcemap() *Loader {
	newLoader := l.clone()
	newLoader.options.sourcemap = true
	return newLoader
}

// MaxIncludeDepth limits how deeply includes may nest.
func (l *Loader) MaxIncludeDepth(n int) *Loader {
	newLoader := l.clone()
	newLoader.options.maxIncludeDepth = n
	return newLoader
}

// AttributeMissing sets the policy for references to undefined
// attributes: "skip", "drop", "drop-line" or "warn".
func (l *Loader) AttributeMissing(policy string) *Loader {
	newLoader := l.clone()
	newLoader.options.attributeMissing = policy
	return newLoader
}

// BaseDir sets the directory includes are resolved against and jailed to.
// It defaults to the directory of the opened file, or the working
// directory for in-memory sources.
func (l *Loader) BaseDir(dir string) *Loader {
	newLoader := l.clone()
	newLoader.options.baseDir = dir
	return newLoader
}

// Converter sets the converter used to render inline nodes.
func (l *Loader) Converter(c model.Converter) *Loader {
	newLoader := l.clone()
	newLoader.options.converter = c
	return newLoader
}

// Logger sets the logger that receives diagnostics and debug output. A nil
// logger discards output.
func (l *Loader) Logger(log *logger.Logger) *Loader {
	newLoader := l.clone()
	if log == nil {
		log = logger.Discard()
	}
	newLoader.options.log = log
	return newLoader
}

// RecoverSecurity clamps include paths that escape the base directory
// instead of failing the load.
func (l *Loader) RecoverSecurity() *Loader {
	newLoader := l.clone()
	newLoader.options.recoverSecurity = true
	return newLoader
}

// ParseHeaderOnly stops parsing after the document header.
func (l *Loader) ParseHeaderOnly() *Loader {
	newLoader := l.clone()
	newLoader.options.headerOnly = true
	return newLoader
}

// FromConfig applies the settings of a loaded config file. Config
// attributes are soft, so the document may override them.
//
// Example:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    // handle error
//	}
//	doc, _, err := adoc.Open("guide.adoc").FromConfig(cfg).Document()
func (l *Loader) FromConfig(cfg *config.Config) *Loader {
	newLoader := l.clone()
	if cfg == nil {
		return newLoader
	}
	if err := cfg.Validate(); err != nil {
		if newLoader.err == nil {
			newLoader.err = fmt.Errorf("invalid configuration: %w", err)
		}
		return newLoader
	}
	o := &newLoader.options
	o.safeMode = cfg.Mode()
	o.maxIncludeDepth = cfg.MaxIncludeDepth
	o.attributeMissing = cfg.AttributeMissing
	o.sourcemap = cfg.Sourcemap
	if cfg.BaseDir != "" {
		o.baseDir = cfg.BaseDir
	}
	entries, _ := model.ParseAttributeSeed(cfg.Attributes)
	for i := range entries {
		entries[i].Soft = true
	}
	o.attributes = append(entries, o.attributes...)
	o.log = cfg.Logger()
	return newLoader
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Document parses the source and applies substitutions to every block.
// Recoverable problems are returned as warnings; the error is non-nil
// only when the source cannot be read or an include breaks the safe mode
// jail.
//
// Example:
//
//	doc, warnings, err := adoc.Open("guide.adoc").Document()
func (l *Loader) Document() (*model.Document, []Warning, error) {
	if l.err != nil {
		return nil, nil, l.err
	}
	lines, err := l.sourceLines()
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	doc, pre, warns := l.prepare(lines)
	log := l.options.log
	log.ParseStarted(l.sourceName(), doc.SafeMode.String())

	var popts []parser.Option
	if l.options.headerOnly {
		popts = append(popts, parser.WithHeaderOnly())
	}
	popts = append(popts, parser.WithReaderOptions(l.readerOptions(doc, warns)...))
	if err := parser.Parse(doc, pre, popts...); err != nil {
		return nil, warns.Warnings(), err
	}
	subs.New(doc, warns).ApplyDocument()
	doc.SaveAttributes()

	blocks := len(model.FindBy(doc, model.Selector{}, nil))
	log.ParseCompleted(blocks, warns.Len(), time.Since(start))
	return doc, warns.Warnings(), nil
}

// Header parses only the document header and returns it.
//
// Example:
//
//	header := adoc.MustDocument(adoc.Open("guide.adoc").Header())
//	fmt.Println(header.Title, header.Revision.Number)
func (l *Loader) Header() (model.Header, []Warning, error) {
	doc, warnings, err := l.ParseHeaderOnly().Document()
	if err != nil {
		return model.Header{}, warnings, err
	}
	return doc.Header, warnings, nil
}

// Lines returns the source after preprocessing: conditionals evaluated
// and includes expanded. Attribute entries outside conditionals are kept
// as lines but still take effect for the directives that follow them.
func (l *Loader) Lines() ([]string, []Warning, error) {
	if l.err != nil {
		return nil, nil, l.err
	}
	lines, err := l.sourceLines()
	if err != nil {
		return nil, nil, err
	}
	doc, pre, warns := l.prepare(lines)
	l.options.log.ParseStarted(l.sourceName(), doc.SafeMode.String())

	sub := subs.New(doc, warns)
	var out []string
	for {
		line, ok := pre.PeekLine()
		if !ok {
			break
		}
		if reader.IsAttributeEntry(line) {
			if entry, ok := pre.ProcessAttributeEntry(doc, sub.ApplyHeader); ok {
				out = append(out, entry.Lines...)
				continue
			}
		}
		pre.Advance()
		out = append(out, line)
	}
	if err := pre.Err(); err != nil {
		return nil, warns.Warnings(), err
	}
	return out, warns.Warnings(), nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

// sourceLines reads and decodes the file, or returns the in-memory lines.
func (l *Loader) sourceLines() ([]string, error) {
	if l.filename == "" {
		return l.lines, nil
	}
	data, err := os.ReadFile(l.filename)
	if err != nil {
		return nil, &diag.LoadError{Source: l.filename, Err: err}
	}
	text, err := format.Decode(data)
	if err != nil {
		return nil, &diag.LoadError{Source: l.filename, Err: err}
	}
	return format.SplitLines(text), nil
}

func (l *Loader) sourceName() string {
	if l.filename == "" {
		return "<stdin>"
	}
	return l.filename
}

// prepare creates the document, seeds its attributes and wraps the lines
// in a preprocessing reader.
func (l *Loader) prepare(lines []string) (*model.Document, *reader.PreprocessorReader, *diag.Collector) {
	o := l.options
	doc := model.NewDocument()
	doc.SafeMode = o.safeMode
	doc.Sourcemap = o.sourcemap
	if o.converter != nil {
		doc.Converter = o.converter
	}

	set := func(name, value string) {
		doc.Attrs.Set(name, value, model.ProvenanceAPI)
	}
	set("safe-mode-name", o.safeMode.String())
	set("safe-mode-level", strconv.Itoa(int(o.safeMode)))
	if o.maxIncludeDepth > 0 {
		set("max-include-depth", strconv.Itoa(o.maxIncludeDepth))
	}
	if o.attributeMissing != "" {
		set("attribute-missing", o.attributeMissing)
	}
	// In-memory sources resolve includes against the base directory.
	cursor := model.Cursor{Dir: l.baseDir(), LineNo: 1}
	if l.filename != "" {
		cursor = model.NewCursor(l.filename, 1)
		base := filepath.Base(l.filename)
		set("docfile", l.filename)
		set("docdir", cursor.Dir)
		set("docname", strings.TrimSuffix(base, filepath.Ext(base)))
		set("docfilesuffix", filepath.Ext(base))
	}
	doc.Attrs.Seed(o.attributes)

	warns := diag.NewCollector(o.log)
	pre := reader.NewPreprocessor(doc, lines, cursor, warns, l.readerOptions(doc, warns)...)
	return doc, pre, warns
}

// baseDir returns the absolute directory includes are resolved and
// jailed against.
func (l *Loader) baseDir() string {
	base := l.options.baseDir
	if base == "" {
		base = "."
		if l.filename != "" {
			base = filepath.Dir(l.filename)
		}
	}
	if abs, err := filepath.Abs(base); err == nil {
		return abs
	}
	return base
}

// readerOptions builds the include resolver and attribute substituter
// shared by the top-level reader and the readers of AsciiDoc table cells.
func (l *Loader) readerOptions(doc *model.Document, warns *diag.Collector) []reader.Option {
	o := l.options
	res := resolver.NewResolver(
		resolver.WithSafeMode(o.safeMode),
		resolver.WithBaseDir(l.baseDir()),
		resolver.WithMaxDepth(doc.Attrs.Int("max-include-depth", 64)),
		resolver.WithRecover(o.recoverSecurity),
		resolver.WithURIRead(doc.Attrs.Has("allow-uri-read")),
	)
	return []reader.Option{
		reader.WithResolver(res),
		reader.WithAttributeSubstituter(subs.New(doc, warns).SubAttributes),
	}
}
