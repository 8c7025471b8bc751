package ini

// Package ini implements an extended INI configuration parser with nested,
// indentation-defined sections, typed value casting, cross-reference
// interpolation and canonical re-serialization.
//
// Scope:
// - Quote- and escape-aware comment stripping (# and ;)
// - Sections nested by leading whitespace, tabs expanded to indent_size
// - (type) and (type<subtype>) annotated settings cast through an explicit
//   type registry
// - {section:key} interpolation against already-parsed values
// - Deterministic, line-width-bounded output
//
// Non-goals (by design):
// - Concurrent writers on a single parser instance
// - Schema validation beyond cast success
// - Preserving source key order (output is always lexicographic)
//
// This implementation is suitable for production use as a configuration
// ingestion layer.

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
)

// =========================
// Parser Configuration
// =========================

// ConfigParser parses extended INI text into a Section tree and serializes
// the tree back to canonical text. Repeated Parse calls merge into the same
// tree. Instances are not safe for concurrent mutation; callers serialize
// access.
type ConfigParser struct {
	tree         *Section
	indent       int
	delimiter    string
	join         string
	defaultValue any
	safe         bool
	registry     *TypeRegistry
	evaluator    Evaluator
	logger       EvalLogger
}

// Option configures a ConfigParser at construction.
type Option func(*ConfigParser)

// WithIndentSize sets the number of spaces a tab expands to (default 4).
func WithIndentSize(size int) Option {
	return func(c *ConfigParser) {
		if size > 0 {
			c.indent = size
		}
	}
}

// WithDelimiter sets the composite-type token separator (default ",").
func WithDelimiter(delimiter string) Option {
	return func(c *ConfigParser) {
		if delimiter != "" {
			c.delimiter = delimiter
		}
	}
}

// WithJoin sets the continuation/serialization line-break string (default
// "\n").
func WithJoin(join string) Option {
	return func(c *ConfigParser) {
		if join != "" {
			c.join = join
		}
	}
}

// WithDefault sets the value assigned to bare keys (default true).
func WithDefault(value any) Option {
	return func(c *ConfigParser) {
		c.defaultValue = value
	}
}

// WithSafe toggles safe mode, which rejects the eval type (default true).
func WithSafe(safe bool) Option {
	return func(c *ConfigParser) {
		c.safe = safe
	}
}

// WithTypeRegistry replaces the built-in type registry.
func WithTypeRegistry(registry *TypeRegistry) Option {
	return func(c *ConfigParser) {
		if registry != nil {
			c.registry = registry.Clone()
		}
	}
}

// WithTypeFactory registers one extra factory next to the built-ins.
func WithTypeFactory(name string, factory Factory) Option {
	return func(c *ConfigParser) {
		_ = c.registry.Register(name, factory)
	}
}

// WithSource seeds the tree from an existing plain nested map.
func WithSource(source map[string]any) Option {
	return func(c *ConfigParser) {
		_ = c.tree.Merge(source)
	}
}

// New constructs a ConfigParser with the default configuration.
func New(opts ...Option) *ConfigParser {
	c := &ConfigParser{
		tree:         NewSection(),
		indent:       4,
		delimiter:    ",",
		join:         "\n",
		defaultValue: true,
		safe:         true,
		registry:     defaultRegistry(),
		logger:       noopEvalLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// ParseOption overrides parser configuration for a single call.
type ParseOption func(*parseConfig)

type parseConfig struct {
	safe *bool
}

// ParseSafe overrides safe mode for one Parse/Read call.
func ParseSafe(safe bool) ParseOption {
	return func(cfg *parseConfig) {
		cfg.safe = &safe
	}
}

// =========================
// Public API
// =========================

// Parse reads extended INI text from r and merges it into the tree.
func (c *ConfigParser) Parse(r io.Reader, opts ...ParseOption) error {
	cfg := parseConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.safe != nil {
		prev := c.safe
		c.safe = *cfg.safe
		defer func() { c.safe = prev }()
	}
	return c.run(r)
}

// ParseString parses src and merges it into the tree.
func (c *ConfigParser) ParseString(src string, opts ...ParseOption) error {
	return c.Parse(strings.NewReader(src), opts...)
}

// Read opens the file at path, parses its contents and merges them into the
// tree. I/O errors are returned unchanged.
func (c *ConfigParser) Read(path string, opts ...ParseOption) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	return c.Parse(fh, opts...)
}

// Section returns the root of the parsed tree.
func (c *ConfigParser) Section() *Section {
	return c.tree
}

// Len returns the number of top level entries.
func (c *ConfigParser) Len() int {
	return c.tree.Len()
}

// Keys returns the top level keys sorted lexicographically.
func (c *ConfigParser) Keys() []string {
	return c.tree.Keys()
}

// ToMap returns the tree as a plain nested map.
func (c *ConfigParser) ToMap() map[string]any {
	return c.tree.ToMap()
}

// Equal reports deep structural equality against another tree or a plain
// nested map.
func (c *ConfigParser) Equal(other any) bool {
	return c.tree.Equal(other)
}

// Merge merges a plain nested map or another tree into this one.
func (c *ConfigParser) Merge(source any) error {
	return c.tree.Merge(source)
}

// Get resolves path and returns the value found, or def. A path containing
// ":" is an absolute colon-delimited key sequence; def is returned as soon as
// any segment is absent. Otherwise path is an ordinary top level key.
func (c *ConfigParser) Get(path string, def any) any {
	if strings.Contains(path, ":") {
		var node any = c.tree
		for _, key := range strings.Split(path, ":") {
			section, ok := node.(*Section)
			if !ok {
				return def
			}
			value, ok := section.Items[key]
			if !ok {
				return def
			}
			node = value
		}
		return node
	}
	if value, ok := c.tree.Items[path]; ok {
		return value
	}
	return def
}

// GetString is Get narrowed to string values.
func (c *ConfigParser) GetString(path string, def string) string {
	if value, ok := c.Get(path, def).(string); ok {
		return value
	}
	return def
}

// GetInt is Get narrowed to integer values.
func (c *ConfigParser) GetInt(path string, def int64) int64 {
	switch value := c.Get(path, def).(type) {
	case int64:
		return value
	case int:
		return int64(value)
	}
	return def
}

// =========================
// Setting (parser-internal)
// =========================

// setting stages one key/value entry between the line that declares it and
// the line that forces its flush into the tree.
type setting struct {
	scope []string
	line  int
	name  string
	value any
	typ   string
}

func (s *setting) String() string {
	return fmt.Sprintf("line %d in %v: (%s) %s = %v", s.line, s.scope, s.typ, s.name, s.value)
}

// =========================
// Line State Machine
// =========================

func (c *ConfigParser) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Stack of open section names indexed by depth; "" entries pad depth
	// levels with no section of their own.
	scopeStack := []string{}

	// The single pending setting, or nil.
	var pending *setting

	lineIndex := 0

	for scanner.Scan() {
		lineIndex++

		line := stripComment(scanner.Text())
		if strings.TrimSpace(line) == "" {
			continue
		}

		scope := leadingScope(line, c.indent)
		if len(scopeStack) > scope+1 {
			scopeStack = scopeStack[:scope+1]
		}

		trimmed := strings.TrimSpace(line)

		if header, ok := matchSection(trimmed); ok {
			// Section declaration. Open (or re-open) a node at this scope.
			if err := c.flush(pending); err != nil {
				return err
			}
			pending = nil

			node, err := c.tree.traverse(scopeStack[:min(scope, len(scopeStack))])
			if err != nil {
				return err
			}
			if _, exists := node.Items[header]; !exists {
				node.Set(header, NewSection())
			}

			for len(scopeStack) < scope+1 {
				scopeStack = append(scopeStack, "")
			}
			scopeStack[scope] = header
			continue
		}

		if typ, name, value, ok := matchAssignment(trimmed); ok {
			// Key value pair. Stage it until the next line decides its fate.
			if err := c.flush(pending); err != nil {
				return err
			}
			interpolated, err := c.interpolate(value)
			if err != nil {
				return err
			}
			pending = &setting{
				scope: slices.Clone(scopeStack),
				line:  lineIndex,
				name:  name,
				value: interpolated,
				typ:   typ,
			}
			continue
		}

		if len(scopeStack) <= scope && pending != nil {
			// Continuation: indented deeper than any open section, extends
			// the pending value.
			interpolated, err := c.interpolate(trimmed)
			if err != nil {
				return err
			}
			if prev, ok := pending.value.(string); ok {
				pending.value = prev + c.join + interpolated
			} else {
				pending.value = fmt.Sprint(pending.value) + c.join + interpolated
			}
			continue
		}

		// Bare key: assigned the configured default immediately.
		if err := c.flush(pending); err != nil {
			return err
		}
		pending = nil
		if err := c.flush(&setting{
			scope: slices.Clone(scopeStack),
			line:  lineIndex,
			name:  trimmed,
			value: c.defaultValue,
		}); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return c.flush(pending)
}

// flush pushes the staged setting into the tree at the position expressed by
// its scope.
func (c *ConfigParser) flush(s *setting) error {
	if s == nil {
		return nil
	}

	value := s.value
	if s.typ != "" && s.typ != "str" {
		raw, _ := value.(string)
		cast, err := c.castType(s.typ, raw)
		if err != nil {
			return &TypeCastError{Line: s.line, Name: s.name, Value: s.value, Type: s.typ, Err: err}
		}
		value = cast
	} else if str, ok := value.(string); ok && len(str) >= 2 {
		// Untyped string bounded by one matching quote pair loses exactly
		// that pair.
		first := str[0]
		if (first == '"' || first == '\'') && str[len(str)-1] == first {
			value = str[1 : len(str)-1]
		}
	}

	node, err := c.tree.traverse(s.scope)
	if err != nil {
		return err
	}
	node.Set(s.name, value)
	return nil
}

// =========================
// Line Classification
// =========================

// leadingScope converts leading whitespace into an integer depth, expanding
// each tab to indentSize columns.
func leadingScope(line string, indentSize int) int {
	scope := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			scope++
		case '\t':
			scope += indentSize
		default:
			return scope
		}
	}
	return scope
}

// matchSection reports whether the trimmed line is a [header] declaration
// spanning the whole line.
func matchSection(line string) (string, bool) {
	if len(line) > 2 && strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		return line[1 : len(line)-1], true
	}
	return "", false
}

// matchAssignment reports whether the trimmed line is an optionally typed
// `name = value` or `name: value` pair. Type and name must not contain any
// of `(){}=:`.
func matchAssignment(line string) (typ, name, value string, ok bool) {
	rest := line
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return "", "", "", false
		}
		typ = strings.TrimSpace(rest[1:end])
		if typ == "" || strings.ContainsAny(typ, "({}=:") {
			return "", "", "", false
		}
		rest = rest[end+1:]
	}
	sep := strings.IndexAny(rest, "=:")
	if sep < 0 {
		return "", "", "", false
	}
	name = strings.TrimSpace(rest[:sep])
	if name == "" || strings.ContainsAny(name, "(){}") {
		return "", "", "", false
	}
	return typ, name, strings.TrimSpace(rest[sep+1:]), true
}

// =========================
// Comment Stripping
// =========================

// stripComment removes a trailing # or ; comment, leaving quoted content
// untouched. A backslash shields the next character from opening or closing
// a quote.
func stripComment(line string) string {
	escape := false
	open := byte(0)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch == '\\' {
			escape = true
			continue
		}
		if !escape && open != 0 && ch == open {
			open = 0
		} else if open == 0 && !escape && (ch == '"' || ch == '\'') {
			open = ch
		} else if open == 0 && (ch == '#' || ch == ';') {
			return line[:i]
		}
		escape = false
	}
	return line
}

// =========================
// Interpolation
// =========================

// A reference spans from the first brace to the last closing brace not
// preceded by a backslash, so \{...\} pairs stay literal.
var interpolationRx = regexp.MustCompile(`\{(.*)[^\\]\}`)

// interpolate replaces a {section:key} reference in the fragment with the
// string rendering of the value already parsed at that path.
func (c *ConfigParser) interpolate(fragment string) (string, error) {
	loc := interpolationRx.FindStringIndex(fragment)
	if loc == nil {
		return fragment, nil
	}

	ref := strings.Trim(fragment[loc[0]:loc[1]], "{}")
	path := strings.Split(ref, ":")

	node, err := c.tree.traverse(path[:len(path)-1])
	if err != nil {
		return "", err
	}
	value, ok := node.Items[path[len(path)-1]]
	if !ok {
		return "", &LookupError{Path: path, Key: path[len(path)-1]}
	}

	return fragment[:loc[0]] + renderValue(value) + fragment[loc[1]:], nil
}

// renderValue is the textual form a resolved reference splices into the
// surrounding fragment.
func renderValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(value)
	}
}
