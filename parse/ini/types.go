package ini

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =========================
// Type Registry
// =========================

// Factory builds a value of an externally registered type from the parsed
// tokens of a setting.
type Factory func(tokens ...string) (any, error)

// TypeRegistry maps dotted type names to factories. An unregistered name is
// a hard parse error, never a reflection attempt.
type TypeRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewTypeRegistry constructs an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		factories: make(map[string]Factory),
	}
}

// Register stores factory under name guarding against duplicates.
func (r *TypeRegistry) Register(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("ini: factory %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("ini: factory name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("ini: factory %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Resolve returns the factory registered under name.
func (r *TypeRegistry) Resolve(name string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	return factory, ok
}

// Clone returns a shallow copy of the registry.
func (r *TypeRegistry) Clone() *TypeRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &TypeRegistry{
		factories: make(map[string]Factory, len(r.factories)),
	}
	for name, factory := range r.factories {
		clone.factories[name] = factory
	}
	return clone
}

// Names returns registered type names sorted alphabetically.
func (r *TypeRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry ships the built-in dotted type names.
func defaultRegistry() *TypeRegistry {
	registry := NewTypeRegistry()
	_ = registry.Register("uuid.UUID", func(tokens ...string) (any, error) {
		if len(tokens) != 1 {
			return nil, fmt.Errorf("uuid.UUID takes exactly one token, got %d", len(tokens))
		}
		return uuid.Parse(tokens[0])
	})
	_ = registry.Register("time.Duration", func(tokens ...string) (any, error) {
		if len(tokens) != 1 {
			return nil, fmt.Errorf("time.Duration takes exactly one token, got %d", len(tokens))
		}
		return time.ParseDuration(tokens[0])
	})
	return registry
}

// =========================
// Type Annotation Grammar
// =========================

// parseTypeAnnotation splits `name` or `name<subtype>` into its parts. The
// base name admits word characters and dots; the subtype must not contain a
// closing angle bracket.
func parseTypeAnnotation(annotation string) (base, sub string, err error) {
	idx := strings.IndexByte(annotation, '<')
	if idx < 0 {
		base = annotation
	} else {
		if !strings.HasSuffix(annotation, ">") {
			return "", "", fmt.Errorf("couldn't process type signature: %s", annotation)
		}
		base = annotation[:idx]
		sub = annotation[idx+1 : len(annotation)-1]
		if sub == "" || strings.ContainsRune(sub, '>') {
			return "", "", fmt.Errorf("couldn't process type signature: %s", annotation)
		}
	}
	if base == "" {
		return "", "", fmt.Errorf("couldn't process type signature: %s", annotation)
	}
	for _, ch := range base {
		if ch == '.' || ch == '_' ||
			(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			continue
		}
		return "", "", fmt.Errorf("couldn't process type signature: %s", annotation)
	}
	return base, sub, nil
}

// =========================
// Casting (text -> value)
// =========================

// splitTokens breaks raw on the delimiter and trims whitespace plus quote
// layers per token. Empty raw text yields no tokens.
func (c *ConfigParser) splitTokens(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, c.delimiter)
	tokens := make([]string, len(parts))
	for i, part := range parts {
		token := strings.TrimSpace(part)
		token = strings.Trim(token, `"`)
		token = strings.Trim(token, `'`)
		tokens[i] = token
	}
	return tokens
}

// castType converts raw into the value described by the type annotation.
func (c *ConfigParser) castType(annotation, raw string) (any, error) {
	base, sub, err := parseTypeAnnotation(annotation)
	if err != nil {
		return nil, err
	}

	if base == "eval" {
		if c.safe {
			return nil, ErrUnsafeEval
		}
		return c.evalExpression(raw)
	}

	if sub != "" && !acceptsSubtype(base) {
		return nil, fmt.Errorf("type %s does not accept a subtype", base)
	}

	tokens := c.splitTokens(raw)

	// Elements of composite types, cast through the subtype when one is
	// given.
	elems := make([]any, len(tokens))
	for i, token := range tokens {
		if sub != "" {
			cast, err := c.castType(sub, token)
			if err != nil {
				return nil, err
			}
			elems[i] = cast
			continue
		}
		elems[i] = token
	}

	switch base {
	case "str":
		return strings.Join(tokens, c.delimiter), nil

	case "list":
		return elems, nil
	case "tuple":
		return Tuple(elems), nil
	case "set":
		return Set(uniqueElems(elems)), nil
	case "frozenset":
		return FrozenSet(uniqueElems(elems)), nil

	case "range":
		return castRange(tokens)

	case "bytes":
		data, err := castBytes(tokens)
		if err != nil {
			return nil, err
		}
		return data, nil
	case "bytearray":
		data, err := castBytes(tokens)
		if err != nil {
			return nil, err
		}
		return ByteArray(data), nil

	case "bool":
		if len(tokens) == 0 {
			return nil, fmt.Errorf("cast to bool requires a value")
		}
		return tokens[0] == "True", nil

	case "int":
		return castInt(tokens)
	case "float":
		if len(tokens) != 1 {
			return nil, fmt.Errorf("cast to float takes exactly one token, got %d", len(tokens))
		}
		return strconv.ParseFloat(tokens[0], 64)
	case "complex":
		return strconv.ParseComplex(strings.Join(tokens, ""), 128)

	default:
		factory, ok := c.registry.Resolve(base)
		if !ok {
			return nil, fmt.Errorf("type %q is not registered", base)
		}
		return factory(tokens...)
	}
}

func acceptsSubtype(base string) bool {
	switch base {
	case "list", "tuple", "set", "frozenset":
		return true
	}
	return false
}

func castRange(tokens []string) (any, error) {
	if len(tokens) == 0 || len(tokens) > 3 {
		return nil, fmt.Errorf("cast to range takes 1 to 3 tokens, got %d", len(tokens))
	}
	nums := make([]int, len(tokens))
	for i, token := range tokens {
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	switch len(nums) {
	case 1:
		return Range{Start: 0, Stop: nums[0], Step: 1}, nil
	case 2:
		return Range{Start: nums[0], Stop: nums[1], Step: 1}, nil
	default:
		if nums[2] == 0 {
			return nil, fmt.Errorf("range step must not be zero")
		}
		return Range{Start: nums[0], Stop: nums[1], Step: nums[2]}, nil
	}
}

func castBytes(tokens []string) ([]byte, error) {
	switch len(tokens) {
	case 1:
		return []byte(tokens[0]), nil
	case 2:
		switch strings.ToLower(tokens[1]) {
		case "utf-8", "utf8", "ascii":
			return []byte(tokens[0]), nil
		}
		return nil, fmt.Errorf("unsupported encoding %q", tokens[1])
	}
	return nil, fmt.Errorf("cast to bytes takes a text token and an optional encoding, got %d tokens", len(tokens))
}

func castInt(tokens []string) (any, error) {
	switch len(tokens) {
	case 1:
		return strconv.ParseInt(tokens[0], 10, 64)
	case 2:
		baseNum, err := strconv.Atoi(tokens[1])
		if err != nil {
			return nil, err
		}
		return strconv.ParseInt(tokens[0], baseNum, 64)
	}
	return nil, fmt.Errorf("cast to int takes one token and an optional base, got %d tokens", len(tokens))
}

// =========================
// Uncasting (value -> text)
// =========================

// uncast is the serializer's inverse mapping: it returns the minimal type
// annotation plus the textual form that re-parses to value. Strings carry no
// annotation.
func (c *ConfigParser) uncast(value any) (annotation, text string, err error) {
	switch v := value.(type) {
	case string:
		return "", v, nil
	case bool:
		if v {
			return "bool", "True", nil
		}
		return "bool", "False", nil
	case int:
		return "int", strconv.Itoa(v), nil
	case int64:
		return "int", strconv.FormatInt(v, 10), nil
	case float64:
		return "float", strconv.FormatFloat(v, 'g', -1, 64), nil
	case complex128:
		return "complex", strings.Trim(strconv.FormatComplex(v, 'g', -1, 128), "()"), nil

	case []any:
		return c.elemTypeName("list", v), c.joinElems(v), nil
	case Tuple:
		return c.elemTypeName("tuple", v), c.joinElems(v), nil
	case Set:
		return c.elemTypeName("set", v), c.joinElems(v), nil
	case FrozenSet:
		return c.elemTypeName("frozenset", v), c.joinElems(v), nil

	case []byte:
		return "bytes", string(v) + c.delimiter + " utf-8", nil
	case ByteArray:
		return "bytearray", string(v) + c.delimiter + " utf-8", nil

	case Range:
		nums := []string{
			strconv.Itoa(v.Start),
			strconv.Itoa(v.Stop),
			strconv.Itoa(v.Step),
		}
		return "range", strings.Join(nums, c.delimiter+" "), nil

	default:
		return "", "", &SerializeError{Value: value}
	}
}

// elemTypeName refines base to base<elem> when every element shares one
// underlying type.
func (c *ConfigParser) elemTypeName(base string, elems []any) string {
	if len(elems) == 0 {
		return base
	}
	first := scalarTypeName(elems[0])
	if first == "" {
		return base
	}
	for _, elem := range elems[1:] {
		if scalarTypeName(elem) != first {
			return base
		}
	}
	return base + "<" + first + ">"
}

func scalarTypeName(value any) string {
	switch value.(type) {
	case string:
		return "str"
	case bool:
		return "bool"
	case int, int64:
		return "int"
	case float64:
		return "float"
	case complex128:
		return "complex"
	case []byte:
		return "bytes"
	case ByteArray:
		return "bytearray"
	case Range:
		return "range"
	}
	return ""
}

// joinElems renders elements in per-element literal form: strings quoted,
// scalars bare.
func (c *ConfigParser) joinElems(elems []any) string {
	parts := make([]string, len(elems))
	for i, elem := range elems {
		parts[i] = elemLiteral(elem)
	}
	return strings.Join(parts, c.delimiter+" ")
}

func elemLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return "'" + v + "'"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case complex128:
		return strings.Trim(strconv.FormatComplex(v, 'g', -1, 128), "()")
	default:
		return fmt.Sprint(value)
	}
}
