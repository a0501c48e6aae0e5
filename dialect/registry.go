package dialect

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/anhcx0209/ontodia-search/errors"
)

// DefaultName is the dialect used when none is configured: OWL/RDFS with
// instance counts in the class tree.
const DefaultName = "owl-stats"

//go:embed presets/*.yaml
var presetFS embed.FS

var (
	builtinOnce sync.Once
	builtin     map[string]Settings
	builtinErr  error
)

// document is the file form of a dialect.
type document struct {
	Name      string `yaml:"name"`
	Extends   string `yaml:"extends"`
	Overrides `yaml:",inline"`
}

// Registry maps dialect names to resolved settings. It is filled at
// configuration time and read afterwards.
type Registry struct {
	mu       sync.RWMutex
	dialects map[string]Settings
}

// Option configures a Registry.
type Option func(*registryOptions)

type registryOptions struct {
	presets bool
	files   []string
}

// WithoutPresets starts the registry empty.
func WithoutPresets() Option {
	return func(o *registryOptions) { o.presets = false }
}

// WithFiles loads additional dialect files after the presets.
func WithFiles(paths ...string) Option {
	return func(o *registryOptions) { o.files = append(o.files, paths...) }
}

// NewRegistry returns a registry holding the built-in presets and any
// files given through options.
func NewRegistry(opts ...Option) (*Registry, error) {
	o := registryOptions{presets: true}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{dialects: make(map[string]Settings)}
	if o.presets {
		presets, err := builtinPresets()
		if err != nil {
			return nil, err
		}
		for name, s := range presets {
			r.dialects[name] = s
		}
	}
	for _, p := range o.files {
		if err := r.LoadFile(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default returns the built-in DefaultName dialect.
func Default() Settings {
	presets, err := builtinPresets()
	if err != nil {
		panic(fmt.Sprintf("dialect: built-in presets are invalid: %v", err))
	}
	return presets[DefaultName]
}

// Preset returns a built-in dialect by name.
func Preset(name string) (Settings, error) {
	presets, err := builtinPresets()
	if err != nil {
		return Settings{}, err
	}
	s, ok := presets[name]
	if !ok {
		return Settings{}, errors.NewComposition("resolve dialect", errors.ErrUnknownDialect, "%q", name)
	}
	return s, nil
}

func builtinPresets() (map[string]Settings, error) {
	builtinOnce.Do(func() {
		r := &Registry{dialects: make(map[string]Settings)}
		builtinErr = r.loadFS(presetFS, "presets")
		builtin = r.dialects
	})
	return builtin, builtinErr
}

// Register validates s and stores it under s.Name, replacing any dialect
// of the same name.
func (r *Registry) Register(s Settings) error {
	if err := Validate(s); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialects[s.Name] = s
	return nil
}

// Define composes a new dialect from a registered base and registers it.
func (r *Registry) Define(name, base string, o Overrides) (Settings, error) {
	b, err := r.Resolve(base)
	if err != nil {
		return Settings{}, err
	}
	s := Compose(b, o)
	s.Name = name
	if err := r.Register(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Resolve returns the dialect registered under name.
func (r *Registry) Resolve(name string) (Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.dialects[name]
	if !ok {
		return Settings{}, errors.NewComposition("resolve dialect", errors.ErrUnknownDialect, "%q", name)
	}
	return s, nil
}

// Names returns the registered dialect names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.dialects))
	for name := range r.dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile registers every dialect document in a YAML file.
func (r *Registry) LoadFile(p string) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return errors.WrapInvalid(err, "dialect.Registry", "LoadFile", "read "+p)
	}
	if err := r.Load(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	return nil
}

// Load registers every dialect document in a YAML stream. Documents may
// extend dialects that are already registered or that appear anywhere in
// the same stream. Nothing is registered if any document is invalid.
func (r *Registry) Load(in io.Reader) error {
	docs, err := decodeDocuments(in)
	if err != nil {
		return err
	}
	return r.resolveDocuments(docs)
}

func (r *Registry) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	var docs []document
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		f, err := fsys.Open(path.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		d, err := decodeDocuments(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		docs = append(docs, d...)
	}
	return r.resolveDocuments(docs)
}

func decodeDocuments(in io.Reader) ([]document, error) {
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)

	var docs []document
	for {
		var d document
		err := dec.Decode(&d)
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, errors.NewComposition("load dialect", errors.ErrInvalidDialect, "decode yaml: %v", err)
		}
		if d.Name == "" {
			return nil, errors.NewComposition("load dialect", errors.ErrInvalidDialect, "document %d has no name", len(docs)+1)
		}
		docs = append(docs, d)
	}
}

// resolveDocuments composes documents in dependency order and registers
// them together once all are valid.
func (r *Registry) resolveDocuments(docs []document) error {
	r.mu.RLock()
	known := make(map[string]Settings, len(r.dialects)+len(docs))
	for name, s := range r.dialects {
		known[name] = s
	}
	r.mu.RUnlock()

	pending := docs
	resolved := make(map[string]Settings, len(docs))
	for len(pending) > 0 {
		var next []document
		for _, d := range pending {
			var base Settings
			if d.Extends != "" {
				b, ok := known[d.Extends]
				if !ok {
					next = append(next, d)
					continue
				}
				base = b
			}
			s := Compose(base, d.Overrides)
			s.Name = d.Name
			if d.Overrides.Description == nil && d.Extends != "" {
				s.Description = ""
			}
			if err := Validate(s); err != nil {
				return err
			}
			known[d.Name] = s
			resolved[d.Name] = s
		}
		if len(next) == len(pending) {
			return errors.NewComposition("load dialect", errors.ErrUnknownDialect,
				"%q extends %q, which is not defined", next[0].Name, next[0].Extends)
		}
		pending = next
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, s := range resolved {
		r.dialects[name] = s
	}
	return nil
}
