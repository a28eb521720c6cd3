package program

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Manifest describes a program: its files and declarations, and the Angular metadata of its
// classes. Symbols are written `<file>#<name>`.
type Manifest struct {
	// AngularVersion decides whether declarations without an explicit standalone flag are
	// standalone.
	AngularVersion string `yaml:"angularVersion"`
	// Includes are manifests merged before this one, relative to its URL.
	Includes   []string        `yaml:"includes"`
	Files      []FileSpec      `yaml:"files"`
	Directives []DirectiveSpec `yaml:"directives"`
	Pipes      []PipeSpec      `yaml:"pipes"`
	NgModules  []NgModuleSpec  `yaml:"ngModules"`

	URL string `yaml:"-"`

	included []*Manifest
}

// FileSpec is a source file. Files ending with .d.ts are library declaration files.
type FileSpec struct {
	Name string `yaml:"name"`
	// Module is the module specifier library files are imported through.
	Module string `yaml:"module"`
	// Imports lists the files this file imports.
	Imports      []string          `yaml:"imports"`
	Declarations []DeclarationSpec `yaml:"declarations"`
	Exports      []ExportSpec      `yaml:"exports"`
}

// DeclarationSpec is a top-level declaration. Kind is class (default), function or variable;
// declarations are exported unless Exported is false.
type DeclarationSpec struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Exported *bool  `yaml:"exported"`
}

// ExportSpec re-exports a symbol, under As when set.
type ExportSpec struct {
	Symbol string `yaml:"symbol"`
	As     string `yaml:"as"`
}

// DirectiveSpec is a directive or component. Inputs and outputs are written `name` or
// `classProperty: bindingName`.
type DirectiveSpec struct {
	Class               string              `yaml:"class"`
	Selector            *string             `yaml:"selector"`
	Component           bool                `yaml:"component"`
	Standalone          *bool               `yaml:"standalone"`
	Structural          bool                `yaml:"structural"`
	Signal              bool                `yaml:"signal"`
	ExportAs            []string            `yaml:"exportAs"`
	Inputs              []string            `yaml:"inputs"`
	Outputs             []string            `yaml:"outputs"`
	BaseClass           string              `yaml:"baseClass"`
	HostDirectives      []HostDirectiveSpec `yaml:"hostDirectives"`
	Imports             []string            `yaml:"imports"`
	Schemas             []string            `yaml:"schemas"`
	Animations          []string            `yaml:"animations"`
	Poisoned            bool                `yaml:"poisoned"`
	PreserveWhitespaces bool                `yaml:"preserveWhitespaces"`
	NgContentSelectors  []string            `yaml:"ngContentSelectors"`
	Template            Template            `yaml:"template"`
}

// HostDirectiveSpec applies a host directive, exposing some of its inputs and outputs.
type HostDirectiveSpec struct {
	Directive string   `yaml:"directive"`
	Inputs    []string `yaml:"inputs"`
	Outputs   []string `yaml:"outputs"`
}

// PipeSpec is a pipe. Pipes are pure unless Pure is false.
type PipeSpec struct {
	Class      string `yaml:"class"`
	Name       string `yaml:"name"`
	Standalone *bool  `yaml:"standalone"`
	Pure       *bool  `yaml:"pure"`
}

// NgModuleSpec is an NgModule.
type NgModuleSpec struct {
	Class        string   `yaml:"class"`
	Declarations []string `yaml:"declarations"`
	Imports      []string `yaml:"imports"`
	Exports      []string `yaml:"exports"`
	Schemas      []string `yaml:"schemas"`
}

// ParseManifest decodes a YAML manifest. Includes are not loaded.
func ParseManifest(data []byte) (*Manifest, error) {
	manifest := &Manifest{}
	if err := yaml.Unmarshal(data, manifest); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	return manifest, nil
}

// LoadManifest reads the manifest at URL and merges its includes, which are loaded
// concurrently. Included content comes first, in include order. A manifest included more
// than once is merged at its first position only.
func LoadManifest(ctx context.Context, fs afs.Service, URL string) (*Manifest, error) {
	if fs == nil {
		fs = afs.New()
	}
	root, err := loadManifest(ctx, fs, URL, nil)
	if err != nil {
		return nil, err
	}
	merged := &Manifest{AngularVersion: root.AngularVersion, URL: URL}
	merged.merge(root, map[string]bool{})
	return merged, nil
}

func (m *Manifest) merge(from *Manifest, merged map[string]bool) {
	if merged[from.URL] {
		return
	}
	merged[from.URL] = true
	for _, include := range from.included {
		m.merge(include, merged)
	}
	if m.AngularVersion == "" {
		m.AngularVersion = from.AngularVersion
	}
	m.Files = append(m.Files, from.Files...)
	m.Directives = append(m.Directives, from.Directives...)
	m.Pipes = append(m.Pipes, from.Pipes...)
	m.NgModules = append(m.NgModules, from.NgModules...)
}

func loadManifest(ctx context.Context, fs afs.Service, URL string, ancestors []string) (*Manifest, error) {
	for _, ancestor := range ancestors {
		if ancestor == URL {
			return nil, errors.Errorf("include cycle: %s", strings.Join(append(ancestors, URL), " -> "))
		}
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load manifest: %v", URL)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, errors.Wrap(err, URL)
	}
	manifest.URL = URL
	if len(manifest.Includes) == 0 {
		return manifest, nil
	}

	baseURL, _ := url.Split(URL, file.Scheme)
	chain := append(append([]string(nil), ancestors...), URL)
	included := make([]*Manifest, len(manifest.Includes))
	g, gctx := errgroup.WithContext(ctx)
	for i, include := range manifest.Includes {
		includeURL := include
		if url.IsRelative(include) {
			includeURL = url.Join(baseURL, include)
		}
		g.Go(func(i int, includeURL string) func() error {
			return func() error {
				m, err := loadManifest(gctx, fs, includeURL, chain)
				if err != nil {
					return err
				}
				included[i] = m
				return nil
			}
		}(i, includeURL))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	manifest.included = included
	return manifest, nil
}

// splitSymbol splits `<file>#<name>`
func splitSymbol(symbol string) (fileName, name string, ok bool) {
	fileName, name, ok = strings.Cut(symbol, "#")
	if !ok || fileName == "" || name == "" {
		return "", "", false
	}
	return fileName, name, true
}
