package scope

import (
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler/core"
)

// ScopeData is a set of directives, pipes and NgModules, in the order they were collected.
type ScopeData struct {
	Dependencies []metadata.Meta
	// IsPoisoned marks scopes computed from inputs with errors. Their contents are best effort.
	IsPoisoned bool
}

// ExportScope is what an NgModule makes available to the NgModules and standalone components
// that import it.
type ExportScope struct {
	Exported ScopeData
}

// ComponentScopeKind discriminates ComponentScope
type ComponentScopeKind int

const (
	ComponentScopeKindNgModule ComponentScopeKind = iota
	ComponentScopeKindStandalone
)

func (k ComponentScopeKind) String() string {
	if k == ComponentScopeKindStandalone {
		return "standalone"
	}
	return "ngmodule"
}

// ComponentScope is the scope of a component template: a *LocalModuleScope or a
// *StandaloneScope.
type ComponentScope interface {
	Kind() ComponentScopeKind
	GetSchemas() []core.SchemaMetadata
}

// Reexport is a symbol an NgModule's file re-exports so that its importers can reach it:
// `export {SymbolName as AsAlias} from 'FromModule'`.
type Reexport struct {
	SymbolName string
	AsAlias    string
	FromModule string
}

// LocalModuleScope is the scope of an NgModule under compilation, shared by every component
// it declares.
type LocalModuleScope struct {
	NgModule    *reflection.Declaration
	Compilation ScopeData
	Exported    ScopeData
	// Reexports is nil when no aliasing host is configured.
	Reexports []Reexport
	Schemas   []core.SchemaMetadata
}

func (s *LocalModuleScope) Kind() ComponentScopeKind          { return ComponentScopeKindNgModule }
func (s *LocalModuleScope) GetSchemas() []core.SchemaMetadata { return s.Schemas }

// StandaloneScope is the scope of a standalone component. The component is its first
// dependency.
type StandaloneScope struct {
	Component    *reflection.Declaration
	Dependencies []metadata.Meta
	IsPoisoned   bool
	Schemas      []core.SchemaMetadata
}

func (s *StandaloneScope) Kind() ComponentScopeKind          { return ComponentScopeKindStandalone }
func (s *StandaloneScope) GetSchemas() []core.SchemaMetadata { return s.Schemas }

// RemoteScope is the set of directives and pipes a component uses that has to be registered
// from its NgModule's file, because importing them from the component's file would create an
// import cycle.
type RemoteScope struct {
	Directives []*imports.Reference
	Pipes      []*imports.Reference
}

// ComponentScopeReader reads the scope of components.
type ComponentScopeReader interface {
	// GetScopeForComponent returns the scope of a component, or nil if it has none.
	GetScopeForComponent(clazz *reflection.Declaration) ComponentScope
	// GetRemoteScope returns the remote scope of a component, or nil if its scope can be set
	// from its own file.
	GetRemoteScope(clazz *reflection.Declaration) *RemoteScope
}

// DtsModuleScopeResolver resolves the export scope of NgModules of declaration files.
type DtsModuleScopeResolver interface {
	Resolve(ref *imports.Reference) *ExportScope
}

// CompoundComponentScopeReader reads from an ordered list of readers: the first one that has
// an answer wins.
type CompoundComponentScopeReader struct {
	readers []ComponentScopeReader
}

// NewCompoundComponentScopeReader creates a new CompoundComponentScopeReader
func NewCompoundComponentScopeReader(readers ...ComponentScopeReader) *CompoundComponentScopeReader {
	return &CompoundComponentScopeReader{readers: readers}
}

func (c *CompoundComponentScopeReader) GetScopeForComponent(clazz *reflection.Declaration) ComponentScope {
	for _, reader := range c.readers {
		if meta := reader.GetScopeForComponent(clazz); meta != nil {
			return meta
		}
	}
	return nil
}

func (c *CompoundComponentScopeReader) GetRemoteScope(clazz *reflection.Declaration) *RemoteScope {
	for _, reader := range c.readers {
		if remoteScope := reader.GetRemoteScope(clazz); remoteScope != nil {
			return remoteScope
		}
	}
	return nil
}
