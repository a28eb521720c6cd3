package reflection

import (
	"fmt"
	"strings"
)

// SourceFile is a file of the program. Declaration files (`.d.ts`) come from already
// compiled libraries.
type SourceFile struct {
	FileName          string
	IsDeclarationFile bool
	// Imports lists the files this file imports from.
	Imports []string
}

// NewSourceFile creates a SourceFile, deriving IsDeclarationFile from the file name.
func NewSourceFile(fileName string) *SourceFile {
	return &SourceFile{FileName: fileName, IsDeclarationFile: strings.HasSuffix(fileName, ".d.ts")}
}

// DeclarationKind is the kind of a top-level declaration
type DeclarationKind int

const (
	DeclarationKindClass DeclarationKind = iota
	DeclarationKindFunction
	DeclarationKindVariable
)

func (k DeclarationKind) String() string {
	switch k {
	case DeclarationKindClass:
		return "class"
	case DeclarationKindFunction:
		return "function"
	case DeclarationKindVariable:
		return "variable"
	default:
		return fmt.Sprintf("DeclarationKind(%d)", int(k))
	}
}

// Declaration is a top-level declaration of a source file. Two declarations are the same
// declaration only if they are the same pointer; maps keyed by *Declaration are keyed by
// class identity.
type Declaration struct {
	Name       string
	Kind       DeclarationKind
	SourceFile *SourceFile
}

// IsClass reports whether the declaration is a class
func (d *Declaration) IsClass() bool {
	return d.Kind == DeclarationKindClass
}

// DebugName returns the declared name
func (d *Declaration) DebugName() string {
	return d.Name
}

func (d *Declaration) String() string {
	return d.SourceFile.FileName + "#" + d.Name
}

// ReflectionHost answers structural questions about the program.
type ReflectionHost interface {
	// GetExportsOfModule returns the declarations exported by a file under their exported
	// names, or nil if the file is unknown.
	GetExportsOfModule(sf *SourceFile) map[string]*Declaration
	// GetDeclaration looks a declaration up by file name and local name.
	GetDeclaration(fileName, name string) *Declaration
}

// StaticReflectionHost is a ReflectionHost over a fixed set of files and declarations.
type StaticReflectionHost struct {
	files        map[string]*SourceFile
	declarations map[string]map[string]*Declaration
	exports      map[*SourceFile]map[string]*Declaration
	order        []*SourceFile
}

// NewStaticReflectionHost creates an empty StaticReflectionHost
func NewStaticReflectionHost() *StaticReflectionHost {
	return &StaticReflectionHost{
		files:        make(map[string]*SourceFile),
		declarations: make(map[string]map[string]*Declaration),
		exports:      make(map[*SourceFile]map[string]*Declaration),
	}
}

// AddFile registers a file, returning the existing one if the name is already known.
func (h *StaticReflectionHost) AddFile(sf *SourceFile) *SourceFile {
	if existing, ok := h.files[sf.FileName]; ok {
		return existing
	}
	h.files[sf.FileName] = sf
	h.declarations[sf.FileName] = make(map[string]*Declaration)
	h.exports[sf] = make(map[string]*Declaration)
	h.order = append(h.order, sf)
	return sf
}

// File returns a registered file or nil
func (h *StaticReflectionHost) File(fileName string) *SourceFile {
	return h.files[fileName]
}

// Files returns every registered file in registration order
func (h *StaticReflectionHost) Files() []*SourceFile {
	return append([]*SourceFile(nil), h.order...)
}

// Declare adds a declaration to a registered file. When exported is set the declaration is
// also exported under its own name.
func (h *StaticReflectionHost) Declare(sf *SourceFile, name string, kind DeclarationKind, exported bool) (*Declaration, error) {
	decls, ok := h.declarations[sf.FileName]
	if !ok {
		return nil, fmt.Errorf("unknown file %s", sf.FileName)
	}
	if _, exists := decls[name]; exists {
		return nil, fmt.Errorf("duplicate declaration %s in %s", name, sf.FileName)
	}
	decl := &Declaration{Name: name, Kind: kind, SourceFile: sf}
	decls[name] = decl
	if exported {
		h.exports[sf][name] = decl
	}
	return decl, nil
}

// Export exports decl from sf under exportName, which re-exports it when decl lives in
// another file.
func (h *StaticReflectionHost) Export(sf *SourceFile, exportName string, decl *Declaration) {
	h.exports[sf][exportName] = decl
}

func (h *StaticReflectionHost) GetExportsOfModule(sf *SourceFile) map[string]*Declaration {
	exports, ok := h.exports[sf]
	if !ok {
		return nil
	}
	result := make(map[string]*Declaration, len(exports))
	for name, decl := range exports {
		result[name] = decl
	}
	return result
}

func (h *StaticReflectionHost) GetDeclaration(fileName, name string) *Declaration {
	return h.declarations[fileName][name]
}
