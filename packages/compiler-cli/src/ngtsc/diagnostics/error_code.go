package diagnostics

import "fmt"

// ErrorCode identifies a compilation error. The numbers match the `NG` codes printed to users.
type ErrorCode int

const (
	// NgModuleInvalidDeclaration: a declaration of an NgModule is not a directive, component
	// or pipe.
	NgModuleInvalidDeclaration ErrorCode = 6001
	// NgModuleInvalidImport: an import of an NgModule is not an NgModule (or a standalone
	// component, directive or pipe).
	NgModuleInvalidImport ErrorCode = 6002
	// NgModuleInvalidExport: an export of an NgModule is not an NgModule, directive, component
	// or pipe.
	NgModuleInvalidExport ErrorCode = 6003
	// NgModuleInvalidReexport: an NgModule exports something it neither declares nor imports.
	NgModuleInvalidReexport ErrorCode = 6004
	// NgModuleReexportNameCollision: two re-exported classes would be exported under the same
	// name.
	NgModuleReexportNameCollision ErrorCode = 6006
	// NgModuleDeclarationNotUnique: a class is declared in more than one NgModule.
	NgModuleDeclarationNotUnique ErrorCode = 6007
	// NgModuleDeclarationIsStandalone: a standalone class is declared in an NgModule.
	NgModuleDeclarationIsStandalone ErrorCode = 6008
	// ComponentImportNotStandalone: a standalone component imports something that is not
	// standalone and not an NgModule.
	ComponentImportNotStandalone ErrorCode = 2011
	// ComponentUnknownImport: a standalone component imports something that cannot be
	// resolved.
	ComponentUnknownImport ErrorCode = 2012
	// MissingPipe: a template uses a pipe that is not in scope.
	MissingPipe ErrorCode = 8004
)

var errorCodeNames = map[ErrorCode]string{
	NgModuleInvalidDeclaration:      "NGMODULE_INVALID_DECLARATION",
	NgModuleInvalidImport:           "NGMODULE_INVALID_IMPORT",
	NgModuleInvalidExport:           "NGMODULE_INVALID_EXPORT",
	NgModuleInvalidReexport:         "NGMODULE_INVALID_REEXPORT",
	NgModuleReexportNameCollision:   "NGMODULE_REEXPORT_NAME_COLLISION",
	NgModuleDeclarationNotUnique:    "NGMODULE_DECLARATION_NOT_UNIQUE",
	NgModuleDeclarationIsStandalone: "NGMODULE_DECLARATION_IS_STANDALONE",
	ComponentImportNotStandalone:    "COMPONENT_IMPORT_NOT_STANDALONE",
	ComponentUnknownImport:          "COMPONENT_UNKNOWN_IMPORT",
	MissingPipe:                     "MISSING_PIPE",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// FormatCode renders an error code the way users see it, e.g. `NG6001`.
func FormatCode(code ErrorCode) string {
	return fmt.Sprintf("NG%d", int(code))
}
