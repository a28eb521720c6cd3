package imports

import (
	"path"
	"regexp"
	"strings"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler/src/output"
)

var charsToEscape = regexp.MustCompile(`[^a-zA-Z0-9/_]`)

// UnifiedModulesHost maps file names to the module names they are imported by when every
// file of the program is addressable as a module.
type UnifiedModulesHost interface {
	FileNameToModuleName(importedFilePath, containingFilePath string) string
}

// AliasingHost creates aliases for directives and pipes that are exported through an NgModule
// from a file that does not declare them, so that importers of the NgModule can refer to them
// without a direct import path.
type AliasingHost interface {
	// AliasExportsInDts reports whether aliases are also written to declaration files.
	AliasExportsInDts() bool

	// MaybeAliasSymbolAs returns the name under which ngModuleName's file should export ref,
	// or "" when no alias is needed.
	MaybeAliasSymbolAs(ref *Reference, context *reflection.SourceFile, ngModuleName string, isReExport bool) string

	// GetAliasIn returns an expression that refers to decl through an alias exported by via,
	// or nil if there is none.
	GetAliasIn(decl *reflection.Declaration, via *reflection.SourceFile, isReExport bool) output.OutputExpression
}

// UnifiedModulesAliasingHost aliases re-exported symbols under a name derived from the module
// of the declaring file: `ɵng$<module>$$<name>`.
type UnifiedModulesAliasingHost struct {
	unifiedModulesHost UnifiedModulesHost
}

// NewUnifiedModulesAliasingHost creates a new UnifiedModulesAliasingHost
func NewUnifiedModulesAliasingHost(unifiedModulesHost UnifiedModulesHost) *UnifiedModulesAliasingHost {
	return &UnifiedModulesAliasingHost{unifiedModulesHost: unifiedModulesHost}
}

// AliasExportsInDts is false: consumers of a unified-modules build use the alias through the
// declaring module's metadata instead.
func (h *UnifiedModulesAliasingHost) AliasExportsInDts() bool {
	return false
}

func (h *UnifiedModulesAliasingHost) MaybeAliasSymbolAs(ref *Reference, context *reflection.SourceFile, ngModuleName string, isReExport bool) string {
	if !isReExport {
		// Declarations are not aliased, since their own file already exports them.
		return ""
	}
	return h.aliasName(ref.Node, context)
}

func (h *UnifiedModulesAliasingHost) GetAliasIn(decl *reflection.Declaration, via *reflection.SourceFile, isReExport bool) output.OutputExpression {
	if !isReExport {
		return nil
	}
	moduleName := h.unifiedModulesHost.FileNameToModuleName(via.FileName, via.FileName)
	return output.NewExternalExprOf(moduleName, h.aliasName(decl, via))
}

func (h *UnifiedModulesAliasingHost) aliasName(decl *reflection.Declaration, context *reflection.SourceFile) string {
	declModule := h.unifiedModulesHost.FileNameToModuleName(decl.SourceFile.FileName, context.FileName)
	replaced := strings.ReplaceAll(charsToEscape.ReplaceAllString(declModule, "_"), "/", "$")
	return "ɵng$" + replaced + "$$" + decl.Name
}

// PrivateExportAliasingHost aliases symbols an NgModule exports but its file does not, so that
// the symbol is reachable through the NgModule's file: `ɵngExportɵ<NgModule>ɵ<name>`.
type PrivateExportAliasingHost struct {
	host reflection.ReflectionHost
}

// NewPrivateExportAliasingHost creates a new PrivateExportAliasingHost
func NewPrivateExportAliasingHost(host reflection.ReflectionHost) *PrivateExportAliasingHost {
	return &PrivateExportAliasingHost{host: host}
}

func (h *PrivateExportAliasingHost) AliasExportsInDts() bool {
	return true
}

func (h *PrivateExportAliasingHost) MaybeAliasSymbolAs(ref *Reference, context *reflection.SourceFile, ngModuleName string, isReExport bool) string {
	if ref.HasOwningModuleGuess() {
		// Symbols from external modules are imported through their module.
		return ""
	}
	for _, decl := range h.host.GetExportsOfModule(context) {
		if decl == ref.Node {
			return ""
		}
	}
	return "ɵngExportɵ" + ngModuleName + "ɵ" + ref.Node.Name
}

// GetAliasIn is nil: private export aliases are only written to declaration files, which are
// read back through the module's metadata.
func (h *PrivateExportAliasingHost) GetAliasIn(decl *reflection.Declaration, via *reflection.SourceFile, isReExport bool) output.OutputExpression {
	return nil
}

// LogicalFileSystemModuleHost names modules by their path relative to the first matching root
// directory, without extension and without a trailing `/index`.
type LogicalFileSystemModuleHost struct {
	rootDirs []string
}

// NewLogicalFileSystemModuleHost creates a new LogicalFileSystemModuleHost
func NewLogicalFileSystemModuleHost(rootDirs []string) *LogicalFileSystemModuleHost {
	cleaned := make([]string, 0, len(rootDirs))
	for _, dir := range rootDirs {
		cleaned = append(cleaned, strings.TrimSuffix(path.Clean(dir), "/")+"/")
	}
	return &LogicalFileSystemModuleHost{rootDirs: cleaned}
}

func (h *LogicalFileSystemModuleHost) FileNameToModuleName(importedFilePath, containingFilePath string) string {
	name := path.Clean(importedFilePath)
	for _, root := range h.rootDirs {
		if strings.HasPrefix(name, root) {
			name = name[len(root):]
			break
		}
	}
	name = strings.TrimPrefix(name, "/")
	name = stripExtension(name)
	return strings.TrimSuffix(name, "/index")
}

func stripExtension(fileName string) string {
	for _, ext := range []string{".d.ts", ".ts", ".js"} {
		if strings.HasSuffix(fileName, ext) {
			return fileName[:len(fileName)-len(ext)]
		}
	}
	return fileName
}
