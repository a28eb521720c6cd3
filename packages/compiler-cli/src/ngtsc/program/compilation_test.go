package program_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/diagnostics"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/program"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
)

const appManifest = `
angularVersion: "16.2.0"
files:
  - name: /node_modules/@angular/common/index.d.ts
    module: "@angular/common"
    declarations: [{name: NgFor}, {name: UpperCasePipe}, {name: CommonModule}]
  - name: /app/app.component.ts
    declarations: [{name: AppComponent}]
  - name: /app/row.component.ts
    imports: [/app/app.component.ts]
    declarations: [{name: RowComponent}]
  - name: /app/app.module.ts
    imports: [/app/app.component.ts, /app/row.component.ts]
    declarations: [{name: AppModule}]
directives:
  - class: /node_modules/@angular/common/index.d.ts#NgFor
    selector: "[ngFor][ngForOf]"
    structural: true
    inputs: [ngForOf]
  - class: /app/app.component.ts#AppComponent
    selector: app-root
    component: true
    template:
      - tag: ul
        children:
          - tag: app-row
            attrs:
              "*ngFor": let item of items
            children:
              - "{{item | uppercase}}"
  - class: /app/row.component.ts#RowComponent
    selector: app-row
    component: true
    template:
      - "{{value | missing}}"
pipes:
  - class: /node_modules/@angular/common/index.d.ts#UpperCasePipe
    name: uppercase
ngModules:
  - class: /node_modules/@angular/common/index.d.ts#CommonModule
    declarations: [/node_modules/@angular/common/index.d.ts#NgFor, /node_modules/@angular/common/index.d.ts#UpperCasePipe]
    exports: [/node_modules/@angular/common/index.d.ts#NgFor, /node_modules/@angular/common/index.d.ts#UpperCasePipe]
  - class: /app/app.module.ts#AppModule
    declarations: [/app/app.component.ts#AppComponent, /app/row.component.ts#RowComponent]
    imports: [/node_modules/@angular/common/index.d.ts#CommonModule]
`

func newCompilation(t *testing.T, manifestYAML string, options *program.Options) *program.Compilation {
	t.Helper()
	manifest, err := program.ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)
	compilation, err := program.NewCompilation(context.Background(), manifest, options, nil)
	require.NoError(t, err)
	return compilation
}

func analyze(t *testing.T, compilation *program.Compilation, name string) *program.ComponentAnalysis {
	t.Helper()
	component, err := compilation.LookupComponent(name)
	require.NoError(t, err)
	analysis, err := compilation.AnalyzeComponent(component)
	require.NoError(t, err)
	return analysis
}

func directiveNames(directives []*metadata.DirectiveMeta) []string {
	var names []string
	for _, dir := range directives {
		names = append(names, dir.GetRef().Node.Name)
	}
	return names
}

func codesOf(diags []*diagnostics.Diagnostic) []diagnostics.ErrorCode {
	var codes []diagnostics.ErrorCode
	for _, diag := range diags {
		codes = append(codes, diag.Code)
	}
	return codes
}

func TestCompilation_AnalyzeComponent(t *testing.T) {
	t.Run("should bind a template against its NgModule scope", func(t *testing.T) {
		compilation := newCompilation(t, appManifest, nil)
		analysis := analyze(t, compilation, "AppComponent")

		require.IsType(t, &scope.LocalModuleScope{}, analysis.Scope)
		assert.Equal(t, "AppModule", analysis.Scope.(*scope.LocalModuleScope).NgModule.Name)
		assert.ElementsMatch(t, []string{"NgFor", "RowComponent"}, directiveNames(analysis.UsedDirectives))
		require.Len(t, analysis.UsedPipes, 1)
		assert.Equal(t, "uppercase", analysis.UsedPipes[0].Name)
		assert.Empty(t, analysis.UnknownPipes)
		assert.Empty(t, analysis.Diagnostics)
		assert.Empty(t, analysis.TemplateErrors)
		assert.False(t, analysis.IsPoisoned)
	})

	t.Run("should report pipes missing from the scope", func(t *testing.T) {
		compilation := newCompilation(t, appManifest, nil)
		analysis := analyze(t, compilation, "/app/row.component.ts#RowComponent")

		assert.Equal(t, []string{"missing"}, analysis.UnknownPipes)
		require.Len(t, analysis.Diagnostics, 1)
		assert.Equal(t, diagnostics.MissingPipe, analysis.Diagnostics[0].Code)
		assert.Equal(t, "No pipe found with name 'missing'.", analysis.Diagnostics[0].MessageText)
	})

	t.Run("should use remote scoping when an import would be cyclic", func(t *testing.T) {
		compilation := newCompilation(t, appManifest, nil)
		analysis := analyze(t, compilation, "AppComponent")
		assert.True(t, analysis.RemoteScope)

		row := analyze(t, compilation, "RowComponent")
		assert.False(t, row.RemoteScope)

		snapshot := compilation.Snapshot()
		require.Len(t, snapshot.Components, 2)
		remote := snapshot.Components[0].Remote
		require.NotNil(t, remote)
		var names []string
		for _, symbol := range remote.Directives {
			names = append(names, symbol.Name)
		}
		assert.ElementsMatch(t, []string{"NgFor", "RowComponent"}, names)
		assert.Nil(t, snapshot.Components[1].Remote)
	})

	t.Run("should keep host directives out of the remote scope", func(t *testing.T) {
		compilation := newCompilation(t, `
angularVersion: "16.2.0"
files:
  - name: /app/tooltip.ts
    declarations: [{name: TooltipDir}]
  - name: /app/app.component.ts
    declarations: [{name: AppComponent}]
  - name: /app/row.component.ts
    imports: [/app/app.component.ts, /app/tooltip.ts]
    declarations: [{name: RowComponent}]
  - name: /app/app.module.ts
    declarations: [{name: AppModule}]
directives:
  - class: /app/tooltip.ts#TooltipDir
    standalone: true
  - class: /app/app.component.ts#AppComponent
    selector: app-root
    component: true
    template:
      - tag: app-row
  - class: /app/row.component.ts#RowComponent
    selector: app-row
    component: true
    hostDirectives:
      - directive: /app/tooltip.ts#TooltipDir
ngModules:
  - class: /app/app.module.ts#AppModule
    declarations: [/app/app.component.ts#AppComponent, /app/row.component.ts#RowComponent]
`, nil)
		analysis := analyze(t, compilation, "AppComponent")
		assert.ElementsMatch(t, []string{"TooltipDir", "RowComponent"}, directiveNames(analysis.UsedDirectives))
		require.True(t, analysis.RemoteScope)

		var remote []string
		for _, record := range compilation.Snapshot().Components {
			if record.Component.Name != "AppComponent" {
				continue
			}
			require.NotNil(t, record.Remote)
			for _, symbol := range record.Remote.Directives {
				remote = append(remote, symbol.Name)
			}
		}
		assert.Equal(t, []string{"RowComponent"}, remote)
	})

	t.Run("should cache analyses", func(t *testing.T) {
		compilation := newCompilation(t, appManifest, nil)
		assert.Same(t, analyze(t, compilation, "AppComponent"), analyze(t, compilation, "AppComponent"))
	})

	t.Run("should reject unknown components", func(t *testing.T) {
		compilation := newCompilation(t, appManifest, nil)
		_, err := compilation.LookupComponent("Missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown component Missing")
	})
}

func TestNewCompilation(t *testing.T) {
	t.Run("should reject an invalid directive selector", func(t *testing.T) {
		manifest, err := program.ParseManifest([]byte(`
files:
  - name: /app/app.ts
    declarations: [{name: AppComponent}]
directives:
  - class: /app/app.ts#AppComponent
    selector: "[a]:not(:not(b))"
    component: true
    template:
      - tag: div
`))
		require.NoError(t, err)

		_, err = program.NewCompilation(context.Background(), manifest, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "selector of /app/app.ts#AppComponent")
		assert.Contains(t, err.Error(), "nesting :not in a selector is not allowed")
	})
}

func TestCompilation_Diagnostics(t *testing.T) {
	t.Run("should report invalid standalone imports", func(t *testing.T) {
		compilation := newCompilation(t, `
files:
  - name: /app/widgets.ts
    declarations: [{name: LegacyDir}, {name: LegacyModule}, {name: Helper}, {name: CardComponent}]
directives:
  - class: /app/widgets.ts#LegacyDir
    selector: "[legacy]"
    standalone: false
  - class: /app/widgets.ts#CardComponent
    selector: app-card
    component: true
    imports: [/app/widgets.ts#LegacyDir, /app/widgets.ts#Helper]
ngModules:
  - class: /app/widgets.ts#LegacyModule
    declarations: [/app/widgets.ts#LegacyDir]
    exports: [/app/widgets.ts#LegacyDir]
`, nil)

		diags := compilation.Diagnostics()
		assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ComponentImportNotStandalone, diagnostics.ComponentUnknownImport}, codesOf(diags))
		assert.Contains(t, diags[0].MessageText, "The directive 'LegacyDir' appears in 'imports'")
		assert.Contains(t, diags[0].MessageText, "declared in the NgModule 'LegacyModule'")
		assert.Contains(t, diags[1].MessageText, "'Helper' is none of these")
	})

	t.Run("should report each duplicate declaration once", func(t *testing.T) {
		compilation := newCompilation(t, `
angularVersion: "15.0.0"
files:
  - name: /app/shared.ts
    declarations: [{name: SharedDir}, {name: ModuleA}, {name: ModuleB}]
directives:
  - class: /app/shared.ts#SharedDir
    selector: "[shared]"
ngModules:
  - class: /app/shared.ts#ModuleA
    declarations: [/app/shared.ts#SharedDir]
  - class: /app/shared.ts#ModuleB
    declarations: [/app/shared.ts#SharedDir]
`, nil)

		var duplicates []*diagnostics.Diagnostic
		for _, diag := range compilation.Diagnostics() {
			if diag.Code == diagnostics.NgModuleDeclarationNotUnique {
				duplicates = append(duplicates, diag)
			}
		}
		require.Len(t, duplicates, 1)
		assert.Equal(t, "The Directive 'SharedDir' is declared by more than one NgModule.", duplicates[0].MessageText)
		assert.Len(t, duplicates[0].Related, 2)
	})

	t.Run("should report nothing for a valid program", func(t *testing.T) {
		compilation := newCompilation(t, appManifest, nil)
		assert.Empty(t, compilation.Diagnostics())
	})
}

func TestCompilation_Aliasing(t *testing.T) {
	const libManifest = `
angularVersion: "16.0.0"
files:
  - name: /node_modules/lib/index.d.ts
    module: "@lib"
    declarations: [{name: LibDir}, {name: LibModule}]
  - name: /app/dir.ts
    declarations: [{name: OwnDir}]
  - name: /app/m.ts
    declarations: [{name: M}]
directives:
  - class: /node_modules/lib/index.d.ts#LibDir
    selector: "[lib]"
  - class: /app/dir.ts#OwnDir
    selector: "[own]"
ngModules:
  - class: /node_modules/lib/index.d.ts#LibModule
    declarations: [/node_modules/lib/index.d.ts#LibDir]
    exports: [/node_modules/lib/index.d.ts#LibDir]
  - class: /app/m.ts#M
    declarations: [/app/dir.ts#OwnDir]
    imports: [/node_modules/lib/index.d.ts#LibModule]
    exports: [/app/dir.ts#OwnDir, /node_modules/lib/index.d.ts#LibModule]
`

	t.Run("should not re-export without aliasing", func(t *testing.T) {
		compilation := newCompilation(t, libManifest, nil)
		assert.Empty(t, moduleScope(t, compilation, "/app/m.ts#M").Reexports)
	})

	t.Run("should re-export under unified module aliases", func(t *testing.T) {
		compilation := newCompilation(t, libManifest, &program.Options{
			Aliasing: program.AliasingUnifiedModules,
			RootDirs: []string{"/app", "/node_modules"},
		})
		want := []scope.Reexport{{FromModule: "@lib", SymbolName: "LibDir", AsAlias: "ɵng$lib$$LibDir"}}
		assert.Equal(t, want, moduleScope(t, compilation, "/app/m.ts#M").Reexports)
	})

	t.Run("should reject invalid options", func(t *testing.T) {
		manifest, err := program.ParseManifest([]byte(libManifest))
		require.NoError(t, err)
		_, err = program.NewCompilation(context.Background(), manifest, &program.Options{Aliasing: "barrels"}, nil)
		assert.Error(t, err)
	})
}

func moduleScope(t *testing.T, compilation *program.Compilation, symbol string) *scope.LocalModuleScope {
	t.Helper()
	decl, err := compilation.Lookup(symbol)
	require.NoError(t, err)
	s := compilation.ScopeOfModule(decl)
	require.NotNil(t, s)
	return s
}

func TestCompilation_Snapshot(t *testing.T) {
	t.Run("should scope components from a previous compilation", func(t *testing.T) {
		snapshotURL := filepath.Join(t.TempDir(), "scopes.msgpack")
		previous := newCompilation(t, appManifest, nil)
		analyze(t, previous, "AppComponent")
		require.NoError(t, previous.SaveSnapshot(context.Background(), snapshotURL))

		// The NgModule is gone: only the snapshot knows the component scope.
		const withoutModule = `
angularVersion: "16.2.0"
files:
  - name: /node_modules/@angular/common/index.d.ts
    module: "@angular/common"
    declarations: [{name: NgFor}, {name: UpperCasePipe}, {name: CommonModule}]
  - name: /app/app.component.ts
    declarations: [{name: AppComponent}]
  - name: /app/row.component.ts
    declarations: [{name: RowComponent}]
  - name: /app/app.module.ts
    declarations: [{name: AppModule}]
directives:
  - class: /node_modules/@angular/common/index.d.ts#NgFor
    selector: "[ngFor][ngForOf]"
    structural: true
    inputs: [ngForOf]
  - class: /app/app.component.ts#AppComponent
    selector: app-root
    component: true
    template:
      - tag: app-row
        attrs:
          "*ngFor": let item of items
  - class: /app/row.component.ts#RowComponent
    selector: app-row
    component: true
pipes:
  - class: /node_modules/@angular/common/index.d.ts#UpperCasePipe
    name: uppercase
`
		current := newCompilation(t, withoutModule, &program.Options{SnapshotURL: snapshotURL})
		analysis := analyze(t, current, "AppComponent")
		require.IsType(t, &scope.LocalModuleScope{}, analysis.Scope)
		assert.Equal(t, "AppModule", analysis.Scope.(*scope.LocalModuleScope).NgModule.Name)
		assert.ElementsMatch(t, []string{"NgFor", "RowComponent"}, directiveNames(analysis.UsedDirectives))
		assert.False(t, analysis.IsPoisoned)
	})

	t.Run("should ignore a missing snapshot", func(t *testing.T) {
		snapshotURL := filepath.Join(t.TempDir(), "missing.msgpack")
		compilation := newCompilation(t, appManifest, &program.Options{SnapshotURL: snapshotURL})
		assert.NotEmpty(t, compilation.ID)
		assert.Len(t, compilation.Components(), 2)
	})
}
