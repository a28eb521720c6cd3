package scope_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/diagnostics"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
)

func diagnosticCodes(diags []*diagnostics.Diagnostic) []diagnostics.ErrorCode {
	var codes []diagnostics.ErrorCode
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	return codes
}

func TestLocalModuleScopeRegistry(t *testing.T) {
	t.Run("should compute compilation and export scopes", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/app/shared.ts", "SharedDir"), "[shared]")
		p.pipe(p.class("/app/shared.ts", "SharedPipe"), "shared", false)
		p.directive(p.class("/app/shared.ts", "InternalDir"), "[internal]")
		p.directive(p.class("/app/app.ts", "AppCmp"), "app-root", component)
		shared := p.ngModule(p.class("/app/shared.ts", "SharedModule"),
			refs(p.class("/app/shared.ts", "SharedDir"), p.class("/app/shared.ts", "SharedPipe"), p.class("/app/shared.ts", "InternalDir")),
			nil,
			refs(p.class("/app/shared.ts", "SharedDir"), p.class("/app/shared.ts", "SharedPipe")))
		app := p.ngModule(p.class("/app/app.ts", "AppModule"),
			refs(p.class("/app/app.ts", "AppCmp")),
			refs(p.class("/app/shared.ts", "SharedModule")),
			nil)
		registry, _ := p.localScopes(nil, shared, app)

		s, ok := registry.GetScopeForComponent(p.class("/app/app.ts", "AppCmp").Node).(*scope.LocalModuleScope)
		if !ok {
			t.Fatalf("expected an NgModule scope")
		}
		if diff := cmp.Diff([]string{"SharedDir", "AppCmp", "SharedPipe"}, depNames(s.Compilation.Dependencies)); diff != "" {
			t.Errorf("compilation scope mismatch (-want +got):\n%s", diff)
		}
		if len(s.Exported.Dependencies) != 0 || s.Compilation.IsPoisoned {
			t.Errorf("unexpected export scope %v, poisoned %v", depNames(s.Exported.Dependencies), s.Compilation.IsPoisoned)
		}
		if s.Reexports != nil {
			t.Errorf("no re-exports without an aliasing host")
		}
		sharedScope := registry.GetScopeOfModule(p.class("/app/shared.ts", "SharedModule").Node)
		if diff := cmp.Diff([]string{"SharedDir", "SharedPipe"}, depNames(sharedScope.Exported.Dependencies)); diff != "" {
			t.Errorf("export scope mismatch (-want +got):\n%s", diff)
		}
		if registry.GetScopeForComponent(p.class("/app/app.ts", "Unknown").Node) != nil {
			t.Errorf("classes declared nowhere have no scope")
		}
	})

	t.Run("should list compilation scopes of every declaration", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/app/a.ts", "DirA"), "[a]")
		p.directive(p.class("/app/b.ts", "DirB"), "[b]")
		a := p.ngModule(p.class("/app/a.ts", "ModuleA"), refs(p.class("/app/a.ts", "DirA")), nil, nil)
		b := p.ngModule(p.class("/app/b.ts", "ModuleB"), refs(p.class("/app/b.ts", "DirB")), nil, nil)
		registry, _ := p.localScopes(nil, b, a)
		var got []string
		for _, cs := range registry.GetCompilationScopes() {
			got = append(got, cs.Declaration.Name+"@"+cs.NgModule.Name)
		}
		if diff := cmp.Diff([]string{"DirA@ModuleA", "DirB@ModuleB"}, got); diff != "" {
			t.Errorf("compilation scopes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should detect import cycles and poison both NgModules", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/app/a.ts", "DirA"), "[a]")
		a := p.ngModule(p.class("/app/a.ts", "ModuleA"), refs(p.class("/app/a.ts", "DirA")), refs(p.class("/app/b.ts", "ModuleB")), nil)
		b := p.ngModule(p.class("/app/b.ts", "ModuleB"), nil, refs(p.class("/app/a.ts", "ModuleA")), nil)
		registry, _ := p.localScopes(nil, a, b)

		scopeA := registry.GetScopeOfModule(p.class("/app/a.ts", "ModuleA").Node)
		scopeB := registry.GetScopeOfModule(p.class("/app/b.ts", "ModuleB").Node)
		if !scopeA.Compilation.IsPoisoned || !scopeB.Compilation.IsPoisoned {
			t.Errorf("both NgModules of the cycle must be poisoned")
		}
		diagsB := registry.GetDiagnosticsOfModule(p.class("/app/b.ts", "ModuleB").Node)
		if diff := cmp.Diff([]diagnostics.ErrorCode{diagnostics.NgModuleInvalidImport}, diagnosticCodes(diagsB)); diff != "" {
			t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(`NgModule "import" field contains a cycle`, diagsB[0].MessageText); diff != "" {
			t.Errorf("message mismatch (-want +got):\n%s", diff)
		}
		diagsA := registry.GetDiagnosticsOfModule(p.class("/app/a.ts", "ModuleA").Node)
		if diff := cmp.Diff([]diagnostics.ErrorCode{diagnostics.NgModuleInvalidImport}, diagnosticCodes(diagsA)); diff != "" {
			t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should poison NgModules declaring the same class", func(t *testing.T) {
		p := newProgram(t)
		dir := p.class("/app/dir.ts", "Dir")
		p.directive(dir, "[dir]")
		a := p.ngModule(p.class("/app/a.ts", "ModuleA"), refs(dir), nil, nil)
		b := p.ngModule(p.class("/app/b.ts", "ModuleB"), refs(dir), nil, nil)
		registry, _ := p.localScopes(nil, a, b)

		if registry.GetScopeForComponent(dir.Node) != nil {
			t.Errorf("a class declared twice has no single scope")
		}
		var modules []string
		for _, data := range registry.GetDuplicateDeclarations(dir.Node) {
			modules = append(modules, data.NgModule.Name)
		}
		if diff := cmp.Diff([]string{"ModuleA", "ModuleB"}, modules); diff != "" {
			t.Errorf("duplicate declarations mismatch (-want +got):\n%s", diff)
		}
		if !registry.GetScopeOfModule(a.Ref.Node).Compilation.IsPoisoned || !registry.GetScopeOfModule(b.Ref.Node).Compilation.IsPoisoned {
			t.Errorf("both NgModules must be poisoned")
		}
		d := scope.MakeDuplicateDeclarationError(dir.Node, registry.GetDuplicateDeclarations(dir.Node), "Directive")
		if d.Code != diagnostics.NgModuleDeclarationNotUnique || len(d.Related) != 2 {
			t.Errorf("unexpected diagnostic %v", d)
		}
	})

	t.Run("should report invalid declarations, imports and exports", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/app/standalone.ts", "StandaloneDir"), "[sa]", standalone)
		p.directive(p.class("/app/other.ts", "OtherDir"), "[other]")
		m := p.ngModule(p.class("/app/m.ts", "M"),
			refs(p.class("/app/standalone.ts", "StandaloneDir"), p.class("/app/m.ts", "NotAngular")),
			refs(p.class("/app/m.ts", "NotAModule")),
			refs(p.class("/app/other.ts", "OtherDir")))
		registry, _ := p.localScopes(nil, m)

		want := []diagnostics.ErrorCode{
			diagnostics.NgModuleInvalidImport,
			diagnostics.NgModuleDeclarationIsStandalone,
			diagnostics.NgModuleInvalidDeclaration,
			diagnostics.NgModuleInvalidReexport,
		}
		if diff := cmp.Diff(want, diagnosticCodes(registry.GetDiagnosticsOfModule(m.Ref.Node))); diff != "" {
			t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
		}
		if !registry.GetScopeOfModule(m.Ref.Node).Exported.IsPoisoned {
			t.Errorf("expected a poisoned scope")
		}
	})

	t.Run("should import standalone declarations directly", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/app/sa.ts", "StandaloneDir"), "[sa]", standalone)
		p.pipe(p.class("/app/sa.ts", "StandalonePipe"), "sa", true)
		p.directive(p.class("/app/plain.ts", "PlainDir"), "[plain]")
		m := p.ngModule(p.class("/app/m.ts", "M"), nil,
			refs(p.class("/app/sa.ts", "StandaloneDir"), p.class("/app/sa.ts", "StandalonePipe"), p.class("/app/plain.ts", "PlainDir")),
			nil)
		registry, _ := p.localScopes(nil, m)
		s := registry.GetScopeOfModule(m.Ref.Node)
		if diff := cmp.Diff([]string{"StandaloneDir", "StandalonePipe"}, depNames(s.Compilation.Dependencies)); diff != "" {
			t.Errorf("compilation scope mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]diagnostics.ErrorCode{diagnostics.ComponentImportNotStandalone}, diagnosticCodes(registry.GetDiagnosticsOfModule(m.Ref.Node))); diff != "" {
			t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should include library NgModules through the dts resolver", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/node_modules/lib/index.d.ts", "LibDir"), "[lib]")
		p.ngModule(p.class("/node_modules/lib/index.d.ts", "LibModule"),
			refs(p.class("/node_modules/lib/index.d.ts", "LibDir")), nil, refs(p.class("/node_modules/lib/index.d.ts", "LibDir")))
		m := p.ngModule(p.class("/app/m.ts", "M"), nil,
			refs(p.class("/node_modules/lib/index.d.ts", "LibModule")),
			refs(p.class("/node_modules/lib/index.d.ts", "LibModule")))
		registry, _ := p.localScopes(nil, m)
		s := registry.GetScopeOfModule(m.Ref.Node)
		if diff := cmp.Diff([]string{"LibDir"}, depNames(s.Compilation.Dependencies)); diff != "" {
			t.Errorf("compilation scope mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"LibDir"}, depNames(s.Exported.Dependencies)); diff != "" {
			t.Errorf("export scope mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should generate re-exports through the aliasing host", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/node_modules/lib/index.d.ts", "LibDir"), "[lib]")
		p.ngModule(p.class("/node_modules/lib/index.d.ts", "LibModule"),
			refs(p.class("/node_modules/lib/index.d.ts", "LibDir")), nil, refs(p.class("/node_modules/lib/index.d.ts", "LibDir")))
		p.directive(p.class("/app/dir.ts", "OwnDir"), "[own]")
		m := p.ngModule(p.class("/app/m.ts", "M"),
			refs(p.class("/app/dir.ts", "OwnDir")),
			refs(p.class("/node_modules/lib/index.d.ts", "LibModule")),
			refs(p.class("/app/dir.ts", "OwnDir"), p.class("/node_modules/lib/index.d.ts", "LibModule")))
		aliasing := imports.NewUnifiedModulesAliasingHost(imports.NewLogicalFileSystemModuleHost([]string{"/app", "/node_modules"}))
		registry, _ := p.localScopes(aliasing, m)

		want := []scope.Reexport{{FromModule: "@lib/LibDir", SymbolName: "LibDir", AsAlias: "ɵng$lib$$LibDir"}}
		if diff := cmp.Diff(want, registry.GetScopeOfModule(m.Ref.Node).Reexports); diff != "" {
			t.Errorf("re-exports mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should report re-export name collisions", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/app/a/dup.ts", "Dup"), "[a]")
		p.directive(p.class("/app/b/dup.ts", "Dup"), "[b]")
		m := p.ngModule(p.class("/app/m.ts", "M"),
			refs(p.class("/app/a/dup.ts", "Dup"), p.class("/app/b/dup.ts", "Dup")),
			nil,
			refs(p.class("/app/a/dup.ts", "Dup"), p.class("/app/b/dup.ts", "Dup")))
		registry, _ := p.localScopes(imports.NewPrivateExportAliasingHost(p.host), m)

		s := registry.GetScopeOfModule(m.Ref.Node)
		want := []scope.Reexport{{FromModule: "./a/dup", SymbolName: "Dup", AsAlias: "ɵngExportɵMɵDup"}}
		if diff := cmp.Diff(want, s.Reexports); diff != "" {
			t.Errorf("re-exports mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]diagnostics.ErrorCode{diagnostics.NgModuleReexportNameCollision}, diagnosticCodes(registry.GetDiagnosticsOfModule(m.Ref.Node))); diff != "" {
			t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should refuse registrations after the first scope read", func(t *testing.T) {
		p := newProgram(t)
		m := p.ngModule(p.class("/app/m.ts", "M"), nil, nil, nil)
		registry, _ := p.localScopes(nil, m)
		registry.GetScopeOfModule(m.Ref.Node)
		defer func() {
			if recover() == nil {
				t.Errorf("expected an assertion error")
			}
		}()
		registry.RegisterNgModuleMetadata(p.ngModule(p.class("/app/late.ts", "Late"), nil, nil, nil))
	})

	t.Run("should record remote scopes", func(t *testing.T) {
		p := newProgram(t)
		registry, _ := p.localScopes(nil)
		cmpRef := p.class("/app/cmp.ts", "Cmp")
		if registry.GetRemoteScope(cmpRef.Node) != nil {
			t.Errorf("expected no remote scope")
		}
		registry.SetComponentRemoteScope(cmpRef.Node, refs(p.class("/app/dir.ts", "Dir")), nil)
		if diff := cmp.Diff([]string{"Dir"}, []string{registry.GetRemoteScope(cmpRef.Node).Directives[0].DebugName()}); diff != "" {
			t.Errorf("remote scope mismatch (-want +got):\n%s", diff)
		}
	})
}
