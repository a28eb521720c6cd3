package scope_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
)

func TestStandaloneComponentScopeReader(t *testing.T) {
	newReader := func(p *program) *scope.StandaloneComponentScopeReader {
		local, dts := p.localScopes(nil)
		return scope.NewStandaloneComponentScopeReader(p.fullReader(), local, dts)
	}

	t.Run("should put the component first and follow the import order", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/app/dir.ts", "Dir"), "[dir]", standalone)
		p.pipe(p.class("/app/pipe.ts", "MyPipe"), "my", true)
		cmpRef := p.class("/app/cmp.ts", "Cmp")
		p.directive(cmpRef, "app-cmp", component, standalone,
			importing(p.class("/app/pipe.ts", "MyPipe"), p.class("/app/dir.ts", "Dir"), p.class("/app/dir.ts", "Dir")))

		s, ok := newReader(p).GetScopeForComponent(cmpRef.Node).(*scope.StandaloneScope)
		if !ok {
			t.Fatalf("expected a standalone scope")
		}
		if diff := cmp.Diff([]string{"Cmp", "MyPipe", "Dir"}, depNames(s.Dependencies)); diff != "" {
			t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
		}
		if s.IsPoisoned {
			t.Errorf("expected a healthy scope")
		}
		if s.Component != cmpRef.Node {
			t.Errorf("unexpected component %v", s.Component)
		}
	})

	t.Run("should splice the exports of imported NgModules", func(t *testing.T) {
		p := newProgram(t)
		lib := "/node_modules/common/index.d.ts"
		p.directive(p.class(lib, "NgIf"), "[ngIf]")
		p.directive(p.class(lib, "NgFor"), "[ngFor][ngForOf]")
		p.ngModule(p.class(lib, "CommonModule"),
			refs(p.class(lib, "NgIf"), p.class(lib, "NgFor")), nil, refs(p.class(lib, "NgIf"), p.class(lib, "NgFor")))
		p.directive(p.class("/app/shared.ts", "SharedDir"), "[shared]")
		p.ngModule(p.class("/app/shared.ts", "SharedModule"),
			refs(p.class("/app/shared.ts", "SharedDir")), nil, refs(p.class("/app/shared.ts", "SharedDir")))
		cmpRef := p.class("/app/cmp.ts", "Cmp")
		p.directive(cmpRef, "app-cmp", component, standalone,
			importing(p.class(lib, "CommonModule"), p.class("/app/shared.ts", "SharedModule")))

		local, dts := p.localScopes(nil, p.local.GetNgModuleMetadata(p.class("/app/shared.ts", "SharedModule")))
		reader := scope.NewStandaloneComponentScopeReader(p.fullReader(), local, dts)
		s := reader.GetScopeForComponent(cmpRef.Node).(*scope.StandaloneScope)
		want := []string{"Cmp", "CommonModule", "NgIf", "NgFor", "SharedModule", "SharedDir"}
		if diff := cmp.Diff(want, depNames(s.Dependencies)); diff != "" {
			t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should poison the scope on invalid imports", func(t *testing.T) {
		tests := []struct {
			name      string
			configure func(p *program) *program
		}{
			{
				name: "non-standalone directive",
				configure: func(p *program) *program {
					p.directive(p.class("/app/dir.ts", "Dir"), "[dir]")
					return p
				},
			},
			{
				name: "non-standalone pipe",
				configure: func(p *program) *program {
					p.pipe(p.class("/app/dir.ts", "Dir"), "dir", false)
					return p
				},
			},
			{
				name:      "plain class",
				configure: func(p *program) *program { return p },
			},
			{
				name: "NgModule without a scope",
				configure: func(p *program) *program {
					p.ngModule(p.class("/app/dir.ts", "Dir"), nil, nil, nil)
					return p
				},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := tt.configure(newProgram(t))
				cmpRef := p.class("/app/cmp.ts", "Cmp")
				p.directive(cmpRef, "app-cmp", component, standalone, importing(p.class("/app/dir.ts", "Dir")))
				s := newReader(p).GetScopeForComponent(cmpRef.Node).(*scope.StandaloneScope)
				if !s.IsPoisoned {
					t.Errorf("expected a poisoned scope")
				}
			})
		}
	})

	t.Run("should only serve standalone components", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/app/cmp.ts", "NgModuleCmp"), "ng-cmp", component)
		p.directive(p.class("/app/dir.ts", "StandaloneDir"), "[dir]", standalone)
		reader := newReader(p)
		for _, ref := range refs(p.class("/app/cmp.ts", "NgModuleCmp"), p.class("/app/dir.ts", "StandaloneDir"), p.class("/app/x.ts", "X")) {
			if s := reader.GetScopeForComponent(ref.Node); s != nil {
				t.Errorf("expected no scope for %s, got %v", ref.DebugName(), s)
			}
		}
		if reader.GetRemoteScope(p.class("/app/cmp.ts", "NgModuleCmp").Node) != nil {
			t.Errorf("standalone components have no remote scope")
		}
	})

	t.Run("should cache scopes", func(t *testing.T) {
		p := newProgram(t)
		cmpRef := p.class("/app/cmp.ts", "Cmp")
		p.directive(cmpRef, "app-cmp", component, standalone)
		reader := newReader(p)
		if reader.GetScopeForComponent(cmpRef.Node) != reader.GetScopeForComponent(cmpRef.Node) {
			t.Errorf("expected the cached scope")
		}
	})
}

func TestCompoundComponentScopeReader(t *testing.T) {
	t.Run("should use the first reader that knows the component", func(t *testing.T) {
		p := newProgram(t)
		p.directive(p.class("/app/a.ts", "DeclaredCmp"), "a-cmp", component)
		p.directive(p.class("/app/b.ts", "StandaloneCmp"), "b-cmp", component, standalone)
		m := p.ngModule(p.class("/app/a.ts", "ModuleA"), refs(p.class("/app/a.ts", "DeclaredCmp")), nil, nil)
		local, dts := p.localScopes(nil, m)
		local.SetComponentRemoteScope(p.class("/app/a.ts", "DeclaredCmp").Node, nil, nil)
		reader := scope.NewCompoundComponentScopeReader(local, scope.NewStandaloneComponentScopeReader(p.fullReader(), local, dts))

		if _, ok := reader.GetScopeForComponent(p.class("/app/a.ts", "DeclaredCmp").Node).(*scope.LocalModuleScope); !ok {
			t.Errorf("expected an NgModule scope")
		}
		if _, ok := reader.GetScopeForComponent(p.class("/app/b.ts", "StandaloneCmp").Node).(*scope.StandaloneScope); !ok {
			t.Errorf("expected a standalone scope")
		}
		if reader.GetScopeForComponent(p.class("/app/c.ts", "Unknown").Node) != nil {
			t.Errorf("expected no scope")
		}
		if reader.GetRemoteScope(p.class("/app/a.ts", "DeclaredCmp").Node) == nil {
			t.Errorf("expected the remote scope of the NgModule registry")
		}
	})
}
