package program_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/program"
	"ngtsc-go/packages/compiler/src/render3/view"
)

func TestParseManifest(t *testing.T) {
	t.Run("should decode declarations and metadata", func(t *testing.T) {
		manifest, err := program.ParseManifest([]byte(`
angularVersion: "16.2.0"
files:
  - name: /app/app.ts
    imports: [/app/row.ts]
    declarations:
      - name: AppCmp
      - name: helper
        kind: function
        exported: false
directives:
  - class: /app/app.ts#AppCmp
    selector: app-root
    component: true
    inputs: [title, "value: appValue"]
pipes:
  - class: /app/app.ts#DatePipe
    name: date
    pure: false
ngModules:
  - class: /app/app.ts#AppModule
    declarations: [/app/app.ts#AppCmp]
`))
		require.NoError(t, err)
		assert.Equal(t, "16.2.0", manifest.AngularVersion)
		require.Len(t, manifest.Files, 1)
		assert.Equal(t, []string{"/app/row.ts"}, manifest.Files[0].Imports)
		require.Len(t, manifest.Files[0].Declarations, 2)
		assert.Equal(t, "function", manifest.Files[0].Declarations[1].Kind)
		require.NotNil(t, manifest.Files[0].Declarations[1].Exported)
		assert.False(t, *manifest.Files[0].Declarations[1].Exported)
		require.Len(t, manifest.Directives, 1)
		require.NotNil(t, manifest.Directives[0].Selector)
		assert.Equal(t, "app-root", *manifest.Directives[0].Selector)
		assert.Equal(t, []string{"title", "value: appValue"}, manifest.Directives[0].Inputs)
		require.NotNil(t, manifest.Pipes[0].Pure)
		assert.False(t, *manifest.Pipes[0].Pure)
		assert.Nil(t, manifest.Pipes[0].Standalone)
		assert.Equal(t, []string{"/app/app.ts#AppCmp"}, manifest.NgModules[0].Declarations)
	})

	t.Run("should keep template attributes in order", func(t *testing.T) {
		manifest, err := program.ParseManifest([]byte(`
directives:
  - class: /app/app.ts#AppCmp
    template:
      - tag: li
        attrs:
          "*ngFor": let item of items
          class: row
          "[title]": item.name
        children:
          - "{{item | uppercase}}"
      - plain text
`))
		require.NoError(t, err)
		expect := program.Template{
			{
				Tag:  "li",
				Line: 5,
				Attrs: []view.Attribute{
					{Name: "*ngFor", Value: "let item of items"},
					{Name: "class", Value: "row"},
					{Name: "[title]", Value: "item.name"},
				},
				Children: []*view.NodeSource{{Text: "{{item | uppercase}}", Line: 11}},
			},
			{Text: "plain text", Line: 12},
		}
		assert.Equal(t, expect, manifest.Directives[0].Template)
	})

	var invalid = []struct {
		description string
		template    string
		expectErr   string
	}{
		{
			description: "not a list",
			template:    "template: text",
			expectErr:   "expected a list of template nodes",
		},
		{
			description: "unknown field",
			template:    "template:\n  - tag: div\n    style: x",
			expectErr:   `line 5: unknown template node field "style"`,
		},
		{
			description: "attrs as a list",
			template:    "template:\n  - tag: div\n    attrs: [a]",
			expectErr:   "attrs must be a mapping",
		},
		{
			description: "empty node",
			template:    "template:\n  - children: []",
			expectErr:   "template node needs a tag or a text",
		},
	}
	for _, useCase := range invalid {
		t.Run("should reject a template: "+useCase.description, func(t *testing.T) {
			_, err := program.ParseManifest([]byte("directives:\n  - class: /a.ts#A\n    " + indent(useCase.template)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), useCase.expectErr)
		})
	}
}

// indent nests a snippet under a directive entry
func indent(snippet string) string {
	out := ""
	for i, r := range snippet {
		out += string(r)
		if r == '\n' && i < len(snippet)-1 {
			out += "    "
		}
	}
	return out
}

func TestLoadManifest(t *testing.T) {
	t.Run("should merge includes before the including manifest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "lib/common.yaml", `
angularVersion: "16.0.0"
files:
  - name: /node_modules/common/index.d.ts
    declarations: [{name: NgIf}]
directives:
  - class: /node_modules/common/index.d.ts#NgIf
    selector: "[ngIf]"
`)
		writeFile(t, dir, "lib/forms.yaml", `
files:
  - name: /node_modules/forms/index.d.ts
    declarations: [{name: NgModel}]
`)
		main := writeFile(t, dir, "app.yaml", `
includes: [lib/common.yaml, lib/forms.yaml]
files:
  - name: /app/app.ts
    declarations: [{name: AppCmp}]
`)

		manifest, err := program.LoadManifest(context.Background(), nil, main)
		require.NoError(t, err)
		assert.Equal(t, "16.0.0", manifest.AngularVersion)
		var names []string
		for _, file := range manifest.Files {
			names = append(names, file.Name)
		}
		assert.Equal(t, []string{"/node_modules/common/index.d.ts", "/node_modules/forms/index.d.ts", "/app/app.ts"}, names)
		require.Len(t, manifest.Directives, 1)
	})

	t.Run("should merge a manifest shared by two includes once", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "common.yaml", `
files:
  - name: /lib/common.d.ts
    module: "@lib/common"
    declarations: [{name: CommonModule}]
ngModules:
  - class: /lib/common.d.ts#CommonModule
`)
		writeFile(t, dir, "a.yaml", `
includes: [common.yaml]
files:
  - name: /app/a.ts
    declarations: [{name: A}]
`)
		writeFile(t, dir, "b.yaml", `
includes: [common.yaml]
files:
  - name: /app/b.ts
    declarations: [{name: B}]
`)
		main := writeFile(t, dir, "app.yaml", "includes: [a.yaml, b.yaml]\n")

		manifest, err := program.LoadManifest(context.Background(), nil, main)
		require.NoError(t, err)
		var names []string
		for _, file := range manifest.Files {
			names = append(names, file.Name)
		}
		assert.Equal(t, []string{"/lib/common.d.ts", "/app/a.ts", "/app/b.ts"}, names)
		require.Len(t, manifest.NgModules, 1)

		_, err = program.NewCompilation(context.Background(), manifest, program.DefaultOptions(), nil)
		require.NoError(t, err)
	})

	t.Run("should report include cycles", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "b.yaml", "includes: [a.yaml]\n")
		main := writeFile(t, dir, "a.yaml", "includes: [b.yaml]\n")

		_, err := program.LoadManifest(context.Background(), nil, main)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "include cycle")
	})

	t.Run("should report missing includes", func(t *testing.T) {
		dir := t.TempDir()
		main := writeFile(t, dir, "a.yaml", "includes: [missing.yaml]\n")

		_, err := program.LoadManifest(context.Background(), nil, main)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load manifest")
	})
}
