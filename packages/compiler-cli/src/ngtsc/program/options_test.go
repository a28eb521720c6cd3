package program_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/program"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	location := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(location), 0o755))
	require.NoError(t, os.WriteFile(location, []byte(content), 0o644))
	return location
}

func TestLoadOptions(t *testing.T) {
	var useCases = []struct {
		description string
		content     string
		expect      *program.Options
		expectErr   string
	}{
		{
			description: "defaults",
			content:     "",
			expect:      program.DefaultOptions(),
		},
		{
			description: "unified modules",
			content: `aliasing = "unified-modules"
rootDirs = ["/app", "/node_modules"]
snapshotURL = "mem://localhost/scopes.msgpack"
logLevel = "debug"
logFormat = "json"
`,
			expect: &program.Options{
				Aliasing:    program.AliasingUnifiedModules,
				RootDirs:    []string{"/app", "/node_modules"},
				SnapshotURL: "mem://localhost/scopes.msgpack",
				LogLevel:    "debug",
				LogFormat:   "json",
			},
		},
		{
			description: "unknown key",
			content:     `aliasng = "none"`,
			expectErr:   "unknown option(s) aliasng",
		},
		{
			description: "unknown aliasing",
			content:     `aliasing = "barrels"`,
			expectErr:   `unknown aliasing "barrels"`,
		},
		{
			description: "unified modules without root dirs",
			content:     `aliasing = "unified-modules"`,
			expectErr:   "requires rootDirs",
		},
		{
			description: "unknown log format",
			content:     `logFormat = "xml"`,
			expectErr:   `unknown log format "xml"`,
		},
		{
			description: "unknown log level",
			content:     `logLevel = "verbose"`,
			expectErr:   `unknown log level "verbose"`,
		},
		{
			description: "invalid toml",
			content:     `aliasing = `,
			expectErr:   "failed to parse TOML",
		},
	}

	for _, useCase := range useCases {
		t.Run(useCase.description, func(t *testing.T) {
			location := writeFile(t, t.TempDir(), "ngtsc.toml", useCase.content)
			options, err := program.LoadOptions(location)
			if useCase.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), useCase.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, useCase.expect, options)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("should write json records with a timestamp key", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := program.NewLogger("debug", "json", buf)
		logger.Debug("scoped", "component", "AppCmp")
		assert.Contains(t, buf.String(), `"timestamp"`)
		assert.Contains(t, buf.String(), `"component":"AppCmp"`)
	})

	t.Run("should drop records below the level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := program.NewLogger("warn", "text", buf)
		logger.Info("dropped")
		assert.Empty(t, buf.String())
		logger.Warn("kept")
		assert.Contains(t, buf.String(), "msg=kept")
	})
}
