package program

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Aliasing strategies
const (
	AliasingNone           = "none"
	AliasingUnifiedModules = "unified-modules"
	AliasingPrivateExports = "private-exports"
)

// Options configures a compilation. They are read from a TOML file:
//
//	aliasing = "unified-modules"
//	rootDirs = ["/app", "/node_modules"]
//	snapshotURL = "file:///tmp/scopes.msgpack"
//	logLevel = "debug"
//	logFormat = "json"
type Options struct {
	// Aliasing selects how NgModules re-export the directives and pipes they export from
	// other files: none, unified-modules or private-exports.
	Aliasing string `toml:"aliasing"`
	// RootDirs are the roots module names are computed from with unified-modules aliasing.
	RootDirs []string `toml:"rootDirs"`
	// SnapshotURL locates the scope snapshot of a previous compilation. Empty disables it.
	SnapshotURL string `toml:"snapshotURL"`
	LogLevel    string `toml:"logLevel"`
	LogFormat   string `toml:"logFormat"`
}

// DefaultOptions returns the options used when no file is given
func DefaultOptions() *Options {
	return &Options{Aliasing: AliasingNone, LogLevel: "info", LogFormat: "text"}
}

// LoadOptions reads options from a TOML file. Keys it does not know are an error.
func LoadOptions(path string) (*Options, error) {
	options := DefaultOptions()
	meta, err := toml.DecodeFile(path, options)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to parse TOML", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, errors.Errorf("%s: unknown option(s) %s", path, strings.Join(keys, ", "))
	}
	if err := options.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return options, nil
}

// Validate checks option values
func (o *Options) Validate() error {
	switch o.Aliasing {
	case "", AliasingNone, AliasingUnifiedModules, AliasingPrivateExports:
	default:
		return fmt.Errorf("unknown aliasing %q, expected %s, %s or %s", o.Aliasing, AliasingNone, AliasingUnifiedModules, AliasingPrivateExports)
	}
	if o.Aliasing == AliasingUnifiedModules && len(o.RootDirs) == 0 {
		return fmt.Errorf("aliasing %q requires rootDirs", AliasingUnifiedModules)
	}
	switch strings.ToLower(o.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", o.LogFormat)
	}
	if _, err := ParseLogLevel(o.LogLevel); err != nil {
		return err
	}
	return nil
}
