package incremental

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
	"ngtsc-go/packages/compiler/core"
)

// Current schema version - increment when the ScopeSnapshot format changes
const snapshotSchemaVersion uint16 = 1

// ErrIncompatibleSnapshot is returned when decoding a snapshot written by another schema or
// another major compiler version.
var ErrIncompatibleSnapshot = errors.New("incompatible scope snapshot")

// ScopeSnapshot records the component scopes of a compilation so that a later compilation can
// fall back on them for components it cannot scope itself.
type ScopeSnapshot struct {
	Schema          uint16
	CompilerVersion string
	Components      []ComponentRecord
}

// Symbol names a declaration by file and name.
type Symbol struct {
	File string
	Name string
}

func symbolOf(decl *reflection.Declaration) Symbol {
	return Symbol{File: decl.SourceFile.FileName, Name: decl.Name}
}

func (s Symbol) String() string {
	return s.File + "#" + s.Name
}

// DependencyRecord is a directive, pipe or NgModule of a scope.
type DependencyRecord struct {
	Symbol Symbol
	Kind   uint8 // metadata.MetaKind
}

// ComponentRecord is the scope of one component.
type ComponentRecord struct {
	Component Symbol
	Kind      uint8 // scope.ComponentScopeKind
	// NgModule is the NgModule whose compilation scope the component uses, nil for standalone
	// components.
	NgModule     *Symbol
	Dependencies []DependencyRecord
	IsPoisoned   bool
	Schemas      []string
	Remote       *RemoteRecord
}

// RemoteRecord is a recorded scope.RemoteScope.
type RemoteRecord struct {
	Directives []Symbol
	Pipes      []Symbol
}

// CaptureScopes records the scopes reader gives the components. Components without a scope
// are left out.
func CaptureScopes(reader scope.ComponentScopeReader, components []*reflection.Declaration) *ScopeSnapshot {
	snapshot := &ScopeSnapshot{Schema: snapshotSchemaVersion, CompilerVersion: core.VERSION.Full}
	for _, component := range components {
		componentScope := reader.GetScopeForComponent(component)
		if componentScope == nil {
			continue
		}
		record := ComponentRecord{
			Component: symbolOf(component),
			Kind:      uint8(componentScope.Kind()),
		}
		var deps []metadata.Meta
		switch s := componentScope.(type) {
		case *scope.LocalModuleScope:
			ngModule := symbolOf(s.NgModule)
			record.NgModule = &ngModule
			deps = s.Compilation.Dependencies
			record.IsPoisoned = s.Compilation.IsPoisoned
		case *scope.StandaloneScope:
			deps = s.Dependencies
			record.IsPoisoned = s.IsPoisoned
		default:
			panic(fmt.Sprintf("Assertion error: unexpected component scope %T", componentScope))
		}
		for _, dep := range deps {
			record.Dependencies = append(record.Dependencies, DependencyRecord{
				Symbol: symbolOf(dep.GetRef().Node),
				Kind:   uint8(dep.Kind()),
			})
		}
		for _, schema := range componentScope.GetSchemas() {
			record.Schemas = append(record.Schemas, schema.Name)
		}
		if remote := reader.GetRemoteScope(component); remote != nil {
			record.Remote = &RemoteRecord{Directives: symbolsOf(remote.Directives), Pipes: symbolsOf(remote.Pipes)}
		}
		snapshot.Components = append(snapshot.Components, record)
	}
	return snapshot
}

func symbolsOf(refs []*imports.Reference) []Symbol {
	var symbols []Symbol
	for _, ref := range refs {
		symbols = append(symbols, symbolOf(ref.Node))
	}
	return symbols
}

// Encode serializes a snapshot with msgpack.
func Encode(snapshot *ScopeSnapshot) ([]byte, error) {
	data, err := msgpack.Marshal(snapshot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode scope snapshot")
	}
	return data, nil
}

// Decode reads back a snapshot written by Encode. Snapshots of another schema or compiler
// major version fail with ErrIncompatibleSnapshot.
func Decode(data []byte) (*ScopeSnapshot, error) {
	snapshot := &ScopeSnapshot{}
	if err := msgpack.Unmarshal(data, snapshot); err != nil {
		return nil, errors.Wrap(err, "failed to decode scope snapshot")
	}
	if snapshot.Schema != snapshotSchemaVersion {
		return nil, errors.Wrapf(ErrIncompatibleSnapshot, "schema %d, expected %d", snapshot.Schema, snapshotSchemaVersion)
	}
	if core.NewVersion(snapshot.CompilerVersion).Major != core.VERSION.Major {
		return nil, errors.Wrapf(ErrIncompatibleSnapshot, "written by %s, running %s", snapshot.CompilerVersion, core.VERSION.Full)
	}
	return snapshot, nil
}
