package metadata

import (
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
)

// LocalMetadataRegistry is a MetadataRegistry that also reads back what was registered, keyed
// by the identity of the class declaration.
type LocalMetadataRegistry struct {
	directives map[*reflection.Declaration]*DirectiveMeta
	pipes      map[*reflection.Declaration]*PipeMeta
	ngModules  map[*reflection.Declaration]*NgModuleMeta
}

// NewLocalMetadataRegistry creates an empty LocalMetadataRegistry
func NewLocalMetadataRegistry() *LocalMetadataRegistry {
	return &LocalMetadataRegistry{
		directives: make(map[*reflection.Declaration]*DirectiveMeta),
		pipes:      make(map[*reflection.Declaration]*PipeMeta),
		ngModules:  make(map[*reflection.Declaration]*NgModuleMeta),
	}
}

func (r *LocalMetadataRegistry) GetDirectiveMetadata(ref *imports.Reference) *DirectiveMeta {
	return r.directives[ref.Node]
}

func (r *LocalMetadataRegistry) GetPipeMetadata(ref *imports.Reference) *PipeMeta {
	return r.pipes[ref.Node]
}

func (r *LocalMetadataRegistry) GetNgModuleMetadata(ref *imports.Reference) *NgModuleMeta {
	return r.ngModules[ref.Node]
}

func (r *LocalMetadataRegistry) RegisterDirectiveMetadata(meta *DirectiveMeta) {
	r.directives[meta.GetRef().Node] = meta
}

func (r *LocalMetadataRegistry) RegisterPipeMetadata(meta *PipeMeta) {
	r.pipes[meta.Ref.Node] = meta
}

func (r *LocalMetadataRegistry) RegisterNgModuleMetadata(meta *NgModuleMeta) {
	r.ngModules[meta.Ref.Node] = meta
}

// CompoundMetadataReader reads from several readers; the first one that knows a class wins.
type CompoundMetadataReader struct {
	readers []MetadataReader
}

// NewCompoundMetadataReader creates a new CompoundMetadataReader
func NewCompoundMetadataReader(readers ...MetadataReader) *CompoundMetadataReader {
	return &CompoundMetadataReader{readers: readers}
}

func (c *CompoundMetadataReader) GetDirectiveMetadata(ref *imports.Reference) *DirectiveMeta {
	for _, reader := range c.readers {
		if meta := reader.GetDirectiveMetadata(ref); meta != nil {
			return meta
		}
	}
	return nil
}

func (c *CompoundMetadataReader) GetPipeMetadata(ref *imports.Reference) *PipeMeta {
	for _, reader := range c.readers {
		if meta := reader.GetPipeMetadata(ref); meta != nil {
			return meta
		}
	}
	return nil
}

func (c *CompoundMetadataReader) GetNgModuleMetadata(ref *imports.Reference) *NgModuleMeta {
	for _, reader := range c.readers {
		if meta := reader.GetNgModuleMetadata(ref); meta != nil {
			return meta
		}
	}
	return nil
}

// CompoundMetadataRegistry forwards every registration to all of its registries.
type CompoundMetadataRegistry struct {
	registries []MetadataRegistry
}

// NewCompoundMetadataRegistry creates a new CompoundMetadataRegistry
func NewCompoundMetadataRegistry(registries ...MetadataRegistry) *CompoundMetadataRegistry {
	return &CompoundMetadataRegistry{registries: registries}
}

func (c *CompoundMetadataRegistry) RegisterDirectiveMetadata(meta *DirectiveMeta) {
	for _, registry := range c.registries {
		registry.RegisterDirectiveMetadata(meta)
	}
}

func (c *CompoundMetadataRegistry) RegisterPipeMetadata(meta *PipeMeta) {
	for _, registry := range c.registries {
		registry.RegisterPipeMetadata(meta)
	}
}

func (c *CompoundMetadataRegistry) RegisterNgModuleMetadata(meta *NgModuleMeta) {
	for _, registry := range c.registries {
		registry.RegisterNgModuleMetadata(meta)
	}
}
