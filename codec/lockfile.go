package codec

import (
	"sync"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/registry"
)

// base holds the factory-independent codecs. It is built once and never
// modified; callers only ever see clones.
var base = sync.OnceValue(func() *Builder {
	b := NewBuilder()
	registerPrimitives(b)
	b.Add(DictFactory(), ListFactory(), MapFactory(), BiMapFactory())
	Register(b, VersionCodec)
	Register(b, ModuleKeyCodec)
	return b
})

// BaseBuilder returns a fresh Builder holding the primitive, container,
// Version and ModuleKey codecs.
func BaseBuilder() *Builder {
	return base().Clone()
}

// LockfileRegistry assembles the codec registry for reading and writing
// lockfiles whose registry references resolve through f.
//
// The extra factories, typically object codecs for document types, are
// layered over the base set. The Registry codec bound to f is registered
// last so it takes precedence over anything else for registry.Registry.
func LockfileRegistry(f registry.Factory, extra ...Factory) *Registry {
	b := BaseBuilder()
	b.Add(extra...)
	Register(b, RegistryCodec(f))
	return b.Build()
}
