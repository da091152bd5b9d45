// Package codec reads and writes bzlmod lockfile values as JSON.
//
// A [Codec] pairs an encoder and a decoder for one Go type. Codecs are
// collected in a [Builder] and frozen into a [Registry], which resolves the
// codec for a type by searching its factories newest first, so that the last
// registration for a type wins.
//
// # Scalars
//
// Three domain identifiers have fixed string encodings:
//
//	label.Version      "1.2.3"
//	label.ModuleKey    "<root>", "name@_", "name@1.2.3"
//	registry.Registry  "https://bcr.bazel.build"
//
// Registry handles are resolved through a [registry.Factory] on read, so the
// Registry codec is built per factory by [RegistryCodec].
//
// # Containers
//
// Collections are one of four shapes, each served by its own factory:
// [List] (JSON array), [Map] (immutable, ordered JSON object), [Dict]
// (mutable, ordered JSON object) and [BiMap] (one-to-one JSON object).
// Element codecs are looked up in the same Registry, so a Map[string,
// label.ModuleKey] writes its values with the ModuleKey codec.
//
// # Objects
//
// Struct types are encoded from an explicit list of fields declared with
// [Prop] and registered with [Object] or [RegisterObject]:
//
//	codec.RegisterObject(b,
//		codec.Prop("name", func(m *Module) *string { return &m.Name }),
//		codec.Prop("key", func(m *Module) *label.ModuleKey { return &m.Key }),
//	)
//
// # Errors
//
// Malformed values are reported as [*ParseError], structural problems as
// [*SyntaxError]. A registry URL rejected by the factory means the lockfile
// is corrupt: the Registry codec panics with a [*FatalError], which callers
// may turn back into an error with [Recover].
package codec
