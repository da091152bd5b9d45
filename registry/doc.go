// Package registry provides handles to Bazel module registries and the
// factory that resolves registry URLs into those handles.
//
// A lockfile records the registry each module came from by URL. Reading a
// lockfile turns those URLs back into live handles through a [Factory], so
// every [Registry] in memory must come from the same factory that decoding
// uses, or URL round-tripping is not guaranteed.
//
// # Registry Structure
//
// A Bazel registry follows a standard layout:
//
//	registry/
//	├── bazel_registry.json       # Registry configuration
//	└── modules/
//	    └── {name}/
//	        ├── metadata.json     # Module metadata (versions, maintainers)
//	        └── {version}/
//	            ├── MODULE.bazel  # Module file
//	            └── source.json   # Source location (archive/git)
//
// # Usage
//
//	factory := registry.NewFactory()
//	reg, err := factory.RegistryWithURL("https://bcr.bazel.build")
//	if err != nil {
//	    // *registry.URLError: not a valid registry URL
//	}
//	content, err := reg.GetModuleFile(ctx, key)
//
// Supported schemes are http, https (index registries) and file (local
// registries). Handle construction never touches the network or disk.
package registry
