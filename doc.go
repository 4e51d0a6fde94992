// Package bundlerig resolves a declarative multi-project build document
// into final bundler configurations and, optionally, drives builds over
// them.
//
// A document declares apps and libs; the pipeline validates it against a
// schema, fills defaults, applies environment-keyed overrides, filters
// projects, canonicalizes asset and style entries, and merges per-concern
// configuration fragments into one bundler.Config per surviving project,
// libs first, then apps, in declared order.
//
// The package is organized into subpackages by concern:
//
//   - pkg/bundler: configuration descriptors, build results, and the
//     Bundler interface a build backend satisfies
//   - pkg/buildctx: per-invocation run state and the environment object
//   - pkg/rigerr: the structured error taxonomy
//
// # Quick Start
//
//	configs, err := bundlerig.ResolveConfigs(bundlerig.Options{
//	    ConfigPath: "bundlerig.yaml",
//	})
//
// To execute the builds as well, supply a bundler and call Run:
//
//	err := bundlerig.Run(ctx, bundlerig.Options{
//	    ConfigPath: "bundlerig.yaml",
//	    Bundler:    worker,
//	})
//
// RunWatch keeps the session alive and rebuilds on demand; each receive
// on the trigger channel re-resolves the document and rebuilds whatever
// changed.
package bundlerig
