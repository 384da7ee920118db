// Package store holds the in-memory nested configuration.
//
// Values are scalars, nested maps or lists, addressed by keypath.Path. The
// store also carries the lifecycle flags the loader and writer coordinate on:
// whether a load has finished, whether the values were bootstrapped, and which
// paths the bootstrap prober derived.
package store
