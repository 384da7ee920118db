// Package remap migrates deprecated configuration keys to their current
// locations. The loader applies the table once per load, after every source
// unit has been merged and before references are expanded.
package remap
