// Package keypath parses and renders the brace-delimited paths that address
// values in the configuration store, such as {Store}{Implementation} or
// {Plugins}{'My Plugin'}{Enabled}.
//
// Rendering is the exact inverse of parsing, so paths read from files and
// command lines can be echoed back unchanged.
package keypath
