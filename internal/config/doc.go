// Package config loads, normalizes, and validates the settings of the
// wikiconfig tool.
//
// These are not the wiki's own settings (those live in the unit files the
// engine loads) but the knobs that tell the tool where the installation
// is, how to treat undefined references, how many backups to keep, and
// where to log and record save history. Paths accept tilde shortcuts and
// the installation root falls back to WIKICONFIG_INSTALL_ROOT.
package config
