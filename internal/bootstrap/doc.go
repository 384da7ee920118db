// Package bootstrap guesses a minimal working configuration for an
// installation that has never been configured.
//
// The prober starts from the installation root (the parent of the directory
// holding the running program), checks each well-known directory role, and
// derives locale, search, store and filename-normalization settings from the
// environment. Required directories that are missing or fail validation are
// collected into a single *BootstrapFailure so an operator sees every
// problem at once.
package bootstrap
