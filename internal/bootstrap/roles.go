package bootstrap

import "wikiconfig/internal/keypath"

// Role is a directory the installation is expected to contain.
type Role struct {
	Key      keypath.Path
	Dir      string
	Required bool
	// Marker is a path relative to the directory that must exist for the
	// guess to be accepted. Empty means the directory itself is enough.
	Marker string
}

// Roles are probed in this order.
var Roles = []Role{
	{Key: keypath.New("DataDir"), Dir: "data", Required: true, Marker: "System/WebPreferences.txt"},
	{Key: keypath.New("LocalesDir"), Dir: "locale", Marker: "Foswiki.pot"},
	{Key: keypath.New("PubDir"), Dir: "pub", Required: true, Marker: "System"},
	{Key: keypath.New("ToolsDir"), Dir: "tools"},
	{Key: keypath.New("WorkingDir"), Dir: "working", Required: true, Marker: "README"},
	{Key: keypath.New("TemplateDir"), Dir: "templates", Required: true, Marker: "foswiki.tmpl"},
	{Key: keypath.New("ScriptDir"), Dir: "bin", Required: true},
}

// Keys written by the prober besides the directory roles.
var (
	KeySiteLocale    = keypath.New("Site", "Locale")
	KeyStoreEncoding = keypath.New("Store", "Encoding")
	KeySearchAlgo    = keypath.New("Store", "SearchAlgorithm")
	KeyStoreImpl     = keypath.New("Store", "Implementation")
	KeyNFCNormalize  = keypath.New("NFCNormalizeFilenames")
)

const (
	SearchForking  = "Foswiki::Store::SearchAlgorithms::Forking"
	SearchPurePerl = "Foswiki::Store::SearchAlgorithms::PurePerl"
	StoreRcsWrap   = "Foswiki::Store::RcsWrap"
	StoreRcsLite   = "Foswiki::Store::RcsLite"

	DefaultLocale  = "en_US.utf-8"
	defaultCodeset = "utf-8"
)

// localeEnv is consulted in order; the first usable value wins.
var localeEnv = []string{"LC_ALL", "LC_CTYPE", "LANG"}
