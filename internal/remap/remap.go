package remap

import (
	"strings"

	"wikiconfig/internal/keypath"
	"wikiconfig/internal/store"
)

// Rule moves a deprecated key to its current location. Transform, when set,
// rewrites the value on the way; otherwise it is copied verbatim.
type Rule struct {
	Old       keypath.Path
	New       keypath.Path
	Transform func(any) any
}

// Table is an ordered set of rules.
type Table []Rule

// Applied describes one rule that fired.
type Applied struct {
	Old    keypath.Path
	New    keypath.Path
	Copied bool
}

// Default is the set of deprecated keys carried forward from older releases.
var Default = Table{
	{Old: keypath.New("StoreImpl"), New: keypath.New("Store", "Implementation"), Transform: prefixStoreClass},
	{Old: keypath.New("SearchAlgorithm"), New: keypath.New("Store", "SearchAlgorithm")},
	{Old: keypath.New("QueryAlgorithm"), New: keypath.New("Store", "QueryAlgorithm")},
	{Old: keypath.New("AutoAttachPubFiles"), New: keypath.New("RCS", "AutoAttachPubFiles")},
	{Old: keypath.New("Site", "CharSet"), New: keypath.New("Store", "Encoding")},
	{Old: keypath.New("RCS", "FgrepCmd"), New: keypath.New("Store", "FgrepCmd")},
	{Old: keypath.New("RCS", "EgrepCmd"), New: keypath.New("Store", "EgrepCmd")},
	{Old: keypath.New("RCS", "overrideUmask"), New: keypath.New("Store", "overrideUmask")},
	{Old: keypath.New("RCS", "dirPermission"), New: keypath.New("Store", "dirPermission")},
	{Old: keypath.New("RCS", "filePermission"), New: keypath.New("Store", "filePermission")},
	{Old: keypath.New("RCS", "WorkAreaDir"), New: keypath.New("Store", "WorkAreaDir")},
	{Old: keypath.New("RCS", "useSubDir"), New: keypath.New("Store", "useSubDir")},
}

const storeClassPrefix = "Foswiki::Store::"

func prefixStoreClass(value any) any {
	name, ok := value.(string)
	if !ok || name == "" {
		return value
	}
	if strings.HasPrefix(name, storeClassPrefix) {
		return name
	}
	return storeClassPrefix + name
}

// Apply runs every rule once against s. The current key wins when both exist;
// the deprecated key is removed either way. A second call is a no-op.
func (t Table) Apply(s *store.Store) []Applied {
	var applied []Applied
	for _, rule := range t {
		oldValue, ok := s.Get(rule.Old)
		if !ok {
			continue
		}
		copied := false
		if !s.Exists(rule.New) {
			value := oldValue
			if rule.Transform != nil {
				value = rule.Transform(value)
			}
			if err := s.Set(rule.New, value); err != nil {
				continue
			}
			copied = true
		}
		s.Delete(rule.Old)
		applied = append(applied, Applied{Old: rule.Old, New: rule.New, Copied: copied})
	}
	return applied
}

// IsDeprecated reports whether path is the old side of a rule.
func (t Table) IsDeprecated(path keypath.Path) bool {
	for _, rule := range t {
		if rule.Old.Equal(path) {
			return true
		}
	}
	return false
}
