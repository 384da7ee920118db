package remap

import (
	"reflect"
	"testing"

	"wikiconfig/internal/keypath"
	"wikiconfig/internal/store"
)

func TestStoreImplScenario(t *testing.T) {
	s := store.New()
	_ = s.Set(keypath.New("StoreImpl"), "Foo")

	applied := Default.Apply(s)
	if len(applied) != 1 || !applied[0].Copied {
		t.Fatalf("unexpected applied rules %#v", applied)
	}
	got, ok := s.String(keypath.New("Store", "Implementation"))
	if !ok || got != "Foswiki::Store::Foo" {
		t.Fatalf("unexpected implementation %q", got)
	}
	if s.Exists(keypath.New("StoreImpl")) {
		t.Fatal("expected deprecated key to be removed")
	}
}

func TestCurrentValueWins(t *testing.T) {
	s := store.New()
	_ = s.Set(keypath.New("RCS", "FgrepCmd"), "old-fgrep")
	_ = s.Set(keypath.New("Store", "FgrepCmd"), "new-fgrep")

	applied := Default.Apply(s)
	if len(applied) != 1 || applied[0].Copied {
		t.Fatalf("expected a non-copying removal, got %#v", applied)
	}
	if got, _ := s.String(keypath.New("Store", "FgrepCmd")); got != "new-fgrep" {
		t.Fatalf("current value overwritten: %q", got)
	}
	if s.Exists(keypath.New("RCS")) {
		t.Fatal("expected emptied RCS map to be pruned")
	}
}

func TestVerbatimCopy(t *testing.T) {
	s := store.New()
	_ = s.Set(keypath.New("RCS", "dirPermission"), int64(0o755))
	_ = s.Set(keypath.New("RCS", "AutoAttachPubFiles"), true)
	Default.Apply(s)
	value, _ := s.Get(keypath.New("Store", "dirPermission"))
	if value != int64(0o755) {
		t.Fatalf("expected verbatim copy, got %#v", value)
	}
	if !s.Exists(keypath.New("RCS", "AutoAttachPubFiles")) {
		t.Fatal("expected unrelated RCS key to survive")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	s := store.New()
	_ = s.Set(keypath.New("StoreImpl"), "RcsWrap")
	_ = s.Set(keypath.New("SearchAlgorithm"), "Foswiki::Store::SearchAlgorithms::Forking")
	_ = s.Set(keypath.New("Site", "CharSet"), "utf-8")
	_ = s.Set(keypath.New("Site", "Locale"), "en_US.utf-8")

	Default.Apply(s)
	once := s.Snapshot()
	if applied := Default.Apply(s); len(applied) != 0 {
		t.Fatalf("expected second apply to be a no-op, got %#v", applied)
	}
	if !reflect.DeepEqual(once, s.Snapshot()) {
		t.Fatal("expected identical store after second apply")
	}
}

func TestIsDeprecated(t *testing.T) {
	if !Default.IsDeprecated(keypath.MustParse("{'StoreImpl'}")) {
		t.Fatal("expected StoreImpl to be deprecated")
	}
	if Default.IsDeprecated(keypath.New("Store", "Implementation")) {
		t.Fatal("did not expect current key to be deprecated")
	}
}
