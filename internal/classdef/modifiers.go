package classdef

import (
	"fmt"
	"strings"
)

// ModifierSet is a bitset of member modifiers. The zero value means "public,
// no flags".
type ModifierSet uint16

const (
	// ModPublic is the default visibility; it is accepted in documents for
	// explicitness but adds no bit beyond itself.
	ModPublic ModifierSet = 1 << iota
	// ModPrivate restricts access to methods of the declaring class.
	ModPrivate
	// ModProtected restricts access to methods of the declaring class and
	// its descendants.
	ModProtected
	// ModStatic makes the member a single cell shared by the declaring
	// class, its descendants and all their instances.
	ModStatic
	// ModConst forbids assignment after linking.
	ModConst
	// ModAbstract declares a member without a value; a class carrying an
	// unimplemented abstract member cannot be instantiated.
	ModAbstract
	// ModTransient excludes the member from snapshots.
	ModTransient

	// Synthetic flags below are produced by the linker and rejected in
	// documents.

	// ModParentRef marks the member as a synthetic reference to a parent
	// sub-object.
	ModParentRef
	// ModAmbiguous poisons a slot that collided during linearization.
	ModAmbiguous
)

// Has reports whether every bit of m is set.
func (s ModifierSet) Has(m ModifierSet) bool { return s&m == m }

// HasAny reports whether any bit of m is set.
func (s ModifierSet) HasAny(m ModifierSet) bool { return s&m != 0 }

// With returns s with the bits of m added.
func (s ModifierSet) With(m ModifierSet) ModifierSet { return s | m }

// Without returns s with the bits of m cleared.
func (s ModifierSet) Without(m ModifierSet) ModifierSet { return s &^ m }

// Visibility collapses the set to its effective visibility. Private wins over
// protected; no visibility bit means public.
func (s ModifierSet) Visibility() ModifierSet {
	switch {
	case s.Has(ModPrivate):
		return ModPrivate
	case s.Has(ModProtected):
		return ModProtected
	default:
		return ModPublic
	}
}

var modifierNames = []struct {
	bit  ModifierSet
	name string
}{
	{ModPublic, "public"},
	{ModPrivate, "private"},
	{ModProtected, "protected"},
	{ModStatic, "static"},
	{ModConst, "const"},
	{ModAbstract, "abstract"},
	{ModTransient, "transient"},
	{ModParentRef, "parent-ref"},
	{ModAmbiguous, "ambiguous"},
}

func (s ModifierSet) String() string {
	if s == 0 {
		return "public"
	}
	var parts []string
	for _, m := range modifierNames {
		if s.Has(m.bit) {
			parts = append(parts, m.name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("ModifierSet(%#x)", uint16(s))
	}
	return strings.Join(parts, " ")
}

// ParseModifier maps one document modifier keyword to its bit. Synthetic
// flags cannot be written in documents.
func ParseModifier(word string) (ModifierSet, error) {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "public":
		return ModPublic, nil
	case "private":
		return ModPrivate, nil
	case "protected":
		return ModProtected, nil
	case "static":
		return ModStatic, nil
	case "const":
		return ModConst, nil
	case "abstract":
		return ModAbstract, nil
	case "transient":
		return ModTransient, nil
	}
	return 0, fmt.Errorf("unknown modifier %q", word)
}

// ParseModifiers folds a document modifier list into one set.
func ParseModifiers(words []string) (ModifierSet, error) {
	var s ModifierSet
	for _, w := range words {
		m, err := ParseModifier(w)
		if err != nil {
			return 0, err
		}
		if m.HasAny(ModPrivate|ModProtected) && s.HasAny(ModPrivate|ModProtected) && !s.Has(m) {
			return 0, fmt.Errorf("conflicting visibility modifiers")
		}
		s = s.With(m)
	}
	return s, nil
}
