package object

import (
	"sort"

	"strata/internal/classdef"
)

// Method is the callable shape of a member. Method bodies are host
// functions; the authoring syntax is outside this engine.
type Method func(self *Instance, args ...any) (any, error)

// MemberMeta is the per-member metadata shared by reference across every
// descendant descriptor that inherits the member unmodified.
type MemberMeta struct {
	Owner *ClassDescriptor
	Mods  classdef.ModifierSet
}

// MemberRecord is one member slot. For statics it is the single live cell
// aliased by the declaring descriptor, every descendant descriptor and every
// instance; for instance members it is per-instance storage.
type MemberRecord struct {
	Meta  *MemberMeta
	Value any
}

// ParentLink names one immediate parent and the member aliases it is exposed
// under (short name first, qualified name when distinct).
type ParentLink struct {
	Class   *ClassDescriptor
	Aliases []string
}

// ClassDescriptor is the linearized, flattened representation of one class.
// All fields are read-only after linearization; hot reload swaps the whole
// descriptor rather than mutating it.
type ClassDescriptor struct {
	Name      string
	Interface bool

	// Meta maps member name to owning class and modifiers, for every member
	// the class exposes (own and inherited).
	Meta map[string]*MemberMeta

	// Values holds instance-member templates (copied per instance).
	Values map[string]any

	// Statics holds the live cells for static members. Inherited statics
	// alias the ancestor's cell.
	Statics map[string]*MemberRecord

	// OwnMembers lists directly declared, non-static, non-parent-reference
	// member names, in declaration order.
	OwnMembers []string

	// ParentLinks has one entry per immediate parent, in declaration order.
	ParentLinks []ParentLink

	// Ancestors is the transitive ancestor set.
	Ancestors map[*ClassDescriptor]struct{}

	// Interfaces is the transitive set of implemented interfaces.
	Interfaces map[*ClassDescriptor]struct{}

	// HasAbstract is true when any surviving member (own, inherited or
	// required by an interface) is abstract and unimplemented.
	HasAbstract bool

	// AbstractMembers names the unimplemented members behind HasAbstract.
	AbstractMembers []string
}

// ShortName returns the last segment of the dotted class name.
func (c *ClassDescriptor) ShortName() string {
	return classdef.ShortName(c.Name)
}

// DerivesFrom reports whether other is the class itself, one of its
// ancestors, or an interface it implements.
func (c *ClassDescriptor) DerivesFrom(other *ClassDescriptor) bool {
	if c == nil || other == nil {
		return false
	}
	if c == other {
		return true
	}
	if _, ok := c.Ancestors[other]; ok {
		return true
	}
	_, ok := c.Interfaces[other]
	return ok
}

// MemberNames returns every exposed member name, sorted, with synthetic
// parent references excluded.
func (c *ClassDescriptor) MemberNames() []string {
	names := make([]string, 0, len(c.Meta))
	for name, meta := range c.Meta {
		if meta.Mods.Has(classdef.ModParentRef) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
