package object

import (
	"sort"

	"strata/internal/classdef"
)

// linearize flattens a class definition and its already-linearized parents
// into a new descriptor. Parents are merged in declaration order; the class's
// own members merge last and unconditionally shadow inherited slots.
func linearize(def *classdef.Class, parents, ifaces []*ClassDescriptor) *ClassDescriptor {
	desc := &ClassDescriptor{
		Name:       def.Name,
		Interface:  def.Interface,
		Meta:       make(map[string]*MemberMeta),
		Values:     make(map[string]any),
		Statics:    make(map[string]*MemberRecord),
		Ancestors:  make(map[*ClassDescriptor]struct{}),
		Interfaces: make(map[*ClassDescriptor]struct{}),
	}

	for _, parent := range parents {
		desc.mergeParent(parent)
	}
	desc.mergeOwn(def)
	desc.finish(parents, ifaces)
	return desc
}

// mergeParent registers the synthetic parent-reference aliases for one
// immediate parent, then folds in every member the parent exposes.
func (desc *ClassDescriptor) mergeParent(parent *ClassDescriptor) {
	link := ParentLink{Class: parent}
	for _, alias := range parentAliases(parent) {
		if _, taken := desc.Meta[alias]; taken {
			continue
		}
		desc.Meta[alias] = &MemberMeta{Owner: desc, Mods: classdef.ModParentRef}
		desc.Values[alias] = parent
		link.Aliases = append(link.Aliases, alias)
	}
	desc.ParentLinks = append(desc.ParentLinks, link)

	// Deterministic merge order keeps ambiguity marking reproducible.
	names := make([]string, 0, len(parent.Meta))
	for name := range parent.Meta {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		incoming := parent.Meta[name]
		existing, ok := desc.Meta[name]
		if !ok {
			// Shared by reference: a child override of one merge point must
			// stay visible everywhere the record is aliased.
			desc.Meta[name] = incoming
			if incoming.Mods.Has(classdef.ModStatic) {
				desc.Statics[name] = parent.Statics[name]
			} else if v, declared := parent.Values[name]; declared {
				desc.Values[name] = v
			}
			continue
		}
		if existing == incoming {
			// Same record reached through two paths of a diamond.
			continue
		}
		if existing.Mods.Has(classdef.ModParentRef) || incoming.Mods.Has(classdef.ModParentRef) {
			// Two aliases of an ancestor chain, not a true collision.
			continue
		}
		// True collision between unrelated ancestors: poison the slot until
		// the child overrides it or access is qualified through a parent.
		desc.Meta[name] = &MemberMeta{
			Owner: desc,
			Mods:  existing.Mods.With(classdef.ModAmbiguous),
		}
		delete(desc.Values, name)
		delete(desc.Statics, name)
	}
}

// mergeOwn merges the class's directly declared members, overwriting any
// inherited slot of the same name.
func (desc *ClassDescriptor) mergeOwn(def *classdef.Class) {
	for _, m := range def.Members {
		meta := &MemberMeta{Owner: desc, Mods: m.Mods}
		desc.Meta[m.Name] = meta
		delete(desc.Values, m.Name)
		delete(desc.Statics, m.Name)
		if m.Mods.Has(classdef.ModStatic) {
			desc.Statics[m.Name] = &MemberRecord{Meta: meta, Value: m.Value}
			continue
		}
		desc.Values[m.Name] = m.Value
		if !m.Mods.Has(classdef.ModParentRef) {
			desc.OwnMembers = append(desc.OwnMembers, m.Name)
		}
	}
}

// finish precomputes the ancestor set, interface set and abstract summary.
func (desc *ClassDescriptor) finish(parents, ifaces []*ClassDescriptor) {
	for _, parent := range parents {
		desc.Ancestors[parent] = struct{}{}
		for anc := range parent.Ancestors {
			desc.Ancestors[anc] = struct{}{}
		}
		for iface := range parent.Interfaces {
			desc.Interfaces[iface] = struct{}{}
		}
	}
	for _, iface := range ifaces {
		desc.Interfaces[iface] = struct{}{}
		for anc := range iface.Ancestors {
			desc.Interfaces[anc] = struct{}{}
		}
	}

	abstract := make(map[string]struct{})
	for name, meta := range desc.Meta {
		if meta.Mods.Has(classdef.ModAbstract) {
			abstract[name] = struct{}{}
		}
	}
	// Interface members are requirements, not inherited slots: anything an
	// implemented interface declares must exist on the class, non-abstract.
	for iface := range desc.Interfaces {
		for name, meta := range iface.Meta {
			if meta.Mods.Has(classdef.ModParentRef) {
				continue
			}
			own, ok := desc.Meta[name]
			if !ok || own.Mods.Has(classdef.ModAbstract) {
				abstract[name] = struct{}{}
			}
		}
	}
	if len(abstract) > 0 {
		desc.HasAbstract = true
		desc.AbstractMembers = make([]string, 0, len(abstract))
		for name := range abstract {
			desc.AbstractMembers = append(desc.AbstractMembers, name)
		}
		sort.Strings(desc.AbstractMembers)
	}
}

// parentAliases returns the member names an immediate parent is exposed
// under: short name first, then the qualified name when they differ.
func parentAliases(parent *ClassDescriptor) []string {
	short := parent.ShortName()
	if short == parent.Name {
		return []string{short}
	}
	return []string{short, parent.Name}
}
