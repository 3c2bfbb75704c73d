package object

import (
	"strata/internal/classdef"
)

// New materializes and constructs an instance of the named class: the
// constructor member, if declared or inherited unshadowed, runs with args.
func (r *Registry) New(name string, args ...any) (*Instance, error) {
	desc, ok := r.classes[name]
	if !ok {
		return nil, &UnresolvedParentError{Class: name, Parent: name}
	}
	return r.NewOf(desc, args...)
}

// NewOf materializes and constructs an instance of desc.
func (r *Registry) NewOf(desc *ClassDescriptor, args ...any) (*Instance, error) {
	inst, err := r.materialize(desc)
	if err != nil {
		return nil, err
	}
	if err := r.construct(inst, args); err != nil {
		// Construction either fully commits or the instance is discarded.
		return nil, err
	}
	return r.created(inst)
}

// Restore materializes an instance of desc without running its constructor,
// for deserialization. The constructor slot is still removed.
func (r *Registry) Restore(desc *ClassDescriptor) (*Instance, error) {
	inst, err := r.materialize(desc)
	if err != nil {
		return nil, err
	}
	inst.dropConstructor()
	return r.created(inst)
}

// materialize builds the instance tree for desc: one sub-instance per
// ancestor, deduplicated across diamond paths, with instance members copied
// and statics shared. Abstract classes are rejected before any side effects.
func (r *Registry) materialize(desc *ClassDescriptor) (*Instance, error) {
	if desc.Interface {
		return nil, &AbstractInstantiationError{Class: desc.Name, Members: desc.AbstractMembers}
	}
	if desc.HasAbstract {
		return nil, &AbstractInstantiationError{Class: desc.Name, Members: desc.AbstractMembers}
	}
	arena := make(map[*ClassDescriptor]*Instance, len(desc.Ancestors)+1)
	root := &Instance{
		class:    desc,
		registry: r,
		members:  make(map[string]*MemberRecord),
	}
	root.root = root
	root.subs = arena
	// The root must be in the arena before any parent is built: ancestor
	// members resolve scope redirection against the most-derived instance.
	arena[desc] = root
	r.build(root, arena)
	return root, nil
}

// build fills one instance's member map: parents first (depth-first, first
// writer wins, matching the linearizer's collision policy), then copies of
// its own member templates, then shared static cells.
func (r *Registry) build(inst *Instance, arena map[*ClassDescriptor]*Instance) {
	desc := inst.class
	for _, link := range desc.ParentLinks {
		sub, ok := arena[link.Class]
		if !ok {
			sub = &Instance{
				class:    link.Class,
				registry: r,
				members:  make(map[string]*MemberRecord),
				root:     inst.root,
			}
			arena[link.Class] = sub
			r.build(sub, arena)
		}
		for _, alias := range link.Aliases {
			meta := desc.Meta[alias]
			if meta == nil || !meta.Mods.Has(classdef.ModParentRef) {
				// An own member shadows this alias; the parent stays
				// reachable through its other alias.
				continue
			}
			if _, taken := inst.members[alias]; taken {
				continue
			}
			inst.members[alias] = &MemberRecord{Meta: meta, Value: sub}
		}
		for name, rec := range sub.members {
			if _, taken := inst.members[name]; taken {
				continue
			}
			inst.members[name] = rec
		}
	}
	for _, name := range desc.OwnMembers {
		inst.members[name] = &MemberRecord{
			Meta:  desc.Meta[name],
			Value: deepCopy(desc.Values[name]),
		}
	}
	for name, meta := range desc.Meta {
		if !meta.Mods.Has(classdef.ModStatic) {
			continue
		}
		// A record copied from a parent only stands if its metadata is still
		// current; an own static shadowing an inherited slot replaces it.
		if rec, taken := inst.members[name]; taken && rec.Meta == meta {
			continue
		}
		if cell := desc.Statics[name]; cell != nil {
			inst.members[name] = cell
		}
	}
}

// construct invokes the constructor member, if any, then removes it from the
// instance (not the descriptor) so it cannot run twice.
func (r *Registry) construct(inst *Instance, args []any) error {
	rec, ok := inst.members[classdef.ConstructorName]
	if !ok {
		return nil
	}
	defer inst.dropConstructor()
	fn, ok := rec.Value.(Method)
	if !ok {
		return nil
	}
	_, err := r.invoke(inst, rec.Meta, fn, args...)
	return err
}

// dropConstructor removes the constructor slot from every view of the
// instance, including ancestor sub-instances.
func (i *Instance) dropConstructor() {
	delete(i.members, classdef.ConstructorName)
	for _, sub := range i.root.subs {
		delete(sub.members, classdef.ConstructorName)
	}
}

// created fires the instance hook, which may veto or replace the instance.
func (r *Registry) created(inst *Instance) (*Instance, error) {
	if r.Hooks.InstanceCreated == nil {
		return inst, nil
	}
	replaced, err := r.Hooks.InstanceCreated(inst)
	if err != nil {
		return nil, err
	}
	if replaced != nil {
		return replaced, nil
	}
	return inst, nil
}
