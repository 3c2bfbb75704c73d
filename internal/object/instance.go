package object

import (
	"strata/internal/classdef"
)

// Instance is one materialized object: per-instance member storage plus the
// deduplicated DAG of ancestor sub-instances. All member access goes through
// Get/Set/Call so visibility can be enforced against the current scope.
type Instance struct {
	class    *ClassDescriptor
	registry *Registry

	// members maps member name to storage. Inherited slots alias the
	// ancestor sub-instance's records; statics alias the descriptor's live
	// cell; parent-reference slots hold a sub-instance.
	members map[string]*MemberRecord

	// root is the most-derived instance of the composition; root.root ==
	// root. Scope redirection always resolves against the root's arena.
	root *Instance

	// subs is the ancestor arena, keyed by descriptor: exactly one
	// sub-instance per ancestor, shared across diamond paths. Populated on
	// the root only.
	subs map[*ClassDescriptor]*Instance

	disposed bool
}

// Class returns the instance's descriptor.
func (i *Instance) Class() *ClassDescriptor {
	return i.class
}

// Registry returns the registry the instance was materialized by.
func (i *Instance) Registry() *Registry {
	return i.registry
}

// Name returns the fully qualified class name.
func (i *Instance) Name() string {
	return i.class.Name
}

// Root returns the most-derived instance of the composition this instance
// belongs to.
func (i *Instance) Root() *Instance {
	return i.root
}

// Ancestor returns the sub-instance materialized for desc, or the instance
// itself when desc is its own class. Returns nil for unrelated classes.
func (i *Instance) Ancestor(desc *ClassDescriptor) *Instance {
	if i == nil {
		return nil
	}
	return i.root.subs[desc]
}

// InstanceOf reports whether the instance's class is other or derives from
// it (ancestor classes and implemented interfaces included).
func (i *Instance) InstanceOf(other *ClassDescriptor) bool {
	if i == nil {
		return false
	}
	return i.class.DerivesFrom(other)
}

// GetMember returns a point-in-time view of one member slot, or ok=false
// when the instance has no such member. Synthetic parent references are
// reported like any other slot; visibility is not enforced here.
func (i *Instance) GetMember(name string) (MemberRecord, bool) {
	rec, ok := i.members[name]
	if !ok {
		return MemberRecord{}, false
	}
	return MemberRecord{Meta: rec.Meta, Value: rec.Value}, true
}

// Members returns a point-in-time view of every member slot, excluding
// synthetic parent references.
func (i *Instance) Members() map[string]MemberRecord {
	out := make(map[string]MemberRecord, len(i.members))
	for name, rec := range i.members {
		if rec.Meta.Mods.Has(classdef.ModParentRef) {
			continue
		}
		out[name] = MemberRecord{Meta: rec.Meta, Value: rec.Value}
	}
	return out
}

// Dispose runs the instance's finalizer, if declared, with scope suppressed:
// finalizers have no owning method context and get unrestricted access to
// the instance's own members. A failing finalizer is reported through the
// registry and never rethrown. Dispose is idempotent.
func (i *Instance) Dispose() {
	if i == nil || i.disposed {
		return
	}
	i.disposed = true
	rec, ok := i.members[classdef.FinalizerName]
	if !ok {
		return
	}
	fn, ok := rec.Value.(Method)
	if !ok {
		return
	}
	err := i.registry.WithSuppressedScope(func() error {
		_, callErr := fn(i)
		return callErr
	})
	if err != nil {
		i.registry.reportFinalizerFailure(i, err)
	}
}
