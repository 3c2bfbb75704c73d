package object

import (
	"fmt"

	"strata/internal/classdef"
)

// Member access. Every read and write is mediated here: modifiers and the
// owning class come from the descriptor's metadata, the current scope comes
// from the task runtime, and per-declaring-class storage is resolved by
// redirecting the single member being accessed - never method resolution,
// which always runs against the concrete instance's flattened table.

// Get reads a member. Undefined names fall back to the built-in operation
// table, then to a declared catch-all member, and finally resolve to nil
// without error: optional slots are part of the calling convention.
func (i *Instance) Get(name string) (any, error) {
	meta, target := i.resolveScoped(name)
	if meta == nil {
		if rec, ok := i.members[name]; ok {
			// Dynamic member added by Set after materialization.
			return rec.Value, nil
		}
		if op, ok := builtinOps[name]; ok {
			return op, nil
		}
		if v, handled, err := i.callCatchall(name); handled {
			return v, err
		}
		return nil, nil
	}
	if err := i.checkAccess(meta, name); err != nil {
		return nil, err
	}
	if meta.Mods.Has(classdef.ModStatic) {
		if cell := i.class.Statics[name]; cell != nil {
			return cell.Value, nil
		}
		return nil, nil
	}
	rec := target.members[name]
	if rec == nil {
		return nil, nil
	}
	return rec.Value, nil
}

// Set writes a member. Const is rejected before any scope consideration;
// writes to undeclared names create a dynamic public instance member.
func (i *Instance) Set(name string, value any) error {
	meta, target := i.resolveScoped(name)
	if meta == nil {
		if rec, ok := i.members[name]; ok {
			rec.Value = value
			return nil
		}
		i.members[name] = &MemberRecord{
			Meta:  &MemberMeta{Owner: i.class, Mods: classdef.ModPublic},
			Value: value,
		}
		return nil
	}
	if meta.Mods.Has(classdef.ModConst) {
		return &ConstViolationError{Class: i.class.Name, Member: name}
	}
	if err := i.checkAccess(meta, name); err != nil {
		return err
	}
	if meta.Mods.Has(classdef.ModStatic) {
		if cell := i.class.Statics[name]; cell != nil {
			// The descriptor's live cell: visible through every instance and
			// through the class itself.
			cell.Value = value
		}
		return nil
	}
	if rec := target.members[name]; rec != nil {
		rec.Value = value
		return nil
	}
	target.members[name] = &MemberRecord{Meta: meta, Value: value}
	return nil
}

// Call invokes a member as a method of this instance. Resolution is
// polymorphic: the concrete instance's flattened table yields the
// most-derived override, and the resolved member's declaring class becomes
// the scope for the duration of the call.
func (i *Instance) Call(name string, args ...any) (any, error) {
	if meta := i.class.Meta[name]; meta != nil && meta.Mods.Has(classdef.ModAmbiguous) {
		return nil, &AmbiguousMemberError{Class: i.class.Name, Member: name}
	}
	rec, ok := i.members[name]
	if !ok {
		if op, found := builtinOps[name]; found {
			return op(i, args...)
		}
		if v, handled, err := i.callCatchall(name, args...); handled {
			return v, err
		}
		return nil, fmt.Errorf("undefined method %q on %s", name, i.class.Name)
	}
	if err := i.checkAccess(rec.Meta, name); err != nil {
		return nil, err
	}
	fn, ok := rec.Value.(Method)
	if !ok {
		return nil, fmt.Errorf("member %q of %s is not callable", name, i.class.Name)
	}
	return i.registry.invoke(i, rec.Meta, fn, args...)
}

// resolveScoped finds the metadata and storage target for one member access.
// When the current scope is an ancestor class that independently declares a
// same-named private or protected member, the access is redirected to that
// class's own sub-instance: a parent method sees the parent's storage even
// when the child shadows the name.
func (i *Instance) resolveScoped(name string) (*MemberMeta, *Instance) {
	meta := i.class.Meta[name]
	if meta == nil {
		return nil, nil
	}
	target := i
	scope, suppressed := i.registry.scopeClass()
	if suppressed || scope == nil || scope == i.class {
		return meta, target
	}
	shadow, ok := scope.Meta[name]
	if !ok || shadow.Owner != scope {
		return meta, target
	}
	// Statics are never re-scoped; public members have a single storage
	// location so redirection would be a no-op.
	if shadow.Mods.Visibility() == classdef.ModPublic ||
		shadow.Mods.HasAny(classdef.ModStatic|classdef.ModParentRef) {
		return meta, target
	}
	if sub := i.root.subs[scope]; sub != nil {
		return shadow, sub
	}
	return meta, target
}

// checkAccess enforces ambiguity and visibility for one resolved slot.
func (i *Instance) checkAccess(meta *MemberMeta, name string) error {
	if meta.Mods.Has(classdef.ModAmbiguous) {
		return &AmbiguousMemberError{Class: i.class.Name, Member: name}
	}
	scope, suppressed := i.registry.scopeClass()
	if suppressed || i.registry.Unchecked {
		return nil
	}
	switch meta.Mods.Visibility() {
	case classdef.ModPrivate:
		// Name equality, not identity: a hot-reloaded descriptor keeps its
		// methods' access to instances of the previous generation.
		if scope == nil || meta.Owner == nil || scope.Name != meta.Owner.Name {
			return &PrivateAccessError{Member: name, Owner: ownerName(meta), Scope: className(scope)}
		}
	case classdef.ModProtected:
		if scope == nil || meta.Owner == nil || !scope.DerivesFrom(meta.Owner) {
			return &ProtectedAccessError{Member: name, Owner: ownerName(meta), Scope: className(scope)}
		}
	}
	return nil
}

// callCatchall invokes the declared catch-all member, if any, for an
// undefined name. Returns handled=false when no catch-all is declared.
func (i *Instance) callCatchall(name string, args ...any) (any, bool, error) {
	if name == classdef.CatchallName {
		return nil, false, nil
	}
	rec, ok := i.members[classdef.CatchallName]
	if !ok {
		return nil, false, nil
	}
	fn, ok := rec.Value.(Method)
	if !ok {
		return nil, false, nil
	}
	v, err := i.registry.invoke(i, rec.Meta, fn, append([]any{name}, args...)...)
	return v, true, err
}

// invoke runs fn as a method of self with the declaring class pushed as the
// current scope. The previous scope is restored on every exit path,
// including panics, so a failed access check never corrupts later checks.
func (r *Registry) invoke(self *Instance, meta *MemberMeta, fn Method, args ...any) (any, error) {
	exec := r.exec()
	exec.PushScope(meta.Owner)
	defer exec.PopScope()
	return fn(self, args...)
}

func ownerName(meta *MemberMeta) string {
	if meta.Owner == nil {
		return "<unknown>"
	}
	return meta.Owner.Name
}

func className(c *ClassDescriptor) string {
	if c == nil {
		return ""
	}
	return c.Name
}
