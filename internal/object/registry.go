package object

import (
	"fmt"
	"os"

	"strata/internal/classdef"
	"strata/internal/taskrt"
)

// Hooks are the lifecycle extension points. Each hook may veto by returning
// an error, or replace the produced object by returning a different one.
type Hooks struct {
	ClassLinked     func(*ClassDescriptor) (*ClassDescriptor, error)
	InstanceCreated func(*Instance) (*Instance, error)
}

// Registry links class definitions into descriptors and materializes
// instances from them. It is single-threaded, matching the cooperative
// execution model of taskrt.
type Registry struct {
	classes map[string]*ClassDescriptor
	order   []string

	// Tasks is the cooperative executor whose current task carries the
	// "class whose method is executing" scope. Lazily created when nil.
	Tasks *taskrt.Executor

	Hooks Hooks

	// Unchecked removes the private/protected access checks, trading safety
	// for speed. Ambiguity and const checks stay on.
	Unchecked bool

	// FinalizerFailed is called when a finalizer returns an error. The
	// default reports to stderr; failures never propagate to the caller
	// that triggered disposal.
	FinalizerFailed func(*Instance, error)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*ClassDescriptor),
	}
}

// Define links a new class definition. The definition's parents and
// interfaces must already be defined.
func (r *Registry) Define(def classdef.Class) (*ClassDescriptor, error) {
	if _, exists := r.classes[def.Name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrClassRedefined, def.Name)
	}
	return r.link(def)
}

// Redefine links a fresh descriptor for def and swaps it into the registry
// wholesale. Descriptors are immutable, so instances materialized from the
// old descriptor keep their old semantics.
func (r *Registry) Redefine(def classdef.Class) (*ClassDescriptor, error) {
	return r.link(def)
}

func (r *Registry) link(def classdef.Class) (*ClassDescriptor, error) {
	parents := make([]*ClassDescriptor, 0, len(def.Parents))
	for _, name := range def.Parents {
		parent, ok := r.classes[name]
		if !ok {
			return nil, &UnresolvedParentError{Class: def.Name, Parent: name}
		}
		if parent.Interface != def.Interface {
			if parent.Interface {
				return nil, fmt.Errorf("%w: %s extends %s", ErrParentIsInterface, def.Name, name)
			}
			return nil, fmt.Errorf("%w: interface %s extends class %s", ErrNotAnInterface, def.Name, name)
		}
		parents = append(parents, parent)
	}
	ifaces := make([]*ClassDescriptor, 0, len(def.Implements))
	for _, name := range def.Implements {
		iface, ok := r.classes[name]
		if !ok {
			return nil, &UnresolvedParentError{Class: def.Name, Parent: name}
		}
		if !iface.Interface {
			return nil, fmt.Errorf("%w: %s implements %s", ErrNotAnInterface, def.Name, name)
		}
		ifaces = append(ifaces, iface)
	}

	desc := linearize(&def, parents, ifaces)
	if r.Hooks.ClassLinked != nil {
		replaced, err := r.Hooks.ClassLinked(desc)
		if err != nil {
			return nil, err
		}
		if replaced != nil {
			desc = replaced
		}
	}
	if _, existed := r.classes[def.Name]; !existed {
		r.order = append(r.order, def.Name)
	}
	r.classes[def.Name] = desc
	return desc, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*ClassDescriptor, bool) {
	desc, ok := r.classes[name]
	return desc, ok
}

// Classes returns every registered descriptor in definition order.
func (r *Registry) Classes() []*ClassDescriptor {
	out := make([]*ClassDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.classes[name])
	}
	return out
}

// exec returns the scope-tracking executor, creating the default one on
// first use.
func (r *Registry) exec() *taskrt.Executor {
	if r.Tasks == nil {
		r.Tasks = taskrt.New()
	}
	return r.Tasks
}

// suppressedScope marks the scope stack while a finalizer or snapshot walk
// runs: no owning method context, unrestricted member access.
type suppressedScope struct{}

// scopeClass reads the current task's scope: the descriptor whose method
// body is executing, or suppressed=true during finalization.
func (r *Registry) scopeClass() (scope *ClassDescriptor, suppressed bool) {
	switch v := r.exec().Scope().(type) {
	case *ClassDescriptor:
		return v, false
	case suppressedScope:
		return nil, true
	}
	return nil, false
}

// WithSuppressedScope runs fn with access checks suppressed on the current
// task, restoring the previous scope on every exit path.
func (r *Registry) WithSuppressedScope(fn func() error) error {
	exec := r.exec()
	exec.PushScope(suppressedScope{})
	defer exec.PopScope()
	return fn()
}

func (r *Registry) reportFinalizerFailure(inst *Instance, err error) {
	if r.FinalizerFailed != nil {
		r.FinalizerFailed(inst, err)
		return
	}
	fmt.Fprintf(os.Stderr, "strata: finalizer of %s failed: %v\n", inst.Name(), err)
}
