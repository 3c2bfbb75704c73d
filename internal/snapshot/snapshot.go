// Package snapshot round-trips instance state through a schema-versioned
// msgpack payload: every own, non-transient, non-function member value,
// nested per ancestor class for parent-declared members.
package snapshot

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"strata/internal/classdef"
	"strata/internal/object"
)

// SchemaVersion - increment when the payload format changes.
const SchemaVersion uint16 = 1

type payload struct {
	Schema  uint16              `msgpack:"schema"`
	Class   string              `msgpack:"class"`
	Values  map[string]any      `msgpack:"values"`
	Parents map[string]*payload `msgpack:"parents,omitempty"`
}

// Capture serializes the instance's state. Methods, statics, transients and
// const members are not part of instance state and are skipped.
func Capture(inst *object.Instance) ([]byte, error) {
	var p *payload
	err := inst.Registry().WithSuppressedScope(func() error {
		var walkErr error
		p, walkErr = capture(inst)
		return walkErr
	})
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(p)
}

func capture(inst *object.Instance) (*payload, error) {
	desc := inst.Class()
	p := &payload{
		Schema: SchemaVersion,
		Class:  desc.Name,
		Values: make(map[string]any),
	}
	for _, name := range desc.OwnMembers {
		meta := desc.Meta[name]
		if meta == nil || !serializable(meta.Mods) {
			continue
		}
		v, err := inst.Get(name)
		if err != nil {
			return nil, fmt.Errorf("capture %s.%s: %w", desc.Name, name, err)
		}
		if _, isMethod := v.(object.Method); isMethod {
			continue
		}
		p.Values[name] = v
	}
	for _, link := range desc.ParentLinks {
		if len(link.Aliases) == 0 {
			continue
		}
		sub := inst.Ancestor(link.Class)
		if sub == nil {
			continue
		}
		nested, err := capture(sub)
		if err != nil {
			return nil, err
		}
		if p.Parents == nil {
			p.Parents = make(map[string]*payload)
		}
		p.Parents[link.Aliases[0]] = nested
	}
	return p, nil
}

// Restore materializes an instance from a payload without running its
// constructor, then applies the captured values.
func Restore(reg *object.Registry, data []byte) (*object.Instance, error) {
	var p payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if p.Schema != SchemaVersion {
		return nil, fmt.Errorf("snapshot: schema %d not supported (want %d)", p.Schema, SchemaVersion)
	}
	desc, ok := reg.Lookup(p.Class)
	if !ok {
		return nil, fmt.Errorf("snapshot: class %s is not defined", p.Class)
	}
	inst, err := reg.Restore(desc)
	if err != nil {
		return nil, err
	}
	err = reg.WithSuppressedScope(func() error {
		return apply(inst, &p)
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func apply(inst *object.Instance, p *payload) error {
	for name, v := range p.Values {
		if err := inst.Set(name, v); err != nil {
			return fmt.Errorf("restore %s.%s: %w", p.Class, name, err)
		}
	}
	for alias, nested := range p.Parents {
		v, err := inst.Get(alias)
		if err != nil {
			return fmt.Errorf("restore %s.%s: %w", p.Class, alias, err)
		}
		sub, ok := v.(*object.Instance)
		if !ok {
			continue
		}
		if err := apply(sub, nested); err != nil {
			return err
		}
	}
	return nil
}

func serializable(mods classdef.ModifierSet) bool {
	return !mods.HasAny(classdef.ModTransient | classdef.ModStatic |
		classdef.ModConst | classdef.ModAbstract |
		classdef.ModParentRef | classdef.ModAmbiguous)
}
