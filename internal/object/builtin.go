package object

import "fmt"

// Built-in instance operations, resolved from a fixed capability table when
// a name misses the member map. They are ordinary Method values, so reading
// one yields a callable and Call invokes it directly.
var builtinOps = map[string]Method{
	"get_name":    builtinGetName,
	"get_class":   builtinGetClass,
	"instance_of": builtinInstanceOf,
	"get_member":  builtinGetMember,
	"get_members": builtinGetMembers,
}

func builtinGetName(self *Instance, _ ...any) (any, error) {
	return self.Name(), nil
}

func builtinGetClass(self *Instance, _ ...any) (any, error) {
	return self.Class(), nil
}

func builtinInstanceOf(self *Instance, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("instance_of: want 1 argument, got %d", len(args))
	}
	switch other := args[0].(type) {
	case *ClassDescriptor:
		return self.InstanceOf(other), nil
	case *Instance:
		return self.InstanceOf(other.Class()), nil
	case string:
		desc, ok := self.registry.Lookup(other)
		if !ok {
			return false, nil
		}
		return self.InstanceOf(desc), nil
	}
	return nil, fmt.Errorf("instance_of: unsupported argument type %T", args[0])
}

func builtinGetMember(self *Instance, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("get_member: want 1 argument, got %d", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("get_member: member name must be a string, got %T", args[0])
	}
	rec, ok := self.GetMember(name)
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func builtinGetMembers(self *Instance, _ ...any) (any, error) {
	return self.Members(), nil
}
