package object

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCode identifies the type of engine error.
type ErrCode uint16

// Stable error codes - do not change values.
const (
	CodeUnresolvedParent      ErrCode = 1001 // OBJ1001: parent class not found
	CodeAbstractInstantiation ErrCode = 1002 // OBJ1002: abstract class instantiated
	CodeAmbiguousMember       ErrCode = 1003 // OBJ1003: ambiguous member access
	CodePrivateAccess         ErrCode = 1004 // OBJ1004: private member access
	CodeProtectedAccess       ErrCode = 1005 // OBJ1005: protected member access
	CodeConstViolation        ErrCode = 1006 // OBJ1006: write to const member
)

// String returns the code as "OBJ1001" format.
func (c ErrCode) String() string {
	return fmt.Sprintf("OBJ%d", uint16(c))
}

var (
	// ErrClassRedefined indicates Define was called for an already linked
	// class; use Redefine to replace a descriptor wholesale.
	ErrClassRedefined = errors.New("class already defined")
	// ErrParentIsInterface indicates an interface was listed in parents.
	ErrParentIsInterface = errors.New("cannot extend an interface")
	// ErrNotAnInterface indicates a class was listed in implements.
	ErrNotAnInterface = errors.New("implements target is not an interface")
)

// UnresolvedParentError reports a parent name that is not in the registry at
// link time.
type UnresolvedParentError struct {
	Class  string
	Parent string
}

func (e *UnresolvedParentError) Error() string {
	return fmt.Sprintf("%s: class %s: unknown parent %q", CodeUnresolvedParent, e.Class, e.Parent)
}

// AbstractInstantiationError reports construction of a class with
// unimplemented abstract members.
type AbstractInstantiationError struct {
	Class   string
	Members []string
}

func (e *AbstractInstantiationError) Error() string {
	if len(e.Members) == 0 {
		return fmt.Sprintf("%s: cannot instantiate abstract class %s", CodeAbstractInstantiation, e.Class)
	}
	return fmt.Sprintf("%s: cannot instantiate %s: unimplemented abstract members: %s",
		CodeAbstractInstantiation, e.Class, strings.Join(e.Members, ", "))
}

// AmbiguousMemberError reports access to a member contributed by two or more
// unrelated ancestors without child-side resolution.
type AmbiguousMemberError struct {
	Class  string
	Member string
}

func (e *AmbiguousMemberError) Error() string {
	return fmt.Sprintf("%s: member %q of %s is ambiguous: inherited from multiple unrelated parents; override it or qualify access through a parent reference",
		CodeAmbiguousMember, e.Member, e.Class)
}

// PrivateAccessError reports access to a private member from outside its
// declaring class.
type PrivateAccessError struct {
	Member string
	Owner  string
	Scope  string
}

func (e *PrivateAccessError) Error() string {
	return fmt.Sprintf("%s: member %q is private to %s (accessed from %s)",
		CodePrivateAccess, e.Member, e.Owner, scopeLabel(e.Scope))
}

// ProtectedAccessError reports access to a protected member from outside its
// declaring class's hierarchy.
type ProtectedAccessError struct {
	Member string
	Owner  string
	Scope  string
}

func (e *ProtectedAccessError) Error() string {
	return fmt.Sprintf("%s: member %q is protected by %s (accessed from %s)",
		CodeProtectedAccess, e.Member, e.Owner, scopeLabel(e.Scope))
}

// ConstViolationError reports a write to a const-flagged member.
type ConstViolationError struct {
	Class  string
	Member string
}

func (e *ConstViolationError) Error() string {
	return fmt.Sprintf("%s: member %q of %s is const", CodeConstViolation, e.Member, e.Class)
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "outside any class method"
	}
	return scope
}
