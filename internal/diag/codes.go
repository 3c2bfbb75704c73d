package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Document-level problems.
	DocInfo             Code = 1000
	DocParse            Code = 1001
	DocEmptyClassName   Code = 1002
	DocUnknownModifier  Code = 1003
	DocVisibilityClash  Code = 1004
	DocReservedModifier Code = 1005
	DocDuplicateMember  Code = 1006
	DocAbstractValue    Code = 1007
	DocStaticAbstract   Code = 1008
	DocInterfaceMember  Code = 1009

	// Link-time problems.
	LinkInfo             Code = 2000
	LinkUnresolvedParent Code = 2001
	LinkDuplicateClass   Code = 2002
	LinkCycle            Code = 2003
	LinkAmbiguousMember  Code = 2004
	LinkNotAnInterface   Code = 2005
	LinkParentInterface  Code = 2006
	LinkAbstractLeak     Code = 2007
)

func (c Code) String() string {
	return fmt.Sprintf("STR%04d", uint16(c))
}

// DefaultSeverity returns the severity a code carries unless overridden.
func (c Code) DefaultSeverity() Severity {
	switch c {
	case DocInfo, LinkInfo:
		return SevInfo
	case LinkAmbiguousMember, LinkAbstractLeak:
		return SevWarning
	default:
		return SevError
	}
}
