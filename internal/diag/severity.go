package diag

// Severity ranks how badly a diagnostic affects a load: advisory notes,
// warnings the linker works around, and errors that leave the class set
// unusable. Bag.HasErrors gates on SevError.
type Severity uint8

const (
	// SevInfo is advisory output; hidden by the CLI's quiet mode.
	SevInfo Severity = iota
	// SevWarning flags a linked-but-degraded outcome, such as a surviving
	// ambiguous slot or an abstract class in the document set.
	SevWarning
	// SevError flags a definition that could not be linked.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
