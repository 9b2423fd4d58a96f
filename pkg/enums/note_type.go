package enums

// NoteType classifies an internal booking note.
type NoteType string

const (
	NoteTypeInfo    NoteType = "info"
	NoteTypeWarning NoteType = "warning"
	NoteTypeAction  NoteType = "action"
)

var validNoteTypes = []NoteType{
	NoteTypeInfo,
	NoteTypeWarning,
	NoteTypeAction,
}

func (n NoteType) String() string {
	return string(n)
}

func (n NoteType) IsValid() bool {
	return oneOf(n, validNoteTypes)
}

// ParseNoteType converts raw input into a NoteType.
func ParseNoteType(value string) (NoteType, error) {
	return parse("note type", validNoteTypes, value)
}
