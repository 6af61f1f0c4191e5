package page

// State is a position in the page build.
type State int

const (
	StateInit State = iota
	StateSectionsBuilt
	StateOutlinePopulated
	StateRendered
	StateWritten
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateInit:             "init",
	StateSectionsBuilt:    "sections_built",
	StateOutlinePopulated: "outline_populated",
	StateRendered:         "rendered",
	StateWritten:          "written",
	StateDone:             "done",
	StateFailed:           "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
