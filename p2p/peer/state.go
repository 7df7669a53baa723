package peer

// State is the lifecycle state of a connection
type State uint8

// connection states
const (
	Discovered State = iota
	Connecting
	VersionSent
	VerackExchanged
	Ready
	Failed
	Closed
)

var stateNames = map[State]string{
	Discovered:      "discovered",
	Connecting:      "connecting",
	VersionSent:     "version-sent",
	VerackExchanged: "verack-exchanged",
	Ready:           "ready",
	Failed:          "failed",
	Closed:          "closed",
}

func (s State) String() string {
	if name, has := stateNames[s]; has {
		return name
	}
	return "unknown"
}

// IsTerminal returns the state is Failed or Closed
func (s State) IsTerminal() bool {
	return s == Failed || s == Closed
}
