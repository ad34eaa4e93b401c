package views

// Messages shared by the two list views. Every store round-trip ends in
// one of these; views rebuild their rows from the engine when they land.

type wishesLoadedMsg struct {
	err error
}

type routinesLoadedMsg struct {
	err error
}

// opDoneMsg reports a finished quick action (status cycle, toggle,
// check-in, delete, test notification, form save).
type opDoneMsg struct {
	id   string
	note string // optional success notice, e.g. the check-in message
	err  error
}
