// Package nav implements the browser's navigation state machine: the current
// view over the catalogue, the selection cursor, and the transitions driven
// by key events. It performs no I/O; the TUI owns a single Machine and feeds
// it one event at a time.
package nav

import "xpipe-browser/internal/catalogue"

// Mode is the machine's current view.
type Mode int

const (
	// ModeFlat browses the top-level server names.
	ModeFlat Mode = iota
	// ModeDrill browses one server's resource identifiers.
	ModeDrill
	// ModeExiting is the terminal state; the render loop stops.
	ModeExiting
)

// ConfirmPolicy selects what Confirm does on a server in the flat view.
type ConfirmPolicy int

const (
	// DrillThenLaunch descends into servers with more than one identifier;
	// a second Confirm launches the selected resource.
	DrillThenLaunch ConfirmPolicy = iota
	// FlatLaunch always launches the server's primary identifier.
	FlatLaunch
)

// ActionKind classifies the outcome of a Confirm or Select.
type ActionKind int

const (
	// ActionNone means the machine handled the event internally.
	ActionNone ActionKind = iota
	// ActionLaunch asks the caller to open a session against Target.
	ActionLaunch
)

// Action is the machine's request back to its caller.
type Action struct {
	Kind   ActionKind
	Name   string // display name of the server
	Target string // identifier to launch
}

// Machine owns the view state. The zero value is a flat view over an empty
// catalogue.
type Machine struct {
	cat    catalogue.Catalogue
	policy ConfirmPolicy

	mode        Mode
	cursor      int
	drillServer string
	// flatCursor remembers where the drill-down started so Back can return
	// there. It is not re-resolved after a refetch; a stale index is clamped.
	flatCursor int
}

// New creates a machine over the given catalogue.
func New(cat catalogue.Catalogue, policy ConfirmPolicy) *Machine {
	return &Machine{cat: cat, policy: policy}
}

// Mode returns the current view mode.
func (m *Machine) Mode() Mode { return m.mode }

// Cursor returns the selection index within the visible sequence.
func (m *Machine) Cursor() int { return m.cursor }

// DrillServer returns the server being drilled into, or "" in the flat view.
func (m *Machine) DrillServer() string {
	if m.mode != ModeDrill {
		return ""
	}
	return m.drillServer
}

// Catalogue returns the underlying data model.
func (m *Machine) Catalogue() catalogue.Catalogue { return m.cat }

// SetCatalogue replaces the data model after a refetch. A drill-down into a
// server that no longer exists falls back to the flat view; the cursor is
// clamped to the new visible sequence.
func (m *Machine) SetCatalogue(cat catalogue.Catalogue) {
	m.cat = cat
	if m.mode == ModeDrill && len(cat.Resources[m.drillServer]) == 0 {
		m.mode = ModeFlat
		m.drillServer = ""
	}
	m.clamp()
}

// Visible returns the names shown in the current view: server names in the
// flat view, the drilled server's resource identifiers in the drill view.
func (m *Machine) Visible() []string {
	switch m.mode {
	case ModeDrill:
		return m.cat.Resources[m.drillServer]
	case ModeExiting:
		return nil
	default:
		return m.cat.Names
	}
}

// MoveDown advances the cursor, staying at the last valid index. A no-op on
// an empty view.
func (m *Machine) MoveDown() {
	if m.cursor < len(m.Visible())-1 {
		m.cursor++
	}
}

// MoveUp retreats the cursor, staying at 0.
func (m *Machine) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

// Confirm applies the selection under the cursor. In the flat view it either
// drills into the server or resolves its primary identifier, depending on
// the policy; in the drill view it launches the selected resource. On an
// empty view it does nothing.
func (m *Machine) Confirm() Action {
	visible := m.Visible()
	if len(visible) == 0 || m.mode == ModeExiting {
		return Action{}
	}
	switch m.mode {
	case ModeDrill:
		return Action{Kind: ActionLaunch, Name: m.drillServer, Target: visible[m.cursor]}
	default:
		name := visible[m.cursor]
		if m.policy == DrillThenLaunch && len(m.cat.Resources[name]) > 1 {
			m.flatCursor = m.cursor
			m.mode = ModeDrill
			m.drillServer = name
			m.cursor = 0
			return Action{}
		}
		return Action{Kind: ActionLaunch, Name: name, Target: m.cat.Primary(name)}
	}
}

// Select resolves a display name chosen outside the cursor (the fuzzy
// filter path). A flat-view name launches its primary identifier; in the
// drill view the name is one of the drilled server's resources. Unknown
// names leave the machine unchanged and produce no action.
func (m *Machine) Select(name string) Action {
	switch m.mode {
	case ModeDrill:
		for _, id := range m.cat.Resources[m.drillServer] {
			if id == name {
				return Action{Kind: ActionLaunch, Name: m.drillServer, Target: id}
			}
		}
	case ModeFlat:
		if id := m.cat.Primary(name); id != "" {
			return Action{Kind: ActionLaunch, Name: name, Target: id}
		}
	}
	return Action{}
}

// Back leaves the drill view, restoring the cursor to the server the drill
// started from. Valid only in the drill view.
func (m *Machine) Back() {
	if m.mode != ModeDrill {
		return
	}
	m.mode = ModeFlat
	m.drillServer = ""
	m.cursor = m.flatCursor
	m.clamp()
}

// Quit moves to the terminal state from any mode.
func (m *Machine) Quit() {
	m.mode = ModeExiting
}

func (m *Machine) clamp() {
	if n := len(m.Visible()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
