package desktop

// WindowID names one of the fixed desktop panels.
type WindowID string

const (
	AddRecord       WindowID = "add-record"
	CurrentReading  WindowID = "current-reading"
	RecordList      WindowID = "record-list"
	Recommendations WindowID = "recommendations"
	Timeline        WindowID = "timeline"
)

// None is the ActiveWindowID when no window has focus.
const None WindowID = ""

// panels is the fixed panel set in taskbar order.
var panels = []struct {
	id       WindowID
	title    string
	open     bool
	position Position
	zIndex   int
}{
	{AddRecord, "Add New Book", true, Position{X: 50, Y: 50}, 3},
	{CurrentReading, "Currently Reading", true, Position{X: 150, Y: 100}, 2},
	{RecordList, "Book Collection", true, Position{X: 250, Y: 150}, 1},
	{Recommendations, "Book Recommendations", false, Position{X: 350, Y: 100}, 0},
	{Timeline, "Reading Timeline", false, Position{X: 200, Y: 120}, 0},
}

// WindowIDs returns every panel ID in taskbar order.
func WindowIDs() []WindowID {
	ids := make([]WindowID, len(panels))
	for i, p := range panels {
		ids[i] = p.id
	}
	return ids
}

// ParseWindowID validates an externally supplied panel ID.
func ParseWindowID(s string) (WindowID, bool) {
	for _, p := range panels {
		if string(p.id) == s {
			return p.id, true
		}
	}
	return None, false
}

// Position is a window's top-left corner in desktop pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Window is the state of one panel. A minimized window is still open.
type Window struct {
	ID          WindowID `json:"id"`
	Title       string   `json:"title"`
	IsOpen      bool     `json:"isOpen"`
	IsMinimized bool     `json:"isMinimized"`
	Position    Position `json:"position"`
	ZIndex      int      `json:"zIndex"`
}

// Visible reports whether the window is open and not minimized.
func (w Window) Visible() bool {
	return w.IsOpen && !w.IsMinimized
}

// State is the whole desktop.
type State struct {
	Windows        map[WindowID]Window `json:"windows"`
	ActiveWindowID WindowID            `json:"activeWindowId,omitempty"`
	HighestZIndex  int                 `json:"highestZIndex"`
}

// Initial returns the layout a fresh desktop starts with.
func Initial() State {
	s := State{
		Windows:        make(map[WindowID]Window, len(panels)),
		ActiveWindowID: AddRecord,
	}
	for _, p := range panels {
		s.Windows[p.id] = Window{
			ID:       p.id,
			Title:    p.title,
			IsOpen:   p.open,
			Position: p.position,
			ZIndex:   p.zIndex,
		}
		if p.zIndex > s.HighestZIndex {
			s.HighestZIndex = p.zIndex
		}
	}
	return s
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{
		Windows:        make(map[WindowID]Window, len(s.Windows)),
		ActiveWindowID: s.ActiveWindowID,
		HighestZIndex:  s.HighestZIndex,
	}
	for k, v := range s.Windows {
		out.Windows[k] = v
	}
	return out
}

// Window returns the state of id. It panics on an ID outside the panel set.
func (s State) Window(id WindowID) Window {
	w, ok := s.Windows[id]
	if !ok {
		panic("desktop: unknown window " + string(id))
	}
	return w
}

// Taskbar returns the minimized windows in panel order.
func (s State) Taskbar() []Window {
	var out []Window
	for _, p := range panels {
		if w, ok := s.Windows[p.id]; ok && w.IsOpen && w.IsMinimized {
			out = append(out, w)
		}
	}
	return out
}
