package desktop

// Action is one of Open, Close, Minimize, Restore, Focus, SetPosition or
// Reset.
type Action interface {
	Target() WindowID
	Name() string
	action()
}

// Open shows a window and brings it to the front. Opening an open window
// still moves it to the front.
type Open struct{ ID WindowID }

// Close hides a window and clears its minimized flag.
type Close struct{ ID WindowID }

// Minimize hides an open window while keeping it open. It has no effect on a
// closed window.
type Minimize struct{ ID WindowID }

// Restore un-minimizes a window and brings it to the front. It has no effect
// on a closed window.
type Restore struct{ ID WindowID }

// Focus brings a visible window to the front. It has no effect on a window
// that is closed or minimized.
type Focus struct{ ID WindowID }

// SetPosition moves a window without touching stacking or focus.
type SetPosition struct {
	ID       WindowID
	Position Position
}

// Reset puts every window back to the initial layout.
type Reset struct{}

func (a Open) Target() WindowID        { return a.ID }
func (a Close) Target() WindowID       { return a.ID }
func (a Minimize) Target() WindowID    { return a.ID }
func (a Restore) Target() WindowID     { return a.ID }
func (a Focus) Target() WindowID       { return a.ID }
func (a SetPosition) Target() WindowID { return a.ID }
func (Reset) Target() WindowID         { return None }

func (Open) Name() string        { return "open" }
func (Close) Name() string       { return "close" }
func (Minimize) Name() string    { return "minimize" }
func (Restore) Name() string     { return "restore" }
func (Focus) Name() string       { return "focus" }
func (SetPosition) Name() string { return "setPosition" }
func (Reset) Name() string       { return "reset" }

func (Open) action()        {}
func (Close) action()       {}
func (Minimize) action()    {}
func (Restore) action()     {}
func (Focus) action()       {}
func (SetPosition) action() {}
func (Reset) action()       {}

// ActionFor maps a verb used by the HTTP API to an action.
func ActionFor(verb string, id WindowID) (Action, bool) {
	switch verb {
	case "open":
		return Open{ID: id}, true
	case "close":
		return Close{ID: id}, true
	case "minimize":
		return Minimize{ID: id}, true
	case "restore":
		return Restore{ID: id}, true
	case "focus":
		return Focus{ID: id}, true
	}
	return nil, false
}

// Reduce returns the state that results from applying a to s. s is not
// modified. It panics if the action targets a window outside the panel set.
func Reduce(s State, a Action) State {
	if _, ok := a.(Reset); ok {
		return Initial()
	}
	w := s.Window(a.Target())
	next := s.Clone()

	switch a := a.(type) {
	case Open:
		w.IsOpen = true
		w.IsMinimized = false
		raise(&next, &w)
	case Restore:
		if !w.IsOpen {
			return next
		}
		w.IsMinimized = false
		raise(&next, &w)
	case Focus:
		if !w.Visible() {
			return next
		}
		raise(&next, &w)
	case Close:
		w.IsOpen = false
		w.IsMinimized = false
		next.Windows[w.ID] = w
		if next.ActiveWindowID == w.ID {
			next.ActiveWindowID = nextActive(next, w.ID)
		}
		return next
	case Minimize:
		if !w.IsOpen {
			return next
		}
		w.IsMinimized = true
		next.Windows[w.ID] = w
		if next.ActiveWindowID == w.ID {
			next.ActiveWindowID = nextActive(next, w.ID)
		}
		return next
	case SetPosition:
		w.Position = a.Position
	default:
		panic("desktop: unhandled action " + a.Name())
	}

	next.Windows[w.ID] = w
	return next
}

// raise puts w on top of every other window and gives it focus.
func raise(s *State, w *Window) {
	s.HighestZIndex++
	w.ZIndex = s.HighestZIndex
	s.ActiveWindowID = w.ID
}

// nextActive picks the visible window with the highest z-index other than
// exclude, or None.
func nextActive(s State, exclude WindowID) WindowID {
	best := None
	bestZ := 0
	for _, p := range panels {
		w, ok := s.Windows[p.id]
		if !ok || w.ID == exclude || !w.Visible() {
			continue
		}
		if best == None || w.ZIndex > bestZ {
			best, bestZ = w.ID, w.ZIndex
		}
	}
	return best
}
