// Package desktop holds the state of the reading tracker's desktop: which
// panels are open or minimized, where they sit and which one is on top.
//
// State changes go through Reduce, a pure function over a closed set of
// actions. Manager owns one State for the server and serialises actions.
//
// Invariants:
//   - HighestZIndex is never below any window's ZIndex
//   - ActiveWindowID, when set, names an open window that is not minimized
//   - Open, Restore and Focus always move the target to the front
//   - SetPosition never changes stacking or focus
package desktop
