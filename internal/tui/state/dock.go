package state

import "slices"

// DockEntry is one floating chat.
type DockEntry struct {
	GroupID   int64
	GroupName string
}

// ChatDock is the registry of concurrently open chats, at most one per
// group, in opening order.
type ChatDock struct {
	entries []DockEntry
	focus   int
}

// Open registers a chat. Opening a group that is already open does
// nothing and returns false.
func (d *ChatDock) Open(e DockEntry) bool {
	if d.Has(e.GroupID) {
		return false
	}
	d.entries = append(d.entries, e)
	d.focus = len(d.entries) - 1
	return true
}

// Close removes a chat and reports whether it was open.
func (d *ChatDock) Close(groupID int64) bool {
	i := d.index(groupID)
	if i < 0 {
		return false
	}
	d.entries = slices.Delete(d.entries, i, i+1)
	if d.focus >= len(d.entries) {
		d.focus = len(d.entries) - 1
	}
	if d.focus < 0 {
		d.focus = 0
	}
	return true
}

func (d *ChatDock) Has(groupID int64) bool {
	return d.index(groupID) >= 0
}

func (d *ChatDock) Entries() []DockEntry {
	return slices.Clone(d.entries)
}

func (d *ChatDock) Len() int {
	return len(d.entries)
}

// Focused is the chat receiving keyboard input.
func (d *ChatDock) Focused() (DockEntry, bool) {
	if len(d.entries) == 0 {
		return DockEntry{}, false
	}
	return d.entries[d.focus], true
}

func (d *ChatDock) Cycle(step int) {
	if n := len(d.entries); n > 0 {
		d.focus = ((d.focus+step)%n + n) % n
	}
}

func (d *ChatDock) index(groupID int64) int {
	return slices.IndexFunc(d.entries, func(e DockEntry) bool { return e.GroupID == groupID })
}
