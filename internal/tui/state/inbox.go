package state

import (
	"cmp"
	"slices"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

const TabAll = "All"

// Inbox is the notifications page: newest first, one category tab at a
// time, with an optional multi-select mode.
type Inbox struct {
	Items     []models.Notification
	Tab       string
	Selecting bool
	selected  map[int64]bool
}

func NewInbox() *Inbox {
	return &Inbox{Tab: TabAll, selected: map[int64]bool{}}
}

// SortNewestFirst orders notifications by creation time, newest first.
func SortNewestFirst(list []models.Notification) []models.Notification {
	out := append([]models.Notification(nil), list...)
	slices.SortStableFunc(out, func(a, b models.Notification) int {
		return b.Created().Compare(a.Created())
	})
	return out
}

// Load replaces the list and forgets selections that no longer exist.
func (b *Inbox) Load(list []models.Notification) {
	b.Items = SortNewestFirst(list)
	keep := map[int64]bool{}
	for _, n := range b.Items {
		if b.selected[n.ID] {
			keep[n.ID] = true
		}
	}
	b.selected = keep
}

func (b *Inbox) Visible() []models.Notification {
	if b.Tab == TabAll || b.Tab == "" {
		return b.Items
	}
	var out []models.Notification
	for _, n := range b.Items {
		if n.Type == b.Tab {
			out = append(out, n)
		}
	}
	return out
}

// CycleTab moves through All, Invites, Reminders, Updates.
func (b *Inbox) CycleTab(step int) {
	tabs := models.NotificationCategories
	i := slices.Index(tabs, b.Tab)
	if i < 0 {
		i = 0
	}
	b.Tab = tabs[((i+step)%len(tabs)+len(tabs))%len(tabs)]
}

func (b *Inbox) UnreadCount() int {
	n := 0
	for _, it := range b.Items {
		if !it.IsRead {
			n++
		}
	}
	return n
}

func (b *Inbox) ReadCount() int {
	return len(b.Items) - b.UnreadCount()
}

// MarkReadLocal flips one notification to read before the server answers.
func (b *Inbox) MarkReadLocal(id int64) bool {
	for i := range b.Items {
		if b.Items[i].ID == id && !b.Items[i].IsRead {
			b.Items[i].IsRead = true
			return true
		}
	}
	return false
}

func (b *Inbox) ToggleSelectMode() {
	b.Selecting = !b.Selecting
	if !b.Selecting {
		b.ClearSelection()
	}
}

func (b *Inbox) ToggleSelected(id int64) {
	if b.selected[id] {
		delete(b.selected, id)
		return
	}
	b.selected[id] = true
}

func (b *Inbox) IsSelected(id int64) bool {
	return b.selected[id]
}

func (b *Inbox) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(b.selected))
	for id := range b.selected {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, cmp.Compare[int64])
	return ids
}

func (b *Inbox) ClearSelection() {
	b.selected = map[int64]bool{}
}

// Latest returns the n newest notifications, as the dashboard shows.
func Latest(list []models.Notification, n int) []models.Notification {
	sorted := SortNewestFirst(list)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
