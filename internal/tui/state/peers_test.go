package state

import (
	"slices"
	"testing"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

func peer(id int64, name string, courses ...string) models.SuggestedPeer {
	return models.SuggestedPeer{
		User:               models.PeerUser{ID: id, Name: name},
		CommonCoursesCount: len(courses),
		CommonCourses:      courses,
	}
}

func TestPeerFinderFilters(t *testing.T) {
	suggested := []models.SuggestedPeer{
		peer(1, "Ana Lee", "CS201", "CS101"),
		peer(2, "Ben Ode", "MA110"),
		peer(3, "Anders", "CS101"),
	}
	p := NewPeerFinder(models.Dashboard{SuggestedPeers: suggested})

	if len(p.All) != 3 {
		t.Fatalf("all peers fall back to suggested, got %d", len(p.All))
	}
	if got, want := p.Courses(), []string{AllCourses, "CS101", "CS201", "MA110"}; !slices.Equal(got, want) {
		t.Errorf("Courses() = %v, want %v", got, want)
	}

	tests := []struct {
		search, course string
		want           []int64
	}{
		{"", AllCourses, []int64{1, 2, 3}},
		{"an", AllCourses, []int64{1, 3}},
		{"AN", "CS201", []int64{1}},
		{"", "MA110", []int64{2}},
		{"zed", AllCourses, nil},
	}
	for _, tt := range tests {
		p.Search, p.Course = tt.search, tt.course
		var ids []int64
		for _, v := range p.Visible() {
			ids = append(ids, v.User.ID)
		}
		if !slices.Equal(ids, tt.want) {
			t.Errorf("search %q course %q: got %v, want %v", tt.search, tt.course, ids, tt.want)
		}
	}

	p.Tab = PeersAll
	p.Course = "MA110"
	p.AllSearch = "ander"
	if v := p.Visible(); len(v) != 1 || v[0].User.ID != 3 {
		t.Errorf("all tab ignores course filter, got %+v", v)
	}
}

func TestPeerFinderKeepsEmptyAllList(t *testing.T) {
	p := NewPeerFinder(models.Dashboard{
		SuggestedPeers: []models.SuggestedPeer{peer(1, "Ana", "CS101")},
		AllPeers:       []models.SuggestedPeer{},
	})
	if len(p.All) != 0 {
		t.Errorf("an empty all-peers list was replaced by %d suggested peers", len(p.All))
	}
}

func TestCycleCourseWraps(t *testing.T) {
	p := NewPeerFinder(models.Dashboard{AllPeers: []models.SuggestedPeer{peer(1, "A", "X"), peer(2, "B", "Y")}})
	p.CycleCourse(-1)
	if p.Course != "Y" {
		t.Errorf("backwards from All Courses = %q, want Y", p.Course)
	}
	p.CycleCourse(1)
	if p.Course != AllCourses {
		t.Errorf("forward wrap = %q", p.Course)
	}
}
