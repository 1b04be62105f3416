package state

import (
	"slices"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

const AllCourses = "All Courses"

type PeerTab int

const (
	PeersSuggested PeerTab = iota
	PeersAll
)

// PeerFinder filters suggested peers by name and shared course, and the
// full peer list by name alone.
type PeerFinder struct {
	Suggested []models.SuggestedPeer
	All       []models.SuggestedPeer
	Tab       PeerTab

	Search    string
	Course    string
	AllSearch string
}

func NewPeerFinder(d models.Dashboard) *PeerFinder {
	all := d.AllPeers
	if all == nil {
		all = d.SuggestedPeers
	}
	return &PeerFinder{Suggested: d.SuggestedPeers, All: all, Course: AllCourses}
}

// Courses is "All Courses" followed by the sorted union of every peer's
// common courses.
func (p *PeerFinder) Courses() []string {
	seen := map[string]bool{}
	var courses []string
	for _, peer := range p.All {
		for _, c := range peer.CommonCourses {
			if !seen[c] {
				seen[c] = true
				courses = append(courses, c)
			}
		}
	}
	slices.Sort(courses)
	return append([]string{AllCourses}, courses...)
}

// CycleCourse steps the course filter through Courses().
func (p *PeerFinder) CycleCourse(step int) {
	courses := p.Courses()
	i := slices.Index(courses, p.Course)
	if i < 0 {
		i = 0
	}
	p.Course = courses[((i+step)%len(courses)+len(courses))%len(courses)]
}

func (p *PeerFinder) Visible() []models.SuggestedPeer {
	var out []models.SuggestedPeer
	if p.Tab == PeersAll {
		for _, peer := range p.All {
			if containsFold(peer.User.Name, p.AllSearch) {
				out = append(out, peer)
			}
		}
		return out
	}
	for _, peer := range p.Suggested {
		if !containsFold(peer.User.Name, p.Search) {
			continue
		}
		if p.Course != AllCourses && p.Course != "" && !slices.Contains(peer.CommonCourses, p.Course) {
			continue
		}
		out = append(out, peer)
	}
	return out
}
