package models

type PeerUser struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	AboutMe string `json:"aboutMe,omitempty"`
}

type SuggestedPeer struct {
	User               PeerUser `json:"user"`
	CommonCoursesCount int      `json:"commonCoursesCount"`
	CommonCourses      []string `json:"commonCourses"`
}

type Dashboard struct {
	JoinedGroups         []Group         `json:"joinedGroups"`
	SuggestedPeers       []SuggestedPeer `json:"suggestedPeers"`
	AllPeers             []SuggestedPeer `json:"allPeers,omitempty"`
	EnrolledCoursesCount int             `json:"enrolledCoursesCount"`
}
