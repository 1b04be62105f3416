package services

import (
	"sort"

	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
)

type CourseService struct {
	repos  Repos
	groups *GroupService
}

func courseDTO(c repositories.CourseRecord) models.Course {
	return models.Course{CourseID: c.CourseID, CourseName: c.CourseName, Description: c.Description}
}

func courseDTOs(rows []repositories.CourseRecord) []models.Course {
	out := make([]models.Course, 0, len(rows))
	for _, c := range rows {
		out = append(out, courseDTO(c))
	}
	return out
}

func (s *CourseService) Courses() ([]models.Course, error) {
	rows, err := s.repos.Courses.List()
	if err != nil {
		return nil, err
	}
	return courseDTOs(rows), nil
}

func (s *CourseService) Enrolled(userID int64) ([]models.Course, error) {
	rows, err := s.repos.Courses.Enrolled(userID)
	if err != nil {
		return nil, err
	}
	return courseDTOs(rows), nil
}

// Dashboard collects the user's groups and classmates. Suggested peers
// share at least one course and come most-shared first; all peers is
// everyone else, by name.
func (s *CourseService) Dashboard(userID int64) (models.Dashboard, error) {
	var d models.Dashboard
	joined, err := s.groups.Joined(userID)
	if err != nil {
		return d, err
	}
	d.JoinedGroups = joined

	courses, err := s.repos.Courses.List()
	if err != nil {
		return d, err
	}
	names := make(map[string]string, len(courses))
	for _, c := range courses {
		names[c.CourseID] = c.CourseName
	}
	enrollments, err := s.repos.Courses.Enrollments()
	if err != nil {
		return d, err
	}
	byUser := map[int64][]string{}
	for _, e := range enrollments {
		byUser[e.UserID] = append(byUser[e.UserID], e.CourseID)
	}
	mine := map[string]bool{}
	for _, id := range byUser[userID] {
		mine[id] = true
	}
	d.EnrolledCoursesCount = len(mine)

	others, err := s.repos.Users.ListExcept(userID)
	if err != nil {
		return d, err
	}
	d.SuggestedPeers = []models.SuggestedPeer{}
	d.AllPeers = make([]models.SuggestedPeer, 0, len(others))
	for _, u := range others {
		peer := models.SuggestedPeer{
			User:          models.PeerUser{ID: u.ID, Name: u.Name, Email: u.Email, AboutMe: u.AboutMe},
			CommonCourses: []string{},
		}
		for _, id := range byUser[u.ID] {
			if mine[id] {
				peer.CommonCourses = append(peer.CommonCourses, names[id])
			}
		}
		sort.Strings(peer.CommonCourses)
		peer.CommonCoursesCount = len(peer.CommonCourses)
		d.AllPeers = append(d.AllPeers, peer)
		if peer.CommonCoursesCount > 0 {
			d.SuggestedPeers = append(d.SuggestedPeers, peer)
		}
	}
	sort.SliceStable(d.SuggestedPeers, func(i, j int) bool {
		return d.SuggestedPeers[i].CommonCoursesCount > d.SuggestedPeers[j].CommonCoursesCount
	})
	return d, nil
}
