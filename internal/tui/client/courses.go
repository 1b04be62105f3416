package client

import (
	"fmt"
	"net/url"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

func (c *APIClient) Courses() ([]models.Course, error) {
	var courses []models.Course
	err := c.getCached("courses", "/courses", &courses)
	return courses, err
}

func (c *APIClient) MyCourses() ([]models.Course, error) {
	var courses []models.Course
	err := c.getCached("my_courses", "/profile/courses", &courses)
	return courses, err
}

func (c *APIClient) GroupsForCourse(courseID string) ([]models.Group, error) {
	var groups []models.Group
	key := "course_groups:" + courseID
	err := c.getCached(key, fmt.Sprintf("/groups/course/%s", url.PathEscape(courseID)), &groups)
	return groups, err
}
