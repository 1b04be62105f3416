package models

type Course struct {
	CourseID    string `json:"courseId"`
	CourseName  string `json:"courseName"`
	Description string `json:"description,omitempty"`
}
