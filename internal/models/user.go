package models

// User is the summary shape the backend embeds in groups, peers and sessions.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	AboutMe string `json:"aboutMe,omitempty"`
	Role    string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type RegisterRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	AboutMe   string   `json:"aboutMe,omitempty"`
	CourseIDs []string `json:"courseIds,omitempty"`
}
