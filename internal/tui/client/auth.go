package client

import (
	"errors"
	"strings"

	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

// Login exchanges credentials for a token and adopts the new session.
func (c *APIClient) Login(email, password string) (utils.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return utils.Session{}, errors.New("email and password are required")
	}
	c.ClearSession()

	body, err := c.post("/users/login", models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return utils.Session{}, err
	}
	var res models.LoginResponse
	if err := decode(body, &res); err != nil {
		return utils.Session{}, err
	}
	if res.Token == "" {
		return utils.Session{}, errors.New("login response carried no token")
	}
	s := utils.Session{Token: res.Token, User: res.User}
	c.SetSession(s)
	return s, nil
}

func (c *APIClient) Register(req models.RegisterRequest) error {
	if err := utils.ValidatePassword(req.Password); err != nil {
		return err
	}
	_, err := c.post("/users/register", req)
	return err
}

// Profile fetches the signed-in user. A failure here is how the dashboard
// learns the session is no longer accepted.
func (c *APIClient) Profile() (models.User, error) {
	var u models.User
	err := c.getCached("profile", "/users/profile", &u)
	return u, err
}

func (c *APIClient) Logout() {
	c.ClearSession()
}
