package services

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

type AuthService struct {
	users   repositories.UserRepository
	courses repositories.CourseRepository
	secret  string
	ttl     time.Duration
	now     func() time.Time
}

func userDTO(u repositories.UserRecord) models.User {
	return models.User{ID: u.ID, Name: u.Name, Email: u.Email, AboutMe: u.AboutMe}
}

func (s *AuthService) Login(email, password string) (models.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.LoginResponse{}, fail(ErrInvalid, "email and password are required")
	}
	u, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LoginResponse{}, fail(ErrUnauthorized, "invalid email or password")
		}
		return models.LoginResponse{}, err
	}
	if !utils.CheckPassword(u.Password, password) {
		return models.LoginResponse{}, fail(ErrUnauthorized, "invalid email or password")
	}
	token, err := utils.GenerateJWTToken(s.secret, u.ID, u.Email, s.ttl)
	if err != nil {
		return models.LoginResponse{}, err
	}
	now := s.now()
	u.LastLogin = &now
	_ = s.users.Save(u)
	return models.LoginResponse{Token: token, User: userDTO(*u)}, nil
}

func (s *AuthService) Register(req models.RegisterRequest) (models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return models.User{}, fail(ErrInvalid, "name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return models.User{}, fail(ErrInvalid, "a valid email is required")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return models.User{}, fail(ErrInvalid, "%s", err.Error())
	}
	if _, err := s.users.FindByEmail(req.Email); err == nil {
		return models.User{}, fail(ErrConflict, "email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	courseIDs := dedupe(req.CourseIDs)
	if len(courseIDs) > 0 {
		known, err := s.courses.FindByIDs(courseIDs)
		if err != nil {
			return models.User{}, err
		}
		if len(known) != len(courseIDs) {
			return models.User{}, fail(ErrInvalid, "unknown course in selection")
		}
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}
	u := repositories.UserRecord{
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashed,
		AboutMe:   strings.TrimSpace(req.AboutMe),
		CreatedAt: s.now(),
	}
	if err := s.users.Create(&u, courseIDs); err != nil {
		return models.User{}, err
	}
	return userDTO(u), nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(token string) (models.User, error) {
	claims, err := utils.ValidateJWTToken(s.secret, token)
	if err != nil {
		return models.User{}, fail(ErrUnauthorized, "invalid or expired token")
	}
	u, err := s.users.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fail(ErrUnauthorized, "user no longer exists")
		}
		return models.User{}, err
	}
	return userDTO(*u), nil
}

func (s *AuthService) Profile(userID int64) (models.User, error) {
	u, err := s.users.FindByID(userID)
	if err != nil {
		return models.User{}, lookup(err, "user")
	}
	return userDTO(*u), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
