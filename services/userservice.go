package services

import (
	"context"
	"errors"
	"strings"

	"taskmanager/apperror"
	"taskmanager/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MessageBadCredentials = "The provided credentials are incorrect."

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type UserService struct {
	db *gorm.DB
	// HashCost is the bcrypt cost for new passwords.
	HashCost int
}

func NewUserService(db *gorm.DB, hashCost int) *UserService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &UserService{db: db, HashCost: hashCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with a bcrypt-hashed password. Emails are compared
// case-insensitively.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)

	var existing int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, apperror.FieldError("email", "The email has already been taken.")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.HashCost)
	if err != nil {
		return nil, err
	}
	user := model.User{
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		HashedPassword: string(hashed),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate returns the user whose email and password match. Unknown
// email and wrong password fail the same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.FieldError("email", MessageBadCredentials)
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, apperror.FieldError("email", MessageBadCredentials)
	}
	return &user, nil
}
