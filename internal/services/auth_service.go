package services

import (
	"context"
	"io"
	"strings"

	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/store"
	"github.com/saeid-a/tradechat/internal/validator"
)

const minSearchLength = 3

type UserAPI interface {
	CreateUser(ctx context.Context, dto models.PostUserDto) (*models.User, error)
	UpdateUser(ctx context.Context, user models.User) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

type ImageUploader interface {
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)
}

type AuthService struct {
	session *store.SessionStore
	users   UserAPI
	images  ImageUploader
}

// RegisterInput is a sign-up form. The avatar is uploaded first and the
// returned image id is attached to the new user.
type RegisterInput struct {
	Email     string
	Name      string
	Password  string
	Type      models.UserType
	ImageName string
	Image     io.Reader
}

func NewAuthService(session *store.SessionStore, users UserAPI, images ImageUploader) *AuthService {
	return &AuthService{
		session: session,
		users:   users,
		images:  images,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	v := validator.New()
	models.ValidateEmail(v, strings.TrimSpace(email))
	v.Check(password != "", "password", "must be provided")
	if err := api.Validate(v); err != nil {
		return nil, err
	}
	return s.session.Login(ctx, strings.TrimSpace(email), password)
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

func (s *AuthService) CurrentUser() (models.User, error) {
	return s.session.CurrentUser()
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	dto := models.PostUserDto{
		Email:    strings.TrimSpace(input.Email),
		Name:     strings.TrimSpace(input.Name),
		Password: input.Password,
		Type:     input.Type,
	}

	// Check every field but the image id before uploading anything.
	v := validator.New()
	models.ValidatePostUser(v, dto)
	delete(v.Errors, "imageId")
	v.Check(input.Image != nil, "image", "must be provided")
	if err := api.Validate(v); err != nil {
		return nil, err
	}

	imageID, err := s.images.UploadImage(ctx, input.ImageName, input.Image)
	if err != nil {
		return nil, err
	}
	dto.ImageID = imageID
	return s.users.CreateUser(ctx, dto)
}

// SearchUsers finds users by name or email, leaving out the signed-in user.
func (s *AuthService) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return nil, ErrQueryTooShort
	}

	users, err := s.users.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	me := s.session.UserID()
	filtered := users[:0]
	for _, u := range users {
		if u.ID != me {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, user models.User) (*models.User, error) {
	updated, err := s.users.UpdateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.session.UpdateUser(ctx, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAccount removes the user and signs out when it was the signed-in
// account.
func (s *AuthService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	if id == s.session.UserID() {
		return s.session.Logout(ctx)
	}
	return nil
}
