package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/store"
)

func newAuthFixture(t *testing.T, me models.User) (*fakeBackend, *AuthService) {
	t.Helper()
	backend := newFakeBackend()
	session := store.NewSessionStore(stubTokenAPI{user: me}, nil)
	auth := NewAuthService(session, backend, backend)
	if me.ID != 0 {
		if _, err := auth.Login(context.Background(), "me@example.com", "pw"); err != nil {
			t.Fatalf("Login: %v", err)
		}
	}
	return backend, auth
}

func TestSearchUsersRequiresThreeCharacters(t *testing.T) {
	_, auth := newAuthFixture(t, models.User{ID: 1})

	if _, err := auth.SearchUsers(context.Background(), " ab "); !errors.Is(err, ErrQueryTooShort) {
		t.Fatalf("expected ErrQueryTooShort, got %v", err)
	}
}

func TestSearchUsersExcludesCurrentUser(t *testing.T) {
	backend, auth := newAuthFixture(t, models.User{ID: 1})
	backend.users = []models.User{{ID: 1, Name: "me"}, {ID: 2, Name: "dairy"}}

	users, err := auth.SearchUsers(context.Background(), "dai")
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != 2 {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestRegisterUploadsImageThenCreatesUser(t *testing.T) {
	backend, auth := newAuthFixture(t, models.User{})

	user, err := auth.Register(context.Background(), RegisterInput{
		Email:     "supplier@example.com",
		Name:      "Dairy Co",
		Password:  "Secr3t!pass",
		Type:      models.UserTypeSupplier,
		ImageName: "logo.png",
		Image:     strings.NewReader("png"),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if len(backend.uploads) != 1 || backend.uploads[0] != "logo.png" {
		t.Fatalf("expected one upload, got %v", backend.uploads)
	}
	if backend.lastCreatedUser == nil || backend.lastCreatedUser.ImageID != "img-logo.png" {
		t.Fatalf("expected image id on created user, got %+v", backend.lastCreatedUser)
	}
	if user.ImageID != "img-logo.png" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestRegisterValidatesBeforeUpload(t *testing.T) {
	backend, auth := newAuthFixture(t, models.User{})

	_, err := auth.Register(context.Background(), RegisterInput{Email: "bad", Password: "weak"})
	fields := api.FieldErrors(err)
	for _, field := range []string{"email", "password", "type", "name", "image"} {
		if _, ok := fields[field]; !ok {
			t.Fatalf("expected %s field error, got %v", field, fields)
		}
	}
	if _, ok := fields["imageId"]; ok {
		t.Fatalf("imageId is assigned by upload and must not be reported")
	}
	if len(backend.uploads) != 0 || backend.lastCreatedUser != nil {
		t.Fatalf("nothing must be sent for an invalid form")
	}
}

func TestLoginValidatesEmail(t *testing.T) {
	_, auth := newAuthFixture(t, models.User{})
	if _, err := auth.Login(context.Background(), "not-an-email", "pw"); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteOwnAccountLogsOut(t *testing.T) {
	_, auth := newAuthFixture(t, models.User{ID: 1})

	if err := auth.DeleteAccount(context.Background(), 1); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := auth.CurrentUser(); !errors.Is(err, store.ErrUnauthenticated) {
		t.Fatalf("expected signed out session, got %v", err)
	}
}

func TestUpdateProfileRefreshesSession(t *testing.T) {
	_, auth := newAuthFixture(t, models.User{ID: 1, Name: "old"})

	if _, err := auth.UpdateProfile(context.Background(), models.User{ID: 1, Name: "new"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	user, err := auth.CurrentUser()
	if err != nil || user.Name != "new" {
		t.Fatalf("expected refreshed user, got %+v %v", user, err)
	}
}
