package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"inkpost/internal/model"
	"inkpost/internal/repository"
)

// UserService owns local accounts: registration, password checks and profile edits.
type UserService struct {
	repo             repository.UserRepository
	defaultAvatarURL string
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// WithDefaultAvatar sets the avatar URL given to new accounts that bring none.
func (s *UserService) WithDefaultAvatar(url string) *UserService {
	s.defaultAvatarURL = strings.TrimSpace(url)
	return s
}

func (s *UserService) defaultAvatar() *string {
	if s.defaultAvatarURL == "" {
		return nil
	}
	url := s.defaultAvatarURL
	return &url
}

// Register validates the request, hashes the password and stores the user.
// A taken email is a ValidationError, never a persistence failure.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, &model.PersistenceError{Op: "check email", Err: err}
	}
	if exists {
		return nil, model.NewValidationError("email", "the email has already been taken")
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashed,
		AvatarURL:    s.defaultAvatar(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// Lost the race against a concurrent registration.
		if errors.Is(err, model.ErrEmailExists) {
			return nil, model.NewValidationError("email", "the email has already been taken")
		}
		return nil, &model.PersistenceError{Op: "create user", Err: err}
	}

	slog.InfoContext(ctx, "user registered", "component", "users", "user_id", user.ID)
	return user, nil
}

// Authenticate checks an email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, creds model.Credentials) (*model.User, error) {
	if err := ValidateCredentials(creds); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, &model.PersistenceError{Op: "get user", Err: err}
	}

	// External-only accounts have no local password.
	if user.PasswordHash == "" {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile renames the user.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "the name field is required")
	}
	if utf8.RuneCountInString(name) > model.MaxNameLength {
		return nil, model.NewValidationError("name", fmt.Sprintf("the name may not be greater than %d characters", model.MaxNameLength))
	}

	user, err := s.repo.UpdateName(ctx, id, name)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, &model.PersistenceError{Op: "update user", Err: err}
	}
	return user, nil
}

// SetAvatar records a new avatar location and returns the refreshed user.
func (s *UserService) SetAvatar(ctx context.Context, id int64, upload *model.UploadResult) (*model.User, error) {
	if err := s.repo.UpdateAvatar(ctx, id, &upload.URL, &upload.Key); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, &model.PersistenceError{Op: "update avatar", Err: err}
	}
	return s.repo.GetByID(ctx, id)
}

// FindOrCreateExternal resolves an external identity to a local user:
// first by uid, then by email (linking the uid), otherwise a new account
// without a local password is created.
func (s *UserService) FindOrCreateExternal(ctx context.Context, ident *model.ExternalIdentity) (*model.User, error) {
	if ident == nil || ident.UID == "" {
		return nil, fmt.Errorf("external identity without uid")
	}

	user, err := s.repo.GetByExternalUID(ctx, ident.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, &model.PersistenceError{Op: "get user by uid", Err: err}
	}

	email := normalizeEmail(ident.Email)
	if email == "" {
		return nil, model.NewValidationError("email", "the identity provider returned no email")
	}

	user, err = s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.repo.LinkExternalUID(ctx, user.ID, ident.UID); err != nil {
			return nil, &model.PersistenceError{Op: "link uid", Err: err}
		}
		uid := ident.UID
		user.ExternalUID = &uid
		return user, nil
	case !errors.Is(err, model.ErrUserNotFound):
		return nil, &model.PersistenceError{Op: "get user", Err: err}
	}

	name := strings.TrimSpace(ident.DisplayName)
	if name == "" {
		name = displayNameFromEmail(email)
	}
	uid := ident.UID
	user = &model.User{Name: name, Email: email, ExternalUID: &uid, AvatarURL: s.defaultAvatar()}
	if ident.PhotoURL != "" {
		photo := ident.PhotoURL
		user.AvatarURL = &photo
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, &model.PersistenceError{Op: "create external user", Err: err}
	}

	slog.InfoContext(ctx, "external user linked", "component", "users", "user_id", user.ID)
	return user, nil
}

// ValidateRegistration checks the register payload.
func ValidateRegistration(req *model.RegisterRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.NewValidationError("name", "the name field is required")
	}
	if utf8.RuneCountInString(name) > model.MaxNameLength {
		return model.NewValidationError("name", fmt.Sprintf("the name may not be greater than %d characters", model.MaxNameLength))
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if len(req.Password) < model.MinPasswordLength {
		return model.NewValidationError("password", fmt.Sprintf("the password must be at least %d characters", model.MinPasswordLength))
	}
	if req.Password != req.PasswordConfirmation {
		return model.NewValidationError("password", "the password confirmation does not match")
	}
	return nil
}

// ValidateCredentials checks a login payload for presence and shape only.
func ValidateCredentials(creds model.Credentials) error {
	if err := validateEmail(creds.Email); err != nil {
		return err
	}
	if creds.Password == "" {
		return model.NewValidationError("password", "the password field is required")
	}
	return nil
}

func validateEmail(raw string) error {
	email := strings.TrimSpace(raw)
	if email == "" {
		return model.NewValidationError("email", "the email field is required")
	}
	if len(email) > model.MaxEmailLength {
		return model.NewValidationError("email", fmt.Sprintf("the email may not be greater than %d characters", model.MaxEmailLength))
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.NewValidationError("email", "the email must be a valid email address")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func displayNameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return "user"
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", model.NewValidationError("password", "the password may not be greater than 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
