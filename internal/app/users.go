package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookreviews/internal/util"
	"bookreviews/pkg/auth"
	"bookreviews/pkg/domain"
	"bookreviews/pkg/store"
)

// Register creates an account and issues a session token.
func (a *App) Register(ctx context.Context, username, email, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if fields := validateRegister(username, email, password); len(fields) > 0 {
		return domain.User{}, "", validationError(fields)
	}

	// Friendly pre-check. The unique indexes remain the arbiter under
	// concurrent registers.
	if _, found, err := a.store.GetUserByEmail(email); err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	} else if found {
		return domain.User{}, "", ErrUserExists
	}
	if _, found, err := a.store.GetUserByUsername(username); err != nil {
		return domain.User{}, "", fmt.Errorf("check username: %w", err)
	} else if found {
		return domain.User{}, "", ErrUserExists
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return domain.User{}, "", ErrUserExists
		}
		return domain.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	util.LoggerFromContext(ctx).Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login validates credentials and issues a fresh session token.
func (a *App) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if fields := validateLogin(email, password); len(fields) > 0 {
		return domain.User{}, "", validationError(fields)
	}
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !found || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a session token. Used by the auth
// middleware; any failure reads as "not authenticated".
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// CurrentUser returns the account behind a token, distinguishing a bad token
// from a vanished user.
func (a *App) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, ErrInvalidCredentials
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

// Logout revokes the presented token until its natural expiry.
func (a *App) Logout(ctx context.Context, token string) error {
	return a.sessions.DeleteSession(token)
}

// Profile returns the public projection of a user.
func (a *App) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return domain.Profile{}, ErrUserNotFound
	}
	return user.PublicProfile(), nil
}

// ProfileUpdate carries the owner-mutable profile fields. Empty strings mean
// "leave unchanged".
type ProfileUpdate struct {
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
}

// UpdateProfile applies a partial profile update. Only the owner may update,
// and a changed username must stay unique.
func (a *App) UpdateProfile(ctx context.Context, actorID, userID string, update ProfileUpdate) (domain.User, error) {
	if actorID != userID {
		return domain.User{}, ErrNotProfileOwner
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return domain.User{}, ErrUserNotFound
	}

	if username := strings.TrimSpace(update.Username); username != "" && username != user.Username {
		if len(username) < minUsernameLen {
			return domain.User{}, validationError([]FieldError{{Message: "Username must be at least 3 characters long", Path: "username"}})
		}
		if _, taken, err := a.store.GetUserByUsername(username); err != nil {
			return domain.User{}, fmt.Errorf("check username: %w", err)
		} else if taken {
			return domain.User{}, ErrUsernameTaken
		}
		user.Username = username
	}
	if update.Bio != "" {
		user.Bio = update.Bio
	}
	if update.ProfilePicture != "" {
		user.ProfilePicture = update.ProfilePicture
	}
	user.UpdatedAt = time.Now().UTC()

	if err := a.store.UpdateUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
