package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/cineverse/pkg/query"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

// publicColumns is every users column except secrets.
var publicColumns = []string{
	"id", "uuid", "username", "email", "first_name", "last_name", "phone",
	"avatar", "bio", "date_of_birth", "gender", "country", "language", "role",
	"status", "email_verified_at", "last_login_at", "last_login_ip",
	"created_at", "updated_at",
}

// ProfileInput changes profile fields. Nil fields are left alone.
type ProfileInput struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Country     *string `json:"country" validate:"omitempty,len=2"`
	Language    *string `json:"language" validate:"omitempty,max=5"`
}

// UpdateProfile applies in to the user and returns the stored result.
func (m *Manager) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*User, error) {
	verrs, err := validate(in)
	if err != nil {
		return nil, err
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	values := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			values[col] = nullable(*v)
		}
	}
	set("first_name", in.FirstName)
	set("last_name", in.LastName)
	set("phone", in.Phone)
	set("bio", in.Bio)
	set("date_of_birth", in.DateOfBirth)
	set("gender", in.Gender)
	set("language", in.Language)
	if in.Country != nil {
		values["country"] = strings.ToUpper(*in.Country)
	}
	if len(values) > 0 {
		values["updated_at"] = m.now().UTC()
		if err := m.updateUser(ctx, userID, values); err != nil {
			return nil, err
		}
		m.record(ctx, Activity{UserID: userID, Type: ActivityProfileUpdated, Description: "Profile updated"})
	}
	return m.FindUser(ctx, userID)
}

// SetAvatar stores the public URL of the user's avatar.
func (m *Manager) SetAvatar(ctx context.Context, userID int64, url string) error {
	return m.updateUser(ctx, userID, map[string]any{"avatar": nullable(url), "updated_at": m.now().UTC()})
}

// ChangePassword replaces the password after checking the current one.
func (m *Manager) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := m.FindUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrWrongPassword
	}

	var verrs validator.ValidationErrors
	if next == "" {
		verrs.Add("password", "The password field is required.")
	}
	m.checkPassword(&verrs, "password", next)
	if err := verrs.Err(); err != nil {
		return err
	}

	hash, err := m.hash(next)
	if err != nil {
		return err
	}
	if err := m.updateUser(ctx, userID, map[string]any{
		"password":       hash,
		"remember_token": nil,
		"updated_at":     m.now().UTC(),
	}); err != nil {
		return err
	}
	m.record(ctx, Activity{UserID: userID, Type: ActivityPasswordChanged, Description: "Password changed"})
	return nil
}

// SetStatus changes the account status. Moving away from active also
// revokes remember-me access.
func (m *Manager) SetStatus(ctx context.Context, userID int64, status string) error {
	if err := validator.Var("status", status, "required,oneof=active inactive suspended banned"); err != nil {
		return err
	}
	values := map[string]any{"status": status, "updated_at": m.now().UTC()}
	if status != StatusActive {
		values["remember_token"] = nil
	}
	if err := m.updateUser(ctx, userID, values); err != nil {
		return err
	}
	m.record(ctx, Activity{UserID: userID, Type: ActivityStatusChanged, Description: "Status changed to " + status})
	return nil
}

// SetRole changes the account role.
func (m *Manager) SetRole(ctx context.Context, userID int64, role string) error {
	if err := validator.Var("role", role, "required,oneof=user moderator admin"); err != nil {
		return err
	}
	return m.updateUser(ctx, userID, map[string]any{"role": role, "updated_at": m.now().UTC()})
}

// DeleteUser removes the account and, through foreign keys, its dependent rows.
func (m *Manager) DeleteUser(ctx context.Context, userID int64) error {
	n, err := m.conn.Table("users").WhereEq("id", userID).Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UserFilter narrows ListUsers.
type UserFilter struct {
	Search string
	Role   string
	Status string
}

// ListUsers pages through accounts, newest first, without secret columns.
func (m *Manager) ListUsers(ctx context.Context, f UserFilter, page, perPage int) (*query.Page, error) {
	q := m.conn.Table("users").Select(publicColumns...)
	if f.Role != "" {
		q.WhereEq("role", f.Role)
	}
	if f.Status != "" {
		q.WhereEq("status", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q.WhereRaw("(username LIKE :search OR email LIKE :search OR first_name LIKE :search OR last_name LIKE :search)",
			map[string]any{"search": like})
	}
	return q.OrderBy("created_at", "desc").OrderBy("id", "desc").Paginate(ctx, page, perPage)
}

// CountUsers returns the number of accounts, optionally by status.
func (m *Manager) CountUsers(ctx context.Context, status string) (int64, error) {
	q := m.conn.Table("users")
	if status != "" {
		q.WhereEq("status", status)
	}
	return q.Count(ctx)
}

func (m *Manager) updateUser(ctx context.Context, userID int64, values map[string]any) error {
	n, err := m.conn.Update(ctx, "users", values, "id = :id", map[string]any{"id": userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
