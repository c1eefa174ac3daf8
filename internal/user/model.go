package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the closed set of authorization roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// Authorized reports whether r is a member of allowed.
func (r Role) Authorized(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u" json:"-"`

	ID                   uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Name                 string     `bun:"name,notnull" json:"name" validate:"required"`
	Email                string     `bun:"email,notnull,unique" json:"email" validate:"required,email"`
	PasswordHash         string     `bun:"password_hash,notnull" json:"-"`
	Role                 Role       `bun:"role,notnull,default:'user'" json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
	Active               bool       `bun:"active,notnull,default:true" json:"-"`
	PasswordChangedAt    *time.Time `bun:"password_changed_at" json:"-"`
	PasswordResetToken   *string    `bun:"password_reset_token" json:"-"`
	PasswordResetExpires *time.Time `bun:"password_reset_expires" json:"-"`
	CreatedAt            time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt            time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"-"`
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) SetID(id uuid.UUID) {
	u.ID = id
}

func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issue time. Tokens issued before a password change are stale.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Before(*u.PasswordChangedAt)
}
