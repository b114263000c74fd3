package access

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResourceKind discriminates the entity types subject to access control.
// Repos and agents are structurally identical for access purposes; the
// engine is parameterized by kind instead of duplicated per entity.
type ResourceKind = string

const (
	ResourceKindRepo  ResourceKind = "repo"
	ResourceKindAgent ResourceKind = "agent"
)

// Visibility controls anonymous read access to a resource.
type Visibility = string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// User is the local user model. The primary key is the provider-issued
// identifier; ExternalID carries an explicit provider mapping when the
// provider tracks one.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             string     `bun:"id,pk" json:"id,omitempty"`
	ExternalID     string     `bun:"external_id,nullzero,unique" json:"external_id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FullName       string     `bun:"full_name" json:"full_name,omitempty"`
	ProfilePicture string     `bun:"profile_picture" json:"profile_picture,omitempty"`
	APIKeyHash     string     `bun:"api_key_hash,nullzero" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Normalize lowercases and trims the fields the store indexes on.
func (u *User) Normalize() *User {
	u.ID = strings.TrimSpace(u.ID)
	u.ExternalID = strings.TrimSpace(u.ExternalID)
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return u
}

// Validate fails loudly with a typed error on missing or malformed fields
// so bad records never reach business logic.
func (u *User) Validate() error {
	err := validation.ValidateStruct(u,
		validation.Field(&u.ID, validation.Required, validation.Length(1, 100)),
		validation.Field(&u.Username,
			validation.Required,
			validation.Length(3, 50),
			validation.Match(usernamePattern),
		),
		validation.Field(&u.Email, validation.Required, validation.Length(5, 255), is.Email),
		validation.Field(&u.ProfilePicture, is.URL),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid user record").
			WithTextCode(TextCodeInvalidRecord).
			WithCode(errors.CodeBadRequest)
	}
	return nil
}

// Resource is an access-controlled entity (repo or agent). AdminID is the
// owning user and is immutable after creation; the owner always holds
// implicit admin access and is never stored as a contributor row.
type Resource struct {
	bun.BaseModel `bun:"table:resources,alias:res"`
	ID            string     `bun:"id,pk" json:"id,omitempty"`
	Kind          ResourceKind `bun:"kind,notnull" json:"kind,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	AdminID       string     `bun:"admin_id,notnull" json:"admin_id,omitempty"`
	Visibility    Visibility `bun:"visibility,notnull" json:"visibility,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsPublic reports whether anonymous callers may read the resource.
func (r *Resource) IsPublic() bool {
	return strings.EqualFold(r.Visibility, VisibilityPublic)
}

// IsOwnedBy reports whether userID is the resource admin.
func (r *Resource) IsOwnedBy(userID string) bool {
	return userID != "" && r.AdminID == userID
}

// Validate fails loudly with a typed error on missing or malformed fields.
func (r *Resource) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Kind, validation.Required, validation.In(ResourceKindRepo, ResourceKindAgent)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.AdminID, validation.Required),
		validation.Field(&r.Visibility, validation.Required, validation.In(VisibilityPrivate, VisibilityPublic)),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid resource record").
			WithTextCode(TextCodeInvalidRecord).
			WithCode(errors.CodeBadRequest)
	}
	return nil
}

// Contributor is a non-owner access grant linking a user to exactly one
// resource. A row is created pending by an invite; acceptance flips
// Pending and stamps AcceptedAt. Rejection and revocation delete the row.
// At most one row exists per (user, resource) pair.
type Contributor struct {
	bun.BaseModel `bun:"table:contributors,alias:ctb"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        string      `bun:"user_id,notnull" json:"user_id,omitempty"`
	Username      string      `bun:"username,notnull" json:"username,omitempty"`
	Email         string      `bun:"email,notnull" json:"email,omitempty"`
	ResourceID    string      `bun:"resource_id,notnull" json:"resource_id,omitempty"`
	AccessLevel   AccessLevel `bun:"access_level,notnull" json:"access_level,omitempty"`
	InvitedBy     string      `bun:"invited_by,notnull" json:"invited_by,omitempty"`
	InvitedAt     *time.Time  `bun:"invited_at,nullzero,default:current_timestamp" json:"invited_at,omitempty"`
	AcceptedAt    *time.Time  `bun:"accepted_at,nullzero" json:"accepted_at,omitempty"`
	Pending       bool        `bun:"pending,notnull" json:"pending"`
}

// IsAccepted reports whether the invitation has been explicitly accepted.
func (c *Contributor) IsAccepted() bool {
	return !c.Pending && c.AcceptedAt != nil
}

// Validate fails loudly with a typed error on missing or malformed fields.
func (c *Contributor) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.UserID, validation.Required),
		validation.Field(&c.Username,
			validation.Required,
			validation.Length(3, 50),
			validation.Match(usernamePattern),
		),
		validation.Field(&c.Email, validation.Required, validation.Length(5, 255), is.Email),
		validation.Field(&c.ResourceID, validation.Required),
		validation.Field(&c.InvitedBy, validation.Required),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid contributor record").
			WithTextCode(TextCodeInvalidRecord).
			WithCode(errors.CodeBadRequest)
	}

	if !c.AccessLevel.IsValid() {
		return ErrInvalidAccessLevel
	}

	return nil
}
