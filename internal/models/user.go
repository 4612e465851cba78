package models

type User struct {
	ID    int64  `db:"id" json:"id" yaml:"id"`
	Name  string `db:"name" json:"name" yaml:"name"`
	Email string `db:"email" json:"email" yaml:"email"`
}

// UserInput is the body of a user creation request.
type UserInput struct {
	Name  string `json:"name" validate:"notblank"`
	Email string `json:"email" validate:"notblank,email"`
}

// UserPatch holds the fields to change; nil fields are kept as they are.
type UserPatch struct {
	Name  *string `json:"name" validate:"omitempty,notblank"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// Apply copies the non-nil fields of p onto u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
}
