package domain

import "time"

// UserFields are the mutable attributes of a User. Every field is optional.
type UserFields struct {
	Username          *string    `db:"username"`
	FirstName         *string    `db:"first_name"`
	LastName          *string    `db:"last_name"`
	Bio               *string    `db:"bio"`
	Bicycles          *int64     `db:"bicycles"`
	GPA               *float64   `db:"gpa"`
	BirthDate         *time.Time `db:"birth_date"` // date only, 00:00 UTC
	AccountExpiration *time.Time `db:"account_expiration"`
	Earthling         *bool      `db:"earthling"`
}

type User struct {
	ID int64 `db:"id"`
	UserFields
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Timestamps are kept at microsecond precision so values survive a round trip
// through either supported database unchanged.
const timestampPrecision = time.Microsecond

// Now returns the current time in the precision stored for timestamps.
func Now() time.Time {
	return Timestamp(time.Now())
}

// Timestamp normalizes t to UTC at the stored precision.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(timestampPrecision)
}

// Date normalizes t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func NewUser(fields UserFields, now time.Time) *User {
	now = Timestamp(now)
	return &User{
		UserFields: fields.Normalize(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Apply replaces every mutable field and refreshes UpdatedAt. UpdatedAt always
// moves forward, even when the clock has not advanced since the last write.
func (u *User) Apply(fields UserFields, now time.Time) {
	now = Timestamp(now)
	if !now.After(u.UpdatedAt) {
		now = u.UpdatedAt.Add(timestampPrecision)
	}
	u.UserFields = fields.Normalize()
	u.UpdatedAt = now
}

// Normalize returns a copy with date and time values in their stored form.
func (f UserFields) Normalize() UserFields {
	if f.BirthDate != nil {
		d := Date(*f.BirthDate)
		f.BirthDate = &d
	}
	if f.AccountExpiration != nil {
		t := Timestamp(*f.AccountExpiration)
		f.AccountExpiration = &t
	}
	return f
}
