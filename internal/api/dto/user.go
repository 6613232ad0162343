package dto

import (
	"time"

	"github.com/martijn/userbase/internal/core/domain"
)

// UserResponse represents a user. Nullable attributes are sent as null.
type UserResponse struct {
	ID                int64      `json:"id"`
	Username          *string    `json:"username"`
	FirstName         *string    `json:"first_name"`
	LastName          *string    `json:"last_name"`
	Bio               *string    `json:"bio"`
	Bicycles          *int64     `json:"bicycles"`
	GPA               *float64   `json:"gpa"`
	BirthDate         *string    `json:"birth_date"` // YYYY-MM-DD
	AccountExpiration *time.Time `json:"account_expiration"`
	Earthling         *bool      `json:"earthling"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UserListResponse represents a list of users
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Total int            `json:"total"`
}

func ToUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:                u.ID,
		Username:          u.Username,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Bio:               u.Bio,
		Bicycles:          u.Bicycles,
		GPA:               u.GPA,
		AccountExpiration: u.AccountExpiration,
		Earthling:         u.Earthling,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
	if u.BirthDate != nil {
		d := u.BirthDate.Format("2006-01-02")
		resp.BirthDate = &d
	}
	return resp
}

func ToUserListResponse(users []*domain.User) UserListResponse {
	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = ToUserResponse(u)
	}
	return UserListResponse{Items: items, Total: len(items)}
}
