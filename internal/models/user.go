package models

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// UserProfile is the one-to-one profile record of a user.
type UserProfile struct {
	ID       int64   `json:"id"`
	UserID   int64   `json:"-"`
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
	Phone    *string `json:"phone"`
}
