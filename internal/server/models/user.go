package models

// User is the public projection of a stored account. It is the only user
// shape that leaves the credential store.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserCredentials is a stored user row including its password hash. It never
// crosses a transport boundary.
type UserCredentials struct {
	User
	PasswordHash string `json:"-"`
}
