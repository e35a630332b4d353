package entity

// UserLoginData identifies the authenticated healthcare provider.
type UserLoginData struct {
	ID       string
	Username string
	Email    string
}
