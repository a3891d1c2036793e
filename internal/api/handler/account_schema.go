package handler

type newAccountRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// updateAccountRequest is a partial patch; absent fields stay untouched.
type updateAccountRequest struct {
	Username *string `json:"username,omitempty"`
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
	Password *string `json:"password,omitempty"`
}
