package auth

// login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// registration request payload
type RegisterRequest struct {
	FirstName   string `json:"first_name" validate:"required,min=2,max=100"`
	LastName    string `json:"last_name" validate:"required,min=2,max=100"`
	CompanyName string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,e164"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        string `json:"role,omitempty"` // Optional, defaults to "HOST"
}

// represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// represents change password request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// represents logout request
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}
