package dto

type ForgotPasswordInput struct {
	Identifier     string `json:"identifier"`
	IdentifierType string `json:"identifierType"`
}

type ResetPasswordInput struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}
