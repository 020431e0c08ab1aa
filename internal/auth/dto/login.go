package dto

type LoginInput struct {
	Identifier     string `json:"identifier"`
	IdentifierType string `json:"identifierType"`
	Password       string `json:"password"`
	IPAddress      string `json:"-"`
}
