package constant

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"

	IdentifierEmail = "email"
	IdentifierPhone = "phone"

	DefaultTokenType = "Bearer"

	// MinBcryptCost is the floor for the configurable hash cost.
	MinBcryptCost = 10
)
