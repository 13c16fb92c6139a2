package sessionsdk

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	// Error is a short machine-readable code (e.g. "unauthorized")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// CredentialsRequest is the body of both the login and register endpoints.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	// Status indicates the overall health status ("ok" or "degraded")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks holds per-dependency results (readyz only)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of critical dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Signer indicates the token signing capability status
	Signer string `json:"signer"`
}

// Response texts returned by the session endpoints.
const (
	TextLoginSuccess      = "Login successful. JWT token set as HTTP-only cookie."
	TextLogoutSuccess     = "Logout successful. JWT cookie cleared."
	TextInvalidCredential = "Invalid user credentials"
	TextUserAdded         = "User added successfully"
	TextWelcome           = "Welcome, this endpoint is not secure."
	TextUserProfile       = "Welcome to User Profile"
	TextAdminProfile      = "Welcome to Admin Profile"
)
