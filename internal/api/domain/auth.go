package domain

// RegisterResult is returned on successful registration so the caller can
// immediately drive 2FA enrollment.
type RegisterResult struct {
	User            PublicUser `json:"user"`
	ProvisioningURI string     `json:"provisioning_uri"`
}

// LoginResult is returned on a fully successful login (password + TOTP).
type LoginResult struct {
	Token string     `json:"token"`
	Role  string     `json:"role"`
	User  PublicUser `json:"user"`
}
