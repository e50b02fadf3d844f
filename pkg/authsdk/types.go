package authsdk

// User is the account representation returned by signup and Session.User.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	EmailVerified bool   `json:"email_verified"`
	Registered2FA bool   `json:"registered_2fa"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency state in readiness responses.
type HealthChecks struct {
	Database string `json:"database"`
}

// Credential describes a registered WebAuthn credential.
type Credential struct {
	ID        string `json:"id"` // base64url credential id
	Name      string `json:"name"`
	Algorithm int64  `json:"algorithm"`
}

// WebAuthnAttestation carries the browser's registration ceremony output.
// All fields are base64url encoded.
type WebAuthnAttestation struct {
	Name              string `json:"name"`
	AttestationObject string `json:"attestation_object"`
	ClientDataJSON    string `json:"client_data_json"`
}

// WebAuthnAssertion carries the browser's authentication ceremony output.
// All fields are base64url encoded.
type WebAuthnAssertion struct {
	CredentialID      string `json:"credential_id"`
	AuthenticatorData string `json:"authenticator_data"`
	ClientDataJSON    string `json:"client_data_json"`
	Signature         string `json:"signature"`
}
