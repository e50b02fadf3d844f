package webauthn

import (
	"encoding/base64"
	"encoding/json"
)

// Client data ceremony types.
const (
	ClientDataTypeCreate = "webauthn.create"
	ClientDataTypeGet    = "webauthn.get"
)

// ClientData is the parsed collected client data JSON sent by the browser.
type ClientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"` // base64url, unpadded
	Origin    string `json:"origin"`
	// CrossOrigin distinguishes absent (nil) from explicit false.
	CrossOrigin *bool `json:"crossOrigin"`
}

// ParseClientDataJSON decodes and structurally validates client data.
func ParseClientDataJSON(raw []byte) (*ClientData, error) {
	var data ClientData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ErrInvalidData
	}
	if data.Type == "" || data.Challenge == "" || data.Origin == "" {
		return nil, ErrInvalidData
	}
	return &data, nil
}

// ChallengeBytes decodes the embedded challenge value.
func (c *ClientData) ChallengeBytes() ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(c.Challenge)
	if err != nil {
		return nil, ErrInvalidData
	}
	return b, nil
}

// IsCrossOrigin reports whether the ceremony was declared cross-origin.
// Absent counts as false.
func (c *ClientData) IsCrossOrigin() bool {
	return c.CrossOrigin != nil && *c.CrossOrigin
}
