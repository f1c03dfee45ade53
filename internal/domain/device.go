package domain

import "time"

// Device is a managed switch. MgtIP is its identity.
type Device struct {
	MgtIP     string    `json:"mgt_ip"`
	Name      string    `json:"name,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the device name, falling back to the management IP
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.MgtIP
}
