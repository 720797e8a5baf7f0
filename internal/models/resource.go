package models

// ResourceProvider is one community resource returned by the directory API.
type ResourceProvider struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
	Eligibility string `json:"eligibility,omitempty"`
	Hours       string `json:"hours,omitempty"`
}
