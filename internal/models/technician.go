package models

// Technician is the backend's canonical representation of a registered
// service provider (the resolved identity). Created server-side on first
// successful registration, or fetched on login when the phone already
// exists.
type Technician struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Category    string `json:"category"`
	Area        string `json:"area"`
	Vehicle     string `json:"vehicle,omitempty"`
	Expertise   string `json:"expertise,omitempty"`
	Experience  string `json:"experience,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}
