package models

// FileRef is a handle to a locally selected document image. How the bytes
// were picked (gallery, camera) is the caller's concern.
type FileRef struct {
	Name        string
	ContentType string
	Data        []byte
}

// DocumentSubmission pairs a selected file with the user-entered document
// number for one rule key.
type DocumentSubmission struct {
	File   *FileRef
	Number string
}

// ApplicationRecord is the cumulative payload built stage by stage during
// onboarding. Fields belonging to a later stage are never read before that
// stage is reached; Category is immutable once details collection begins.
type ApplicationRecord struct {
	Language Language
	Phone    string
	FullName string
	Email    string
	Category Category
	Area     string
	Details  CategoryDetails

	// Documents is keyed by document rule key; keys are always a subset of
	// the rule table entries for Category.
	Documents map[string]DocumentSubmission
}

// RegisterPayload is the wire shape of POST /tech/register.
type RegisterPayload struct {
	Language    string  `json:"language"`
	Phone       string  `json:"phone"`
	FullName    string  `json:"fullName"`
	Email       string  `json:"email"`
	Category    string  `json:"category"`
	Area        string  `json:"area"`
	Expertise   string  `json:"expertise,omitempty"`
	Vehicle     string  `json:"vehicle,omitempty"`
	Experience  string  `json:"experience,omitempty"`
	DocumentURL *string `json:"document_url"` // always null at registration time
}

// ToRegisterPayload flattens the record into the backend's registration
// body, filling exactly one of the category-specific fields.
func (r *ApplicationRecord) ToRegisterPayload() RegisterPayload {
	p := RegisterPayload{
		Language: string(r.Language),
		Phone:    r.Phone,
		FullName: r.FullName,
		Email:    r.Email,
		Category: string(r.Category),
		Area:     r.Area,
	}

	switch d := r.Details.(type) {
	case CarwashDetails:
		p.Expertise = d.Expertise
	case PickDropDetails:
		p.Vehicle = string(d.EffectiveVehicle())
	case DriverDetails:
		p.Experience = d.ExperienceYears
	case nil:
		// details stage not reached; register is only called afterwards,
		// but the zero payload is still well-formed
	}

	return p
}
