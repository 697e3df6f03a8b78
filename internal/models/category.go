package models

import "fmt"

// Language selected at the first onboarding stage. Immutable afterwards.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageEnglish, LanguageHindi:
		return Language(s), nil
	default:
		return "", fmt.Errorf("unknown language %q", s)
	}
}

// Category is the service category a provider signs up for. It determines
// which later fields and documents are required.
type Category string

const (
	CategoryCarwash  Category = "carwash"
	CategoryPickDrop Category = "pickdrop"
	CategoryDriver   Category = "driver"
)

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryCarwash, CategoryPickDrop, CategoryDriver:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Vehicle used for pick-and-drop jobs.
type Vehicle string

const (
	VehicleBike    Vehicle = "bike"
	VehicleScooter Vehicle = "scooter"
	VehicleCar     Vehicle = "car"
)

func ParseVehicle(s string) (Vehicle, error) {
	switch Vehicle(s) {
	case VehicleBike, VehicleScooter, VehicleCar:
		return Vehicle(s), nil
	default:
		return "", fmt.Errorf("unknown vehicle %q", s)
	}
}

// CategoryDetails is the category-specific slice of the application record,
// modelled as a sealed union so that every consumer switches exhaustively
// over the three concrete variants.
type CategoryDetails interface {
	Category() Category
	sealed()
}

// CarwashDetails carries the free-text expertise description.
type CarwashDetails struct {
	Expertise string
}

func (CarwashDetails) Category() Category { return CategoryCarwash }
func (CarwashDetails) sealed()            {}

// PickDropDetails carries the vehicle selection. Zero value means bike.
type PickDropDetails struct {
	Vehicle Vehicle
}

func (PickDropDetails) Category() Category { return CategoryPickDrop }
func (PickDropDetails) sealed()            {}

// EffectiveVehicle resolves the default when no selection was made.
func (d PickDropDetails) EffectiveVehicle() Vehicle {
	if d.Vehicle == "" {
		return VehicleBike
	}
	return d.Vehicle
}

// DriverDetails carries the driving experience in years; kept as the
// numeric string the backend expects.
type DriverDetails struct {
	ExperienceYears string
}

func (DriverDetails) Category() Category { return CategoryDriver }
func (DriverDetails) sealed()            {}
