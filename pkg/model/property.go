package model

// Property is the tenancy key that partitions every operational entity.
// Rooms, bookings, revenue, guests and food inventory all carry the property
// they were created under; queries must never cross it.
type Property string

const (
	PropertyPrimeResidency Property = "Prime Residency"
	PropertyPremKunj       Property = "Prem Kunj"
)

func Properties() []Property {
	return []Property{PropertyPrimeResidency, PropertyPremKunj}
}

func (p Property) Valid() bool {
	switch p {
	case PropertyPrimeResidency, PropertyPremKunj:
		return true
	}
	return false
}

func (p Property) String() string {
	return string(p)
}
