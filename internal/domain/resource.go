package domain

import "fmt"

// ResourceType kind of a finite resource whose capacity is tracked per date
type ResourceType string

const (
	ResourceVehicle       ResourceType = "vehicle"
	ResourceDriver        ResourceType = "driver"
	ResourceGuide         ResourceType = "guide"
	ResourceAccommodation ResourceType = "accommodation"
)

// ResourceTypes lists every supported resource type
var ResourceTypes = []ResourceType{
	ResourceVehicle,
	ResourceDriver,
	ResourceGuide,
	ResourceAccommodation,
}

// IsValid returns true if the type is one of ResourceTypes
func (t ResourceType) IsValid() bool {
	for _, known := range ResourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ResourceKey identifies a resource across the collaborating services.
// IDs are owned by the fleet/driver/tour services and are only unique per type.
type ResourceKey struct {
	Type ResourceType
	ID   int64
}

// Validate checks that the key points to a real resource
func (k ResourceKey) Validate() error {
	if !k.Type.IsValid() {
		return fmt.Errorf("%w: unknown resource type %q", ErrInvalidInput, k.Type)
	}
	if k.ID <= 0 {
		return fmt.Errorf("%w: resource id must be positive", ErrInvalidInput)
	}
	return nil
}

func (k ResourceKey) String() string {
	return fmt.Sprintf("%s:%d", k.Type, k.ID)
}

// ParseResourceType converts a string to ResourceType with validation
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown resource type %q", ErrInvalidInput, s)
	}
	return t, nil
}
