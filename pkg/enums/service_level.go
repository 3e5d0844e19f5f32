package enums

import "fmt"

// ServiceLevel states how the merchant exposes an optional carrier service.
type ServiceLevel string

const (
	ServiceLevelOptional ServiceLevel = "optional"
	ServiceLevelIncluded ServiceLevel = "included"
	ServiceLevelDisabled ServiceLevel = "disabled"
)

var validServiceLevels = []ServiceLevel{
	ServiceLevelOptional,
	ServiceLevelIncluded,
	ServiceLevelDisabled,
}

// String implements fmt.Stringer.
func (s ServiceLevel) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceLevel.
func (s ServiceLevel) IsValid() bool {
	for _, candidate := range validServiceLevels {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceLevel converts raw input into a ServiceLevel.
func ParseServiceLevel(value string) (ServiceLevel, error) {
	for _, candidate := range validServiceLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service level %q", value)
}
