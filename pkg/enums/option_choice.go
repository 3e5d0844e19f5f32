package enums

import "fmt"

// OptionChoice is the customer's yes/no answer for an optional service.
type OptionChoice string

const (
	OptionChoiceYes OptionChoice = "yes"
	OptionChoiceNo  OptionChoice = "no"
)

var validOptionChoices = []OptionChoice{
	OptionChoiceYes,
	OptionChoiceNo,
}

// String implements fmt.Stringer.
func (o OptionChoice) String() string {
	return string(o)
}

// Bool reports whether the choice is affirmative.
func (o OptionChoice) Bool() bool {
	return o == OptionChoiceYes
}

// IsValid reports whether the value is a known OptionChoice.
func (o OptionChoice) IsValid() bool {
	for _, candidate := range validOptionChoices {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOptionChoice converts raw input into an OptionChoice.
func ParseOptionChoice(value string) (OptionChoice, error) {
	for _, candidate := range validOptionChoices {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid option choice %q", value)
}
