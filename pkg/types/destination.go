package types

import "strings"

// Destination is the delivery address block sent with every quoted package.
type Destination struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Complete reports whether the fields the carrier requires are present.
func (d Destination) Complete() bool {
	return strings.TrimSpace(d.Postcode) != "" &&
		strings.TrimSpace(d.City) != "" &&
		strings.TrimSpace(d.State) != ""
}
