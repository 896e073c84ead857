package entity

// Airline maps an operator code to a display name
type Airline struct {
	Code string
	Name string
}
