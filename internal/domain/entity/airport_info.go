package entity

// AirportInfo is the metadata payload returned by a remote airport lookup.
type AirportInfo struct {
	ICAO      string
	Name      string
	Location  string
	Timezone  string
	Latitude  *float64
	Longitude *float64
}

// Complete reports whether the payload carries the fields required to update a record.
func (i *AirportInfo) Complete() bool {
	return i != nil && NormalizeICAO(i.ICAO) != "" && i.Name != ""
}
