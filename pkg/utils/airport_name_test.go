package utils

import "testing"

func TestFriendlyAirportName(t *testing.T) {
	tests := []struct {
		name     string
		airport  string
		location string
		want     string
	}{
		{"location covers name", "San Francisco Intl", "San Francisco, CA", "San Francisco, CA"},
		{"distinct name kept", "John F Kennedy Intl", "New York, NY", "New York, NY (John F Kennedy)"},
		{"international spelled out", "Denver International", "Denver, CO", "Denver, CO"},
		{"no location", "Heathrow", "", "Heathrow"},
		{"nothing known", "", "", ""},
		{"state code inside word kept", "Cape Cod Gateway", "Hyannis, CA", "Hyannis, CA (Cape Cod Gateway)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FriendlyAirportName(tt.airport, tt.location); got != tt.want {
				t.Fatalf("FriendlyAirportName(%q, %q) = %q, want %q", tt.airport, tt.location, got, tt.want)
			}
		})
	}
}
