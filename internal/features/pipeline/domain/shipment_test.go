package domain

import (
	"testing"

	"cargo-pipeline/internal/core/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() ShipmentDetails {
	return ShipmentDetails{
		TrackingNumber: "MSCU1234567",
		TrackingLink:   "https://track.example.com/MSCU1234567",
		Courier:        "MSC",
		ETA:            "2026-12-01",
	}
}

func TestShipmentDetails_Parse(t *testing.T) {
	s, err := validDetails().Parse()
	require.NoError(t, err)
	assert.Equal(t, "MSCU1234567", s.TrackingNumber)
	assert.Equal(t, 2026, s.ETA.Year())
	assert.Equal(t, 12, int(s.ETA.Month()))
}

func TestShipmentDetails_Parse_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ShipmentDetails)
		field  string
	}{
		{name: "MissingLink", mutate: func(d *ShipmentDetails) { d.TrackingLink = "" }, field: "tracking_link"},
		{name: "MalformedLink", mutate: func(d *ShipmentDetails) { d.TrackingLink = "not a url" }, field: "tracking_link"},
		{name: "MissingNumber", mutate: func(d *ShipmentDetails) { d.TrackingNumber = "  " }, field: "tracking_number"},
		{name: "MissingCourier", mutate: func(d *ShipmentDetails) { d.Courier = "" }, field: "courier"},
		{name: "MissingETA", mutate: func(d *ShipmentDetails) { d.ETA = "" }, field: "eta"},
		{name: "UnparseableETA", mutate: func(d *ShipmentDetails) { d.ETA = "next tuesday" }, field: "eta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := validDetails()
			tt.mutate(&details)
			_, err := details.Parse()
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
