package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"cargo-pipeline/internal/core/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/now"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ShipmentDetails is the raw send form for a container. All four fields are mandatory.
type ShipmentDetails struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
	TrackingLink   string `json:"tracking_link" validate:"required,url"`
	Courier        string `json:"courier" validate:"required"`
	ETA            string `json:"eta" validate:"required"`
}

// Shipment is the persisted, parsed form of ShipmentDetails.
type Shipment struct {
	TrackingNumber string    `json:"tracking_number"`
	TrackingLink   string    `json:"tracking_link"`
	Courier        string    `json:"courier"`
	ETA            time.Time `json:"eta"`
}

// Parse validates d and converts it into a Shipment.
func (d ShipmentDetails) Parse() (Shipment, error) {
	d.TrackingNumber = strings.TrimSpace(d.TrackingNumber)
	d.Courier = strings.TrimSpace(d.Courier)
	d.TrackingLink = strings.TrimSpace(d.TrackingLink)
	d.ETA = strings.TrimSpace(d.ETA)

	if err := validate.Struct(d); err != nil {
		return Shipment{}, apperr.Validation("invalid shipment details: %s", describe(err))
	}

	eta, err := now.Parse(d.ETA)
	if err != nil {
		return Shipment{}, apperr.Validation("invalid shipment details: eta %q is not a date", d.ETA)
	}

	return Shipment{
		TrackingNumber: d.TrackingNumber,
		TrackingLink:   d.TrackingLink,
		Courier:        d.Courier,
		ETA:            eta,
	}, nil
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
