package models

import "time"

// Vehicle is a listed vehicle owned by a user.
type Vehicle struct {
	ID                    int       `db:"id" json:"id"`
	OwnerID               int       `db:"owner_id" json:"userId"`
	Title                 string    `db:"title" json:"title"`
	Brand                 string    `db:"brand" json:"brand"`
	Model                 string    `db:"model" json:"model"`
	Year                  int       `db:"year" json:"year"`
	Color                 string    `db:"color" json:"color"`
	VehicleType           string    `db:"vehicle_type" json:"vehicleType"`
	VehicleRegistrationID string    `db:"vehicle_registration_id" json:"vehicleRegistrationId"`
	PricePerDay           int64     `db:"price_per_day" json:"price"`
	City                  string    `db:"city" json:"city"`
	District              string    `db:"district" json:"district"`
	Ward                  string    `db:"ward" json:"ward"`
	Address               string    `db:"address" json:"address"`
	TimePickupStart       string    `db:"time_pickup_start" json:"timePickupStart"`
	TimePickupEnd         string    `db:"time_pickup_end" json:"timePickupEnd"`
	TimeReturnStart       string    `db:"time_return_start" json:"timeReturnStart"`
	TimeReturnEnd         string    `db:"time_return_end" json:"timeReturnEnd"`
	Hidden                bool      `db:"hidden" json:"isHidden"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}
