package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ContractStatus tracks the aggregate contract outcome, while PartyStatus
// tracks each signer independently.
type ContractStatus string

const (
	ContractStatusPending  ContractStatus = "PENDING"
	ContractStatusSigned   ContractStatus = "SIGNED"
	ContractStatusRejected ContractStatus = "REJECTED"
)

type PartyStatus string

const (
	PartyStatusPending  PartyStatus = "PENDING"
	PartyStatusSigned   PartyStatus = "SIGNED"
	PartyStatusRejected PartyStatus = "REJECTED"
)

// Terminal reports whether the contract can no longer change.
func (s ContractStatus) Terminal() bool {
	return s == ContractStatusSigned || s == ContractStatusRejected
}

// Resolve computes the aggregate status from the two party statuses:
// SIGNED only when both signed, REJECTED as soon as either rejects.
func Resolve(renter, owner PartyStatus) ContractStatus {
	if renter == PartyStatusRejected || owner == PartyStatusRejected {
		return ContractStatusRejected
	}
	if renter == PartyStatusSigned && owner == PartyStatusSigned {
		return ContractStatusSigned
	}
	return ContractStatusPending
}

// ContractDate is the date the contract was drawn up.
type ContractDate struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

type RenterInformation struct {
	Name                string `json:"name"`
	PhoneNumber         string `json:"phoneNumber"`
	IDCardNumber        string `json:"idCardNumber"`
	DriverLicenseNumber string `json:"driverLicenseNumber"`
}

type OwnerInformation struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phoneNumber"`
	IDCardNumber string `json:"idCardNumber"`
}

type VehicleInformation struct {
	Brand                 string `json:"brand"`
	Model                 string `json:"model"`
	Year                  int    `json:"year"`
	Color                 string `json:"color"`
	VehicleRegistrationID string `json:"vehicleRegistrationId"`
}

type ContractAddress struct {
	City     string `json:"city"`
	District string `json:"district"`
	Ward     string `json:"ward"`
	Address  string `json:"address"`
}

type RentalInformation struct {
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	TotalDays     int       `json:"totalDays"`
	TotalPrice    int64     `json:"totalPrice"`
	DepositPrice  int64     `json:"depositPrice"`
}

type VehicleCondition struct {
	OuterVehicleCondition string `json:"outerVehicleCondition"`
	InnerVehicleCondition string `json:"innerVehicleCondition"`
	TiresCondition        string `json:"tiresCondition"`
	EngineCondition       string `json:"engineCondition"`
	Note                  string `json:"note"`
}

// ContractPayload is the structured legal document, stored as JSONB.
type ContractPayload struct {
	ContractDate            ContractDate       `json:"contractDate"`
	RenterInformation       RenterInformation  `json:"renterInformation"`
	VehicleOwnerInformation OwnerInformation   `json:"vehicleOwnerInformation"`
	VehicleInformation      VehicleInformation `json:"vehicleInformation"`
	ContractAddress         ContractAddress    `json:"contractAddress"`
	RentalInformation       RentalInformation  `json:"rentalInformation"`
	VehicleCondition        VehicleCondition   `json:"vehicleCondition"`
}

// MissingFields lists every required field that is empty, zero or unset.
// The condition note is the single optional field.
func (p ContractPayload) MissingFields() []string {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}

	check("contractDate.day", p.ContractDate.Day != 0)
	check("contractDate.month", p.ContractDate.Month != 0)
	check("contractDate.year", p.ContractDate.Year != 0)

	check("renterInformation.name", p.RenterInformation.Name != "")
	check("renterInformation.phoneNumber", p.RenterInformation.PhoneNumber != "")
	check("renterInformation.idCardNumber", p.RenterInformation.IDCardNumber != "")
	check("renterInformation.driverLicenseNumber", p.RenterInformation.DriverLicenseNumber != "")

	check("vehicleOwnerInformation.name", p.VehicleOwnerInformation.Name != "")
	check("vehicleOwnerInformation.phoneNumber", p.VehicleOwnerInformation.PhoneNumber != "")
	check("vehicleOwnerInformation.idCardNumber", p.VehicleOwnerInformation.IDCardNumber != "")

	check("vehicleInformation.brand", p.VehicleInformation.Brand != "")
	check("vehicleInformation.model", p.VehicleInformation.Model != "")
	check("vehicleInformation.year", p.VehicleInformation.Year != 0)
	check("vehicleInformation.color", p.VehicleInformation.Color != "")
	check("vehicleInformation.vehicleRegistrationId", p.VehicleInformation.VehicleRegistrationID != "")

	check("contractAddress.city", p.ContractAddress.City != "")
	check("contractAddress.district", p.ContractAddress.District != "")
	check("contractAddress.ward", p.ContractAddress.Ward != "")
	check("contractAddress.address", p.ContractAddress.Address != "")

	check("rentalInformation.startDateTime", !p.RentalInformation.StartDateTime.IsZero())
	check("rentalInformation.endDateTime", !p.RentalInformation.EndDateTime.IsZero())
	check("rentalInformation.totalDays", p.RentalInformation.TotalDays != 0)
	check("rentalInformation.totalPrice", p.RentalInformation.TotalPrice != 0)
	check("rentalInformation.depositPrice", p.RentalInformation.DepositPrice != 0)

	check("vehicleCondition.outerVehicleCondition", p.VehicleCondition.OuterVehicleCondition != "")
	check("vehicleCondition.innerVehicleCondition", p.VehicleCondition.InnerVehicleCondition != "")
	check("vehicleCondition.tiresCondition", p.VehicleCondition.TiresCondition != "")
	check("vehicleCondition.engineCondition", p.VehicleCondition.EngineCondition != "")

	return missing
}

func (p ContractPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *ContractPayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	}
	return fmt.Errorf("unsupported contract payload type %T", src)
}

// Contract ties a signed (or rejected) document to a rental. A rental may
// accumulate rejected drafts; at most one PENDING draft exists at a time.
type Contract struct {
	ID             string          `db:"id" json:"id"`
	RentalID       int             `db:"rental_id" json:"rentalId"`
	ContractStatus ContractStatus  `db:"contract_status" json:"contractStatus"`
	RenterStatus   PartyStatus     `db:"renter_status" json:"renterStatus"`
	OwnerStatus    PartyStatus     `db:"owner_status" json:"ownerStatus"`
	Payload        ContractPayload `db:"payload" json:"payload"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}
