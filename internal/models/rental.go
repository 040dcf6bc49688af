package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RentalStatus is the closed set of rental lifecycle states. The string
// values are part of the wire contract and appear verbatim in query
// parameters and workflow history entries.
type RentalStatus string

const (
	RentalStatusDepositPending       RentalStatus = "DEPOSIT PENDING"
	RentalStatusDepositPaid          RentalStatus = "DEPOSIT PAID"
	RentalStatusOwnerPending         RentalStatus = "OWNER PENDING"
	RentalStatusOwnerApproved        RentalStatus = "OWNER APPROVED"
	RentalStatusContractPending      RentalStatus = "CONTRACT PENDING"
	RentalStatusContractSigned       RentalStatus = "CONTRACT SIGNED"
	RentalStatusRemainingPaymentPaid RentalStatus = "REMAINING PAYMENT PAID"
	RentalStatusRenterReceived       RentalStatus = "RENTER RECEIVED"
	RentalStatusRenterReturned       RentalStatus = "RENTER RETURNED"
	RentalStatusCompleted            RentalStatus = "COMPLETED"
	RentalStatusCancelled            RentalStatus = "CANCELLED"
	RentalStatusDepositRefunded      RentalStatus = "DEPOSIT REFUNDED"
)

// ErrInvalidTransition is returned when a guard rejects a status change.
var ErrInvalidTransition = errors.New("invalid rental status transition")

// transitions encodes every legal edge of the lifecycle. Anything absent
// here is forbidden, which also makes terminal states self-evident.
var transitions = map[RentalStatus][]RentalStatus{
	RentalStatusDepositPending:       {RentalStatusDepositPaid, RentalStatusCancelled},
	RentalStatusDepositPaid:          {RentalStatusOwnerPending, RentalStatusCancelled},
	RentalStatusOwnerPending:         {RentalStatusOwnerApproved, RentalStatusCancelled},
	RentalStatusOwnerApproved:        {RentalStatusContractPending, RentalStatusCancelled},
	RentalStatusContractPending:      {RentalStatusContractSigned, RentalStatusCancelled},
	RentalStatusContractSigned:       {RentalStatusRemainingPaymentPaid, RentalStatusCancelled},
	RentalStatusRemainingPaymentPaid: {RentalStatusRenterReceived},
	RentalStatusRenterReceived:       {RentalStatusRenterReturned},
	RentalStatusRenterReturned:       {RentalStatusCompleted},
	RentalStatusCancelled:            {RentalStatusDepositRefunded},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s RentalStatus) CanTransition(next RentalStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s RentalStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Confirmed reports whether the rental occupies its booking window for
// availability purposes: deposit paid or later, and not cancelled.
func (s RentalStatus) Confirmed() bool {
	switch s {
	case RentalStatusDepositPaid, RentalStatusOwnerPending, RentalStatusOwnerApproved,
		RentalStatusContractPending, RentalStatusContractSigned, RentalStatusRemainingPaymentPaid,
		RentalStatusRenterReceived, RentalStatusRenterReturned, RentalStatusCompleted:
		return true
	}
	return false
}

// ConfirmedStatuses returns the statuses counted by the overlap invariant,
// in lifecycle order. Used by repositories to parameterize queries.
func ConfirmedStatuses() []RentalStatus {
	return []RentalStatus{
		RentalStatusDepositPaid,
		RentalStatusOwnerPending,
		RentalStatusOwnerApproved,
		RentalStatusContractPending,
		RentalStatusContractSigned,
		RentalStatusRemainingPaymentPaid,
		RentalStatusRenterReceived,
		RentalStatusRenterReturned,
		RentalStatusCompleted,
	}
}

// StatusWorkflowEntry is one audit log record of a status change.
type StatusWorkflowEntry struct {
	Status RentalStatus `json:"status"`
	Date   time.Time    `json:"date"`
}

// StatusWorkflowHistory is the append-only audit log, stored as JSONB.
type StatusWorkflowHistory []StatusWorkflowEntry

func (h StatusWorkflowHistory) Value() (driver.Value, error) {
	if h == nil {
		h = StatusWorkflowHistory{}
	}
	return json.Marshal(h)
}

func (h *StatusWorkflowHistory) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	case nil:
		*h = StatusWorkflowHistory{}
		return nil
	}
	return fmt.Errorf("unsupported workflow history type %T", src)
}

// RentalRole identifies which side of a rental a user is on.
type RentalRole string

const (
	RoleRenter RentalRole = "renter"
	RoleOwner  RentalRole = "owner"
	RoleNone   RentalRole = ""
)

// Rental is the central entity of the marketplace.
type Rental struct {
	ID                    int                   `db:"id" json:"id"`
	VehicleID             int                   `db:"vehicle_id" json:"vehicleId"`
	RenterID              int                   `db:"renter_id" json:"renterId"`
	VehicleOwnerID        int                   `db:"vehicle_owner_id" json:"vehicleOwnerId"`
	RenterPhoneNumber     string                `db:"renter_phone_number" json:"renterPhoneNumber"`
	StartDateTime         time.Time             `db:"start_datetime" json:"startDateTime"`
	EndDateTime           time.Time             `db:"end_datetime" json:"endDateTime"`
	TotalDays             int                   `db:"total_days" json:"totalDays"`
	DailyPrice            int64                 `db:"daily_price" json:"dailyPrice"`
	TotalPrice            int64                 `db:"total_price" json:"totalPrice"`
	DepositPrice          int64                 `db:"deposit_price" json:"depositPrice"`
	Status                RentalStatus          `db:"status" json:"status"`
	StatusWorkflowHistory StatusWorkflowHistory `db:"status_workflow_history" json:"statusWorkflowHistory"`
	CreatedAt             time.Time             `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time             `db:"updated_at" json:"updatedAt"`
}

// Transition moves the rental to next, appending exactly one history entry.
// The guard is checked here so the server cannot skip required approvals;
// repositories additionally enforce the expected prior status in SQL.
func (r *Rental) Transition(next RentalStatus, at time.Time) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	r.StatusWorkflowHistory = append(r.StatusWorkflowHistory, StatusWorkflowEntry{Status: next, Date: at})
	r.UpdatedAt = at
	return nil
}

// RoleOf recomputes the caller's role from scratch. Deliberately not cached:
// the same user may view one rental as renter and another as owner.
func (r *Rental) RoleOf(userID int) RentalRole {
	switch userID {
	case r.RenterID:
		return RoleRenter
	case r.VehicleOwnerID:
		return RoleOwner
	}
	return RoleNone
}
