package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	now := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	r := &Rental{
		Status:                RentalStatusDepositPending,
		StatusWorkflowHistory: StatusWorkflowHistory{{Status: RentalStatusDepositPending, Date: now}},
	}

	path := []RentalStatus{
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

	for i, next := range path {
		require.NoError(t, r.Transition(next, now.Add(time.Duration(i+1)*time.Hour)))
		// history only ever grows and its tail matches the current status
		assert.Len(t, r.StatusWorkflowHistory, i+2)
		assert.Equal(t, next, r.StatusWorkflowHistory[len(r.StatusWorkflowHistory)-1].Status)
		assert.Equal(t, next, r.Status)
	}

	assert.True(t, r.Status.Terminal())
	assert.ErrorIs(t, r.Transition(RentalStatusCancelled, now), ErrInvalidTransition)
}

func TestTransitionCannotSkipApprovals(t *testing.T) {
	r := &Rental{Status: RentalStatusDepositPending}

	assert.ErrorIs(t, r.Transition(RentalStatusOwnerApproved, time.Now()), ErrInvalidTransition)
	assert.ErrorIs(t, r.Transition(RentalStatusContractSigned, time.Now()), ErrInvalidTransition)
	assert.ErrorIs(t, r.Transition(RentalStatusCompleted, time.Now()), ErrInvalidTransition)
}

func TestCancelledRentalAcceptsOnlyRefund(t *testing.T) {
	r := &Rental{Status: RentalStatusCancelled}

	assert.ErrorIs(t, r.Transition(RentalStatusDepositPaid, time.Now()), ErrInvalidTransition)
	require.NoError(t, r.Transition(RentalStatusDepositRefunded, time.Now()))
	assert.True(t, r.Status.Terminal())
}

func TestConfirmedStatuses(t *testing.T) {
	assert.False(t, RentalStatusDepositPending.Confirmed())
	assert.False(t, RentalStatusCancelled.Confirmed())
	assert.False(t, RentalStatusDepositRefunded.Confirmed())
	assert.True(t, RentalStatusDepositPaid.Confirmed())
	assert.True(t, RentalStatusCompleted.Confirmed())

	for _, s := range ConfirmedStatuses() {
		assert.True(t, s.Confirmed(), "status %s", s)
	}
}

func TestRoleOfIsRecomputedPerRental(t *testing.T) {
	r := &Rental{RenterID: 7, VehicleOwnerID: 9}

	assert.Equal(t, RoleRenter, r.RoleOf(7))
	assert.Equal(t, RoleOwner, r.RoleOf(9))
	assert.Equal(t, RoleNone, r.RoleOf(12))
}

func TestResolveContractStatusAllCombinations(t *testing.T) {
	cases := []struct {
		renter, owner PartyStatus
		want          ContractStatus
	}{
		{PartyStatusPending, PartyStatusPending, ContractStatusPending},
		{PartyStatusPending, PartyStatusSigned, ContractStatusPending},
		{PartyStatusPending, PartyStatusRejected, ContractStatusRejected},
		{PartyStatusSigned, PartyStatusPending, ContractStatusPending},
		{PartyStatusSigned, PartyStatusSigned, ContractStatusSigned},
		{PartyStatusSigned, PartyStatusRejected, ContractStatusRejected},
		{PartyStatusRejected, PartyStatusPending, ContractStatusRejected},
		{PartyStatusRejected, PartyStatusSigned, ContractStatusRejected},
		{PartyStatusRejected, PartyStatusRejected, ContractStatusRejected},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Resolve(tc.renter, tc.owner), "renter=%s owner=%s", tc.renter, tc.owner)
	}
}

func TestContractPayloadMissingFields(t *testing.T) {
	var empty ContractPayload
	assert.NotEmpty(t, empty.MissingFields())

	full := ContractPayload{
		ContractDate:            ContractDate{Day: 10, Month: 5, Year: 2025},
		RenterInformation:       RenterInformation{Name: "a", PhoneNumber: "b", IDCardNumber: "c", DriverLicenseNumber: "d"},
		VehicleOwnerInformation: OwnerInformation{Name: "a", PhoneNumber: "b", IDCardNumber: "c"},
		VehicleInformation:      VehicleInformation{Brand: "a", Model: "b", Year: 2020, Color: "c", VehicleRegistrationID: "d"},
		ContractAddress:         ContractAddress{City: "a", District: "b", Ward: "c", Address: "d"},
		RentalInformation: RentalInformation{
			StartDateTime: time.Now(),
			EndDateTime:   time.Now().Add(time.Hour),
			TotalDays:     3,
			TotalPrice:    1502500,
			DepositPrice:  450750,
		},
		VehicleCondition: VehicleCondition{
			OuterVehicleCondition: "good",
			InnerVehicleCondition: "good",
			TiresCondition:        "good",
			EngineCondition:       "good",
		},
	}
	// the note is the one optional field
	assert.Empty(t, full.MissingFields())
}
