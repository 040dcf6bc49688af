package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rental-service/internal/availability"
	"rental-service/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id int) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type VehicleRepositoryMock struct {
	mock.Mock
}

func (m *VehicleRepositoryMock) Create(ctx context.Context, v *models.Vehicle) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *VehicleRepositoryMock) GetByID(ctx context.Context, id int) (models.Vehicle, error) {
	args := m.Called(ctx, id)
	var vehicle models.Vehicle
	if val := args.Get(0); val != nil {
		vehicle = val.(models.Vehicle)
	}
	return vehicle, args.Error(1)
}

func (m *VehicleRepositoryMock) ListByOwner(ctx context.Context, ownerID int) ([]models.Vehicle, error) {
	args := m.Called(ctx, ownerID)
	var list []models.Vehicle
	if val := args.Get(0); val != nil {
		list = val.([]models.Vehicle)
	}
	return list, args.Error(1)
}

func (m *VehicleRepositoryMock) ListVisible(ctx context.Context) ([]models.Vehicle, error) {
	args := m.Called(ctx)
	var list []models.Vehicle
	if val := args.Get(0); val != nil {
		list = val.([]models.Vehicle)
	}
	return list, args.Error(1)
}

func (m *VehicleRepositoryMock) Update(ctx context.Context, v *models.Vehicle) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *VehicleRepositoryMock) SetHidden(ctx context.Context, id int, hidden bool) error {
	args := m.Called(ctx, id, hidden)
	return args.Error(0)
}

func (m *VehicleRepositoryMock) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type RentalRepositoryMock struct {
	mock.Mock
}

func (m *RentalRepositoryMock) Create(ctx context.Context, rental *models.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}

func (m *RentalRepositoryMock) GetByID(ctx context.Context, id int) (models.Rental, error) {
	args := m.Called(ctx, id)
	var rental models.Rental
	if val := args.Get(0); val != nil {
		rental = val.(models.Rental)
	}
	return rental, args.Error(1)
}

func (m *RentalRepositoryMock) Update(ctx context.Context, rental *models.Rental, expected models.RentalStatus) error {
	args := m.Called(ctx, rental, expected)
	return args.Error(0)
}

func (m *RentalRepositoryMock) ConfirmDeposit(ctx context.Context, rental *models.Rental, expected models.RentalStatus) error {
	args := m.Called(ctx, rental, expected)
	return args.Error(0)
}

func (m *RentalRepositoryMock) ListByRenter(ctx context.Context, renterID int) ([]models.Rental, error) {
	args := m.Called(ctx, renterID)
	var list []models.Rental
	if val := args.Get(0); val != nil {
		list = val.([]models.Rental)
	}
	return list, args.Error(1)
}

func (m *RentalRepositoryMock) ListByOwner(ctx context.Context, ownerID int) ([]models.Rental, error) {
	args := m.Called(ctx, ownerID)
	var list []models.Rental
	if val := args.Get(0); val != nil {
		list = val.([]models.Rental)
	}
	return list, args.Error(1)
}

func (m *RentalRepositoryMock) ListByVehicle(ctx context.Context, vehicleID int) ([]models.Rental, error) {
	args := m.Called(ctx, vehicleID)
	var list []models.Rental
	if val := args.Get(0); val != nil {
		list = val.([]models.Rental)
	}
	return list, args.Error(1)
}

func (m *RentalRepositoryMock) ListStaleDeposits(ctx context.Context, olderThan time.Time) ([]models.Rental, error) {
	args := m.Called(ctx, olderThan)
	var list []models.Rental
	if val := args.Get(0); val != nil {
		list = val.([]models.Rental)
	}
	return list, args.Error(1)
}

func (m *RentalRepositoryMock) ListCancelledWithDeposit(ctx context.Context) ([]models.Rental, error) {
	args := m.Called(ctx)
	var list []models.Rental
	if val := args.Get(0); val != nil {
		list = val.([]models.Rental)
	}
	return list, args.Error(1)
}

func (m *RentalRepositoryMock) ListReturnedBefore(ctx context.Context, cutoff time.Time) ([]models.Rental, error) {
	args := m.Called(ctx, cutoff)
	var list []models.Rental
	if val := args.Get(0); val != nil {
		list = val.([]models.Rental)
	}
	return list, args.Error(1)
}

func (m *RentalRepositoryMock) ConfirmedBookings(ctx context.Context, vehicleID int, month availability.Month) ([]availability.Booking, error) {
	args := m.Called(ctx, vehicleID, month)
	var list []availability.Booking
	if val := args.Get(0); val != nil {
		list = val.([]availability.Booking)
	}
	return list, args.Error(1)
}

type ContractRepositoryMock struct {
	mock.Mock
}

func (m *ContractRepositoryMock) Create(ctx context.Context, contract *models.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *ContractRepositoryMock) GetByID(ctx context.Context, id string) (models.Contract, error) {
	args := m.Called(ctx, id)
	var contract models.Contract
	if val := args.Get(0); val != nil {
		contract = val.(models.Contract)
	}
	return contract, args.Error(1)
}

func (m *ContractRepositoryMock) ListByRental(ctx context.Context, rentalID int) ([]models.Contract, error) {
	args := m.Called(ctx, rentalID)
	var list []models.Contract
	if val := args.Get(0); val != nil {
		list = val.([]models.Contract)
	}
	return list, args.Error(1)
}

func (m *ContractRepositoryMock) GetPendingByRental(ctx context.Context, rentalID int) (models.Contract, error) {
	args := m.Called(ctx, rentalID)
	var contract models.Contract
	if val := args.Get(0); val != nil {
		contract = val.(models.Contract)
	}
	return contract, args.Error(1)
}

func (m *ContractRepositoryMock) UpdatePartyStatus(ctx context.Context, contract *models.Contract, party models.RentalRole) error {
	args := m.Called(ctx, contract, party)
	return args.Error(0)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateOrGetSession(ctx context.Context, userID int, peerID int) (models.ChatSession, bool, error) {
	args := m.Called(ctx, userID, peerID)
	var session models.ChatSession
	if val := args.Get(0); val != nil {
		session = val.(models.ChatSession)
	}
	return session, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) GetSession(ctx context.Context, sessionID int) (models.ChatSession, error) {
	args := m.Called(ctx, sessionID)
	var session models.ChatSession
	if val := args.Get(0); val != nil {
		session = val.(models.ChatSession)
	}
	return session, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, sessionID int, userID int) (bool, error) {
	args := m.Called(ctx, sessionID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) ListSessionsWithMessages(ctx context.Context, userID int) ([]models.SessionWithMessages, error) {
	args := m.Called(ctx, userID)
	var list []models.SessionWithMessages
	if val := args.Get(0); val != nil {
		list = val.([]models.SessionWithMessages)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListBySession(ctx context.Context, sessionID int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, sessionID)
	var list []models.ChatMessage
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatMessage)
	}
	return list, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NotifyRental(userID int, n models.RentalNotification) {
	m.Called(userID, n)
}

// PublisherMock stands in for the audit publisher.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
