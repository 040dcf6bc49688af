package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"rental-service/internal/availability"
	"rental-service/internal/models"
	"rental-service/internal/pricing"
)

// ErrVehicleUnavailable is returned by Book when the pre-submit
// availability check finds a conflicting booking.
var ErrVehicleUnavailable = fmt.Errorf("vehicle is not available for the requested period")

// AuthResult is what register and login return.
type AuthResult struct {
	User   models.User `json:"user"`
	Tokens TokenPair   `json:"tokens"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// Register creates an account and stores the issued tokens.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &result); err != nil {
		return AuthResult{}, err
	}
	if err := c.store.Save(result.Tokens); err != nil {
		return AuthResult{}, err
	}
	return result, nil
}

// Login authenticates and stores the issued tokens.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, &result)
	if err != nil {
		return AuthResult{}, err
	}
	if err := c.store.Save(result.Tokens); err != nil {
		return AuthResult{}, err
	}
	return result, nil
}

// Logout drops the stored tokens.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// Me returns the authenticated profile.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &user)
	return user, err
}

// UpdateProfile patches the authenticated profile. Only non-nil fields
// are sent.
type UpdateProfile struct {
	Nickname            *string `json:"nickname,omitempty"`
	Avatar              *string `json:"avatar,omitempty"`
	PhoneNumber         *string `json:"phoneNumber,omitempty"`
	FullName            *string `json:"fullName,omitempty"`
	IDCardNumber        *string `json:"idCardNumber,omitempty"`
	DriverLicenseNumber *string `json:"driverLicenseNumber,omitempty"`
	Password            *string `json:"password,omitempty"`
}

func (c *Client) UpdateMe(ctx context.Context, patch UpdateProfile) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPatch, "/users/me", patch, &user)
	return user, err
}

// GetUser returns another user's public profile.
func (c *Client) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", userID), nil, &user)
	return user, err
}

// CreateVehicle lists a vehicle.
func (c *Client) CreateVehicle(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error) {
	var created models.Vehicle
	err := c.do(ctx, http.MethodPost, "/vehicles", vehicle, &created)
	return created, err
}

// ListVehicles returns every visible vehicle.
func (c *Client) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := c.do(ctx, http.MethodGet, "/vehicles", nil, &vehicles)
	return vehicles, err
}

// MyVehicles returns the caller's own listings, hidden ones included.
func (c *Client) MyVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := c.do(ctx, http.MethodGet, "/vehicles/mine", nil, &vehicles)
	return vehicles, err
}

func (c *Client) GetVehicle(ctx context.Context, vehicleID int) (models.Vehicle, error) {
	var vehicle models.Vehicle
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/vehicles/%d", vehicleID), nil, &vehicle)
	return vehicle, err
}

func (c *Client) UpdateVehicle(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error) {
	var updated models.Vehicle
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/vehicles/%d", vehicle.ID), vehicle, &updated)
	return updated, err
}

func (c *Client) SetVehicleHidden(ctx context.Context, vehicleID int, hidden bool) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/vehicles/%d/visibility", vehicleID),
		map[string]bool{"isHidden": hidden}, nil)
}

func (c *Client) DeleteVehicle(ctx context.Context, vehicleID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/vehicles/%d", vehicleID), nil, nil)
}

func periodQuery(start, end time.Time) string {
	q := url.Values{}
	q.Set("startDateTime", start.Format(time.RFC3339))
	q.Set("endDateTime", end.Format(time.RFC3339))
	return q.Encode()
}

// CheckAvailability asks whether a vehicle is free for a period.
func (c *Client) CheckAvailability(ctx context.Context, vehicleID int, start, end time.Time) (availability.Result, error) {
	var result availability.Result
	path := fmt.Sprintf("/vehicles/%d/availability?%s", vehicleID, periodQuery(start, end))
	err := c.do(ctx, http.MethodGet, path, nil, &result)
	return result, err
}

// Confirmation is the pre-booking estimate.
type Confirmation struct {
	Vehicle models.Vehicle `json:"vehicle"`
	Quote   pricing.Quote  `json:"quote"`
}

// GetConfirmation returns the quote a renter reviews before booking.
func (c *Client) GetConfirmation(ctx context.Context, vehicleID int, start, end time.Time) (Confirmation, error) {
	var confirmation Confirmation
	path := fmt.Sprintf("/vehicles/%d/rental-confirmation?%s", vehicleID, periodQuery(start, end))
	err := c.do(ctx, http.MethodGet, path, nil, &confirmation)
	return confirmation, err
}

// BookingRequest creates a rental.
type BookingRequest struct {
	VehicleID         int       `json:"vehicleId"`
	Start             time.Time `json:"-"`
	End               time.Time `json:"-"`
	RenterPhoneNumber string    `json:"renterPhoneNumber,omitempty"`

	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
}

// CreateRental books the vehicle. The server re-checks the period inside
// the insert, so a conflict can still come back as an APIError.
func (c *Client) CreateRental(ctx context.Context, req BookingRequest) (models.Rental, error) {
	req.StartDateTime = req.Start.Format(time.RFC3339)
	req.EndDateTime = req.End.Format(time.RFC3339)

	var rental models.Rental
	err := c.do(ctx, http.MethodPost, "/rentals", req, &rental)
	return rental, err
}

// Book re-checks availability right before submitting, the way the
// booking screen does, then creates the rental.
func (c *Client) Book(ctx context.Context, req BookingRequest) (models.Rental, error) {
	result, err := c.CheckAvailability(ctx, req.VehicleID, req.Start, req.End)
	if err != nil {
		return models.Rental{}, err
	}
	if !result.Available {
		return models.Rental{}, ErrVehicleUnavailable
	}
	return c.CreateRental(ctx, req)
}

func (c *Client) GetRental(ctx context.Context, rentalID int) (models.Rental, error) {
	var rental models.Rental
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rentals/%d", rentalID), nil, &rental)
	return rental, err
}

// RentalsAsRenter lists rentals where the caller rents.
func (c *Client) RentalsAsRenter(ctx context.Context) ([]models.Rental, error) {
	var rentals []models.Rental
	err := c.do(ctx, http.MethodGet, "/rentals/renting", nil, &rentals)
	return rentals, err
}

// RentalsAsOwner lists rentals on the caller's vehicles.
func (c *Client) RentalsAsOwner(ctx context.Context) ([]models.Rental, error) {
	var rentals []models.Rental
	err := c.do(ctx, http.MethodGet, "/rentals/owned", nil, &rentals)
	return rentals, err
}

// OwnerDecision approves or rejects a rental waiting on the owner.
func (c *Client) OwnerDecision(ctx context.Context, rentalID int, approve bool) (models.Rental, error) {
	var rental models.Rental
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rentals/%d/decision", rentalID),
		map[string]bool{"status": approve}, &rental)
	return rental, err
}

func (c *Client) CancelRental(ctx context.Context, rentalID int) (models.Rental, error) {
	var rental models.Rental
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rentals/%d/cancel", rentalID), nil, &rental)
	return rental, err
}

// ConfirmReceived records the handover, owner side.
func (c *Client) ConfirmReceived(ctx context.Context, rentalID int) (models.Rental, error) {
	var rental models.Rental
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rentals/%d/received", rentalID), nil, &rental)
	return rental, err
}

// ConfirmReturned records the vehicle return, owner side.
func (c *Client) ConfirmReturned(ctx context.Context, rentalID int) (models.Rental, error) {
	var rental models.Rental
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rentals/%d/returned", rentalID), nil, &rental)
	return rental, err
}

func (c *Client) PayDeposit(ctx context.Context, rentalID int) (models.Rental, error) {
	var rental models.Rental
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rentals/%d/pay-deposit", rentalID), nil, &rental)
	return rental, err
}

func (c *Client) PayRemaining(ctx context.Context, rentalID int) (models.Rental, error) {
	var rental models.Rental
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rentals/%d/pay-remaining", rentalID), nil, &rental)
	return rental, err
}

// ContractDraft returns the prefilled payload the owner completes.
func (c *Client) ContractDraft(ctx context.Context, rentalID int) (models.ContractPayload, error) {
	var payload models.ContractPayload
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rentals/%d/contract-draft", rentalID), nil, &payload)
	return payload, err
}

// CreateContract submits the completed contract payload.
func (c *Client) CreateContract(ctx context.Context, rentalID int, payload models.ContractPayload) (models.Contract, error) {
	var contract models.Contract
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rentals/%d/contracts", rentalID), payload, &contract)
	return contract, err
}

func (c *Client) ListContracts(ctx context.Context, rentalID int) ([]models.Contract, error) {
	var contracts []models.Contract
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rentals/%d/contracts", rentalID), nil, &contracts)
	return contracts, err
}

func (c *Client) GetContract(ctx context.Context, contractID string) (models.Contract, error) {
	var contract models.Contract
	err := c.do(ctx, http.MethodGet, "/contracts/"+url.PathEscape(contractID), nil, &contract)
	return contract, err
}

// SignResult carries the contract and the rental it may have advanced.
type SignResult struct {
	Contract models.Contract `json:"contract"`
	Rental   models.Rental   `json:"rental"`
}

// SignContract signs or rejects a pending contract. The password proves
// the live user authorized this irreversible action.
func (c *Client) SignContract(ctx context.Context, contractID string, decision models.PartyStatus, password string) (SignResult, error) {
	var result SignResult
	err := c.do(ctx, http.MethodPost, "/contracts/"+url.PathEscape(contractID)+"/sign",
		map[string]string{"decision": string(decision), "password": password}, &result)
	return result, err
}

// CreateChatSession opens a 1:1 session with another user. existed
// reports that the pair already had one; the returned session is valid
// either way.
func (c *Client) CreateChatSession(ctx context.Context, receiverID int) (session models.ChatSession, existed bool, err error) {
	pair, err := c.store.Load()
	if err != nil {
		return models.ChatSession{}, false, err
	}

	env, status, err := c.send(ctx, http.MethodPost, "/chat/sessions",
		map[string]int{"receiverId": receiverID}, pair.AccessToken)
	if err != nil {
		return models.ChatSession{}, false, err
	}
	if status == http.StatusUnauthorized {
		refreshed, err := c.refresh(ctx, pair.AccessToken)
		if err != nil {
			return models.ChatSession{}, false, err
		}
		env, status, err = c.send(ctx, http.MethodPost, "/chat/sessions",
			map[string]int{"receiverId": receiverID}, refreshed.AccessToken)
		if err != nil {
			return models.ChatSession{}, false, err
		}
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return models.ChatSession{}, false, &APIError{Status: status, ErrorCode: env.ErrorCode, Message: env.Message}
	}

	if err := jsonUnmarshalData(env.Data, &session); err != nil {
		return models.ChatSession{}, false, err
	}
	return session, env.ErrorCode == 5001, nil
}

// ChatSessions returns every session with its message history.
func (c *Client) ChatSessions(ctx context.Context) ([]models.SessionWithMessages, error) {
	var sessions []models.SessionWithMessages
	err := c.do(ctx, http.MethodGet, "/chat/sessions", nil, &sessions)
	return sessions, err
}

// SessionMessages returns the ordered messages of one session.
func (c *Client) SessionMessages(ctx context.Context, sessionID int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chat/sessions/%d/messages", sessionID), nil, &msgs)
	return msgs, err
}
