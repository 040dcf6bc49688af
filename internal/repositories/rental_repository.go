package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/availability"
	"rental-service/internal/models"
)

var (
	ErrRentalNotFound = errors.New("rental not found")
	ErrStaleRental    = errors.New("rental was modified concurrently")
	ErrPeriodTaken    = errors.New("vehicle already booked for this period")
)

const rentalColumns = `id, vehicle_id, renter_id, vehicle_owner_id, renter_phone_number,
    start_datetime, end_datetime, total_days, daily_price, total_price, deposit_price,
    status, status_workflow_history, created_at, updated_at`

// RentalRepository abstracts rental persistence.
type RentalRepository interface {
	Create(ctx context.Context, rental *models.Rental) error
	GetByID(ctx context.Context, id int) (models.Rental, error)
	Update(ctx context.Context, rental *models.Rental, expected models.RentalStatus) error
	ConfirmDeposit(ctx context.Context, rental *models.Rental, expected models.RentalStatus) error
	ListByRenter(ctx context.Context, renterID int) ([]models.Rental, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.Rental, error)
	ListByVehicle(ctx context.Context, vehicleID int) ([]models.Rental, error)
	ListStaleDeposits(ctx context.Context, olderThan time.Time) ([]models.Rental, error)
	ListCancelledWithDeposit(ctx context.Context) ([]models.Rental, error)
	ListReturnedBefore(ctx context.Context, cutoff time.Time) ([]models.Rental, error)
	ConfirmedBookings(ctx context.Context, vehicleID int, m availability.Month) ([]availability.Booking, error)
}

// RentalRepo is a sqlx implementation of RentalRepository.
type RentalRepo struct {
	db *sqlx.DB
}

// NewRentalRepo constructs a RentalRepo.
func NewRentalRepo(db *sqlx.DB) *RentalRepo {
	return &RentalRepo{db: db}
}

// Create inserts the rental after re-checking, inside the same
// transaction, that no confirmed rental overlaps the requested period.
func (r *RentalRepo) Create(ctx context.Context, rental *models.Rental) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockVehicle(ctx, tx, rental.VehicleID); err != nil {
		return err
	}

	taken, err := periodTaken(ctx, tx, rental.VehicleID, 0, rental.StartDateTime, rental.EndDateTime)
	if err != nil {
		return err
	}
	if taken {
		return ErrPeriodTaken
	}

	query := `INSERT INTO rentals (vehicle_id, renter_id, vehicle_owner_id, renter_phone_number,
            start_datetime, end_datetime, total_days, daily_price, total_price, deposit_price,
            status, status_workflow_history)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRowxContext(ctx, query,
		rental.VehicleID, rental.RenterID, rental.VehicleOwnerID, rental.RenterPhoneNumber,
		rental.StartDateTime, rental.EndDateTime, rental.TotalDays, rental.DailyPrice,
		rental.TotalPrice, rental.DepositPrice, rental.Status, rental.StatusWorkflowHistory).
		Scan(&rental.ID, &rental.CreatedAt, &rental.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *RentalRepo) GetByID(ctx context.Context, id int) (models.Rental, error) {
	var rental models.Rental
	err := r.db.GetContext(ctx, &rental,
		`SELECT `+rentalColumns+` FROM rentals WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rental{}, ErrRentalNotFound
	}
	return rental, err
}

// lockVehicle takes the vehicle's row lock so concurrent booking
// attempts for the same vehicle serialize instead of both passing the
// overlap check.
func lockVehicle(ctx context.Context, tx *sqlx.Tx, vehicleID int) error {
	var id int
	err := tx.GetContext(ctx, &id, `SELECT id FROM vehicles WHERE id=$1 FOR UPDATE`, vehicleID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVehicleNotFound
	}
	return err
}

// periodTaken reports whether a confirmed rental other than excludeID
// overlaps the half-open period.
func periodTaken(ctx context.Context, tx *sqlx.Tx, vehicleID, excludeID int, start, end time.Time) (bool, error) {
	var taken bool
	confirmed := statusList(models.ConfirmedStatuses())
	check := fmt.Sprintf(`SELECT EXISTS(
        SELECT 1 FROM rentals
        WHERE vehicle_id=$1 AND id<>$2 AND status IN (%s)
          AND start_datetime < $4 AND end_datetime > $3)`, confirmed)
	err := tx.GetContext(ctx, &taken, check, vehicleID, excludeID, start, end)
	return taken, err
}

// ConfirmDeposit records the deposit transitions with the same
// transactional overlap check Create uses. Two renters paying deposits
// for overlapping periods cannot both end up confirmed.
func (r *RentalRepo) ConfirmDeposit(ctx context.Context, rental *models.Rental, expected models.RentalStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockVehicle(ctx, tx, rental.VehicleID); err != nil {
		return err
	}

	taken, err := periodTaken(ctx, tx, rental.VehicleID, rental.ID, rental.StartDateTime, rental.EndDateTime)
	if err != nil {
		return err
	}
	if taken {
		return ErrPeriodTaken
	}

	query := `UPDATE rentals SET status=$2, status_workflow_history=$3, updated_at=NOW()
        WHERE id=$1 AND status=$4
        RETURNING updated_at`
	err = tx.QueryRowxContext(ctx, query,
		rental.ID, rental.Status, rental.StatusWorkflowHistory, expected).
		Scan(&rental.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStaleRental
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Update persists the rental's status and history, guarded by the
// status the caller loaded. A concurrent transition makes the guard
// miss and the caller must reload.
func (r *RentalRepo) Update(ctx context.Context, rental *models.Rental, expected models.RentalStatus) error {
	query := `UPDATE rentals SET status=$2, status_workflow_history=$3, updated_at=NOW()
        WHERE id=$1 AND status=$4
        RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		rental.ID, rental.Status, rental.StatusWorkflowHistory, expected).
		Scan(&rental.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if checkErr := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM rentals WHERE id=$1)`, rental.ID); checkErr != nil {
			return checkErr
		}
		if !exists {
			return ErrRentalNotFound
		}
		return ErrStaleRental
	}
	return err
}

func (r *RentalRepo) ListByRenter(ctx context.Context, renterID int) ([]models.Rental, error) {
	var rentals []models.Rental
	err := r.db.SelectContext(ctx, &rentals,
		`SELECT `+rentalColumns+` FROM rentals WHERE renter_id=$1 ORDER BY created_at DESC`, renterID)
	return rentals, err
}

func (r *RentalRepo) ListByOwner(ctx context.Context, ownerID int) ([]models.Rental, error) {
	var rentals []models.Rental
	err := r.db.SelectContext(ctx, &rentals,
		`SELECT `+rentalColumns+` FROM rentals WHERE vehicle_owner_id=$1 ORDER BY created_at DESC`, ownerID)
	return rentals, err
}

func (r *RentalRepo) ListByVehicle(ctx context.Context, vehicleID int) ([]models.Rental, error) {
	var rentals []models.Rental
	err := r.db.SelectContext(ctx, &rentals,
		`SELECT `+rentalColumns+` FROM rentals WHERE vehicle_id=$1 ORDER BY start_datetime`, vehicleID)
	return rentals, err
}

// ListStaleDeposits returns rentals still waiting for their deposit
// past the payment window.
func (r *RentalRepo) ListStaleDeposits(ctx context.Context, olderThan time.Time) ([]models.Rental, error) {
	var rentals []models.Rental
	err := r.db.SelectContext(ctx, &rentals,
		`SELECT `+rentalColumns+` FROM rentals WHERE status=$1 AND created_at < $2`,
		models.RentalStatusDepositPending, olderThan)
	return rentals, err
}

// ListCancelledWithDeposit returns cancelled rentals whose history
// shows a paid deposit, i.e. rentals owed a refund.
func (r *RentalRepo) ListCancelledWithDeposit(ctx context.Context) ([]models.Rental, error) {
	var rentals []models.Rental
	err := r.db.SelectContext(ctx, &rentals,
		`SELECT `+rentalColumns+` FROM rentals
        WHERE status=$1 AND status_workflow_history @> $2`,
		models.RentalStatusCancelled,
		fmt.Sprintf(`[{"status":"%s"}]`, models.RentalStatusDepositPaid))
	return rentals, err
}

// ListReturnedBefore returns rentals the renter reported returned
// before cutoff, ready to settle as completed.
func (r *RentalRepo) ListReturnedBefore(ctx context.Context, cutoff time.Time) ([]models.Rental, error) {
	var rentals []models.Rental
	err := r.db.SelectContext(ctx, &rentals,
		`SELECT `+rentalColumns+` FROM rentals WHERE status=$1 AND updated_at < $2`,
		models.RentalStatusRenterReturned, cutoff)
	return rentals, err
}

// ConfirmedBookings implements availability.BookingSource: every
// confirmed rental of the vehicle whose period touches the month.
func (r *RentalRepo) ConfirmedBookings(ctx context.Context, vehicleID int, m availability.Month) ([]availability.Booking, error) {
	monthStart := time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	confirmed := statusList(models.ConfirmedStatuses())
	query := fmt.Sprintf(`SELECT id, start_datetime, end_datetime FROM rentals
        WHERE vehicle_id=$1 AND status IN (%s)
          AND start_datetime < $3 AND end_datetime > $2
        ORDER BY start_datetime`, confirmed)

	rows, err := r.db.QueryxContext(ctx, query, vehicleID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []availability.Booking
	for rows.Next() {
		var b availability.Booking
		if err := rows.Scan(&b.RentalID, &b.Start, &b.End); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func statusList(statuses []models.RentalStatus) string {
	out := ""
	for i, s := range statuses {
		if i > 0 {
			out += ", "
		}
		out += "'" + string(s) + "'"
	}
	return out
}
