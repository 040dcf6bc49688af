package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"rental-service/internal/models"
)

var (
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrVehicleInUse      = errors.New("vehicle has active rentals")
	ErrVehicleHasHistory = errors.New("vehicle is referenced by past rentals")
)

// VehicleRepository abstracts vehicle persistence.
type VehicleRepository interface {
	Create(ctx context.Context, v *models.Vehicle) error
	GetByID(ctx context.Context, id int) (models.Vehicle, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.Vehicle, error)
	ListVisible(ctx context.Context) ([]models.Vehicle, error)
	Update(ctx context.Context, v *models.Vehicle) error
	SetHidden(ctx context.Context, id int, hidden bool) error
	Delete(ctx context.Context, id int) error
}

// VehicleRepo is a sqlx implementation of VehicleRepository.
type VehicleRepo struct {
	db *sqlx.DB
}

// NewVehicleRepo constructs a VehicleRepo.
func NewVehicleRepo(db *sqlx.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

func (r *VehicleRepo) Create(ctx context.Context, v *models.Vehicle) error {
	query := `INSERT INTO vehicles (owner_id, title, brand, model, year, color, vehicle_type,
            vehicle_registration_id, price_per_day, city, district, ward, address,
            time_pickup_start, time_pickup_end, time_return_start, time_return_end, hidden)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, query,
		v.OwnerID, v.Title, v.Brand, v.Model, v.Year, v.Color, v.VehicleType,
		v.VehicleRegistrationID, v.PricePerDay, v.City, v.District, v.Ward, v.Address,
		v.TimePickupStart, v.TimePickupEnd, v.TimeReturnStart, v.TimeReturnEnd, v.Hidden).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

func (r *VehicleRepo) GetByID(ctx context.Context, id int) (models.Vehicle, error) {
	var v models.Vehicle
	err := r.db.GetContext(ctx, &v, `SELECT * FROM vehicles WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vehicle{}, ErrVehicleNotFound
	}
	return v, err
}

func (r *VehicleRepo) ListByOwner(ctx context.Context, ownerID int) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.SelectContext(ctx, &vehicles,
		`SELECT * FROM vehicles WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	return vehicles, err
}

func (r *VehicleRepo) ListVisible(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.SelectContext(ctx, &vehicles,
		`SELECT * FROM vehicles WHERE hidden = FALSE ORDER BY created_at DESC`)
	return vehicles, err
}

func (r *VehicleRepo) Update(ctx context.Context, v *models.Vehicle) error {
	query := `UPDATE vehicles SET title=$2, brand=$3, model=$4, year=$5, color=$6, vehicle_type=$7,
            vehicle_registration_id=$8, price_per_day=$9, city=$10, district=$11, ward=$12, address=$13,
            time_pickup_start=$14, time_pickup_end=$15, time_return_start=$16, time_return_end=$17,
            hidden=$18, updated_at=NOW()
        WHERE id=$1
        RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		v.ID, v.Title, v.Brand, v.Model, v.Year, v.Color, v.VehicleType,
		v.VehicleRegistrationID, v.PricePerDay, v.City, v.District, v.Ward, v.Address,
		v.TimePickupStart, v.TimePickupEnd, v.TimeReturnStart, v.TimeReturnEnd, v.Hidden).
		Scan(&v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVehicleNotFound
	}
	return err
}

func (r *VehicleRepo) SetHidden(ctx context.Context, id int, hidden bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET hidden=$2, updated_at=NOW() WHERE id=$1`, id, hidden)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrVehicleNotFound
	}
	return err
}

// Delete removes a vehicle unless a rental in a non-terminal status
// still references it. Terminal rentals keep their vehicle row for the
// record, so those surface as a conflict rather than a cascade.
func (r *VehicleRepo) Delete(ctx context.Context, id int) error {
	var active bool
	err := r.db.GetContext(ctx, &active,
		`SELECT EXISTS(SELECT 1 FROM rentals WHERE vehicle_id=$1 AND status NOT IN ($2, $3, $4))`,
		id, models.RentalStatusCompleted, models.RentalStatusCancelled, models.RentalStatusDepositRefunded)
	if err != nil {
		return err
	}
	if active {
		return ErrVehicleInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id=$1`, id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrVehicleHasHistory
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrVehicleNotFound
	}
	return err
}
