package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

var (
	ErrContractNotFound   = errors.New("contract not found")
	ErrPendingContract    = errors.New("rental already has a pending contract")
	ErrContractNotPending = errors.New("contract is no longer pending")
	ErrPartyDecided       = errors.New("party already recorded a decision")
)

// ContractRepository abstracts contract persistence.
type ContractRepository interface {
	Create(ctx context.Context, contract *models.Contract) error
	GetByID(ctx context.Context, id string) (models.Contract, error)
	ListByRental(ctx context.Context, rentalID int) ([]models.Contract, error)
	GetPendingByRental(ctx context.Context, rentalID int) (models.Contract, error)
	UpdatePartyStatus(ctx context.Context, contract *models.Contract, party models.RentalRole) error
}

// ContractRepo is a sqlx implementation of ContractRepository.
type ContractRepo struct {
	db *sqlx.DB
}

// NewContractRepo constructs a ContractRepo.
func NewContractRepo(db *sqlx.DB) *ContractRepo {
	return &ContractRepo{db: db}
}

// Create inserts a new pending contract unless the rental already has
// one still waiting on a signature.
func (r *ContractRepo) Create(ctx context.Context, contract *models.Contract) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var pending bool
	if err := tx.GetContext(ctx, &pending,
		`SELECT EXISTS(SELECT 1 FROM contracts WHERE rental_id=$1 AND contract_status=$2)`,
		contract.RentalID, models.ContractStatusPending); err != nil {
		return err
	}
	if pending {
		return ErrPendingContract
	}

	if contract.ID == "" {
		contract.ID = uuid.NewString()
	}
	contract.ContractStatus = models.ContractStatusPending
	contract.RenterStatus = models.PartyStatusPending
	contract.OwnerStatus = models.PartyStatusPending

	query := `INSERT INTO contracts (id, rental_id, contract_status, renter_status, owner_status, payload)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at, updated_at`
	if err := tx.QueryRowxContext(ctx, query,
		contract.ID, contract.RentalID, contract.ContractStatus,
		contract.RenterStatus, contract.OwnerStatus, contract.Payload).
		Scan(&contract.CreatedAt, &contract.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ContractRepo) GetByID(ctx context.Context, id string) (models.Contract, error) {
	var contract models.Contract
	err := r.db.GetContext(ctx, &contract, `SELECT * FROM contracts WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contract{}, ErrContractNotFound
	}
	return contract, err
}

func (r *ContractRepo) ListByRental(ctx context.Context, rentalID int) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.SelectContext(ctx, &contracts,
		`SELECT * FROM contracts WHERE rental_id=$1 ORDER BY created_at DESC`, rentalID)
	return contracts, err
}

func (r *ContractRepo) GetPendingByRental(ctx context.Context, rentalID int) (models.Contract, error) {
	var contract models.Contract
	err := r.db.GetContext(ctx, &contract,
		`SELECT * FROM contracts WHERE rental_id=$1 AND contract_status=$2`,
		rentalID, models.ContractStatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contract{}, ErrContractNotFound
	}
	return contract, err
}

// UpdatePartyStatus persists a signature or rejection. The contract
// must still be pending in the database and the signing party must not
// have decided before; each party's decision is written exactly once.
func (r *ContractRepo) UpdatePartyStatus(ctx context.Context, contract *models.Contract, party models.RentalRole) error {
	partyColumn := "renter_status"
	if party == models.RoleOwner {
		partyColumn = "owner_status"
	}

	query := `UPDATE contracts SET renter_status=$2, owner_status=$3, contract_status=$4, updated_at=NOW()
        WHERE id=$1 AND contract_status=$5 AND ` + partyColumn + `=$6
        RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		contract.ID, contract.RenterStatus, contract.OwnerStatus, contract.ContractStatus,
		models.ContractStatusPending, models.PartyStatusPending).
		Scan(&contract.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		var current models.Contract
		checkErr := r.db.GetContext(ctx, &current, `SELECT * FROM contracts WHERE id=$1`, contract.ID)
		if errors.Is(checkErr, sql.ErrNoRows) {
			return ErrContractNotFound
		}
		if checkErr != nil {
			return checkErr
		}
		if current.ContractStatus != models.ContractStatusPending {
			return ErrContractNotPending
		}
		return ErrPartyDecided
	}
	return err
}
