package repositories

import (
	"context"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/core/domain"

	"gorm.io/gorm"
)

// ContractRepository handles contract data access
type ContractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create inserts a contract. Both a taken identifier and a second contract
// for the same demand return domain.ErrDuplicateID.
func (r *ContractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	return wrapErr("create contract", "contract", contract.ID,
		r.db.WithContext(ctx).Create(models.NewContract(contract)).Error)
}

// GetByID gets a contract by ID
func (r *ContractRepository) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	var row models.Contract
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, wrapErr("get contract", "contract", id, err)
	}
	return row.ToDomain(), nil
}

// FindByDemand gets the contract created for a demand, nil if none
func (r *ContractRepository) FindByDemand(ctx context.Context, demandID string) (*domain.Contract, error) {
	var rows []*models.Contract
	err := r.db.WithContext(ctx).Where("demand_id = ?", demandID).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, domain.Store("find contract by demand", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// Activity counts the payments, support items and early refunds of a contract
func (r *ContractRepository) Activity(ctx context.Context, id string) (domain.ContractActivity, error) {
	var activity domain.ContractActivity

	var exists int64
	if err := r.db.WithContext(ctx).Model(&models.Contract{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return activity, domain.Store("check contract", err)
	}
	if exists == 0 {
		return activity, domain.NotFound("contract", id)
	}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.ContractPayment{}, &activity.Payments},
		{&models.SupportHistory{}, &activity.SupportItems},
		{&models.EarlyRefund{}, &activity.EarlyRefunds},
	}
	for _, c := range counts {
		err := r.db.WithContext(ctx).Model(c.model).Where("contract_id = ?", id).Count(c.dest).Error
		if err != nil {
			return activity, domain.Store("count contract activity", err)
		}
	}
	return activity, nil
}

// DeleteDocuments removes the auxiliary documents of a contract
func (r *ContractRepository) DeleteDocuments(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("contract_id = ?", id).Delete(&models.ContractDocument{})
	if res.Error != nil {
		return 0, domain.Store("delete contract documents", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete hard deletes a contract
func (r *ContractRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Contract{})
	if res.Error != nil {
		return domain.Store("delete contract", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("contract", id)
	}
	return nil
}

// ListUnlinked lists contracts whose live demand does not reference them
// back, oldest first
func (r *ContractRepository) ListUnlinked(ctx context.Context, limit int) ([]*domain.Contract, error) {
	var rows []*models.Contract
	err := r.db.WithContext(ctx).
		Select("contracts.*").
		Joins("JOIN demands ON demands.id = contracts.demand_id AND demands.deleted_at IS NULL").
		Where("(demands.contract_id IS NULL OR demands.contract_id <> contracts.id)").
		Order("contracts.created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, domain.Store("list unlinked contracts", err)
	}
	contracts := make([]*domain.Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, row.ToDomain())
	}
	return contracts, nil
}
