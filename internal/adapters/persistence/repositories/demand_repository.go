package repositories

import (
	"context"
	"time"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/core/domain"

	"gorm.io/gorm"
)

// DemandRepository handles demand and demand history data access
type DemandRepository struct {
	db *gorm.DB
}

// NewDemandRepository creates a new demand repository
func NewDemandRepository(db *gorm.DB) *DemandRepository {
	return &DemandRepository{db: db}
}

// Create inserts a demand; a taken identifier returns domain.ErrDuplicateID
func (r *DemandRepository) Create(ctx context.Context, demand *domain.Demand) (*domain.Demand, error) {
	row := models.NewDemand(demand)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, wrapErr("create demand", "demand", demand.ID, err)
	}
	return row.ToDomain(), nil
}

// GetByID gets a demand by ID
func (r *DemandRepository) GetByID(ctx context.Context, id string) (*domain.Demand, error) {
	var row models.Demand
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, wrapErr("get demand", "demand", id, err)
	}
	return row.ToDomain(), nil
}

// Update writes the non-workflow fields and the edit stamp
func (r *DemandRepository) Update(ctx context.Context, id string, fields domain.DemandFields, actorID uint, at time.Time) (*domain.Demand, error) {
	updates := map[string]interface{}{
		"edited_by":  actorID,
		"edited_at":  at,
		"updated_at": at,
	}
	if fields.Cause != nil {
		updates["cause"] = *fields.Cause
	}
	if fields.Plan != nil {
		plan := models.NewPlanColumns(*fields.Plan)
		updates["plan_code"] = plan.Code
		updates["plan_label"] = plan.Label
		updates["plan_amount_per_month"] = plan.AmountPerMonth
		updates["plan_duration_months"] = plan.DurationMonths
		updates["plan_nominal"] = plan.Nominal
		updates["plan_support_min"] = plan.SupportMin
		updates["plan_support_max"] = plan.SupportMax
	}
	if fields.PaymentFrequency != nil {
		updates["payment_frequency"] = string(*fields.PaymentFrequency)
	}
	if fields.DesiredStartDate != nil {
		updates["desired_start_date"] = *fields.DesiredStartDate
	}
	if fields.EmergencyContact != nil {
		contact := models.NewContactColumns(*fields.EmergencyContact)
		updates["emergency_name"] = contact.Name
		updates["emergency_phone"] = contact.Phone
		updates["emergency_relationship"] = contact.Relationship
		updates["emergency_id_document"] = contact.IDDocument
	}

	res := r.db.WithContext(ctx).Model(&models.Demand{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, wrapErr("update demand", "demand", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.NotFound("demand", id)
	}
	return r.GetByID(ctx, id)
}

// SetStatus applies a status change only if the stored status still equals
// change.From. A lost race returns domain.ErrStaleWrite.
func (r *DemandRepository) SetStatus(ctx context.Context, id string, change domain.StatusChange) (*domain.Demand, error) {
	updates := map[string]interface{}{
		"status":     string(change.To),
		"priority":   change.To.Priority(),
		"updated_at": change.At,
	}
	switch change.Action {
	case domain.ActionAccept:
		updates["accepted_by"] = change.ActorID
		updates["accepted_at"] = change.At
	case domain.ActionReject:
		updates["rejected_by"] = change.ActorID
		updates["rejected_at"] = change.At
	case domain.ActionReopen:
		updates["reopened_by"] = change.ActorID
		updates["reopened_at"] = change.At
	case domain.ActionConvert:
		updates["converted_by"] = change.ActorID
		updates["converted_at"] = change.At
	}
	if change.DecisionReason != nil {
		updates["decision_reason"] = *change.DecisionReason
	}
	if change.ReopenReason != nil {
		updates["reopen_reason"] = *change.ReopenReason
	}

	q := r.db.WithContext(ctx).Model(&models.Demand{}).
		Where("id = ? AND status = ?", id, string(change.From))
	switch {
	case change.LinkContract != nil:
		updates["contract_id"] = *change.LinkContract
		q = q.Where("contract_id IS NULL")
	case change.ClearContract:
		updates["contract_id"] = nil
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return nil, wrapErr("set demand status", "demand", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrStaleWrite
	}
	return r.GetByID(ctx, id)
}

// Delete soft deletes a demand and stamps who deleted it
func (r *DemandRepository) Delete(ctx context.Context, id string, actorID uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Demand{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": actorID,
			"deleted_at": at,
		})
	if res.Error != nil {
		return wrapErr("delete demand", "demand", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("demand", id)
	}
	return nil
}

func (r *DemandRepository) filtered(ctx context.Context, filter domain.DemandFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Demand{})
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("(id LIKE ? OR member_name LIKE ? OR member_matricule LIKE ? OR cause LIKE ?)",
			like, like, like, like)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	return q
}

// QueryPage lists demands matching filter. Ties on the sort keys are broken
// by id so pages stay stable.
func (r *DemandRepository) QueryPage(ctx context.Context, filter domain.DemandFilter, page domain.PageRequest, sort domain.SortOrder) (*domain.DemandPage, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, domain.Store("count demands", err)
	}

	q := r.filtered(ctx, filter)
	switch sort {
	case domain.SortCreatedAsc:
		q = q.Order("created_at ASC").Order("id ASC")
	case domain.SortCreatedDesc:
		q = q.Order("created_at DESC").Order("id DESC")
	default:
		q = q.Order("priority ASC").Order("created_at DESC").Order("id DESC")
	}

	var rows []*models.Demand
	if err := q.Offset(page.Offset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, domain.Store("query demands", err)
	}

	items := make([]*domain.Demand, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToDomain())
	}

	totalPages := 0
	if page.Limit > 0 {
		totalPages = int(total) / page.Limit
		if int(total)%page.Limit > 0 {
			totalPages++
		}
	}
	return &domain.DemandPage{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: totalPages,
	}, nil
}

// CountByStatus counts demands per status; every status is present
func (r *DemandRepository) CountByStatus(ctx context.Context, filter domain.DemandFilter) (domain.StatusCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.filtered(ctx, filter).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, domain.Store("count demands by status", err)
	}

	counts := domain.StatusCounts{}
	for _, s := range domain.AllStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[domain.DemandStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// CountIDsWithBase counts identifiers equal to base or suffixed from it,
// deleted demands included
func (r *DemandRepository) CountIDsWithBase(ctx context.Context, base string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Demand{}).
		Where("id = ? OR id LIKE ?", base, base+"_%").
		Count(&count).Error
	if err != nil {
		return 0, domain.Store("count demand ids", err)
	}
	return count, nil
}

// AppendHistory appends an audit row
func (r *DemandRepository) AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error {
	row, err := models.NewDemandHistory(entry)
	if err != nil {
		return domain.Store("encode demand history", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return domain.Store("append demand history", err)
	}
	entry.ID = row.ID
	return nil
}

// History lists the audit trail of a demand, oldest first
func (r *DemandRepository) History(ctx context.Context, demandID string) ([]*domain.HistoryEntry, error) {
	var rows []*models.DemandHistory
	err := r.db.WithContext(ctx).
		Where("demand_id = ?", demandID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, domain.Store("list demand history", err)
	}
	entries := make([]*domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.ToDomain())
	}
	return entries, nil
}
