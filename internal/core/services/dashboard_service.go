package services

import (
	"context"
	"time"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardService aggregates fund figures for the admin dashboard
type DashboardService struct {
	db    *gorm.DB
	clock Clock
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB, clock Clock) *DashboardService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DashboardService{db: db, clock: clock}
}

// DashboardData represents the fund dashboard
type DashboardData struct {
	// Demand Statistics
	Demands          domain.StatusCounts `json:"demands"`
	TotalDemands     int64               `json:"total_demands"`
	DemandsThisMonth int64               `json:"demands_this_month"`

	// Contract Statistics
	ActiveContracts  int64           `json:"active_contracts"`
	CommittedNominal decimal.Decimal `json:"committed_nominal"`

	Plans         []PlanStats     `json:"plans"`
	RecentDemands []DemandSummary `json:"recent_demands"`
	TopOfficers   []OfficerStats  `json:"top_officers"`
}

// PlanStats counts demands and contracts per plan code
type PlanStats struct {
	PlanCode  string `json:"plan_code"`
	Demands   int64  `json:"demands"`
	Contracts int64  `json:"contracts"`
}

// DemandSummary represents demand summary
type DemandSummary struct {
	ID         string              `json:"id"`
	MemberName string              `json:"member_name"`
	PlanCode   string              `json:"plan_code"`
	Status     domain.DemandStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
}

// OfficerStats counts the decisions recorded by one operator
type OfficerStats struct {
	OfficerID uint   `json:"officer_id"`
	Username  string `json:"username"`
	Accepted  int64  `json:"accepted"`
	Rejected  int64  `json:"rejected"`
	Converted int64  `json:"converted"`
}

// GetDashboard returns the admin dashboard data
func (s *DashboardService) GetDashboard(ctx context.Context) (*DashboardData, error) {
	db := s.db.WithContext(ctx)
	data := &DashboardData{Demands: domain.StatusCounts{}}
	for _, st := range domain.AllStatuses {
		data.Demands[st] = 0
	}

	// Demand counts by status
	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Demand{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, domain.Store("dashboard demand counts", err)
	}
	for _, row := range byStatus {
		data.Demands[domain.DemandStatus(row.Status)] = row.Count
	}
	data.TotalDemands = data.Demands.Total()

	// This month statistics
	now := s.clock.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if err := db.Model(&models.Demand{}).
		Where("created_at >= ?", startOfMonth).
		Count(&data.DemandsThisMonth).Error; err != nil {
		return nil, domain.Store("dashboard monthly demands", err)
	}

	// Active contracts and their committed nominal
	if err := db.Model(&models.Contract{}).
		Where("status = ?", string(domain.ContractActive)).
		Count(&data.ActiveContracts).Error; err != nil {
		return nil, domain.Store("dashboard active contracts", err)
	}
	var nominal decimal.NullDecimal
	if err := db.Model(&models.Contract{}).
		Where("status = ?", string(domain.ContractActive)).
		Select("SUM(nominal)").
		Row().
		Scan(&nominal); err != nil {
		return nil, domain.Store("dashboard committed nominal", err)
	}
	data.CommittedNominal = nominal.Decimal

	// Per-plan breakdown
	var demandPlans, contractPlans []struct {
		PlanCode string
		Count    int64
	}
	if err := db.Model(&models.Demand{}).
		Select("plan_code, COUNT(*) as count").
		Group("plan_code").
		Order("plan_code").
		Scan(&demandPlans).Error; err != nil {
		return nil, domain.Store("dashboard plan demands", err)
	}
	if err := db.Model(&models.Contract{}).
		Select("plan_code, COUNT(*) as count").
		Group("plan_code").
		Scan(&contractPlans).Error; err != nil {
		return nil, domain.Store("dashboard plan contracts", err)
	}
	contractsByPlan := make(map[string]int64, len(contractPlans))
	for _, row := range contractPlans {
		contractsByPlan[row.PlanCode] = row.Count
	}
	data.Plans = make([]PlanStats, len(demandPlans))
	for i, row := range demandPlans {
		data.Plans[i] = PlanStats{PlanCode: row.PlanCode, Demands: row.Count, Contracts: contractsByPlan[row.PlanCode]}
	}

	// Recent demands
	var recent []struct {
		ID         string
		MemberName string
		PlanCode   string
		Status     string
		CreatedAt  time.Time
	}
	if err := db.Model(&models.Demand{}).
		Select("id, member_name, plan_code, status, created_at").
		Order("created_at DESC, id DESC").
		Limit(10).
		Scan(&recent).Error; err != nil {
		return nil, domain.Store("dashboard recent demands", err)
	}
	data.RecentDemands = make([]DemandSummary, len(recent))
	for i, d := range recent {
		data.RecentDemands[i] = DemandSummary{
			ID:         d.ID,
			MemberName: d.MemberName,
			PlanCode:   d.PlanCode,
			Status:     domain.DemandStatus(d.Status),
			CreatedAt:  d.CreatedAt,
		}
	}

	// Top officers, from the audit trail
	var officers []struct {
		OfficerID uint
		Username  string
		Accepted  int64
		Rejected  int64
		Converted int64
	}
	if err := db.Table("demand_histories").
		Select(`
			demand_histories.actor_id as officer_id,
			users.username,
			SUM(CASE WHEN demand_histories.action = ? THEN 1 ELSE 0 END) as accepted,
			SUM(CASE WHEN demand_histories.action = ? THEN 1 ELSE 0 END) as rejected,
			SUM(CASE WHEN demand_histories.action = ? THEN 1 ELSE 0 END) as converted
		`, string(domain.ActionAccept), string(domain.ActionReject), string(domain.ActionConvert)).
		Joins("LEFT JOIN users ON demand_histories.actor_id = users.id").
		Where("demand_histories.action IN ?", []string{
			string(domain.ActionAccept), string(domain.ActionReject), string(domain.ActionConvert),
		}).
		Group("demand_histories.actor_id, users.username").
		Order("COUNT(*) DESC").
		Limit(5).
		Scan(&officers).Error; err != nil {
		return nil, domain.Store("dashboard officers", err)
	}
	data.TopOfficers = make([]OfficerStats, len(officers))
	for i, o := range officers {
		data.TopOfficers[i] = OfficerStats(o)
	}

	return data, nil
}
