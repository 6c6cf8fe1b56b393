package services

import (
	"context"
	"testing"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_GetDashboard(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.User{
		ID:       officerID,
		Username: "officer",
		Email:    "officer@example.org",
		Password: "x",
		Role:     string(domain.RoleOfficer),
	}).Error)

	env.demandIn(t, domain.StatusPending)
	env.demandIn(t, domain.StatusApproved)
	env.demandIn(t, domain.StatusRejected)
	env.demandIn(t, domain.StatusConverted)

	data, err := NewDashboardService(env.db, env.clock).GetDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), data.TotalDemands)
	assert.Equal(t, int64(1), data.Demands[domain.StatusPending])
	assert.Equal(t, int64(1), data.Demands[domain.StatusApproved])
	assert.Equal(t, int64(1), data.Demands[domain.StatusRejected])
	assert.Equal(t, int64(1), data.Demands[domain.StatusConverted])
	assert.Equal(t, int64(0), data.Demands[domain.StatusReopened])
	assert.Equal(t, int64(4), data.DemandsThisMonth)

	assert.Equal(t, int64(1), data.ActiveContracts)
	assert.True(t, data.CommittedNominal.Equal(decimal.NewFromInt(150000)), data.CommittedNominal.String())

	require.Len(t, data.Plans, 1)
	assert.Equal(t, PlanStats{PlanCode: "CI-3", Demands: 4, Contracts: 1}, data.Plans[0])

	assert.Len(t, data.RecentDemands, 4)
	assert.Equal(t, "Awa Diallo", data.RecentDemands[0].MemberName)

	require.Len(t, data.TopOfficers, 1)
	assert.Equal(t, OfficerStats{OfficerID: officerID, Username: "officer", Accepted: 2, Rejected: 1, Converted: 1}, data.TopOfficers[0])
}

func TestDashboardService_Empty(t *testing.T) {
	env := newTestEnv(t)

	data, err := NewDashboardService(env.db, env.clock).GetDashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, data.TotalDemands)
	assert.True(t, data.CommittedNominal.IsZero())
	assert.Empty(t, data.Plans)
	assert.Empty(t, data.TopOfficers)
}
