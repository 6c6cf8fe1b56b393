package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/adapters/persistence/repositories"
	"emergency-fund/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	officerID   uint = 7
	validCause       = "Hospitalisation after a road accident"
	validReason      = "Documents verified by the committee"
)

// stepClock is a settable clock for deterministic identifiers
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	db          *gorm.DB
	demands     *repositories.DemandRepository
	contracts   *repositories.ContractRepository
	members     *repositories.MemberRepository
	plans       *repositories.PlanRepository
	clock       *stepClock
	events      *recordingPublisher
	engine      *DemandLifecycleEngine
	coordinator *ConversionCoordinator
	service     *DemandService
	member      *domain.Member
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a second connection would open a different in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	env := &testEnv{
		db:        db,
		demands:   repositories.NewDemandRepository(db),
		contracts: repositories.NewContractRepository(db),
		members:   repositories.NewMemberRepository(db),
		plans:     repositories.NewPlanRepository(db),
		clock:     &stepClock{t: time.Date(2026, 1, 27, 22, 19, 0, 0, time.UTC)},
		events:    &recordingPublisher{},
	}

	ids := NewIDFormatter("", "", time.UTC)
	env.engine = NewDemandLifecycleEngine(env.demands, env.contracts, ids, nil, env.clock, env.events)
	env.coordinator = NewConversionCoordinator(env.engine)
	env.service = NewDemandService(env.engine, env.coordinator, env.members, env.plans)

	ctx := context.Background()
	row := &models.Member{
		Matricule: "8438.MK.160126",
		FirstName: "Awa",
		LastName:  "Diallo",
		Phone:     "+221770000000",
		Email:     "awa@example.org",
		IsActive:  true,
	}
	require.NoError(t, env.members.Create(ctx, row))
	member, err := env.members.GetByID(ctx, row.ID)
	require.NoError(t, err)
	env.member = member

	require.NoError(t, env.plans.Create(ctx, &domain.SubscriptionPlan{
		Code:           "CI-3",
		Label:          "Cotisation 3",
		AmountPerMonth: decimal.NewFromInt(50000),
		DurationMonths: 3,
		IsActive:       true,
	}))
	return env
}

func createInput(memberID uint) *CreateDemandInput {
	return &CreateDemandInput{
		MemberID:         memberID,
		Cause:            validCause,
		PlanCode:         "CI-3",
		PaymentFrequency: string(domain.FrequencyMonthly),
		DesiredStartDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		EmergencyContact: domain.EmergencyContact{
			Name:         "Moussa Diallo",
			Phone:        "+221771111111",
			Relationship: "Brother",
			IDDocument:   "CNI 1 234 5678",
		},
	}
}

func (env *testEnv) create(t *testing.T) *domain.Demand {
	t.Helper()
	demand, err := env.service.Create(context.Background(), createInput(env.member.ID), officerID)
	require.NoError(t, err)
	return demand
}

// demandIn drives a fresh demand into status through the public actions
func (env *testEnv) demandIn(t *testing.T, status domain.DemandStatus) *domain.Demand {
	t.Helper()
	ctx := context.Background()
	d := env.create(t)

	var err error
	switch status {
	case domain.StatusPending:
	case domain.StatusApproved:
		d, err = env.service.Accept(ctx, d.ID, validReason, officerID)
	case domain.StatusRejected:
		d, err = env.service.Reject(ctx, d.ID, validReason, officerID)
	case domain.StatusReopened:
		d, err = env.service.Reject(ctx, d.ID, validReason, officerID)
		require.NoError(t, err)
		d, err = env.service.Reopen(ctx, d.ID, "", officerID)
	case domain.StatusConverted:
		d, err = env.service.Accept(ctx, d.ID, validReason, officerID)
		require.NoError(t, err)
		var res *ConversionResult
		res, err = env.service.Convert(ctx, d.ID, nil, officerID)
		if err == nil {
			d = res.Demand
		}
	default:
		t.Fatalf("unknown status %s", status)
	}
	require.NoError(t, err)
	require.Equal(t, status, d.Status)
	return d
}

func (env *testEnv) addPayment(t *testing.T, contractID string) {
	t.Helper()
	require.NoError(t, env.db.Create(&models.ContractPayment{
		ContractID: contractID,
		Amount:     decimal.NewFromInt(50000),
		PaidAt:     env.clock.Now(),
	}).Error)
}

func repeat(n int) string {
	return strings.Repeat("a", n)
}
