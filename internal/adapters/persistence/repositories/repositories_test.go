package repositories

import (
	"context"
	"testing"
	"time"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var baseTime = time.Date(2026, 1, 27, 22, 19, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newDemand(id string, status domain.DemandStatus, createdAt time.Time) *domain.Demand {
	return &domain.Demand{
		ID:       id,
		MemberID: 1,
		Member:   domain.MemberSnapshot{Name: "Awa Diallo", Matricule: "8438.MK.160126"},
		Cause:    "Hospitalisation after a road accident",
		Plan: domain.PlanSnapshot{
			Code:           "CI-3",
			Label:          "Cotisation 3",
			AmountPerMonth: decimal.NewFromInt(50000),
			DurationMonths: 3,
		},
		PaymentFrequency: domain.FrequencyMonthly,
		DesiredStartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EmergencyContact: domain.EmergencyContact{Name: "Moussa", Phone: "+221", Relationship: "Brother", IDDocument: "CNI"},
		Status:           status,
		Priority:         status.Priority(),
		Trace:            domain.Traceability{Created: &domain.Stamp{By: 7, At: createdAt}},
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestDemandRepository_CreateAndGet(t *testing.T) {
	repo := NewDemandRepository(newTestDB(t))
	ctx := context.Background()

	nominal := decimal.NewFromInt(60000)
	d := newDemand("PREFIX_8438_270126_2219", domain.StatusPending, baseTime)
	d.Plan.Nominal = &nominal

	created, err := repo.Create(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, d.ID, created.ID)

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, "Awa Diallo", got.Member.Name)
	assert.Equal(t, "CNI", got.EmergencyContact.IDDocument)
	assert.True(t, got.Plan.AmountPerMonth.Equal(decimal.NewFromInt(50000)))
	require.NotNil(t, got.Plan.Nominal)
	assert.True(t, got.Plan.Nominal.Equal(nominal))
	assert.Nil(t, got.Plan.SupportMin)
	assert.Equal(t, "2026-02-01", got.DesiredStartDate.Format("2006-01-02"))
	require.NotNil(t, got.Trace.Created)
	assert.Equal(t, uint(7), got.Trace.Created.By)
	assert.Nil(t, got.Trace.Accepted)
}

func TestDemandRepository_DuplicateID(t *testing.T) {
	repo := NewDemandRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, newDemand("PREFIX_8438_270126_2219", domain.StatusPending, baseTime))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newDemand("PREFIX_8438_270126_2219", domain.StatusPending, baseTime))
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestDemandRepository_GetMissing(t *testing.T) {
	repo := NewDemandRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "nope")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "demand", notFound.Entity)
}

func TestDemandRepository_SetStatusPrecondition(t *testing.T) {
	repo := NewDemandRepository(newTestDB(t))
	ctx := context.Background()
	id := "PREFIX_8438_270126_2219"
	_, err := repo.Create(ctx, newDemand(id, domain.StatusPending, baseTime))
	require.NoError(t, err)

	reason := "Documents verified by the committee"
	at := baseTime.Add(time.Hour)
	approved, err := repo.SetStatus(ctx, id, domain.StatusChange{
		Action:         domain.ActionAccept,
		From:           domain.StatusPending,
		To:             domain.StatusApproved,
		DecisionReason: &reason,
		ActorID:        9,
		At:             at,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.Equal(t, 2, approved.Priority)
	assert.Equal(t, reason, approved.DecisionReason)
	require.NotNil(t, approved.Trace.Accepted)
	assert.Equal(t, uint(9), approved.Trace.Accepted.By)

	// the same write again no longer matches the stored status
	_, err = repo.SetStatus(ctx, id, domain.StatusChange{
		Action: domain.ActionAccept,
		From:   domain.StatusPending,
		To:     domain.StatusApproved,
		At:     at,
	})
	assert.ErrorIs(t, err, domain.ErrStaleWrite)

	_, err = repo.SetStatus(ctx, "missing", domain.StatusChange{From: domain.StatusPending, To: domain.StatusApproved})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDemandRepository_LinkContractOnlyOnce(t *testing.T) {
	repo := NewDemandRepository(newTestDB(t))
	ctx := context.Background()
	id := "PREFIX_8438_270126_2219"
	_, err := repo.Create(ctx, newDemand(id, domain.StatusApproved, baseTime))
	require.NoError(t, err)

	link := func(contractID string) error {
		_, err := repo.SetStatus(ctx, id, domain.StatusChange{
			Action:       domain.ActionConvert,
			From:         domain.StatusApproved,
			To:           domain.StatusConverted,
			LinkContract: &contractID,
			ActorID:      7,
			At:           baseTime,
		})
		return err
	}
	require.NoError(t, link("CONTRACT_A"))
	assert.ErrorIs(t, link("CONTRACT_B"), domain.ErrStaleWrite)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "CONTRACT_A", *got.ContractID)
	require.NotNil(t, got.Trace.Converted)

	rolledBack, err := repo.SetStatus(ctx, id, domain.StatusChange{
		Action:        domain.ActionRollback,
		From:          domain.StatusConverted,
		To:            domain.StatusApproved,
		ClearContract: true,
		At:            baseTime,
	})
	require.NoError(t, err)
	assert.Nil(t, rolledBack.ContractID)
	assert.Equal(t, domain.StatusApproved, rolledBack.Status)
	require.NotNil(t, rolledBack.Trace.Converted)
	assert.Equal(t, got.Trace.Converted.By, rolledBack.Trace.Converted.By)
}

func TestDemandRepository_QueryPageStableOrder(t *testing.T) {
	repo := NewDemandRepository(newTestDB(t))
	ctx := context.Background()

	// equal priority and creation time, only the id breaks the tie
	for _, id := range []string{"D_B", "D_A", "D_C"} {
		_, err := repo.Create(ctx, newDemand(id, domain.StatusPending, baseTime))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newDemand("D_OLD", domain.StatusPending, baseTime.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newDemand("D_APPROVED", domain.StatusApproved, baseTime.Add(time.Hour)))
	require.NoError(t, err)

	var ids []string
	for page := 1; page <= 3; page++ {
		res, err := repo.QueryPage(ctx, domain.DemandFilter{}, domain.PageRequest{Page: page, Limit: 2}, domain.SortPriority)
		require.NoError(t, err)
		assert.Equal(t, int64(5), res.Total)
		assert.Equal(t, 3, res.TotalPages)
		for _, d := range res.Items {
			ids = append(ids, d.ID)
		}
	}
	assert.Equal(t, []string{"D_C", "D_B", "D_A", "D_OLD", "D_APPROVED"}, ids)

	res, err := repo.QueryPage(ctx, domain.DemandFilter{}, domain.PageRequest{Page: 1, Limit: 10}, domain.SortCreatedAsc)
	require.NoError(t, err)
	assert.Equal(t, "D_OLD", res.Items[0].ID)
	assert.Equal(t, "D_APPROVED", res.Items[4].ID)
}

func TestDemandRepository_FiltersAndCounts(t *testing.T) {
	repo := NewDemandRepository(newTestDB(t))
	ctx := context.Background()

	other := newDemand("D_OTHER", domain.StatusRejected, baseTime)
	other.MemberID = 2
	other.Member.Name = "Cheikh Ndiaye"
	for _, d := range []*domain.Demand{
		newDemand("D_1", domain.StatusPending, baseTime),
		newDemand("D_2", domain.StatusPending, baseTime),
		other,
	} {
		_, err := repo.Create(ctx, d)
		require.NoError(t, err)
	}

	member := uint(2)
	res, err := repo.QueryPage(ctx, domain.DemandFilter{MemberID: &member}, domain.PageRequest{Page: 1, Limit: 10}, domain.SortCreatedDesc)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "D_OTHER", res.Items[0].ID)

	res, err = repo.QueryPage(ctx, domain.DemandFilter{Search: "ndiaye"}, domain.PageRequest{Page: 1, Limit: 10}, domain.SortCreatedDesc)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	counts, err := repo.CountByStatus(ctx, domain.DemandFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.StatusPending])
	assert.Equal(t, int64(1), counts[domain.StatusRejected])
	assert.Equal(t, int64(0), counts[domain.StatusReopened])
}

func TestDemandRepository_DeleteKeepsIdentifierReserved(t *testing.T) {
	repo := NewDemandRepository(newTestDB(t))
	ctx := context.Background()
	base := "PREFIX_8438_270126_2219"

	for _, id := range []string{base, base + "_2"} {
		_, err := repo.Create(ctx, newDemand(id, domain.StatusPending, baseTime))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newDemand("PREFIX_8438_270126_2220", domain.StatusPending, baseTime))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, base, 7, baseTime))
	_, err = repo.GetByID(ctx, base)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, base, 7, baseTime), domain.ErrNotFound)

	n, err := repo.CountIDsWithBase(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDemandRepository_History(t *testing.T) {
	repo := NewDemandRepository(newTestDB(t))
	ctx := context.Background()

	entries := []*domain.HistoryEntry{
		{DemandID: "D_1", Action: domain.ActionCreate, ToStatus: domain.StatusPending, ActorID: 7, CreatedAt: baseTime},
		{DemandID: "D_1", Action: domain.ActionUpdate, FromStatus: domain.StatusPending, ToStatus: domain.StatusPending,
			Changes: map[string]any{"cause": "Updated cause text"}, ActorID: 7, CreatedAt: baseTime.Add(time.Minute)},
		{DemandID: "D_2", Action: domain.ActionCreate, ToStatus: domain.StatusPending, ActorID: 7, CreatedAt: baseTime},
	}
	for _, e := range entries {
		require.NoError(t, repo.AppendHistory(ctx, e))
		assert.NotZero(t, e.ID)
	}

	history, err := repo.History(ctx, "D_1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ActionCreate, history[0].Action)
	assert.Equal(t, domain.ActionUpdate, history[1].Action)
	assert.Equal(t, "Updated cause text", history[1].Changes["cause"])
}

func newContract(id, demandID string) *domain.Contract {
	return &domain.Contract{
		ID:               id,
		DemandID:         &demandID,
		MemberID:         1,
		Plan:             domain.PlanSnapshot{Code: "CI-3", AmountPerMonth: decimal.NewFromInt(50000), DurationMonths: 3},
		Nominal:          decimal.NewFromInt(150000),
		PaymentFrequency: domain.FrequencyMonthly,
		FirstPaymentDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:           domain.ContractActive,
		CreatedBy:        7,
		CreatedAt:        baseTime,
	}
}

func TestContractRepository_OneContractPerDemand(t *testing.T) {
	repo := NewContractRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newContract("C_1", "D_1")))
	assert.ErrorIs(t, repo.Create(ctx, newContract("C_2", "D_1")), domain.ErrDuplicateID)

	found, err := repo.FindByDemand(ctx, "D_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "C_1", found.ID)
	assert.True(t, found.Nominal.Equal(decimal.NewFromInt(150000)))

	none, err := repo.FindByDemand(ctx, "D_2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestContractRepository_ActivityAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewContractRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newContract("C_1", "D_1")))

	activity, err := repo.Activity(ctx, "C_1")
	require.NoError(t, err)
	assert.True(t, activity.Empty())

	require.NoError(t, db.Create(&models.SupportHistory{ContractID: "C_1", Amount: decimal.NewFromInt(10000)}).Error)
	require.NoError(t, db.Create(&models.EarlyRefund{ContractID: "C_1", Amount: decimal.NewFromInt(5000), RefundedAt: baseTime}).Error)
	activity, err = repo.Activity(ctx, "C_1")
	require.NoError(t, err)
	assert.Equal(t, domain.ContractActivity{SupportItems: 1, EarlyRefunds: 1}, activity)

	_, err = repo.Activity(ctx, "C_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, db.Create(&models.ContractDocument{ContractID: "C_1", FileName: "contract.pdf"}).Error)
	n, err := repo.DeleteDocuments(ctx, "C_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Delete(ctx, "C_1"))
	assert.ErrorIs(t, repo.Delete(ctx, "C_1"), domain.ErrNotFound)
}

func TestContractRepository_ListUnlinked(t *testing.T) {
	db := newTestDB(t)
	demands := NewDemandRepository(db)
	contracts := NewContractRepository(db)
	ctx := context.Background()

	linkedID := "C_LINKED"
	linked := newDemand("D_LINKED", domain.StatusConverted, baseTime)
	linked.ContractID = &linkedID
	for _, d := range []*domain.Demand{linked, newDemand("D_ORPHAN", domain.StatusApproved, baseTime)} {
		_, err := demands.Create(ctx, d)
		require.NoError(t, err)
	}
	require.NoError(t, contracts.Create(ctx, newContract("C_LINKED", "D_LINKED")))
	require.NoError(t, contracts.Create(ctx, newContract("C_ORPHAN", "D_ORPHAN")))
	// no live demand, not reconcilable
	require.NoError(t, contracts.Create(ctx, newContract("C_GONE", "D_GONE")))

	unlinked, err := contracts.ListUnlinked(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unlinked, 1)
	assert.Equal(t, "C_ORPHAN", unlinked[0].ID)
}

func TestPlanRepository_UpsertAndList(t *testing.T) {
	repo := NewPlanRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.SubscriptionPlan{
		Code: "CI-2", Label: "Cotisation 2", AmountPerMonth: decimal.NewFromInt(2500), DurationMonths: 12, IsActive: true,
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.SubscriptionPlan{
		Code: "CI-1", Label: "Cotisation 1", AmountPerMonth: decimal.NewFromInt(1000), DurationMonths: 12, IsActive: true,
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.SubscriptionPlan{
		Code: "CI-OLD", Label: "Retired", AmountPerMonth: decimal.NewFromInt(500), DurationMonths: 6, IsActive: false,
	}))

	// refreshing an existing code updates it in place
	require.NoError(t, repo.Upsert(ctx, &domain.SubscriptionPlan{
		Code: "CI-2", Label: "Cotisation 2 bis", AmountPerMonth: decimal.NewFromInt(3000), DurationMonths: 12, IsActive: true,
	}))

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "CI-1", active[0].Code)
	assert.Equal(t, "Cotisation 2 bis", active[1].Label)
	assert.True(t, active[1].AmountPerMonth.Equal(decimal.NewFromInt(3000)))

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	retired, err := repo.GetByCode(ctx, "CI-OLD")
	require.NoError(t, err)
	assert.False(t, retired.IsActive)

	err = repo.Create(ctx, &domain.SubscriptionPlan{Code: "CI-1", Label: "dup", AmountPerMonth: decimal.NewFromInt(1), DurationMonths: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = repo.GetByCode(ctx, "CI-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemberRepository(t *testing.T) {
	repo := NewMemberRepository(newTestDB(t))
	ctx := context.Background()

	for _, m := range []*models.Member{
		{Matricule: "8438.MK.160126", FirstName: "Awa", LastName: "Diallo", IsActive: true},
		{Matricule: "12-A", FirstName: "Cheikh", LastName: "Ndiaye", IsActive: true},
	} {
		require.NoError(t, repo.Create(ctx, m))
	}

	got, err := repo.GetByMatricule(ctx, "12-A")
	require.NoError(t, err)
	assert.Equal(t, "Cheikh Ndiaye", got.FullName())

	found, err := repo.Search(ctx, "diallo", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "8438.MK.160126", found[0].Matricule)

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_ListSearch(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	for _, u := range []*models.User{
		{Username: "admin", Email: "admin@fund.local", Password: "x", Role: "ADMIN", IsActive: true},
		{Username: "officer1", Email: "o1@fund.local", Password: "x", Role: "OFFICER", IsActive: true},
		{Username: "officer2", Email: "o2@fund.local", Password: "x", Role: "OFFICER", IsActive: true},
	} {
		require.NoError(t, repo.Create(ctx, u))
	}

	users, total, err := repo.List(ctx, "officer", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 1)
	assert.Equal(t, "officer1", users[0].Username)

	exists, err := repo.ExistsByEmail(ctx, "o2@fund.local")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, users[0].ID))
	_, total, err = repo.List(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
