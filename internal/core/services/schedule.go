package services

import (
	"time"

	"emergency-fund/internal/core/domain"

	"github.com/shopspring/decimal"
)

// DaysPerMonth is the flat divisor used for the daily rate. Real month
// lengths are ignored, so a daily schedule spans duration*30 calendar days.
const DaysPerMonth = 30

// MaxScheduleMonths bounds the duration accepted by the calculator
const MaxScheduleMonths = 120

var daysPerMonth = decimal.NewFromInt(DaysPerMonth)

// ScheduleInput is everything the calculator needs
type ScheduleInput struct {
	AmountPerMonth decimal.Decimal
	DurationMonths int
	Frequency      domain.PaymentFrequency
	StartDate      time.Time
}

// ScheduleInputFromPlan builds the input from a plan snapshot
func ScheduleInputFromPlan(plan domain.PlanSnapshot, freq domain.PaymentFrequency, start time.Time) ScheduleInput {
	return ScheduleInput{
		AmountPerMonth: plan.AmountPerMonth,
		DurationMonths: plan.DurationMonths,
		Frequency:      freq,
		StartDate:      start,
	}
}

// Validate checks the calculator preconditions
func (in ScheduleInput) Validate() error {
	if !in.AmountPerMonth.IsPositive() {
		return domain.Invalid("amount_per_month", "must be greater than 0")
	}
	if in.DurationMonths < 1 || in.DurationMonths > MaxScheduleMonths {
		return domain.Invalid("duration_months", "must be between 1 and %d", MaxScheduleMonths)
	}
	if !in.Frequency.Valid() {
		return domain.Invalid("payment_frequency", "must be DAILY or MONTHLY")
	}
	if in.StartDate.IsZero() {
		return domain.Invalid("start_date", "is required")
	}
	return nil
}

// DailyRate is the monthly amount over 30 days, rounded half-up to cents
func DailyRate(amountPerMonth decimal.Decimal) decimal.Decimal {
	return amountPerMonth.DivRound(daysPerMonth, 2)
}

// CalculateSchedule derives the itemized plan. It is pure and deterministic.
func CalculateSchedule(in ScheduleInput) (*domain.Schedule, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	start := truncateDay(in.StartDate)
	var schedule *domain.Schedule
	if in.Frequency == domain.FrequencyDaily {
		schedule = dailySchedule(in.AmountPerMonth, in.DurationMonths, start)
	} else {
		schedule = monthlySchedule(in.AmountPerMonth, in.DurationMonths, start)
	}

	schedule.Frequency = in.Frequency
	schedule.TotalMonths = in.DurationMonths
	for _, item := range schedule.Items {
		schedule.TotalPayments += item.PaymentCount
	}
	if n := len(schedule.Items); n > 0 {
		schedule.TotalAmount = schedule.Items[n-1].Cumulative
	}
	return schedule, nil
}

func monthlySchedule(amount decimal.Decimal, months int, start time.Time) *domain.Schedule {
	items := make([]domain.ScheduleItem, 0, months)
	cumulative := decimal.Zero
	for i := 0; i < months; i++ {
		cumulative = cumulative.Add(amount)
		items = append(items, domain.ScheduleItem{
			Period:       i + 1,
			Date:         AddMonths(start, i),
			Amount:       amount,
			Cumulative:   cumulative,
			PaymentCount: 1,
		})
	}
	return &domain.Schedule{Items: items}
}

// dailySchedule walks day by day and closes a bucket whenever the
// day-of-month resets to 1.
func dailySchedule(amount decimal.Decimal, months int, start time.Time) *domain.Schedule {
	rate := DailyRate(amount)
	days := months * DaysPerMonth

	var items []domain.ScheduleItem
	cumulative := decimal.Zero
	bucketStart := start
	bucketAmount := decimal.Zero
	bucketDays := 0

	flush := func() {
		cumulative = cumulative.Add(bucketAmount)
		items = append(items, domain.ScheduleItem{
			Period:       len(items) + 1,
			Date:         bucketStart,
			Amount:       bucketAmount,
			Cumulative:   cumulative,
			PaymentCount: bucketDays,
		})
	}

	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		if i > 0 && day.Day() == 1 {
			flush()
			bucketStart = day
			bucketAmount = decimal.Zero
			bucketDays = 0
		}
		bucketAmount = bucketAmount.Add(rate)
		bucketDays++
	}
	if bucketDays > 0 {
		flush()
	}

	return &domain.Schedule{Items: items, DailyRate: &rate}
}

// AddMonths adds n calendar months, clamping to the last day of the target
// month (Jan 31 + 1 month = Feb 28).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
