package services

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Identifier prefixes used when none are configured
const (
	DefaultDemandPrefix   = "PREFIX"
	DefaultContractPrefix = "CONTRACT"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns T
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return c.T
}

// IDFormatter produces human-decodable identifiers:
// PREFIX_{4-digit code}_{DDMMYY}_{HHMM}
type IDFormatter struct {
	DemandPrefix   string
	ContractPrefix string
	Location       *time.Location
}

// NewIDFormatter creates a formatter, empty prefixes fall back to defaults
func NewIDFormatter(demandPrefix, contractPrefix string, loc *time.Location) *IDFormatter {
	if demandPrefix == "" {
		demandPrefix = DefaultDemandPrefix
	}
	if contractPrefix == "" {
		contractPrefix = DefaultContractPrefix
	}
	if loc == nil {
		loc = time.Local
	}
	return &IDFormatter{
		DemandPrefix:   demandPrefix,
		ContractPrefix: contractPrefix,
		Location:       loc,
	}
}

// DemandID formats the base identifier of a demand
func (f *IDFormatter) DemandID(matricule string, t time.Time) string {
	return f.format(f.DemandPrefix, MatriculeCode(matricule), t)
}

// ContractID formats the base identifier of a contract, keyed on the member id
func (f *IDFormatter) ContractID(memberID uint, t time.Time) string {
	return f.format(f.ContractPrefix, MatriculeCode(strconv.FormatUint(uint64(memberID), 10)), t)
}

func (f *IDFormatter) format(prefix, code string, t time.Time) string {
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	return prefix + "_" + code + "_" + t.In(loc).Format("020106_1504")
}

// MatriculeCode takes the leading run of digits of a matricule, keeps at most
// four and left-pads with zeros. "8438.MK.160126" -> "8438", "12-A" -> "0012".
func MatriculeCode(matricule string) string {
	var b strings.Builder
	started := false
	for _, r := range matricule {
		if unicode.IsDigit(r) {
			started = true
			b.WriteRune(r)
			if b.Len() == 4 {
				break
			}
			continue
		}
		if started {
			break
		}
	}
	code := b.String()
	if len(code) < 4 {
		code = strings.Repeat("0", 4-len(code)) + code
	}
	return code
}

// IDSequence hands out a 1-based counter per base identifier. The first
// caller of a minute gets 1 and keeps the bare identifier.
type IDSequence interface {
	Next(ctx context.Context, base string) (int, error)
}

// WithSequence appends the collision suffix when n > 1
func WithSequence(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "_" + strconv.Itoa(n)
}
