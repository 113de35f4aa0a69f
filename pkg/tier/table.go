package tier

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Unlimited disables a quota cap (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// RateLimit is a fixed-window allowance: Limit requests per Window.
type RateLimit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Quotas are durable, longer-horizon caps checked against persisted counts.
type Quotas struct {
	MaxForms               int64 `yaml:"max_forms"`
	MaxSubmissionsPerMonth int64 `yaml:"max_submissions_per_month"`
	// MaxSubmissionsPerForm caps both accepted submissions on one form and how many
	// of them the owner may view.
	MaxSubmissionsPerForm int64 `yaml:"max_submissions_per_form"`
}

// Limits is the limit table of a single tier.
type Limits struct {
	RateLimits map[Resource]RateLimit `yaml:"rate_limits"`
	Quotas     Quotas                 `yaml:"quotas"`
}

// RateLimit returns the rate limit configured for res.
func (l Limits) RateLimit(res Resource) (RateLimit, bool) {
	rl, ok := l.RateLimits[res]
	return rl, ok
}

// Table maps every tier to its limits.
type Table map[Tier]Limits

// DefaultTable returns the compiled-in limit table.
func DefaultTable() Table {
	return Table{
		Free: {
			RateLimits: map[Resource]RateLimit{
				ResourceSubmission:   {Limit: 10, Window: time.Minute},
				ResourceAPI:          {Limit: 60, Window: time.Minute},
				ResourceFormCreation: {Limit: 5, Window: time.Hour},
			},
			Quotas: Quotas{MaxForms: 3, MaxSubmissionsPerMonth: 100, MaxSubmissionsPerForm: 50},
		},
		Starter: {
			RateLimits: map[Resource]RateLimit{
				ResourceSubmission:   {Limit: 30, Window: time.Minute},
				ResourceAPI:          {Limit: 300, Window: time.Minute},
				ResourceFormCreation: {Limit: 20, Window: time.Hour},
			},
			Quotas: Quotas{MaxForms: 10, MaxSubmissionsPerMonth: 1000, MaxSubmissionsPerForm: 500},
		},
		Pro: {
			RateLimits: map[Resource]RateLimit{
				ResourceSubmission:   {Limit: 100, Window: time.Minute},
				ResourceAPI:          {Limit: 1000, Window: time.Minute},
				ResourceFormCreation: {Limit: 50, Window: time.Hour},
			},
			Quotas: Quotas{MaxForms: 50, MaxSubmissionsPerMonth: 10000, MaxSubmissionsPerForm: 5000},
		},
		Enterprise: {
			RateLimits: map[Resource]RateLimit{
				ResourceSubmission:   {Limit: 500, Window: time.Minute},
				ResourceAPI:          {Limit: 5000, Window: time.Minute},
				ResourceFormCreation: {Limit: 200, Window: time.Hour},
			},
			Quotas: Quotas{MaxForms: Unlimited, MaxSubmissionsPerMonth: Unlimited, MaxSubmissionsPerForm: Unlimited},
		},
	}
}

// Limits returns the limits of t. Unknown tiers get the free tier limits so a bad
// profile value can never grant more than the most restricted plan.
func (tb Table) Limits(t Tier) Limits {
	if l, ok := tb[t]; ok {
		return l
	}
	return tb[Free]
}

// RateLimit returns the rate limit for res on tier t.
func (tb Table) RateLimit(t Tier, res Resource) (RateLimit, error) {
	rl, ok := tb.Limits(t).RateLimit(res)
	if !ok {
		return RateLimit{}, fmt.Errorf("%w: %s on tier %s", ErrUnknownResource, res, t)
	}
	return rl, nil
}

// Validate checks that every known tier is present with sane values.
func (tb Table) Validate() error {
	for _, t := range All {
		l, ok := tb[t]
		if !ok {
			return errors.Join(ErrInvalidTable, fmt.Errorf("tier %s is missing", t))
		}
		for _, res := range Resources {
			rl, ok := l.RateLimits[res]
			if !ok {
				return errors.Join(ErrInvalidTable, fmt.Errorf("tier %s has no %s rate limit", t, res))
			}
			if rl.Limit <= 0 {
				return errors.Join(ErrInvalidTable, fmt.Errorf("tier %s: %s limit must be positive, got %d", t, res, rl.Limit))
			}
			if rl.Window < time.Millisecond {
				return errors.Join(ErrInvalidTable, fmt.Errorf("tier %s: %s window must be at least 1ms, got %v", t, res, rl.Window))
			}
		}
		q := l.Quotas
		for name, v := range map[string]int64{
			"max_forms":                 q.MaxForms,
			"max_submissions_per_month": q.MaxSubmissionsPerMonth,
			"max_submissions_per_form":  q.MaxSubmissionsPerForm,
		} {
			if v < Unlimited {
				return errors.Join(ErrInvalidTable, fmt.Errorf("tier %s: %s must be >= -1, got %d", t, name, v))
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the table.
func (tb Table) Clone() Table {
	out := make(Table, len(tb))
	for t, l := range tb {
		out[t] = Limits{RateLimits: maps.Clone(l.RateLimits), Quotas: l.Quotas}
	}
	return out
}

// LoadTable decodes a YAML table and overlays it on the defaults. Tiers present in the
// document replace the default entry for that tier as a whole.
func LoadTable(r io.Reader) (Table, error) {
	var doc map[string]Limits
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrFailedToLoad, err)
	}

	table := DefaultTable()
	for name, l := range doc {
		t, err := ParseTier(name)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoad, err)
		}
		table[t] = l
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadTableFile reads a table from path. An empty path yields DefaultTable.
func LoadTableFile(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoad, err)
	}
	defer f.Close()

	return LoadTable(f)
}
