package tier

import (
	"fmt"
	"strings"
)

// Tier is a named subscription level controlling resource limits.
type Tier string

const (
	Free       Tier = "free"
	Starter    Tier = "starter"
	Pro        Tier = "pro"
	Enterprise Tier = "enterprise"
)

// All lists every tier from the most to the least restricted.
var All = []Tier{Free, Starter, Pro, Enterprise}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case Free, Starter, Pro, Enterprise:
		return true
	}
	return false
}

func (t Tier) String() string { return string(t) }

// Title returns a human-readable tier name for user-facing messages.
func (t Tier) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// ParseTier converts a stored or configured tier name into a Tier.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// Resource names a rate limited resource type. Each resource has its own window and
// limit per tier.
type Resource string

const (
	// ResourceSubmission is keyed by client IP.
	ResourceSubmission Resource = "submission"
	// ResourceAPI is keyed by account id.
	ResourceAPI Resource = "api"
	// ResourceFormCreation is keyed by account id.
	ResourceFormCreation Resource = "form_creation"
)

// Resources lists every rate limited resource.
var Resources = []Resource{ResourceSubmission, ResourceAPI, ResourceFormCreation}

func (r Resource) Valid() bool {
	switch r {
	case ResourceSubmission, ResourceAPI, ResourceFormCreation:
		return true
	}
	return false
}

func (r Resource) String() string { return string(r) }
