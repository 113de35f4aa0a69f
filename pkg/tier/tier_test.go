package tier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formgate/pkg/tier"
)

func TestParseTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    tier.Tier
		wantErr bool
	}{
		{in: "free", want: tier.Free},
		{in: "Starter", want: tier.Starter},
		{in: "  PRO ", want: tier.Pro},
		{in: "enterprise", want: tier.Enterprise},
		{in: "", wantErr: true},
		{in: "platinum", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := tier.ParseTier(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, tier.ErrUnknownTier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTier_Title(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Free", tier.Free.Title())
	assert.Equal(t, "Enterprise", tier.Enterprise.Title())
	assert.Equal(t, "", tier.Tier("").Title())
}

func TestPriceMap(t *testing.T) {
	t.Parallel()

	m := tier.NewPriceMap("pri_starter", "", "pri_ent")

	got, ok := m.TierFor("pri_starter")
	assert.True(t, ok)
	assert.Equal(t, tier.Starter, got)

	got, ok = m.TierFor("pri_ent")
	assert.True(t, ok)
	assert.Equal(t, tier.Enterprise, got)

	_, ok = m.TierFor("")
	assert.False(t, ok, "empty price ids must not map to a tier")
}
