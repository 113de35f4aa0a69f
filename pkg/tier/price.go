package tier

// PriceMap maps billing provider price ids to tiers.
type PriceMap map[string]Tier

// NewPriceMap builds a PriceMap, skipping empty price ids.
func NewPriceMap(starter, pro, enterprise string) PriceMap {
	m := make(PriceMap, 3)
	for id, t := range map[string]Tier{starter: Starter, pro: Pro, enterprise: Enterprise} {
		if id != "" {
			m[id] = t
		}
	}
	return m
}

// TierFor returns the tier sold under priceID.
func (m PriceMap) TierFor(priceID string) (Tier, bool) {
	t, ok := m[priceID]
	return t, ok
}
