package riskhunt

import "slices"

// ZoneSet is the ordered zone list of one image. Order is the tie-break for
// overlapping zones: the first match wins.
type ZoneSet []RiskZone

// Clone returns an independent copy. Shapes are immutable values, so a
// shallow element copy is a deep copy.
func (zs ZoneSet) Clone() ZoneSet {
	if zs == nil {
		return ZoneSet{}
	}
	return slices.Clone(zs)
}

// FindContaining returns the first zone whose shape contains the point.
// Editor hover/select and click scoring both go through here.
func (zs ZoneSet) FindContaining(x, y float64) (RiskZone, bool) {
	for _, z := range zs {
		if z.Contains(x, y) {
			return z, true
		}
	}
	return RiskZone{}, false
}

func (zs ZoneSet) Index(id string) int {
	return slices.IndexFunc(zs, func(z RiskZone) bool { return z.ID == id })
}

func (zs ZoneSet) Get(id string) (RiskZone, bool) {
	i := zs.Index(id)
	if i < 0 {
		return RiskZone{}, false
	}
	return zs[i], true
}

func (zs ZoneSet) Equal(other ZoneSet) bool {
	return slices.Equal(zs, other)
}

// Validate checks every zone and rejects duplicate or empty ids.
func (zs ZoneSet) Validate() error {
	seen := make(map[string]struct{}, len(zs))
	for _, z := range zs {
		if z.ID == "" {
			return wrapValidation("zone id is required")
		}
		if _, dup := seen[z.ID]; dup {
			return wrapValidation("duplicate zone id " + z.ID)
		}
		seen[z.ID] = struct{}{}
		if err := z.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (zs ZoneSet) TotalPoints() int {
	total := 0
	for _, z := range zs {
		total += z.Points
	}
	return total
}
