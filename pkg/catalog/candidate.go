package catalog

import (
	"fmt"
	"strconv"
)

// Kind tells real M-dwarf TCEs apart from injected synthetic ones.
type Kind int

const (
	Real Kind = iota
	Synthetic
)

func (k Kind) String() string {
	switch k {
	case Real:
		return "real"
	case Synthetic:
		return "synthetic"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Column names used by both catalogs.
const (
	ColKepID        = "kepid"
	ColMidTime      = "userxmid"
	ColStart        = "userxmin"
	ColEnd          = "userxmax"
	ColDataLocation = "datalocation"
	ColFits         = "fits"
	ColSyntheticID  = "syntheticid"
	ColTCEID        = "tceid"
)

// Candidate is one TCE row. Times are in the light-curve time unit (days).
type Candidate struct {
	Row          int // index in the sorted table
	Kind         Kind
	KepID        int64
	MidTime      float64
	Start        float64
	End          float64
	DataLocation string
	FitsPath     string // real only
	SyntheticID  string // synthetic only
	TCEID        int    // assigned during processing
}

// Candidates extracts the rows of t in their current order.
func Candidates(t *Table, kind Kind) ([]Candidate, error) {
	out := make([]Candidate, 0, t.Len())
	for r := range t.Rows {
		c := Candidate{Row: r, Kind: kind}
		var err error
		if c.KepID, err = t.Int(r, ColKepID); err != nil {
			return nil, err
		}
		if c.MidTime, err = t.Float(r, ColMidTime); err != nil {
			return nil, err
		}
		if c.Start, err = t.Float(r, ColStart); err != nil {
			return nil, err
		}
		if c.End, err = t.Float(r, ColEnd); err != nil {
			return nil, err
		}
		if c.DataLocation, err = t.String(r, ColDataLocation); err != nil {
			return nil, err
		}
		switch kind {
		case Real:
			if c.FitsPath, err = t.String(r, ColFits); err != nil {
				return nil, err
			}
		case Synthetic:
			// numeric, so "0007" names synthetic_7.fits
			id, err := t.Int(r, ColSyntheticID)
			if err != nil {
				return nil, err
			}
			c.SyntheticID = strconv.FormatInt(id, 10)
		}
		out = append(out, c)
	}
	return out, nil
}

// Load reads a catalog, orders it by target and then midtime, and extracts
// its candidates. The returned table keeps the sorted row order.
func Load(path string, kind Kind) (*Table, []Candidate, error) {
	t, err := Read(path)
	if err != nil {
		return nil, nil, err
	}
	if err := t.SortBy(ColMidTime, ColKepID); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	cands, err := Candidates(t, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, cands, nil
}
