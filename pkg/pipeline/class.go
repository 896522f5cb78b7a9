package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/japaniel/tcecutouts/pkg/catalog"
)

// Class is a family of TCEs sharing a catalog, a light-curve location and an
// output directory.
type Class interface {
	// Name is the output directory and catalog prefix, e.g. "mdwarfs".
	Name() string
	Kind() catalog.Kind
	// SourcePath resolves the FITS light curve of c.
	SourcePath(c catalog.Candidate) (string, error)
	// Quarter extracts the observing-quarter tag from c's data location.
	Quarter(c catalog.Candidate) string
	// Label is the figure title describing c.
	Label(c catalog.Candidate) string
}

// MDwarfs are real Kepler M-dwarf TCEs. Their light curves live under
// DataDir/<kepid dir>/<file>, taken from the last two segments of the
// catalog's fits path.
type MDwarfs struct {
	DataDir string
}

func (MDwarfs) Name() string       { return "mdwarfs" }
func (MDwarfs) Kind() catalog.Kind { return catalog.Real }

func (m MDwarfs) SourcePath(c catalog.Candidate) (string, error) {
	segs := strings.Split(c.FitsPath, "/")
	if len(segs) < 2 || segs[len(segs)-2] == "" || segs[len(segs)-1] == "" {
		return "", fmt.Errorf("kepid %d: fits path %q has no directory/file pair", c.KepID, c.FitsPath)
	}
	return filepath.Join(m.DataDir, segs[len(segs)-2], segs[len(segs)-1]), nil
}

func (MDwarfs) Quarter(c catalog.Candidate) string {
	return quarter(c.DataLocation, ".")
}

func (m MDwarfs) Label(c catalog.Candidate) string {
	return label(c.KepID, "N/A", m.Quarter(c))
}

// Synthetics are injected transits stored as DataDir/synthetic_<id>.fits.
type Synthetics struct {
	DataDir string
}

func (Synthetics) Name() string       { return "synthetics" }
func (Synthetics) Kind() catalog.Kind { return catalog.Synthetic }

func (s Synthetics) SourcePath(c catalog.Candidate) (string, error) {
	if c.SyntheticID == "" {
		return "", errors.New("synthetic candidate without synthetic id")
	}
	return filepath.Join(s.DataDir, "synthetic_"+c.SyntheticID+".fits"), nil
}

func (Synthetics) Quarter(c catalog.Candidate) string {
	return quarter(c.DataLocation, "-")
}

func (s Synthetics) Label(c catalog.Candidate) string {
	return label(c.KepID, c.SyntheticID, s.Quarter(c))
}

// quarter returns the text after the last '_' up to the first end marker.
func quarter(loc, end string) string {
	tail := loc[strings.LastIndex(loc, "_")+1:]
	if i := strings.Index(tail, end); i >= 0 {
		tail = tail[:i]
	}
	return tail
}

func label(kepid int64, syntheticID, quarter string) string {
	return fmt.Sprintf("Kepid = %d. Synthetic ID = %s. Quarter = %s.", kepid, syntheticID, quarter)
}
