package lightcurve

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/astrogo/fitsio"
)

var (
	// ErrNoExtension is returned when the named table HDU is not in the file.
	ErrNoExtension = errors.New("lightcurve: extension not found")
	// ErrNoColumn is returned when the table lacks a requested column.
	ErrNoColumn = errors.New("lightcurve: column not found")
)

// ReadFITS loads the time and flux columns of the binary table ext from the
// FITS file at path. The file is closed before ReadFITS returns.
func ReadFITS(path, ext, timeCol, fluxCol string) (Series, error) {
	r, err := os.Open(path)
	if err != nil {
		return Series{}, err
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return Series{}, fmt.Errorf("open fits %s: %w", path, err)
	}
	defer f.Close()

	if !f.Has(ext) {
		return Series{}, fmt.Errorf("%s: %w: %s", path, ErrNoExtension, ext)
	}
	table, ok := f.Get(ext).(*fitsio.Table)
	if !ok {
		return Series{}, fmt.Errorf("%s: HDU %s is not a table", path, ext)
	}
	for _, col := range []string{timeCol, fluxCol} {
		if table.Index(col) < 0 {
			return Series{}, fmt.Errorf("%s: %w: %s", path, ErrNoColumn, col)
		}
	}

	rows, err := table.Read(0, table.NumRows())
	if err != nil {
		return Series{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer rows.Close()

	n := int(table.NumRows())
	s := Series{Time: make([]float64, 0, n), Flux: make([]float64, 0, n)}
	for rows.Next() {
		row := map[string]interface{}{timeCol: nil, fluxCol: nil}
		if err := rows.Scan(&row); err != nil {
			return Series{}, fmt.Errorf("scan %s: %w", path, err)
		}
		t, err := toFloat(row[timeCol])
		if err != nil {
			return Series{}, fmt.Errorf("%s column %s: %w", path, timeCol, err)
		}
		v, err := toFloat(row[fluxCol])
		if err != nil {
			return Series{}, fmt.Errorf("%s column %s: %w", path, fluxCol, err)
		}
		s.Time = append(s.Time, t)
		s.Flux = append(s.Flux, v)
	}
	if err := rows.Err(); err != nil {
		return Series{}, fmt.Errorf("read %s: %w", path, err)
	}
	return s, nil
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case nil:
		return math.NaN(), nil
	}
	return 0, fmt.Errorf("unsupported cell type %T", v)
}

// WriteFITS stores s as a binary table ext with a double-precision time
// column and a single-precision flux column, the layout of Kepler light-curve
// files. It is used to produce fixtures and synthetic inputs.
func WriteFITS(path, ext, timeCol, fluxCol string, s Series) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	phdu, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		return err
	}
	if err := f.Write(phdu); err != nil {
		return err
	}

	cols := []fitsio.Column{
		{Name: timeCol, Format: "D"},
		{Name: fluxCol, Format: "E"},
	}
	table, err := fitsio.NewTable(ext, cols, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer table.Close()
	for i := range s.Time {
		t, v := s.Time[i], float32(s.Flux[i])
		if err := table.Write(&t, &v); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := f.Write(table); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return w.Close()
}
