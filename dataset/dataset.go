// Package dataset reads and writes recorded sensor logs and landmark maps.
//
// Measurement logs hold one reading per line with whitespace separated fields:
//
//	L x y timestamp [gt_px gt_py gt_vx gt_vy]
//	R rho phi rho_dot timestamp [gt_px gt_py gt_vx gt_vy]
//
// Landmark maps hold one landmark per line as "x y id".
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/milosgajdos/go-fusion/fusion"
	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/mat"
)

// Record is a single measurement log entry
type Record struct {
	// Measurement is sensor reading
	Measurement fusion.Measurement
	// Truth is ground truth state [px, py, vx, vy] or nil when not recorded
	Truth *mat.VecDense
}

// ParseRecord parses a single measurement log line.
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, fmt.Errorf("empty record")
	}

	kind, err := fusion.ParseSensorKind(fields[0])
	if err != nil {
		return Record{}, err
	}

	dim := kind.Dim()
	switch len(fields) {
	case 1 + dim + 1, 1 + dim + 1 + 4:
	default:
		return Record{}, fmt.Errorf("invalid %s record: %d fields", kind, len(fields))
	}

	raw, err := parseFloats(fields[1 : 1+dim])
	if err != nil {
		return Record{}, fmt.Errorf("invalid %s reading: %w", kind, err)
	}

	ts, err := strconv.ParseInt(fields[1+dim], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid timestamp %q: %w", fields[1+dim], err)
	}

	rec := Record{
		Measurement: fusion.Measurement{
			Kind:      kind,
			Timestamp: ts,
			Raw:       raw,
		},
	}

	if err := rec.Measurement.Validate(); err != nil {
		return Record{}, err
	}

	if gt := fields[2+dim:]; len(gt) > 0 {
		vals, err := parseFloats(gt)
		if err != nil {
			return Record{}, fmt.Errorf("invalid ground truth: %w", err)
		}
		rec.Truth = mat.NewVecDense(len(vals), vals)
	}

	return rec, nil
}

// ReadRecords reads measurement log from r. Blank lines and lines starting with # are skipped.
// It returns error with the offending line number if any line fails to parse.
func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record

	err := scanLines(r, func(n int, line string) error {
		rec, err := ParseRecord(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// WriteRecords writes records to w in measurement log format.
func WriteRecords(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)

	for _, rec := range records {
		m := rec.Measurement
		tag := "L"
		if m.Kind == fusion.RangeBearing {
			tag = "R"
		}

		fields := []string{tag}
		fields = append(fields, formatFloats(m.Raw)...)
		fields = append(fields, strconv.FormatInt(m.Timestamp, 10))
		if rec.Truth != nil {
			fields = append(fields, formatFloats(mat.Col(nil, 0, rec.Truth))...)
		}

		if _, err := bw.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ReadMap reads landmark map from r. Blank lines and lines starting with # are skipped.
func ReadMap(r io.Reader) (*landmark.Map, error) {
	var landmarks []landmark.Landmark

	err := scanLines(r, func(n int, line string) error {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return fmt.Errorf("line %d: invalid landmark: %d fields", n, len(fields))
		}

		pos, err := parseFloats(fields[:2])
		if err != nil {
			return fmt.Errorf("line %d: invalid landmark position: %w", n, err)
		}

		id, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("line %d: invalid landmark id: %w", n, err)
		}

		landmarks = append(landmarks, landmark.Landmark{ID: id, Pos: orb.Point{pos[0], pos[1]}})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return landmark.NewMap(landmarks)
}

func scanLines(r io.Reader, fn func(n int, line string) error) error {
	s := bufio.NewScanner(r)
	n := 0
	for s.Scan() {
		n++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}

	return s.Err()
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	return vals, nil
}

func formatFloats(vals []float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	return out
}
