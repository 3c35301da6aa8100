package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/milosgajdos/go-fusion/fusion"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

const testLog = `# sensor log
L	3.122427e-01	5.803398e-01	1477010443000000	6.000000e-01	6.000000e-01	5.199937e+00	0

R	1.014892e+00	5.543292e-01	4.892807e+00	1477010443050000	8.599968e-01	6.000449e-01	5.199747e+00	1.796856e-03
L 1.173848 0.4810729 1477010443100000
`

func TestParseRecord(t *testing.T) {
	assert := assert.New(t)

	rec, err := ParseRecord("R 5 0 0 1000000")
	assert.NoError(err)
	assert.Equal(fusion.RangeBearing, rec.Measurement.Kind)
	assert.Equal(int64(1000000), rec.Measurement.Timestamp)
	assert.Equal([]float64{5, 0, 0}, rec.Measurement.Raw)
	assert.Nil(rec.Truth)

	rec, err = ParseRecord("L 5.2 0.1 2000000 5 0 1 0")
	assert.NoError(err)
	assert.Equal(fusion.Position, rec.Measurement.Kind)
	assert.Equal([]float64{5.2, 0.1}, rec.Measurement.Raw)
	assert.True(mat.Equal(mat.NewVecDense(4, []float64{5, 0, 1, 0}), rec.Truth))

	for _, line := range []string{
		"",
		"X 1 2 3",
		"L 1 2",
		"L 1 2 3 4",
		"R 1 2 3",
		"L a 2 3",
		"L 1 2 3.5",
		"L 1 2 3 4 5 6 x",
		"L NaN 2 3",
	} {
		_, err := ParseRecord(line)
		assert.Error(err, "line %q", line)
	}
}

func TestReadRecords(t *testing.T) {
	assert := assert.New(t)

	records, err := ReadRecords(strings.NewReader(testLog))
	assert.NoError(err)
	assert.Len(records, 3)

	assert.Equal(fusion.Position, records[0].Measurement.Kind)
	assert.Equal(int64(1477010443000000), records[0].Measurement.Timestamp)
	assert.InDelta(0.3122427, records[0].Measurement.Raw[0], 1e-12)
	assert.Equal(4, records[0].Truth.Len())

	assert.Equal(fusion.RangeBearing, records[1].Measurement.Kind)
	assert.InDelta(4.892807, records[1].Measurement.Raw[2], 1e-12)

	assert.Nil(records[2].Truth)

	_, err = ReadRecords(strings.NewReader("L 1 2 3\nL 1 2\n"))
	assert.Error(err)
	assert.Contains(err.Error(), "line 2")
}

func TestWriteRecords(t *testing.T) {
	assert := assert.New(t)

	records, err := ReadRecords(strings.NewReader(testLog))
	assert.NoError(err)

	var buf bytes.Buffer
	assert.NoError(WriteRecords(&buf, records))

	back, err := ReadRecords(&buf)
	assert.NoError(err)
	assert.Len(back, len(records))
	for i := range records {
		assert.Equal(records[i].Measurement, back[i].Measurement)
		if records[i].Truth == nil {
			assert.Nil(back[i].Truth)
			continue
		}
		assert.True(mat.Equal(records[i].Truth, back[i].Truth))
	}
}

func TestReadMap(t *testing.T) {
	assert := assert.New(t)

	m, err := ReadMap(strings.NewReader("92.064\t-34.777\t1\n61.109 -47.132 2\n\n# comment\n17.42 -4.5993 3\n"))
	assert.NoError(err)
	assert.Equal(3, m.Len())

	l, ok := m.Lookup(2)
	assert.True(ok)
	assert.Equal(orb.Point{61.109, -47.132}, l.Pos)

	for _, data := range []string{
		"1 2\n",
		"1 2 x\n",
		"a 2 1\n",
		"1 2 1\n3 4 1\n",
	} {
		m, err := ReadMap(strings.NewReader(data))
		assert.Nil(m)
		assert.Error(err, "data %q", data)
	}
}
