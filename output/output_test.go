package output

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corr "github.com/rmera/gocorr"
)

func sample() []*corr.Result {
	tot := corr.NewResult("msd", "mean squared displacement", "t", "msd")
	tot.Info["D"] = 0.49
	tot.Rows = []corr.Row{
		{Vars: []float64{0}, Value: 0, Err: 0, Count: 100},
		{Vars: []float64{0.01}, Value: 0.0301, Err: 0.0002, Count: 99},
	}
	part := corr.NewResult("fkt", "intermediate scattering function", "k", "t", "F")
	part.Pair = corr.Pair("B", "A")
	part.Weight = math.NaN()
	part.Rows = []corr.Row{
		{Vars: []float64{1.5, 0}, Value: 1, Err: math.NaN(), Count: 10},
		{Vars: []float64{1.5, 0.1}, Value: 0.8, Err: math.NaN(), Count: 9},
	}
	return []*corr.Result{tot, part}
}

func TestWriteRead(t *testing.T) {
	for _, R := range sample() {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, R))
		got, err := Read(&buf)
		require.NoError(t, err)
		assert.Equal(t, R.Name, got.Name)
		assert.Equal(t, R.Title, got.Title)
		assert.Equal(t, R.Pair, got.Pair)
		assert.Equal(t, R.Columns, got.Columns)
		assert.Equal(t, R.Info, got.Info)
		assert.Equal(t, math.IsNaN(R.Weight), math.IsNaN(got.Weight))
		require.Len(t, got.Rows, len(R.Rows))
		for i, r := range R.Rows {
			assert.Equal(t, r.Vars, got.Rows[i].Vars)
			assert.Equal(t, r.Value, got.Rows[i].Value)
			assert.Equal(t, r.Count, got.Rows[i].Count)
		}
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample()[1]))
	assert.Contains(t, buf.String(), "# fkt: intermediate scattering function\n# pair: A B\n# weight: NaN\n# columns: k t F err count\n1.5 0 1 NaN 10\n")
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range []string{"", ".dat.zst"} {
		names, err := WriteAll(dir, sample(), ext)
		require.NoError(t, err)
		require.Len(t, names, 2)
		want := ext
		if want == "" {
			want = Ext
		}
		assert.Equal(t, filepath.Join(dir, "msd"+want), names[0])
		assert.Equal(t, filepath.Join(dir, "fkt.A-B"+want), names[1])
		got, err := ReadFile(names[1])
		require.NoError(t, err)
		assert.Equal(t, corr.Pair("A", "B"), got.Pair)
		assert.Len(t, got.Rows, 2)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "msd.dat.zst"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4], "zstd magic number")
}

func TestWriteAllDuplicate(t *testing.T) {
	R := sample()[0]
	_, err := WriteAll(t.TempDir(), []*corr.Result{R, R}, "")
	assert.Error(t, err)
}

func TestReadMalformed(t *testing.T) {
	_, err := Read(bytes.NewBufferString("# gr: g\n# columns: r g(r) err count\n1 2 3\n"))
	assert.Error(t, err)
	_, err = Read(bytes.NewBufferString("1 2 3 4\n"))
	assert.Error(t, err)
}
