package plotting

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"genenorm/internal/density"
)

func pages(t *testing.T) []Page {
	t.Helper()
	raw := mat.NewDense(4, 2, []float64{50, 100, 200, 400, 300, 600, 0, 3})
	curves, skipped := density.Columns([]string{"Sample1", "Sample2"}, raw, 50)
	require.Empty(t, skipped)
	return []Page{{Title: TitleRaw, Curves: curves}, {Title: TitleTPM, Curves: curves}}
}

func TestWritePDF_TwoPages(t *testing.T) {
	var one, two bytes.Buffer
	ps := pages(t)
	require.NoError(t, WritePDF(&one, ps[:1], 0, 0))
	require.NoError(t, WritePDF(&two, ps, 0, 0))
	assert.True(t, bytes.HasPrefix(two.Bytes(), []byte("%PDF-")), "missing PDF magic")
	assert.Greater(t, two.Len(), one.Len())
}

func TestWritePDF_EmptyPageStillRenders(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, WritePDF(&b, []Page{{Title: TitleTPM}}, DefaultWidth, DefaultHeight))
	assert.True(t, bytes.HasPrefix(b.Bytes(), []byte("%PDF-")))
}

func TestWritePDF_NoPages(t *testing.T) {
	var b bytes.Buffer
	require.Error(t, WritePDF(&b, nil, 0, 0))
}

func TestNewPlot_Labels(t *testing.T) {
	p, err := NewPlot(pages(t)[0])
	require.NoError(t, err)
	assert.Equal(t, TitleRaw, p.Title.Text)
	assert.Equal(t, XLabel, p.X.Label.Text)
	assert.Equal(t, YLabel, p.Y.Label.Text)
}
