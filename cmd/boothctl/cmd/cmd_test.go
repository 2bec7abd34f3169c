package cmd

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/boothmap/boothmap/internal/aggregate"
	"github.com/boothmap/boothmap/internal/document"
)

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fair.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, document.NewSampleDocument().Encode(f))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTotalsText(t *testing.T) {
	out, err := run(t, "totals", "--format", "text", "-o", "", writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, out, "North")
	assert.Contains(t, out, "OVER")
	assert.Contains(t, out, "ALERT: booth inside Fire lane")
}

func TestTotalsYAMLAndMsgpack(t *testing.T) {
	doc := writeSample(t)

	out, err := run(t, "totals", "--format", "yaml", "-o", "", doc)
	require.NoError(t, err)
	var rep aggregate.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 1700, rep.Total)

	bin := filepath.Join(t.TempDir(), "totals.bin")
	_, err = run(t, "totals", "--format", "msgpack", "-o", bin, doc)
	require.NoError(t, err)
	data, err := os.ReadFile(bin)
	require.NoError(t, err)
	var packed aggregate.Report
	require.NoError(t, msgpack.Unmarshal(data, &packed))
	assert.Equal(t, 1700, packed.Total)

	_, err = run(t, "totals", "--format", "xml", "-o", "", doc)
	assert.Error(t, err)
	totalsFormat = "text"
}

func TestExportCSV(t *testing.T) {
	out, err := run(t, "export", "csv", "-o", "", writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, out, "no,name,power,classification,category,tent,light")
	assert.Contains(t, out, "A,testB,1200,food,\"North, Fire lane\",0,2")
}

func TestRenderWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fair.png")
	_, err := run(t, "render", writeSample(t), "-o", path, "--window", "640x480")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
	renderWindow = ""

	_, err = run(t, "render", writeSample(t), "-o", path, "--tent-highlight", "--hide-zones")
	require.NoError(t, err)
	renderTents, renderNoZones = false, false

	_, err = parseWindow("wide")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, out, "warning: zone North draws 1700 of 1500")

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"categories":[{"name":"Z","points":[[0,0],[1,1]]}]}`), 0o644))
	out, err = run(t, "validate", broken)
	assert.Error(t, err)
	assert.Contains(t, out, `error: category[0]: zone "Z" has 2 vertices`)
}
