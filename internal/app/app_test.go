package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Brownie44l1/riceleaf-api/internal/config"
	"github.com/Brownie44l1/riceleaf-api/internal/imaging"
	"github.com/Brownie44l1/riceleaf-api/internal/imaging/imagetest"
	"github.com/Brownie44l1/riceleaf-api/internal/pipeline"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClassifier []float32

func (f fixedClassifier) Predict(context.Context, *imaging.PixelGrid) ([]float32, error) {
	return f, nil
}

// sizedClassifier only accepts grids of its own size, like model.Server.
type sizedClassifier struct {
	size  int
	probs []float32
}

func (s sizedClassifier) ImageSize() int { return s.size }

func (s sizedClassifier) Predict(_ context.Context, grid *imaging.PixelGrid) ([]float32, error) {
	if grid.Width != s.size || grid.Height != s.size {
		return nil, fmt.Errorf("grid is %dx%d, model expects %dx%d", grid.Width, grid.Height, s.size, s.size)
	}
	return s.probs, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	infoPath := filepath.Join(dir, "disease_info.json")
	require.NoError(t, os.WriteFile(infoPath,
		[]byte(`{"Leaf Blast": {"treatment": "Apply tricyclazole", "govt_schemes": ["PMFBY"]}}`), 0o644))

	v := viper.New()
	config.Configure(v)
	v.Set("environment", "test")
	v.Set("model_path", filepath.Join(dir, "missing.onnx"))
	v.Set("metadata_path", filepath.Join(dir, "missing.json"))
	v.Set("disease_info_path", infoPath)
	v.Set("archive.dir", filepath.Join(dir, "archive"))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestNewDegradedWithoutModel(t *testing.T) {
	a, err := New(testConfig(t), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.ModelLoaded())
	assert.Contains(t, a.Advisory, "Leaf Blast")

	_, err = a.Pipeline.Run(context.Background(), imaging.Upload{Data: []byte("x")})
	assert.ErrorIs(t, err, pipeline.ErrModelUnavailable)
}

func TestNewWithClassifier(t *testing.T) {
	a, err := New(testConfig(t), WithClassifier(fixedClassifier{0.02, 0.02, 0.95, 0.01}, nil))
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.ModelLoaded())

	data := imagetest.PNG(t, imagetest.GreenNoise(300, 200, 60, 9))
	outcome, err := a.Pipeline.Run(context.Background(), imaging.Upload{Data: data})
	require.NoError(t, err)
	assert.Equal(t, "Leaf Blast", outcome.Result.Label)
	assert.Equal(t, "Apply tricyclazole", outcome.Result.Treatment)
	assert.Equal(t, []string{"PMFBY"}, outcome.Result.Schemes)
}

func TestNewWithoutAdvisory(t *testing.T) {
	cfg := testConfig(t)
	cfg.DiseaseInfoPath = filepath.Join(t.TempDir(), "absent.json")

	a, err := New(cfg, WithClassifier(fixedClassifier{0.02, 0.02, 0.95, 0.01}, nil))
	require.NoError(t, err)
	defer a.Close()

	assert.Empty(t, a.Advisory)
}

func TestNewWithArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.Enabled = true

	a, err := New(cfg, WithArchive(), WithClassifier(fixedClassifier{1, 0, 0, 0}, nil))
	require.NoError(t, err)
	assert.NotNil(t, a.Archiver())

	a.Archiver().Archive("Brown Spot", "abc", imagetest.PNG(t, imagetest.Solid(2, 2, imagetest.LeafGreen)))
	a.Close()

	assert.FileExists(t, filepath.Join(cfg.Archive.Dir, "Brown_Spot", "abc.png"))
}

func TestNewArchiveDisabled(t *testing.T) {
	a, err := New(testConfig(t), WithArchive(), WithClassifier(fixedClassifier{1, 0, 0, 0}, nil))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Archiver())
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewImageSizeFollowsClassifier(t *testing.T) {
	cfg := testConfig(t)
	require.Equal(t, config.DefaultImageSize, cfg.ImageSize)

	a, err := New(cfg, WithClassifier(sizedClassifier{size: 96, probs: []float32{0.01, 0.97, 0.01, 0.01}}, nil))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 96, a.Pipeline.ImageSize())

	data := imagetest.PNG(t, imagetest.GreenNoise(300, 200, 60, 9))
	outcome, err := a.Pipeline.Run(context.Background(), imaging.Upload{Data: data})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageConfident, outcome.Stage)
}

func TestNewImageSizeFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.ImageSize = 128

	a, err := New(cfg, WithClassifier(fixedClassifier{1, 0, 0, 0}, nil))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 128, a.Pipeline.ImageSize())
}
