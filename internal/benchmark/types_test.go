package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImplementationTags(t *testing.T) {
	for _, impl := range Implementations {
		parsed, err := ParseImplementation(impl.Tag())
		require.NoError(t, err)
		assert.Equal(t, impl, parsed)
	}
	assert.Equal(t, "seq", Sequential.Tag())
	assert.Equal(t, "omp", OpenMP.Tag())
	assert.Equal(t, "pth", Pthread.Tag())

	_, err := ParseImplementation("SEQ")
	assert.ErrorIs(t, err, ErrUnknownImplementation)
}

func TestImplementationText(t *testing.T) {
	text, err := Pthread.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "pth", string(text))

	var impl Implementation
	require.NoError(t, impl.UnmarshalText([]byte("omp")))
	assert.Equal(t, OpenMP, impl)
	assert.Error(t, impl.UnmarshalText([]byte("mpi")))
}

func TestConfigurationGridSize(t *testing.T) {
	cfg := Configuration{Threads: 4, ArrayExp: 10, Implementation: OpenMP}
	assert.Equal(t, 1024, cfg.GridSize())
	assert.Equal(t, "threads=4 array_exp=10 impl=omp", cfg.String())
}

func TestParams(t *testing.T) {
	p := Params{MaxExp: 12, MaxThreads: 8, Runs: 100}
	require.NoError(t, p.Validate())
	assert.Equal(t, 3, p.MaxThreadExp())
	assert.Equal(t, "12me_8mt_100runs", p.Identity())
	assert.Equal(t, "data/data_12me_8mt_100runs.csv", p.TablePath("data"))
	assert.Equal(t, "plots/plot_12me_8mt_100runs.png", p.PlotPath("plots"))

	assert.Equal(t, 2, Params{MaxThreads: 6}.MaxThreadExp())
	assert.Equal(t, 0, Params{MaxThreads: 1}.MaxThreadExp())

	other := Params{MaxExp: 12, MaxThreads: 8, Runs: 10}
	assert.NotEqual(t, p.Identity(), other.Identity())

	assert.NoError(t, Params{MaxExp: MaxArrayExp, MaxThreads: 1, Runs: 1}.Validate())
	assert.Positive(t, Configuration{Threads: 1, ArrayExp: MaxArrayExp}.GridSize())
	for _, exp := range []int{MaxArrayExp + 1, 64, 100} {
		err := Params{MaxExp: exp, MaxThreads: 1, Runs: 1}.Validate()
		assert.ErrorContains(t, err, "max exp must be at most", "max exp %d", exp)
	}

	err := Params{MaxExp: -1, MaxThreads: 0, Runs: 0}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max exp")
	assert.Contains(t, err.Error(), "max threads")
	assert.Contains(t, err.Error(), "runs")
}
