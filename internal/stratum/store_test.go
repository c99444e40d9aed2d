package stratum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCsvStoreRoundTrip(t *testing.T) {
	store := NewCsvStore(filepath.Join(t.TempDir(), "sampling.csv"))
	assert.False(t, store.Exists())

	strata := []*Stratum{
		{Lower: 1, Upper: 6, Population: 120, SampledRepos: 120, SampledFiles: 300, SampledCommits: 900, Exhausted: true},
		{Lower: 6, Upper: 11, Population: -1},
	}
	require.NoError(t, store.Save(strata))
	require.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, strata[0], loaded[0])
	assert.Equal(t, strata[1], loaded[1])
}

func TestCsvStoreRejectsUnknownHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sampling.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := NewCsvStore(path).Load()
	assert.Error(t, err)
}

func TestCsvStoreRejectsInvalidBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sampling.csv")
	content := "stratum_lower,stratum_upper,population_repo,sample_repo,sample_file,sample_commit,exhausted\n" +
		"5,5,0,0,0,0,false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewCsvStore(path).Load()
	assert.Error(t, err)
}

func TestCsvStoreRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sampling.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewCsvStore(path).Load()
	assert.Error(t, err)
}
