package common

import (
	"math"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddInt64(t *testing.T) {
	v, err := AddInt64(40, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = AddInt64(-40, -2)
	assert.NoError(t, err)
	assert.Equal(t, int64(-42), v)

	_, err = AddInt64(math.MaxInt64, 1)
	assert.Error(t, err)
	_, err = AddInt64(math.MinInt64, -1)
	assert.Error(t, err)

	v, err = AddInt64(math.MaxInt64, math.MinInt64)
	assert.NoError(t, err)
	assert.Equal(t, int64(-1), v)
}

func TestSubInt64(t *testing.T) {
	v, err := SubInt64(40, -2)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = SubInt64(math.MaxInt64, -1)
	assert.Error(t, err)
	_, err = SubInt64(math.MinInt64, 1)
	assert.Error(t, err)
	_, err = SubInt64(0, math.MinInt64)
	assert.Error(t, err)
}

func TestCounterConfigDefaultsAndValidation(t *testing.T) {
	conf := NewDefaultCounterConfig()
	assert.NoError(t, conf.Validate())
	assert.Equal(t, 20, conf.SampleSize)

	conf.SampleSize = 1
	assert.Error(t, conf.Validate())

	conf = NewDefaultCounterConfig()
	conf.CoalesceProbability = 1.5
	assert.Error(t, conf.Validate())
}

func TestCounterConfigLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := path.Join(dir, "counter.yaml")
	require.NoError(t, os.WriteFile(file, []byte("sampleSize: 7\ncoalesceProbability: 0.25\n"), 0644))

	conf := NewDefaultCounterConfig()
	conf.LoadFromFile(file)
	assert.Equal(t, 7, conf.SampleSize)
	assert.InDelta(t, 0.25, conf.CoalesceProbability, 1e-9)

	// Partial files keep the untouched defaults.
	file2 := path.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(file2, []byte("sampleSize: 9\n"), 0644))
	conf = NewDefaultCounterConfig()
	conf.LoadFromFile(file2)
	assert.Equal(t, 9, conf.SampleSize)
	assert.InDelta(t, 0.1, conf.CoalesceProbability, 1e-9)

	// Unreadable or malformed files leave the config untouched.
	conf = NewDefaultCounterConfig()
	conf.LoadFromFile(path.Join(dir, "missing.yaml"))
	assert.Equal(t, 20, conf.SampleSize)

	file3 := path.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(file3, []byte("sampleSize: [not an int\n"), 0644))
	conf.LoadFromFile(file3)
	assert.Equal(t, 20, conf.SampleSize)
}
