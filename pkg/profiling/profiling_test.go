package profiling

import (
	"testing"
	"time"

	"github.com/0xobelisk/dubhe-website-sub001/config"
	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileTypes_Default(t *testing.T) {
	got, err := parseProfileTypes("")
	require.NoError(t, err)
	assert.Equal(t, defaultProfileTypes, got)
}

func TestParseProfileTypes_Custom(t *testing.T) {
	got, err := parseProfileTypes("cpu, alloc_space,mutex")
	require.NoError(t, err)

	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileMutexCount,
		pyroscope.ProfileMutexDuration,
	}, got)
}

func TestParseProfileTypes_Invalid(t *testing.T) {
	_, err := parseProfileTypes("cpu,unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported O11Y_PROFILING_SAMPLE_TYPES")
}

func TestBuildApplicationName(t *testing.T) {
	got := buildApplicationName("dubhe-website-api", "dubhe-website-api", "dubhe-website", "production", "2.0.0", "inst-1")
	assert.Equal(t, "dubhe-website-api{service_name=dubhe-website-api,namespace=dubhe-website,environment=production,service_version=2.0.0,instance=inst-1}", got)
}

func TestBuildApplicationName_SkipsEmptyLabels(t *testing.T) {
	got := buildApplicationName("", "dubhe-website-api", "", "development", "", "")
	assert.Equal(t, "dubhe-website-api{service_name=dubhe-website-api,environment=development}", got)
}

func TestInitProfiler_Disabled(t *testing.T) {
	stop, err := InitProfiler(&config.Config{})
	require.NoError(t, err)
	stop()
}

func TestInitProfiler_EnabledWithoutEndpoint(t *testing.T) {
	_, err := InitProfiler(&config.Config{Profiling: config.ProfilingConfig{Enabled: true}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint is required")
}

func TestUploadRate(t *testing.T) {
	assert.Equal(t, 15*time.Second, uploadRate(0))
	assert.Equal(t, 30*time.Second, uploadRate(30))
}
