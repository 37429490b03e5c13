package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_PrintsAppVersion(t *testing.T) {
	cmd := versionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), appVersion)
}

func TestSelftestCmd_PassesAllOfflineChecks(t *testing.T) {
	cmd := selftestCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "rate limiter fairness")
	assert.Contains(t, out, "indicator purity")
	assert.Contains(t, out, "candle monotonicity")
}

func TestCheckRateLimiterFairness(t *testing.T) {
	assert.NoError(t, checkRateLimiterFairness())
}

func TestCheckIndicatorPurity(t *testing.T) {
	assert.NoError(t, checkIndicatorPurity())
}

func TestCheckCandleMonotonicity(t *testing.T) {
	assert.NoError(t, checkCandleMonotonicity())
}
