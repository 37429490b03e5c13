package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gmofx/internal/config"
	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/restclient"
)

func klineEntryFixture() restclient.KlineEntry {
	return restclient.KlineEntry{
		OpenTime: "1700000000000",
		Open:     "150.0", High: "151.0", Low: "149.5", Close: "150.5",
	}
}

func TestNew_BuildsAppWithoutNetworkCalls(t *testing.T) {
	cfg := config.Default()
	cfg.Symbols = []model.Symbol{model.USDJPY, model.EURUSD}
	cfg.HTTP.Port = 0 // unused until Run

	a, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, a.store)
	assert.NotNil(t, a.pub)
	assert.NotNil(t, a.public)
	assert.Nil(t, a.private, "private client only wired when trading.enabled")
	assert.Len(t, a.aggregators, len(model.AllTimeframes()))
}

func TestNew_TradingEnabledWiresPrivateClient(t *testing.T) {
	cfg := config.Default()
	cfg.Symbols = []model.Symbol{model.USDJPY}
	cfg.Trading.Enabled = true
	cfg.API.Key, cfg.API.Secret = "k", "s"

	a, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, a.private)
}

func TestParseKline_ParsesEpochMillisAndPrices(t *testing.T) {
	c, err := parseKline(klineEntryFixture())
	require.NoError(t, err)
	assert.Equal(t, 150.0, c.Open)
	assert.Equal(t, 151.0, c.High)
}
