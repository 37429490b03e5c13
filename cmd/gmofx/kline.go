package main

import (
	"strconv"
	"time"

	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/restclient"
)

// parseKlineCLI mirrors internal/app's kline parsing for the offline CLI
// commands, which build their own short-lived store rather than going
// through the full orchestrator.
func parseKlineCLI(e restclient.KlineEntry) (model.Candle, error) {
	ms, err := strconv.ParseInt(e.OpenTime, 10, 64)
	if err != nil {
		return model.Candle{}, err
	}
	open, err := strconv.ParseFloat(e.Open, 64)
	if err != nil {
		return model.Candle{}, err
	}
	high, err := strconv.ParseFloat(e.High, 64)
	if err != nil {
		return model.Candle{}, err
	}
	low, err := strconv.ParseFloat(e.Low, 64)
	if err != nil {
		return model.Candle{}, err
	}
	closeP, err := strconv.ParseFloat(e.Close, 64)
	if err != nil {
		return model.Candle{}, err
	}
	return model.Candle{
		OpenTime: time.UnixMilli(ms).UTC(),
		Open:     open, High: high, Low: low, Close: closeP,
	}, nil
}
