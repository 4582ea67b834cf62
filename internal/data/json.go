package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"battery-arbitrage/internal/model"
)

// priceEnvelope is the wrapped form {"data": [...]} some exports use.
type priceEnvelope struct {
	Data model.PriceSeries `json:"data"`
}

func LoadPricesJSON(path string) (model.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadPricesJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadPricesJSON accepts a bare array of periods or an object with a data
// array, and returns the periods sorted by start time.
func ReadPricesJSON(r io.Reader) (model.PriceSeries, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	var s model.PriceSeries
	if len(raw) > 0 && raw[0] == '{' {
		var env priceEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, err
		}
		s = env.Data
	} else if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	sortByStart(s)
	return s, nil
}

func sortByStart(s model.PriceSeries) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Start.Before(s[j].Start) })
}
