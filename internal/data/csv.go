package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"battery-arbitrage/internal/model"
)

// Accepted timestamp layouts for the datetime column. Layouts without a zone
// are read in the location passed to ReadPricesCSV.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

var ErrMissingColumn = errors.New("missing required column")

func LoadPricesCSV(path string, loc *time.Location) (model.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadPricesCSV(f, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadPricesCSV reads a header-first CSV with columns datetime and spot_price,
// and an optional region column. Column order does not matter.
func ReadPricesCSV(r io.Reader, loc *time.Location) (model.PriceSeries, error) {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	tsCol, ok := cols["datetime"]
	if !ok {
		return nil, fmt.Errorf("%w: datetime", ErrMissingColumn)
	}
	priceCol, ok := cols["spot_price"]
	if !ok {
		return nil, fmt.Errorf("%w: spot_price", ErrMissingColumn)
	}
	regionCol, hasRegion := cols["region"]

	var out model.PriceSeries
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := parseTime(rec[tsCol], loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid spot_price %q", line, rec[priceCol])
		}
		pp := model.PricePeriod{Start: ts, Price: price}
		if hasRegion {
			pp.Region = strings.TrimSpace(rec[regionCol])
		}
		out = append(out, pp)
	}
	sortByStart(out)
	return out, nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}
