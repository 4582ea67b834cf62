package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"battery-arbitrage/internal/model"
)

// LoadPrices picks the loader from the file extension (.csv or .json).
func LoadPrices(path string, loc *time.Location) (model.PriceSeries, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadPricesCSV(path, loc)
	case ".json":
		return LoadPricesJSON(path)
	default:
		return nil, fmt.Errorf("unsupported price file %q (want .csv or .json)", path)
	}
}

// LoadRegions loads every path (files, or directories scanned one level deep)
// and groups the periods by region. Periods without a region are keyed by
// the file name without extension.
func LoadRegions(paths []string, loc *time.Location) (map[string]model.PriceSeries, error) {
	out := map[string]model.PriceSeries{}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		files := []string{p}
		if info.IsDir() {
			entries, err := os.ReadDir(p)
			if err != nil {
				return nil, err
			}
			files = files[:0]
			for _, e := range entries {
				ext := strings.ToLower(filepath.Ext(e.Name()))
				if e.IsDir() || (ext != ".csv" && ext != ".json") {
					continue
				}
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
		for _, f := range files {
			s, err := LoadPrices(f, loc)
			if err != nil {
				return nil, err
			}
			fallback := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
			for region, rs := range model.GroupByRegion(s) {
				if region == "" {
					region = fallback
					for i := range rs {
						rs[i].Region = region
					}
				}
				out[region] = append(out[region], rs...)
			}
		}
	}
	for _, s := range out {
		sortByStart(s)
	}
	return out, nil
}

// SplitPaths splits a comma-separated path list, dropping blanks.
func SplitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Regions returns the sorted region names of a grouped load.
func Regions(m map[string]model.PriceSeries) []string {
	out := make([]string, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
