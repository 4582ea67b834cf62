package analysis

import (
	"context"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"battery-arbitrage/internal/model"
)

type RankedPotential struct {
	ArbitragePotential
}

// RankByExactRevenue computes potentials per region and sorts descending by
// ExactRevenue, breaking ties by region name.
func RankByExactRevenue(ctx context.Context, byRegion map[string]model.PriceSeries, period time.Duration, cfg PotentialConfig) ([]RankedPotential, error) {
	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	out := make([]RankedPotential, len(regions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := ComputePotential(byRegion[region], period, cfg)
			if err != nil {
				return err
			}
			if p.Region == "" {
				p.Region = region
			}
			out[i] = RankedPotential{ArbitragePotential: p}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExactRevenue > out[j].ExactRevenue
	})
	return out, nil
}
