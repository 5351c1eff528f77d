package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/yyyoichi/svdimage"
	"github.com/yyyoichi/svdimage/internal/chart"
	"github.com/yyyoichi/svdimage/internal/config"
	"github.com/yyyoichi/svdimage/internal/db"
	"github.com/yyyoichi/svdimage/internal/gray"
	"github.com/yyyoichi/svdimage/internal/imageio"
	"github.com/yyyoichi/svdimage/internal/metrics"
	"github.com/yyyoichi/svdimage/internal/svd"
)

type params struct {
	Input    string
	DB       string
	Ranks    []int
	Energies []float64
	OutDir   string
	Chart    string
	Quality  int
	// StrictRank rejects ranks above the number of singular values instead of clamping.
	StrictRank bool
}

// setting is one reconstruction to evaluate.
type setting struct {
	Mode  svdimage.Mode
	Value float64
}

func newFetcher(cfg *config.Config) *imageio.Fetcher {
	return imageio.NewFetcher(cfg.Fetch.CacheDir, cfg.FetchInterval())
}

// settings validates every requested value before any work is done.
func (p params) settings() ([]setting, error) {
	var list []setting
	for _, r := range p.Ranks {
		list = append(list, setting{svdimage.ModeRank, float64(r)})
	}
	for _, e := range p.Energies {
		list = append(list, setting{svdimage.ModeError, e})
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no ranks or energies to evaluate", svdimage.ErrInvalidParameter)
	}
	for _, s := range list {
		if err := svdimage.Validate(s.Mode, s.Value); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func run(ctx context.Context, p params, fetcher *imageio.Fetcher) error {
	settings, err := p.settings()
	if err != nil {
		return err
	}

	img, err := imageio.Load(ctx, p.Input, fetcher)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", p.Input, err)
	}
	src := gray.ToMatrix(img)
	m, n := src.Dims()

	start := time.Now()
	d, err := svd.Decompose(src)
	if err != nil {
		return fmt.Errorf("%w: %w", svdimage.ErrNumericalFailure, err)
	}
	if p.StrictRank {
		for _, r := range p.Ranks {
			if r > d.Len() {
				return fmt.Errorf("%w: rank %d exceeds %d singular values", svdimage.ErrInvalidParameter, r, d.Len())
			}
		}
	}
	log.Printf("Decomposed %s (%dx%d, %d singular values) in %v\n", p.Input, n, m, d.Len(), time.Since(start))

	store, err := db.Open(p.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	imageID, err := store.InsertImage(&db.Image{Path: p.Input, Width: n, Height: m, K: d.Len()})
	if err != nil {
		return err
	}

	if p.OutDir != "" {
		if err := os.MkdirAll(p.OutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var points []chart.Point
	for i, s := range settings {
		if err := ctx.Err(); err != nil {
			return err
		}

		var t int
		switch s.Mode {
		case svdimage.ModeRank:
			t = d.RankPrefix(int(s.Value))
		case svdimage.ModeError:
			t = d.EnergyPrefix(s.Value)
		}
		rebuilt := gray.ToImage(d.Reconstruct(t))
		rounded := gray.ToMatrix(rebuilt)

		run := &db.Run{
			RunID:      uuid.NewString(),
			ImageID:    imageID,
			Mode:       s.Mode.String(),
			Value:      s.Value,
			Components: t,
			Energy:     metrics.EnergyRetained(d.Values(), t),
			Frobenius:  metrics.Frobenius(src, rounded),
			RMSE:       metrics.RMSE(src, rounded),
			PSNR:       metrics.PSNR(src, rounded),
			SSIM:       metrics.SSIM(src, rounded),
			Ratio:      metrics.StorageRatio(m, n, t),
			CreatedAt:  time.Now(),
		}
		if p.OutDir != "" {
			name := fmt.Sprintf("%s_%g.png", s.Mode, s.Value)
			if run.OutputPath, err = imageio.Save(filepath.Join(p.OutDir, name), rebuilt, p.Quality); err != nil {
				return fmt.Errorf("failed to save %s: %w", name, err)
			}
		}
		if _, err := store.InsertRun(run); err != nil {
			return err
		}

		log.Printf("[%d/%d] %s %g: components=%d energy=%.4f PSNR=%.2f SSIM=%.4f ratio=%.3f\n",
			i+1, len(settings), run.Mode, run.Value, run.Components, run.Energy, run.PSNR, run.SSIM, run.Ratio)
		points = append(points, chart.Point{
			Label:      fmt.Sprintf("%s %g", run.Mode, run.Value),
			Components: t,
			PSNR:       run.PSNR,
			SSIM:       run.SSIM,
		})
	}

	if p.Chart != "" {
		slices.SortStableFunc(points, func(a, b chart.Point) int { return a.Components - b.Components })
		f, err := os.Create(p.Chart)
		if err != nil {
			return fmt.Errorf("failed to create chart: %w", err)
		}
		if err := chart.Sweep(f, p.Input, points); err != nil {
			f.Close()
			return fmt.Errorf("failed to render chart: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("Chart written to %s\n", p.Chart)
	}

	count, err := store.CountRuns()
	if err != nil {
		return err
	}
	log.Printf("Recorded %d runs (%d total) in %s\n", len(settings), count, p.DB)
	return nil
}
