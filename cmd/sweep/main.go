package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/yyyoichi/svdimage/internal/config"
)

func main() {
	_ = godotenv.Load(".env")

	defaultConfig := os.Getenv("SVDIMAGE_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "svdimage.yaml"
	}
	configPath := flag.String("config", defaultConfig, "path to the YAML config file")
	in := flag.String("in", "", "input image path or URL (required)")
	dbPath := flag.String("db", "", "SQLite database for the results (default sweep.db from config)")
	ranks := flag.String("ranks", "", "comma separated ranks (default from config)")
	energies := flag.String("energies", "", "comma separated energy percentages (default from config)")
	out := flag.String("out", "", "directory for the reconstructed images; none are written when empty")
	chartPath := flag.String("chart", "", "HTML chart of PSNR and SSIM by components")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	p := params{
		Input:    *in,
		DB:       cfg.Sweep.DB,
		Ranks:    cfg.Sweep.Ranks,
		Energies: cfg.Sweep.Energies,
		OutDir:   *out,
		Chart:    *chartPath,
		Quality:  cfg.Export.JPEGQuality,

		StrictRank: cfg.Rank.Strict,
	}
	if *dbPath != "" {
		p.DB = *dbPath
	}
	if *ranks != "" {
		if p.Ranks, err = parseList(*ranks, strconv.Atoi); err != nil {
			log.Fatalf("Invalid -ranks: %v", err)
		}
	}
	if *energies != "" {
		parseFloat := func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
		if p.Energies, err = parseList(*energies, parseFloat); err != nil {
			log.Fatalf("Invalid -energies: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fetcher := newFetcher(cfg)
	if err := run(ctx, p, fetcher); err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
}

func parseList[T any](s string, parse func(string) (T, error)) ([]T, error) {
	var list []T
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := parse(f)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", f, err)
		}
		list = append(list, v)
	}
	return list, nil
}
