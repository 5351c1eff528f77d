package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yyyoichi/svdimage"
	"github.com/yyyoichi/svdimage/internal/chart"
	"github.com/yyyoichi/svdimage/internal/config"
	"github.com/yyyoichi/svdimage/internal/gray"
	"github.com/yyyoichi/svdimage/internal/imageio"
	"github.com/yyyoichi/svdimage/internal/metrics"
	"github.com/yyyoichi/svdimage/internal/preview"
	"github.com/yyyoichi/svdimage/internal/session"
	"github.com/yyyoichi/svdimage/internal/svd"
)

var (
	errQuit  = errors.New("quit")
	errUsage = errors.New("usage")
)

type command struct {
	name  string
	args  string
	help  string
	nargs int
	run   func(sh *shell, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"load", "<path|url>", "load a source image", 1, func(sh *shell, ctx context.Context, args []string) error {
			return sh.load(ctx, args[0])
		}},
		{"mode", "[rank|error]", "show or set the reconstruction mode", -1, func(sh *shell, _ context.Context, args []string) error {
			return sh.setMode(args)
		}},
		{"apply", "<value>", "reconstruct with the current mode", 1, func(sh *shell, ctx context.Context, args []string) error {
			v, err := parseValue(args[0])
			if err != nil {
				return err
			}
			return sh.apply(ctx, v)
		}},
		{"rank", "<n>", "reconstruct from the top n components", 1, func(sh *shell, ctx context.Context, args []string) error {
			return sh.applyMode(ctx, svdimage.ModeRank, args[0])
		}},
		{"error", "<percent>", "reconstruct keeping percent% of the energy", 1, func(sh *shell, ctx context.Context, args []string) error {
			return sh.applyMode(ctx, svdimage.ModeError, args[0])
		}},
		{"show", "", "preview the current reconstruction", 0, func(sh *shell, _ context.Context, _ []string) error {
			return sh.show(false)
		}},
		{"zoom", "", "preview the current reconstruction at twice the size", 0, func(sh *shell, _ context.Context, _ []string) error {
			return sh.show(true)
		}},
		{"original", "", "preview the source image", 0, func(sh *shell, _ context.Context, _ []string) error {
			return sh.original()
		}},
		{"history", "", "list the reconstructions", 0, func(sh *shell, _ context.Context, _ []string) error {
			return sh.history()
		}},
		{"select", "<n>", "make history entry n current", 1, func(sh *shell, _ context.Context, args []string) error {
			return sh.selectEntry(args[0])
		}},
		{"save", "<path>", "write the current reconstruction (.jpeg, .png, .bmp, .gif)", 1, func(sh *shell, _ context.Context, args []string) error {
			return sh.save(args[0])
		}},
		{"spectrum", "<out.html>", "chart the singular values of the source", 1, func(sh *shell, _ context.Context, args []string) error {
			return sh.spectrum(args[0])
		}},
		{"info", "", "describe the source and the current reconstruction", 0, func(sh *shell, _ context.Context, _ []string) error {
			return sh.info()
		}},
		{"help", "", "list commands", 0, func(sh *shell, _ context.Context, _ []string) error {
			return sh.help()
		}},
		{"quit", "", "leave", 0, func(*shell, context.Context, []string) error {
			return errQuit
		}},
	}
}

// shell executes the REPL commands against one session.
type shell struct {
	cfg     *config.Config
	sess    *session.Session
	fetcher *imageio.Fetcher
	mode    svdimage.Mode
	out     io.Writer
}

func newShell(cfg *config.Config, out io.Writer) (*shell, error) {
	var opts []svdimage.Option
	if cfg.Rank.Strict {
		opts = append(opts, svdimage.WithStrictRank())
	}
	c, err := svdimage.New(opts...)
	if err != nil {
		return nil, err
	}
	return &shell{
		cfg:     cfg,
		sess:    session.New(c, cfg.Session.HistoryLimit),
		fetcher: imageio.NewFetcher(cfg.Fetch.CacheDir, cfg.FetchInterval()),
		mode:    svdimage.ModeRank,
		out:     out,
	}, nil
}

func (sh *shell) prompt() string {
	return fmt.Sprintf("svd [%s]> ", sh.mode)
}

// exec runs one input line. Empty lines are ignored.
func (sh *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	if name == "exit" {
		name = "quit"
	}
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if c.nargs >= 0 && len(args) != c.nargs {
			return fmt.Errorf("%w: %s %s", errUsage, c.name, c.args)
		}
		return c.run(sh, ctx, args)
	}
	return fmt.Errorf("unknown command %q (type 'help')", fields[0])
}

func (sh *shell) load(ctx context.Context, src string) error {
	img, err := imageio.Load(ctx, src, sh.fetcher)
	if err != nil {
		return err
	}
	sh.sess.Load(src, img)
	b := img.Bounds()
	fmt.Fprintf(sh.out, "loaded %s (%dx%d, %d singular values)\n", src, b.Dx(), b.Dy(), min(b.Dx(), b.Dy()))
	return nil
}

func (sh *shell) setMode(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		m, err := svdimage.ParseMode(args[0])
		if err != nil {
			return err
		}
		sh.mode = m
	default:
		return fmt.Errorf("%w: mode [rank|error]", errUsage)
	}
	fmt.Fprintf(sh.out, "mode %s\n", sh.mode)
	return nil
}

func (sh *shell) applyMode(ctx context.Context, mode svdimage.Mode, arg string) error {
	v, err := parseValue(arg)
	if err != nil {
		return err
	}
	prev := sh.mode
	sh.mode = mode
	if err := sh.apply(ctx, v); err != nil {
		sh.mode = prev
		return err
	}
	return nil
}

func (sh *shell) apply(ctx context.Context, value float64) error {
	e, err := sh.sess.Apply(ctx, sh.mode, value)
	if err != nil {
		return err
	}
	src, err := sh.sess.Source()
	if err != nil {
		return err
	}
	rounded := gray.ToMatrix(e.Image)
	m, n := e.Matrix.Dims()
	fmt.Fprintf(sh.out, "#%d %s %g: %d/%d components, %.2f%% energy, PSNR %s, SSIM %.4f, size %.1f%%\n",
		sh.sess.CurrentIndex(), e.Mode, e.Value, e.Components, e.K, e.Energy*100,
		formatPSNR(metrics.PSNR(src.Matrix, rounded)),
		metrics.SSIM(src.Matrix, rounded),
		metrics.StorageRatio(m, n, e.Components)*100,
	)
	return nil
}

func (sh *shell) show(zoom bool) error {
	e, err := sh.sess.Current()
	if err != nil {
		return err
	}
	cols, rows := sh.cfg.Display.Cols, sh.cfg.Display.Rows
	if zoom {
		cols, rows = cols*2, rows*2
	}
	fmt.Fprintf(sh.out, "#%d %s %g (%d/%d components)\n", sh.sess.CurrentIndex(), e.Mode, e.Value, e.Components, e.K)
	return preview.ASCII(sh.out, e.Image, cols, rows)
}

func (sh *shell) original() error {
	src, err := sh.sess.Source()
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, src.Name)
	return preview.ASCII(sh.out, src.Image, sh.cfg.Display.Cols, sh.cfg.Display.Rows)
}

func (sh *shell) history() error {
	h := sh.sess.History()
	if len(h) == 0 {
		fmt.Fprintln(sh.out, "no reconstructions yet")
		return nil
	}
	rows := make([][]string, len(h))
	for i, e := range h {
		mark := ""
		if i == sh.sess.CurrentIndex() {
			mark = "*"
		}
		rows[i] = []string{
			mark,
			strconv.Itoa(i),
			e.ID[:8],
			e.Mode.String(),
			strconv.FormatFloat(e.Value, 'g', -1, 64),
			fmt.Sprintf("%d/%d", e.Components, e.K),
			fmt.Sprintf("%.2f%%", e.Energy*100),
			e.CreatedAt.Format("15:04:05"),
		}
	}
	return preview.Table(sh.out, []string{"", "#", "id", "mode", "value", "components", "energy", "time"}, rows)
}

func (sh *shell) selectEntry(arg string) error {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("%w: select <n>", errUsage)
	}
	e, err := sh.sess.Select(i)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "#%d %s %g selected\n", i, e.Mode, e.Value)
	return nil
}

func (sh *shell) save(path string) error {
	e, err := sh.sess.Current()
	if err != nil {
		return err
	}
	if !filepath.IsAbs(path) && sh.cfg.Export.Dir != "" {
		path = filepath.Join(sh.cfg.Export.Dir, path)
	}
	written, err := imageio.Save(path, e.Image, sh.cfg.Export.JPEGQuality)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "saved to %s\n", written)
	return nil
}

func (sh *shell) spectrum(path string) error {
	src, err := sh.sess.Source()
	if err != nil {
		return err
	}
	d, err := svd.Decompose(src.Matrix)
	if err != nil {
		return fmt.Errorf("%w: %w", svdimage.ErrNumericalFailure, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chart.Spectrum(f, src.Name, d.Values()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "wrote %d singular values to %s\n", d.Len(), path)
	return nil
}

func (sh *shell) info() error {
	src, err := sh.sess.Source()
	if err != nil {
		return err
	}
	m, n := src.Matrix.Dims()
	fmt.Fprintf(sh.out, "source:  %s\n", src.Name)
	fmt.Fprintf(sh.out, "size:    %dx%d (%d singular values)\n", n, m, min(m, n))
	if imageio.IsURL(src.Name) {
		if p, err := sh.fetcher.CachedPath(src.Name); err == nil {
			fmt.Fprintf(sh.out, "cache:   %s\n", p)
		}
	}
	fmt.Fprintf(sh.out, "mode:    %s\n", sh.mode)
	fmt.Fprintf(sh.out, "history: %d/%d\n", len(sh.sess.History()), sh.cfg.Session.HistoryLimit)
	if e, err := sh.sess.Current(); err == nil {
		fmt.Fprintf(sh.out, "current: #%d %s %g (%d/%d components, %.2f%% energy)\n",
			sh.sess.CurrentIndex(), e.Mode, e.Value, e.Components, e.K, e.Energy*100)
	}
	return nil
}

func (sh *shell) help() error {
	rows := make([][]string, len(commands))
	for i, c := range commands {
		rows[i] = []string{c.name + " " + c.args, c.help}
	}
	return preview.Table(sh.out, []string{"command", "description"}, rows)
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", svdimage.ErrInvalidParameter, s)
	}
	return v, nil
}

func formatPSNR(v float64) string {
	if math.IsInf(v, 1) {
		return "lossless"
	}
	return fmt.Sprintf("%.2f dB", v)
}
