package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"
	"github.com/yyyoichi/svdimage"
	"github.com/yyyoichi/svdimage/internal/config"
)

func main() {
	// Load env
	_ = godotenv.Load(".env")

	defaultConfig := os.Getenv("SVDIMAGE_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "svdimage.yaml"
	}
	configPath := flag.String("config", defaultConfig, "path to the YAML config file")
	in := flag.String("in", "", "input image path or URL; runs one reconstruction and exits")
	mode := flag.String("mode", "rank", "reconstruction mode: rank or error")
	value := flag.Float64("value", 0, "rank, or percentage of energy to keep")
	out := flag.String("out", "", "output image path in one-shot mode; prints a preview when empty")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sh, err := newShell(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to create shell: %v", err)
	}

	if *in != "" {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if err := runOnce(ctx, sh, *in, *mode, *value, *out); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			cancel()
			os.Exit(1)
		}
		return
	}

	if err := runREPL(context.Background(), sh); err != nil {
		log.Fatalf("REPL failed: %v", err)
	}
}

func runOnce(ctx context.Context, sh *shell, in, mode string, value float64, out string) error {
	m, err := svdimage.ParseMode(mode)
	if err != nil {
		return err
	}
	// Parameters are checked before the image is fetched.
	if err := svdimage.Validate(m, value); err != nil {
		return err
	}
	sh.mode = m
	if err := sh.load(ctx, in); err != nil {
		return err
	}
	if err := sh.apply(ctx, value); err != nil {
		return err
	}
	if out == "" {
		return sh.show(false)
	}
	return sh.save(out)
}

func runREPL(ctx context.Context, sh *shell) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(),
		HistoryFile:     filepath.Join(os.TempDir(), "svdimage_history"),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	sh.out = rl.Stdout()

	fmt.Fprintln(sh.out, "svdimage: SVD image compression (type 'help' for commands)")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := sh.exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			if errors.Is(err, svdimage.ErrNoInputLoaded) {
				fmt.Fprintln(rl.Stderr(), "hint: load an image first with 'load <path|url>'")
			}
		}
		rl.SetPrompt(sh.prompt())
	}
}

func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		switch c.name {
		case "mode":
			items = append(items, readline.PcItem(c.name,
				readline.PcItem("rank"),
				readline.PcItem("error"),
			))
		default:
			items = append(items, readline.PcItem(c.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
