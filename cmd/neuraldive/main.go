// Neural Dive is a turn-based dungeon crawl through a corrupted data
// archive, where knowledge is the weapon.
// Usage: neuraldive [--version] [--plain] [--seed <n>] [--fixed] [--script <file>] [--load <file>] <content_directory>
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nathoo/neuraldive/cli"
	"github.com/nathoo/neuraldive/engine"
	"github.com/nathoo/neuraldive/engine/save"
	"github.com/nathoo/neuraldive/loader"
	"github.com/nathoo/neuraldive/scores"
	"github.com/nathoo/neuraldive/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	fixed := false
	seed := time.Now().UnixNano()
	var contentDir string
	var scriptFile string
	var loadFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("neuraldive %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--fixed":
			fixed = true
		case "--seed":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--seed requires a number\n")
				os.Exit(1)
			}
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "--seed: %v\n", err)
				os.Exit(1)
			}
			seed = n
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		case "--load":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--load requires a file path\n")
				os.Exit(1)
			}
			i++
			loadFile = args[i]
		default:
			if contentDir == "" {
				contentDir = args[i]
			}
		}
	}

	if contentDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: neuraldive [--version] [--plain] [--seed <n>] [--fixed] [--script <file>] [--load <file>] <content_directory>\n")
		os.Exit(1)
	}

	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".neuraldive")
	_ = os.MkdirAll(stateDir, 0o755)

	logger := openLogger(filepath.Join(stateDir, "neuraldive.log"))

	// Load and compile Lua content.
	content, err := loader.Load(contentDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading content: %v\n", err)
		os.Exit(1)
	}

	cfg := engine.DefaultConfig()
	cfg.Seed = seed
	cfg.Fixed = fixed
	cfg.Logger = logger

	game, err := engine.New(content, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting game: %v\n", err)
		os.Exit(1)
	}

	if loadFile != "" {
		snap, err := save.Read(loadFile, content.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading save: %v\n", err)
			os.Exit(1)
		}
		if err := game.Restore(snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading save: %v\n", err)
			os.Exit(1)
		}
	}

	store, err := scores.Open(filepath.Join(stateDir, "scores.db"))
	if err != nil {
		logger.Warn().Err(err).Msg("score history unavailable")
		store = nil
	} else {
		defer store.Close()
	}

	savePath := filepath.Join(stateDir, "save.json")

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		printBanner(content.Title, content.Author, content.Version)
		c := cli.New(game)
		c.In = f
		c.EchoInput = true
		c.Scores = store
		c.SavePath = savePath
		c.Run()
		return
	}

	// Use the plain CLI if --plain or stdout is not a terminal.
	if plain || !isTerminal() {
		printBanner(content.Title, content.Author, content.Version)
		c := cli.New(game)
		c.Scores = store
		c.SavePath = savePath
		c.Run()
		return
	}

	if err := tui.Run(game, store, savePath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(title, author, version string) {
	line := title
	if version != "" {
		line += " v" + version
	}
	if author != "" {
		line += " by " + author
	}
	fmt.Printf("%s\n\n", line)
}

// openLogger writes structured logs to a file so they stay out of the
// game transcript. Logging is best-effort: on failure it is discarded.
func openLogger(path string) zerolog.Logger {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger()
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
