// sqlembed finds SQL embedded in host-language source code and reports
// where each fragment lives. It runs as a one-shot CLI, a file watcher,
// or an MCP stdio server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/sqlembed/internal/config"
	"github.com/standardbeagle/sqlembed/internal/debug"
	"github.com/standardbeagle/sqlembed/internal/lang"
	"github.com/standardbeagle/sqlembed/internal/mcp"
	"github.com/standardbeagle/sqlembed/internal/scan"
	"github.com/standardbeagle/sqlembed/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "sqlembed",
		Usage:   "extract embedded SQL from source files",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a .sqlembed.kdl config file",
				Value:   ".sqlembed.kdl",
			},
			&cli.StringFlag{
				Name:  "sites",
				Usage: "inline JSON array of call sites, overriding the config file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "write diagnostics to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			extractCommand(),
			watchCommand(),
			serveCommand(),
			languagesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "extract SQL from files or glob patterns",
		ArgsUsage: "<file|pattern>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit results as JSON",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "parallel file limit",
				Value: scan.DefaultConcurrency,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one file or glob pattern is required")
			}

			sites, languages, err := resolveSites(c)
			if err != nil {
				return err
			}

			paths, err := scan.Expand(c.Args().Slice())
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no files match %v", c.Args().Slice())
			}

			scanner := scan.NewScanner(sites, languages, c.Int("concurrency"))
			results, err := scanner.Scan(c.Context, paths)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			for _, result := range results {
				printResult(result)
			}
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "watch files and re-extract on change",
		ArgsUsage: "<file|pattern>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit results as JSON lines",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "delay before re-extracting after a change",
				Value: scan.DefaultDebounce,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one file or glob pattern is required")
			}

			sites, languages, err := resolveSites(c)
			if err != nil {
				return err
			}

			paths, err := scan.Expand(c.Args().Slice())
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no files match %v", c.Args().Slice())
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scanner := scan.NewScanner(sites, languages, scan.DefaultConcurrency)
			asJSON := c.Bool("json")
			enc := json.NewEncoder(os.Stdout)

			// Initial pass before settling into the watch loop.
			results, err := scanner.Scan(ctx, paths)
			if err != nil {
				return err
			}
			for _, result := range results {
				if asJSON {
					enc.Encode(result)
				} else {
					printResult(result)
				}
			}

			err = scan.Watch(ctx, scanner, paths, c.Duration("debounce"), func(result scan.FileResult) {
				if asJSON {
					enc.Encode(result)
				} else {
					printResult(result)
				}
			})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the extractor over MCP stdio",
		Action: func(c *cli.Context) error {
			debug.SetMCPMode(true)
			if c.Bool("debug") {
				if logPath, err := debug.InitLogFile(); err == nil {
					defer debug.CloseLogFile()
					debug.LogMCP("log file: %s\n", logPath)
				}
			}

			sites, _, err := resolveSites(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := mcp.NewServer(sites)
			return server.Run(ctx)
		},
	}
}

func languagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "languages",
		Usage: "list supported host languages",
		Action: func(c *cli.Context) error {
			for _, name := range lang.Names() {
				grammar, _ := lang.ByName(name)
				fmt.Printf("%-12s %v\n", name, grammar.Extensions())
			}
			return nil
		},
	}
}

// resolveSites determines the active site list and language restriction:
// an inline --sites JSON payload wins, then the KDL config file, then the
// built-in defaults. A payload that fails to decode falls back to the next
// layer rather than aborting.
func resolveSites(c *cli.Context) ([]config.QuerySite, []string, error) {
	if inline := c.String("sites"); inline != "" {
		sites, err := config.DecodeSites([]byte(inline))
		if err != nil || len(sites) == 0 {
			debug.Printf("inline sites rejected, falling back: %v\n", err)
		} else {
			return sites, nil, nil
		}
	}

	cfg, err := config.LoadKDL(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if cfg != nil {
		return cfg.Sites, cfg.Languages, nil
	}
	return nil, nil, nil
}

func printResult(result scan.FileResult) {
	if len(result.Nodes) == 0 {
		return
	}
	fmt.Printf("%s: %d fragment(s)\n", result.Path, len(result.Nodes))
	for _, node := range result.Nodes {
		content := node.Content
		if len(content) > 60 {
			content = content[:57] + "..."
		}
		fmt.Printf("  %s (call at line %d): %s\n", node.CodeRange, node.MethodLine, content)
	}
}
