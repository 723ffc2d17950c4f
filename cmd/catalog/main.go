// File: cmd/catalog/main.go
//
// catalog maintains the image catalog used by the bot.
//
//	catalog                 print stats, then the listing
//	catalog add [category]  import every image in the images directory
//	catalog stats
//	catalog list
//	catalog delete <id>
//	catalog watch [category] import existing images, then new ones as they appear
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"

	"telegram-random-image/internal/config"
	"telegram-random-image/internal/domain"
	"telegram-random-image/internal/infra/db"
	"telegram-random-image/internal/infra/logging"
	"telegram-random-image/internal/infra/watcher"
	"telegram-random-image/internal/usecase"
)

const usage = `usage: catalog [-config file] [command]

commands:
  add [category]     import images from the images directory (default category "general")
  stats              show totals per category
  list               list every catalogued image
  delete <id>        remove one record
  watch [category]   import, then keep importing new files as they appear

no command prints stats followed by the listing`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := flag.String("config", "", "optional path to YAML config file")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logCfg := cfg.Log
	logCfg.Format = "console"
	logger := logging.New(logCfg, cfg.Runtime.Dev)

	store, err := db.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "catalog store:", err)
		os.Exit(1)
	}
	code := run(ctx, flag.Args(), os.Stdout, usecase.NewCatalogUseCase(store.Images, logger), cfg.Storage.ImagesDir, logger)
	store.Close()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, out io.Writer, uc usecase.CatalogUseCase, imagesDir string, logger *zerolog.Logger) int {
	if len(args) == 0 {
		if err := printStats(ctx, out, uc); err != nil {
			return fail(out, err)
		}
		fmt.Fprintln(out)
		if err := printListing(ctx, out, uc); err != nil {
			return fail(out, err)
		}
		return 0
	}

	switch args[0] {
	case "add":
		return runImport(ctx, out, uc, imagesDir, argOr(args, 1, ""))
	case "stats":
		if err := printStats(ctx, out, uc); err != nil {
			return fail(out, err)
		}
		return 0
	case "list":
		if err := printListing(ctx, out, uc); err != nil {
			return fail(out, err)
		}
		return 0
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(out, usage)
			return 2
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			fmt.Fprintf(out, "❌ invalid id %q\n", args[1])
			return 2
		}
		return runDelete(ctx, out, uc, id)
	case "watch":
		category := argOr(args, 1, "")
		if code := runImport(ctx, out, uc, imagesDir, category); code != 0 {
			return code
		}
		return runWatch(ctx, out, uc, imagesDir, category, logger)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return 0
	default:
		fmt.Fprintf(out, "unknown command %q\n\n%s\n", args[0], usage)
		return 2
	}
}

func runImport(ctx context.Context, out io.Writer, uc usecase.CatalogUseCase, dir, category string) int {
	res, err := uc.Import(ctx, dir, category)
	if errors.Is(err, domain.ErrDirectoryNotFound) {
		fmt.Fprintf(out, "❌ directory %s does not exist\n", dir)
		return 1
	}
	if err != nil {
		return fail(out, err)
	}
	fmt.Fprintln(out, "📊 Import result:")
	fmt.Fprintf(out, "   ✓ added:   %d\n", res.Added)
	fmt.Fprintf(out, "   ⚠ skipped: %d\n", res.Skipped)
	fmt.Fprintf(out, "   📁 directory: %s\n", res.Directory)
	return 0
}

func runDelete(ctx context.Context, out io.Writer, uc usecase.CatalogUseCase, id int64) int {
	err := uc.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(out, "⚠ image %d not found\n", id)
		return 1
	}
	if err != nil {
		return fail(out, err)
	}
	fmt.Fprintf(out, "✓ image %d deleted\n", id)
	return 0
}

func runWatch(ctx context.Context, out io.Writer, uc usecase.CatalogUseCase, dir, category string, logger *zerolog.Logger) int {
	w := watcher.New(dir, usecase.IsImageName, logger)
	err := w.Run(ctx, func(ctx context.Context, path string) {
		added, err := uc.ImportFile(ctx, path, category)
		switch {
		case err != nil:
			logger.Error().Err(err).Str("path", path).Msg("import failed")
		case added:
			fmt.Fprintf(out, "✓ added: %s\n", path)
		}
	})
	if err != nil {
		return fail(out, err)
	}
	return 0
}

func printStats(ctx context.Context, out io.Writer, uc usecase.CatalogUseCase) error {
	st, err := uc.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "📊 Catalog statistics:")
	fmt.Fprintf(out, "   total images: %d\n", st.Total)
	if len(st.ByCategory) > 0 {
		fmt.Fprintln(out, "\n   by category:")
		for _, c := range st.ByCategory {
			fmt.Fprintf(out, "   • %s: %d\n", c.Category, c.Count)
		}
	}
	return nil
}

func printListing(ctx context.Context, out io.Writer, uc usecase.CatalogUseCase) error {
	records, err := uc.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "⚠ the catalog is empty")
		return nil
	}
	fmt.Fprintln(out, "📋 Images:")
	for _, r := range records {
		fmt.Fprintf(out, "%d. %s (%s) - %s\n", r.ID, r.Filename, r.Category, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func argOr(args []string, i int, def string) string {
	if len(args) > i {
		return args[i]
	}
	return def
}

func fail(out io.Writer, err error) int {
	fmt.Fprintln(out, "❌", err)
	return 1
}
