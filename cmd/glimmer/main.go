// Glimmer CLI - decodes effect-script containers and keeps an archive of them
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/glimmerco/glimmer/internal/archive"
	"github.com/glimmerco/glimmer/internal/config"
	"github.com/glimmerco/glimmer/pkg/db/pebble"
	"github.com/glimmerco/glimmer/pkg/effect"
	"github.com/glimmerco/glimmer/pkg/log"
)

func main() {
	configDir := flag.String("config", "", "Directory containing glimmer.cfg.json")
	mode := flag.String("mode", "", "Record boundary mode: bounded or unbounded (overrides config)")
	strict := flag.Bool("strict", false, "Treat invalid opcodes as errors (overrides config)")
	asJSON := flag.Bool("json", false, "Emit JSON instead of a listing")

	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level, err := log.ParseLogLevel(config.LogLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logType := log.ConsoleLogger
	if config.LogFormat() == "json" {
		logType = log.JSONLogger
	}
	log.Init(log.Options{LogLevel: level, Type: logType, Out: os.Stderr})

	// Flags beat config, but only when actually set.
	passed := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { passed[f.Name] = true })
	modeName := config.DecodeMode()
	if passed["mode"] {
		modeName = *mode
	}
	strictOn := config.DecodeStrict()
	if passed["strict"] {
		strictOn = *strict
	}

	boundary, err := effect.ParseBoundaryMode(modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts := effect.Options{Mode: boundary, Strict: strictOn, Log: &log.Decode}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "dump":
		err = runDump(rest, opts, *asJSON)
	case "json":
		err = runDump(rest, opts, true)
	case "ingest":
		err = runIngest(rest, opts)
	case "ls":
		err = runList(rest)
	case "show":
		err = runShow(rest, opts, *asJSON)
	case "rm":
		err = runRemove(rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: glimmer [options] <command> [args...]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  dump <file>...    Decode containers and print a listing\n")
	fmt.Fprintf(os.Stderr, "  json <file>...    Decode containers and print JSON\n")
	fmt.Fprintf(os.Stderr, "  ingest <path>...  Decode container files or directories of them into the archive\n")
	fmt.Fprintf(os.Stderr, "  ls                List archived containers\n")
	fmt.Fprintf(os.Stderr, "  show <ref>        Print an archived container by name or id prefix\n")
	fmt.Fprintf(os.Stderr, "  rm <ref>...       Remove archived containers\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  glimmer dump effects.bin\n")
	fmt.Fprintf(os.Stderr, "  glimmer -mode unbounded -json dump effects.bin\n")
	fmt.Fprintf(os.Stderr, "  glimmer ingest assets/ef_data_*.bin\n")
	fmt.Fprintf(os.Stderr, "  glimmer show ef_data_spark.bin\n")
}

func openArchive() (*archive.Archive, error) {
	kv, err := pebble.New(config.ArchivePath())
	if err != nil {
		return nil, err
	}
	return archive.New(kv, log.Archive), nil
}

func runDump(paths []string, opts effect.Options, asJSON bool) error {
	if len(paths) == 0 {
		return fmt.Errorf("dump: no input files")
	}
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tbl, err := effect.DecodeTable(raw, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if asJSON {
			out, err := json.MarshalIndent(tbl, "", "  ")
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s\n", out)
			continue
		}
		if len(paths) > 1 {
			fmt.Printf("; %s\n", path)
		}
		fmt.Print(tbl.Listing())
	}
	return nil
}

// collectFiles expands directory arguments into the regular files below
// them, keeping plain file arguments as they are.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func runIngest(paths []string, opts effect.Options) error {
	files, err := collectFiles(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("ingest: no input files")
	}
	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer arc.Close()

	g := new(errgroup.Group)
	g.SetLimit(4)
	for _, path := range files {
		g.Go(func() error {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			tbl, err := effect.DecodeTable(raw, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			id, err := arc.Ingest(filepath.Base(path), raw, tbl, opts.Mode)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s  %s\n", id, filepath.Base(path))
			return nil
		})
	}
	return g.Wait()
}

func runList(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("ls: unexpected arguments")
	}
	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer arc.Close()

	entries, err := arc.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	fmt.Printf("%-12s  %-24s  %10s  %7s  %-9s  %s\n",
		"ID", "NAME", "SIZE", "RECORDS", "MODE", "INGESTED")
	for _, e := range entries {
		fmt.Printf("%-12.12s  %-24s  %10d  %7d  %-9s  %s\n",
			e.ID.String(), e.Meta.Name, e.Meta.Size, e.Meta.Records, e.Meta.Mode,
			e.Meta.IngestedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runShow(args []string, opts effect.Options, asJSON bool) error {
	if len(args) != 1 {
		return fmt.Errorf("show: want exactly one name or id prefix")
	}
	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer arc.Close()

	tbl, meta, err := arc.Load(args[0], opts)
	if err != nil {
		return err
	}
	if asJSON {
		out, err := json.MarshalIndent(tbl, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", out)
		return nil
	}
	fmt.Printf("; %s  %d bytes  %s  ingested %s\n",
		meta.Name, meta.Size, meta.Mode, meta.IngestedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Print(tbl.Listing())
	return nil
}

func runRemove(refs []string) error {
	if len(refs) == 0 {
		return fmt.Errorf("rm: no references")
	}
	arc, err := openArchive()
	if err != nil {
		return err
	}
	defer arc.Close()

	for _, ref := range refs {
		id, err := arc.Resolve(ref)
		if err != nil {
			return fmt.Errorf("%s: %w", ref, err)
		}
		if err := arc.Delete(id); err != nil {
			return fmt.Errorf("%s: %w", ref, err)
		}
		fmt.Printf("deleted %.12s  (%s)\n", id.String(), ref)
	}
	return nil
}
