// Command gluc is the CLI front end for the query-engine core in
// internal/glu: flag.Bool for -version/-help, flag.Arg(0) dispatch,
// colorized success/error reporting via fatih/color.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/glu-lang/core/internal/config"
	"github.com/glu-lang/core/internal/glu"
	"github.com/glu-lang/core/internal/importer"
	"github.com/glu-lang/core/internal/repl"
	"github.com/glu-lang/core/internal/settings"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
		configFlag  = flag.String("config", "gluc.yaml", "Path to a YAML settings overlay")
	)
	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	cfg, err := config.Load(*configFlag, settings.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "run":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing module or file argument\n", red("Error"))
			fmt.Println("Usage: gluc run <module>")
			os.Exit(1)
		}
		runModule(cfg, flag.Arg(1))

	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing module or file argument\n", red("Error"))
			fmt.Println("Usage: gluc check <module>")
			os.Exit(1)
		}
		checkModule(cfg, flag.Arg(1))

	case "repl":
		runRepl(cfg)

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), flag.Arg(0))
		printHelp()
		os.Exit(1)
	}
}

// newDatabase wires a glu.Database against the project's FSImporter, the
// same resolution order internal/importer.NewFSImporter documents:
// project tree first, then the bundled stdlib when cfg.UseStandardLib.
func newDatabase(cfg settings.Settings) *glu.Database {
	return glu.New(cfg, importer.NewFSImporter(cfg.UseStandardLib))
}

// moduleNameFor turns a CLI argument into a module name: a bare name
// passes through, a path ending in .glu is loaded as an inline
// add_module override under its basename.
func moduleNameFor(db *glu.Database, arg string) (string, error) {
	if !strings.HasSuffix(arg, ".glu") {
		return arg, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", err
	}
	name := strings.TrimSuffix(filepath.Base(arg), ".glu")
	if err := db.AddModule(name, string(data)); err != nil {
		return "", err
	}
	return name, nil
}

func runModule(cfg settings.Settings, arg string) {
	db := newDatabase(cfg)
	module, err := moduleNameFor(db, arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	fmt.Printf("%s Evaluating %s...\n", cyan("→"), module)
	res := db.Global(module)
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), res.Err)
		os.Exit(1)
	}
	fmt.Printf("%s %s : %s\n", green("✓"), module, res.Type)
}

func checkModule(cfg settings.Settings, arg string) {
	db := newDatabase(cfg)
	module, err := moduleNameFor(db, arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	fmt.Printf("%s Type checking %s...\n", cyan("→"), module)
	res := db.TypecheckedModule(module)
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), res.Err)
		os.Exit(1)
	}
	fmt.Printf("%s %s type-checks\n", green("✓"), module)
}

// runRepl hands the session to internal/repl, which drives add_module
// + global() per line against a fresh database the :reset command can
// rebuild at will.
func runRepl(cfg settings.Settings) {
	r := repl.New(func() *glu.Database { return newDatabase(cfg) }, Version)
	r.Run()
}

func printVersion() {
	fmt.Printf("gluc %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("Built:  %s\n", BuildTime)
	}
}

func printHelp() {
	fmt.Println(bold("gluc - incremental glu compiler and evaluator"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gluc <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run <module|file.glu>    Evaluate a module's root expression")
	fmt.Println("  check <module|file.glu>  Typecheck a module without running it")
	fmt.Println("  repl                     Start an interactive session")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -config string  Path to a YAML settings overlay (default \"gluc.yaml\")")
	fmt.Println("  -version        Print version information")
	fmt.Println("  -help           Show this help")
}
