// Package repl implements the interactive front end over the
// query-engine database: every line typed in becomes the new inline
// source of a scratch module, re-typechecked and re-evaluated on the
// spot, with the engine's memoization doing the incremental work. An
// unchanged line is a cache hit end to end.
package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/glu-lang/core/internal/glu"
	"github.com/glu-lang/core/internal/typedast"
)

// scratchModule is the inline module name each interactive line is
// written to.
const scratchModule = "repl"

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// REPL drives a glu.Database interactively.
type REPL struct {
	db      *glu.Database
	fresh   func() *glu.Database // rebuilds the database for :reset
	history []string
	version string
}

// New builds a REPL over the database fresh returns. fresh is kept so
// :reset can discard every cache and inline override at once.
func New(fresh func() *glu.Database, version string) *REPL {
	if version == "" {
		version = "dev"
	}
	return &REPL{db: fresh(), fresh: fresh, version: version}
}

// Run starts the interactive loop on stdin/stdout.
func (r *REPL) Run() {
	fmt.Printf("%s v%s - incremental glu evaluator\n", bold("glu"), r.version)
	fmt.Println("Type an expression, :help for commands.")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("glu> ")
		if err != nil {
			if err == io.EOF || err == liner.ErrPromptAborted {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		r.history = append(r.history, input)

		if strings.HasPrefix(input, ":") {
			if quit := r.HandleCommand(input, os.Stdout); quit {
				return
			}
			continue
		}

		r.Eval(input, os.Stdout)
	}
}

// HandleCommand processes a :command line, writing output to out. It
// reports whether the session should end.
func (r *REPL) HandleCommand(cmd string, out io.Writer) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case ":help", ":h":
		r.printHelp(out)

	case ":quit", ":q", ":exit":
		fmt.Fprintln(out, green("Goodbye!"))
		return true

	case ":type", ":t":
		if len(parts) < 2 {
			fmt.Fprintln(out, "Usage: :type <expression>")
			return false
		}
		r.showType(strings.Join(parts[1:], " "), out)

	case ":import", ":i":
		if len(parts) < 2 {
			fmt.Fprintln(out, "Usage: :import <module>")
			return false
		}
		r.importModule(parts[1], out)

	case ":history":
		for i, h := range r.history {
			fmt.Fprintf(out, "%3d  %s\n", i+1, h)
		}

	case ":reset":
		r.db = r.fresh()
		fmt.Fprintln(out, yellow("Session reset: caches and inline modules dropped"))

	default:
		fmt.Fprintf(out, "Unknown command %s (try :help)\n", red(parts[0]))
	}
	return false
}

// Eval evaluates input as the scratch module's new source and prints
// its value and type.
func (r *REPL) Eval(input string, out io.Writer) {
	if err := r.db.AddModule(scratchModule, input); err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
		return
	}
	res := r.db.Global(scratchModule)
	if res.Err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Error"), res.Err)
		return
	}
	fmt.Fprintf(out, "%s : %s\n", green(res.Value.Value()), res.Type)
}

// showType typechecks input without evaluating it (:type).
func (r *REPL) showType(input string, out io.Writer) {
	if err := r.db.AddModule(scratchModule, input); err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
		return
	}
	res := r.db.TypecheckedModule(scratchModule)
	if res.Err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Error"), res.Err)
		return
	}
	if res.Program == nil || len(res.Program.Decls) == 0 {
		fmt.Fprintln(out, "No expression to type")
		return
	}
	last := res.Program.Decls[len(res.Program.Decls)-1]
	fmt.Fprintf(out, "%s : %s\n", input, cyan(typedast.FormatType(last.GetType())))
}

// importModule forces a module's global (:import), so later lines can
// reach it through the resolver without paying compilation again.
func (r *REPL) importModule(module string, out io.Writer) {
	res := r.db.Global(module)
	if res.Err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Error"), res.Err)
		return
	}
	fmt.Fprintf(out, "%s imported %s : %s\n", green("✓"), module, res.Type)
}

func (r *REPL) printHelp(out io.Writer) {
	fmt.Fprintln(out, bold("Commands:"))
	fmt.Fprintln(out, "  :help, :h             Show this help")
	fmt.Fprintln(out, "  :type <expr>, :t      Show an expression's type without running it")
	fmt.Fprintln(out, "  :import <module>, :i  Force a module's global into the cache")
	fmt.Fprintln(out, "  :history              Show input history")
	fmt.Fprintln(out, "  :reset                Drop all caches and inline modules")
	fmt.Fprintln(out, "  :quit, :q             Exit")
}
