// Package settings holds the small set of recognized configuration
// options the query engine's compute functions consult. A single
// Settings value is shared by every query family
// that needs to branch on it; there is no query-engine entry for
// Settings itself; changing one currently requires rebuilding the
// Checker/translator/global-evaluation wiring that closed over it.
package settings

// Settings is the four independently toggleable options, each with
// its own default.
type Settings struct {
	// UseStandardLib allows the importer to resolve unknown modules
	// from the bundled standard library. Default: true.
	UseStandardLib bool

	// Optimize runs the optimizer pipeline inside core_expr. Default:
	// true.
	Optimize bool

	// EmitDebugInfo has the bytecode compiler record source spans.
	// Default: false.
	EmitDebugInfo bool

	// RunIO has global_inner execute IO actions rather than returning
	// the action value unevaluated. Default: true in a script/REPL
	// host, false in a library host — callers pick the right default
	// for their host at construction time.
	RunIO bool
}

// Default returns the script/REPL-host defaults.
func Default() Settings {
	return Settings{
		UseStandardLib: true,
		Optimize:       true,
		EmitDebugInfo:  false,
		RunIO:          true,
	}
}

// Library returns the defaults appropriate for a library host, where
// RunIO defaults to false.
func Library() Settings {
	s := Default()
	s.RunIO = false
	return s
}
