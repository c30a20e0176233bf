package crew

// JSONFlag asks the worker for machine-readable output. Workers that predate
// it may ignore it; the response parser tolerates plain text.
const JSONFlag = "--json"

// Command is a concrete executable and argument vector.
type Command struct {
	Path string
	Args []string
}

// Build turns logical worker arguments into the command for the configured
// strategy:
//
//	wrapped: <launcher> run <binary> <args...>
//	module:  <interpreter> -m <module> <args...>
//	direct:  <binary> <args...>
func Build(opts Options, logicalArgs []string) Command {
	opts = opts.withDefaults()

	var prefix []string
	switch opts.Strategy {
	case StrategyWrapped:
		prefix = []string{"run", opts.WorkerBinary}
	case StrategyModule:
		prefix = []string{"-m", opts.WorkerModule}
	}

	args := make([]string, 0, len(prefix)+len(logicalArgs))
	args = append(args, prefix...)
	args = append(args, logicalArgs...)
	return Command{Path: opts.Executable, Args: args}
}

// RunArgs is the logical argument vector for invoking a crew. It is the only
// invocation-class command, so it alone carries JSONFlag.
func RunArgs(packageName, crewName, input string) []string {
	return []string{"run", packageName, crewName, "--input", input, JSONFlag}
}

// ListArgs is the logical argument vector for listing crews.
func ListArgs() []string {
	return []string{"list"}
}

// InfoArgs is the logical argument vector for describing one crew.
func InfoArgs(packageName, crewName string) []string {
	return []string{"info", packageName, crewName}
}
