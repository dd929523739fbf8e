// Package cli implements the ordered option/subcommand dispatcher: a table
// of descriptors matched against argv in registration order, where Options
// are non-terminal flags and SubCommands consume the rest of argv and stop
// the pass.
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/NeddX/pciemgrd/internal/logging"
	"github.com/NeddX/pciemgrd/pkg/result"
)

// ArgType distinguishes non-terminal options from terminal subcommands.
type ArgType int

const (
	None ArgType = iota
	Option
	SubCommand
	Parsed
)

// Delegate is the callable a descriptor invokes once matched against argv.
// subArgs starts at the matched token itself (e.g. "--camconf=foo.json" or
// "join 5").
type Delegate func(subArgs []string) result.Result[result.Void]

// Arg is one entry of the ordered descriptor table.
type Arg struct {
	Aliases  [2]string
	Desc     string
	Type     ArgType
	Delegate Delegate

	order uint8
}

// CLI holds the raw argv, the descriptor table, and the auto-incrementing
// registration counter.
type CLI struct {
	args       []string
	logger     logging.Logger
	argMap     []Arg
	argOrder   uint8
	binaryName string
}

// New builds a dispatcher over args (argv, including the binary name at
// index 0).
func New(args []string, logger logging.Logger) *CLI {
	bin := "pciemgrd"
	if len(args) > 0 {
		bin = args[0]
	}
	return &CLI{args: args, logger: logger, binaryName: bin}
}

// AddArgument appends arg to the table, stamping it with the next
// registration order. Registration order is significant: it is the scan
// order DispatchArguments uses.
func (c *CLI) AddArgument(arg Arg) {
	arg.order = c.argOrder
	c.argOrder++
	c.argMap = append(c.argMap, arg)
}

// DispatchArguments runs the full seven-step algorithm described in
// SPEC_FULL.md §4.F. It returns Ok(false) when there was nothing to do
// (bare invocation), Ok(true) when some descriptor ran to completion, and
// Err when a delegate failed or an unrecognized token remained.
func (c *CLI) DispatchArguments() result.Result[bool] {
	if len(c.args) <= 1 {
		c.printUsage()
		return result.Ok(false)
	}

	sorted := make([]Arg, len(c.argMap))
	copy(sorted, c.argMap)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].order < sorted[j].order })

	parsed := make([]ArgType, len(c.args))

	for _, descriptor := range sorted {
		pos := c.findMatch(descriptor)
		if pos < 0 {
			continue
		}
		parsed[pos] = descriptor.Type
		subArgs := c.args[pos:]

		r := descriptor.Delegate(subArgs)
		if r.IsErr() {
			return result.Fail[bool](r.UnwrapErr())
		}
		if descriptor.Type == SubCommand {
			break
		}
	}

	for i := 1; i < len(parsed); i++ {
		if parsed[i] == SubCommand {
			break
		}
		if parsed[i] == None {
			return result.Fail[bool](result.NewErrf(result.UnknownCommand, "unrecognized argument: %s", c.args[i]))
		}
	}

	return result.Ok(true)
}

// findMatch scans argv for the first token whose prefix (before '=')
// matches either alias of descriptor, returning its index or -1.
func (c *CLI) findMatch(descriptor Arg) int {
	for i, tok := range c.args {
		name := tok
		if idx := strings.IndexByte(tok, '='); idx >= 0 {
			name = tok[:idx]
		}
		if name == descriptor.Aliases[0] || (descriptor.Aliases[1] != "" && name == descriptor.Aliases[1]) {
			return i
		}
	}
	return -1
}

func (c *CLI) printUsage() {
	pterm.DefaultSection.Println(fmt.Sprintf("Usage: %s [options...] [subcommand [args...]]", c.binaryName))
	for _, a := range c.argMap {
		aliases := a.Aliases[0]
		if a.Aliases[1] != "" {
			aliases = a.Aliases[0] + " | " + a.Aliases[1]
		}
		fmt.Printf("  %s\t%s\n", aliases, a.Desc)
	}
}
