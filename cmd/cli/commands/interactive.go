package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Browse the calendar interactively (load sessions once, navigate months and units)",
		Long: `Start an interactive session showing the current month of the active unit.
Navigate with 'next', 'prev', 'today' and 'goto YYYY-MM', switch units with 'unit <id>'
and list a day's sessions with 'day <n>'. Every other command is available too.

Type 'help' to see available commands, 'exit' or 'quit' to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Dashboard()
			if err != nil {
				return err
			}

			fmt.Println("\n🚀 Starting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")
			app.showGrid(d, d.Grid())

			return runInteractive(os.Stdin, os.Stdout, interactiveCommands(cmd.Root()))
		},
	}

	return cmd
}

// interactiveCommands indexes the root's commands by name and alias, leaving out those that make no sense inside a session
func interactiveCommands(root *cobra.Command) map[string]*cobra.Command {
	commands := make(map[string]*cobra.Command)
	for _, subCmd := range root.Commands() {
		switch subCmd.Name() {
		case "interactive", "completion", "help", "serve":
			continue
		}
		commands[subCmd.Name()] = subCmd
		for _, alias := range subCmd.Aliases {
			commands[alias] = subCmd
		}
	}
	return commands
}

// runInteractive reads command lines from in until exit, quit or end of input
func runInteractive(in io.Reader, out io.Writer, commands map[string]*cobra.Command) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			break
		}

		if done := dispatch(out, commands, scanner.Text()); done {
			fmt.Fprintln(out, "👋 Goodbye!")
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}

// dispatch runs one command line and reports whether the session should end
func dispatch(out io.Writer, commands map[string]*cobra.Command, line string) bool {
	parts, err := parseCommandLine(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(out, "❌ Error parsing command: %v\n\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}
	cmdName := parts[0]
	cmdArgs := parts[1:]

	switch cmdName {
	case "exit", "quit":
		return true
	case "help":
		printInteractiveHelp(out, commands)
		return false
	}

	targetCmd, exists := commands[cmdName]
	if !exists {
		fmt.Fprintf(out, "❌ Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
		return false
	}

	// Flags keep their values between runs unless reset
	targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		flag.Value.Set(flag.DefValue)
	})

	// Run RunE directly; Execute would re-run PersistentPreRunE and reload the app
	if err := targetCmd.ParseFlags(cmdArgs); err != nil {
		fmt.Fprintf(out, "❌ Error parsing flags: %v\n\n", err)
		return false
	}
	cmdArgs = targetCmd.Flags().Args()

	if targetCmd.Args != nil {
		if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(out, "❌ Error: %v\n\n", err)
			return false
		}
	}

	if targetCmd.RunE != nil {
		if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(out, "❌ Error: %v\n\n", err)
		}
	} else if targetCmd.Run != nil {
		targetCmd.Run(targetCmd, cmdArgs)
	}

	return false
}

func printInteractiveHelp(out io.Writer, commands map[string]*cobra.Command) {
	fmt.Fprintln(out, "\nAvailable commands:")

	// One line per command, not per alias
	names := make([]string, 0, len(commands))
	for name, cmd := range commands {
		if name == cmd.Name() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		use := cmd.Use
		if len(cmd.Aliases) > 0 {
			use += " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-34s %s\n", use, cmd.Short)
	}

	fmt.Fprintln(out, "\n  help                               Show this help message")
	fmt.Fprintln(out, "  exit, quit                         Exit the interactive session")
}

// parseCommandLine splits a command line into arguments, respecting single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune // 0 outside quotes
	quoted := false  // the current argument had quotes, so keep it even if empty

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
			quoted = true
		case unicode.IsSpace(r):
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args, nil
}
