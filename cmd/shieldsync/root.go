package main

import (
	"sync/atomic"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "shieldsync",
	Short:         "ShieldSync keeps the security asset platform in step with the Backstage catalog.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setCommandExecutionContext(commandExecutionContext{
			CommandPath:       cmd.CommandPath(),
			UsesStructuredLog: commandUsesStructuredLogging(cmd),
		})
	},
}

// commandExecutionContext records which command is running so fatal-path
// reporting can pick the right output format.
type commandExecutionContext struct {
	CommandPath       string
	UsesStructuredLog bool
}

var commandContext atomic.Value

func setCommandExecutionContext(ctx commandExecutionContext) {
	commandContext.Store(ctx)
}

func resetCommandExecutionContext() {
	commandContext.Store(commandExecutionContext{})
}

func currentCommandExecutionContext() commandExecutionContext {
	ctx, _ := commandContext.Load().(commandExecutionContext)
	return ctx
}

// Long-running commands emit structured logs; short inspection commands
// print plain text for humans.
func commandUsesStructuredLogging(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "serve", "import":
			return true
		}
	}
	return false
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, importCmd, cacheCmd)
}
