package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/context-keeper/internal/diff"
)

var (
	diffLabel string
	diffCheck bool
)

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW | diff --check [FILE]",
	Short: "Compute a unified diff between two files, or validate one",
	Long: `Compute prints the unified diff that would be recorded for a change from
OLD to NEW. With --check it validates a diff read from FILE, or stdin, and
reports its hunk and line counts.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if diffCheck {
			return cobra.MaximumNArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if diffCheck {
			return runDiffCheck(cmd.OutOrStdout(), cmd.InOrStdin(), args)
		}
		oldContent, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		newContent, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		label := diffLabel
		if label == "" {
			label = args[1]
		}
		_, err = io.WriteString(cmd.OutOrStdout(), diff.Compute(string(oldContent), string(newContent), label))
		return err
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVar(&diffLabel, "label", "", "Path used in the diff headers (default NEW)")
	diffCmd.Flags().BoolVar(&diffCheck, "check", false, "Validate a unified diff instead of computing one")
}

func runDiffCheck(out io.Writer, in io.Reader, args []string) error {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(in)
	}
	if err != nil {
		return err
	}
	parsed, err := diff.Parse(string(data))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "valid: %d hunk(s), +%d -%d\n", parsed.HunkCount(), parsed.Added, parsed.Removed)
	return err
}
