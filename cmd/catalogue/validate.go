package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"book-catalogue/internal/core"
	"book-catalogue/internal/core/model"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a catalogue JSON document offline",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	rep := core.NewBookValidator().ValidateCollection(payload)
	if errors.Is(rep.Err, model.ErrStructural) {
		return fmt.Errorf("%s: %w", args[0], rep.Err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "total: %d\ncorrupted: %d\nrecovered: %d\nusable: %d\n",
		rep.TotalRecords, rep.CorruptedCount, rep.RecoveredCount, len(rep.Records))
	for _, e := range rep.Errors {
		fmt.Fprintln(out, "  "+e)
	}
	if len(rep.Records) == 0 {
		return fmt.Errorf("no usable records in %s", args[0])
	}
	return nil
}
