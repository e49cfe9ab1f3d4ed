package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type sequenceOutput struct {
	LastValue int    `json:"lastValue"`
	Next      string `json:"next"`
}

func newSequenceCmd(connect connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Inspect or advance the global agent number sequence",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the last issued sequence value and the next agent number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			last, next, err := svc.numbers.Current(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sequenceOutput{LastValue: last, Next: next})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <value>",
		Short: "Advance the sequence so the next agent receives value+1 (never moves backwards)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q: must be an integer", args[0])
			}

			svc, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			if _, err := svc.numbers.Set(cmd.Context(), value); err != nil {
				return err
			}
			last, next, err := svc.numbers.Current(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sequenceOutput{LastValue: last, Next: next})
		},
	})

	return cmd
}
