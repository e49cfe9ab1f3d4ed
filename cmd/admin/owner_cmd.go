package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/straye-as/contact-distribution-api/internal/domain"
)

func newCreateOwnerCmd(connect connectFunc) *cobra.Command {
	var req domain.CreatePrincipalRequest

	cmd := &cobra.Command{
		Use:   "create-owner",
		Short: "Create a top-level owner account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			owner, err := svc.hierarchy.CreateOwner(cmd.Context(), &req)
			if err != nil {
				return fmt.Errorf("failed to create owner: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), owner)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Login email (required)")
	cmd.Flags().StringVar(&req.MobileNumber, "mobile", "", "Mobile number (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password, at least 6 characters (required)")
	for _, name := range []string{"name", "email", "mobile", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
