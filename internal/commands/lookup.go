package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/logic"
)

// NewConsentCommand creates the consent subcommand.
func NewConsentCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "consent [flags] child-identifier",
		Short:   "Show the caregiver, assent and consent version of a child",
		Args:    cobra.ExactArgs(1),
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			return logic.RunConsent(cmd.Context(), cfg, args[0])
		},
	}
}

// NewAppointmentCommand creates the appointment subcommand.
func NewAppointmentCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointment",
		Aliases: []string{"appt"},
		Short:   "Appointment lookups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "previous [flags] appointment-id",
		Short:   "Show the appointment before the given one",
		Args:    cobra.ExactArgs(1),
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid appointment ID %q: %w", args[0], err)
			}

			return logic.RunPreviousAppointment(cmd.Context(), cfg, id)
		},
	})

	return cmd
}
