package commands

import (
	"github.com/spf13/cobra"

	"github.com/flourishbhp/truecopy/internal/actionitem"
	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/logic"
)

// NewActionCommand creates the action subcommand and its children.
func NewActionCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Raise, withdraw and assign action items",
	}

	cmd.AddCommand(
		newTriggerCommand(cfg),
		newNotifyCommand(cfg),
		&cobra.Command{
			Use:     "type [flags] names...",
			Short:   "Register action types",
			Args:    cobra.MinimumNArgs(1),
			PreRunE: preRun(cfg),
			RunE: func(cmd *cobra.Command, args []string) error {
				return logic.RunAddActionType(cmd.Context(), cfg, args)
			},
		},
		newUserCommand(cfg),
	)

	return cmd
}

func newTriggerCommand(cfg *config.Config) *cobra.Command {
	var repeat bool

	cmd := &cobra.Command{
		Use:     "trigger [flags] action subject-identifier",
		Short:   "Raise the action while the subject has no uploads, withdraw it otherwise",
		Args:    cobra.ExactArgs(2), //nolint:mnd
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			return logic.RunTrigger(cmd.Context(), cfg, args[0], args[1], repeat)
		},
	}

	cmd.Flags().BoolVar(&repeat, "repeat", false, "Raise the action even when the subject has uploads")

	return cmd
}

func newNotifyCommand(cfg *config.Config) *cobra.Command {
	var (
		title, user, comment string
		groups               []string
	)

	cmd := &cobra.Command{
		Use:     "notify [flags] subject-identifier",
		Short:   "Assign a high priority data action item to a user",
		Args:    cobra.ExactArgs(1),
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			return logic.RunNotify(cmd.Context(), cfg, args[0], title, user, groups, comment)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Subject line of the action item")
	cmd.Flags().StringVar(&user, "user", "", "User the item is created by and assigned to")
	cmd.Flags().StringSliceVar(&groups, "group", actionitem.DefaultGroups, "Groups the user must belong to")
	cmd.Flags().StringVar(&comment, "comment", "", "Comment of the action item")

	return cmd
}

func newUserCommand(cfg *config.Config) *cobra.Command {
	var groups []string

	cmd := &cobra.Command{
		Use:     "user [flags] username",
		Short:   "Create a user that action items can be assigned to",
		Args:    cobra.ExactArgs(1),
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, args []string) error {
			return logic.RunAddUser(cmd.Context(), cfg, args[0], groups)
		},
	}

	cmd.Flags().StringSliceVar(&groups, "group", nil, "Groups to create and add the user to")

	return cmd
}
