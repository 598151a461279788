package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newArchiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage saved graph snapshots",
	}
	cmd.AddCommand(
		newArchiveListCmd(a),
		newArchiveSaveCmd(a),
		newArchiveShowCmd(a),
		newArchiveDeleteCmd(a),
		newArchiveRestoreCmd(a),
	)
	return cmd
}

func newArchiveListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := svc.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FILENAME\tOWNER\tINSTANCE\tSAVED AT\tDESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Filename, e.Owner, e.Instance,
					e.SavedAt.Format("2006-01-02 15:04:05"), e.Description)
			}
			return w.Flush()
		},
	}
}

func newArchiveSaveCmd(a *app) *cobra.Command {
	var owner, description string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Snapshot the instance into the archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.SaveSnapshot(cmd.Context(), a.instance, owner, description)
			if err != nil {
				return err
			}
			if res.Duplicate {
				fmt.Fprintf(cmd.OutOrStdout(), "not saved: identical to %s\n", res.Entry.Filename)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", res.Entry.Filename)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "who saves the snapshot")
	cmd.Flags().StringVarP(&description, "description", "d", "", "free text remark")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newArchiveShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <filename>",
		Short: "Print a snapshot's catalog entry and graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			entry, g, err := svc.ShowSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"entry": entry, "graph": g})
		},
	}
}

func newArchiveDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <filename>",
		Short: "Remove a snapshot and its catalog row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newArchiveRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <filename>",
		Short: "Import a snapshot into the instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.RestoreSnapshot(cmd.Context(), args[0], a.instance)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}
