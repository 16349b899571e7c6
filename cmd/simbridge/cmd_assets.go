package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/wippyai/sim-bridge/assetstore"
	"github.com/wippyai/sim-bridge/scenefile"
)

func newAssetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage stored material and body property templates",
	}
	cmd.AddCommand(
		newAssetsListCmd(a),
		newAssetsImportCmd(a),
		newAssetsDeleteCmd(a),
	)
	return cmd
}

func newAssetsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No templates stored.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tNAME\tVALUES")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Kind, r.Name, describeRecord(r))
			}
			return tw.Flush()
		},
	}
}

func newAssetsImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <scene.yaml>...",
		Short: "Store the inline templates of scene files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			lib := assetstore.NewLibrary()
			for _, path := range args {
				f, err := scenefile.Load(path)
				if err != nil {
					return err
				}
				if err := f.Templates(lib); err != nil {
					return err
				}
			}
			if err := lib.Save(cmd.Context(), store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d templates into %s store %s\n",
				lib.Len(), a.cfg.Assets.Driver, a.cfg.Assets.Path)
			return nil
		},
	}
}

func newAssetsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <material|properties> <name>",
		Short: "Delete a stored template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Delete(cmd.Context(), assetstore.Kind(args[0]), args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
}

func describeRecord(r assetstore.Record) string {
	switch {
	case r.Material != nil:
		d := r.Material.Def()
		return fmt.Sprintf("density=%g friction=%g restitution=%g", d.Density, d.Friction, d.Restitution)
	case r.Properties != nil:
		d := r.Properties.Def()
		return fmt.Sprintf("linear_damping=%g angular_damping=%g gravity_scale=%g allow_sleep=%t",
			d.LinearDamping, d.AngularDamping, d.GravityScale, d.AllowSleep)
	}
	return ""
}
