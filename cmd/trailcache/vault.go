package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/trailcache"
	"github.com/ZaguanLabs/trailcache/vault"
)

func newVaultCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Inspect and maintain the translation vault",
	}
	cmd.AddCommand(
		newVaultSizeCmd(a),
		newVaultExportCmd(a),
		newVaultImportCmd(a),
		newVaultClearCmd(a),
	)
	return cmd
}

func newVaultSizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the number of stored translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openVault()
			if err != nil {
				return err
			}
			n, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, n)
			return nil
		},
	}
}

func newVaultExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored translation as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openVault()
			if err != nil {
				return err
			}
			meta := map[string]string{
				"generator": trailcache.UserAgent(),
				"driver":    a.cfg.VaultDriver,
			}
			exp := vault.NewExporter(store)

			var n int
			if output == "" || output == "-" {
				n, err = exp.Export(cmd.Context(), a.stdout, meta)
			} else {
				n, err = exp.ExportToFile(cmd.Context(), output, meta)
			}
			if err != nil {
				return err
			}
			if output != "" && output != "-" {
				fmt.Fprintf(a.stdout, "exported %d translations to %s\n", n, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newVaultImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load translations from a JSON export, skipping ones already stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openVault()
			if err != nil {
				return err
			}
			res, err := vault.NewImporter(store).ImportFromFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "imported %d, skipped %d, failed %d\n", res.Imported, res.Skipped, res.Failed)
			return nil
		},
	}
}

func newVaultClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored translation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the vault without --yes")
			}
			store, err := a.openVault()
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "vault cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}
