package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInstallCmd(a *app) *cobra.Command {
	var waitForSkip bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Pre-cache the app shell and map tiles for the current generation",
		Long:  "install fetches every shell asset (all-or-nothing) and every tile of the manifest regions (best-effort) into the resource store, then activates the generation and deletes older ones.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			icpt, err := a.interceptor(a.oracle())
			if err != nil {
				return err
			}

			if waitForSkip {
				err = icpt.Install(cmd.Context())
			} else {
				err = icpt.Start(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("install %s: %w", icpt.Generation(), err)
			}
			icpt.Wait()

			m := icpt.Manifest()
			s := icpt.Stats()
			fmt.Fprintf(a.stdout, "generation:   %s\n", icpt.Generation())
			fmt.Fprintf(a.stdout, "state:        %s\n", icpt.State())
			fmt.Fprintf(a.stdout, "shell assets: %d\n", len(m.ShellAssets))
			fmt.Fprintf(a.stdout, "tiles cached: %d (failed %d)\n", s.TilesSeeded, s.TileFailures)
			return nil
		},
	}

	cmd.Flags().BoolVar(&waitForSkip, "no-activate", false, "Install without activating; older generations are kept")
	return cmd
}
