package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/trailcache"
)

func newTranslateCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "translate TEXT...",
		Short: "Resolve translations through memory, the vault and the provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return errors.New("--to is required")
			}
			if from == "" {
				from = a.cfg.SourceLang
			}

			store, err := a.openVault()
			if err != nil {
				return err
			}
			r := a.resolver(store, a.oracle())
			for _, text := range args {
				fmt.Fprintln(a.stdout, r.Translate(cmd.Context(), text, from, to))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target language code (e.g., ne)")
	cmd.Flags().StringVar(&from, "from", "", "Source language code (default: $TRAILCACHE_SOURCE_LANG)")
	return cmd
}

func newPreloadCmd(a *app) *cobra.Command {
	var to, file string

	cmd := &cobra.Command{
		Use:   "preload",
		Short: "Seed the vault with common phrases for a target language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return errors.New("--to is required")
			}
			phrases := trailcache.CommonPhrases
			if file != "" {
				var err error
				if phrases, err = readPhrases(file); err != nil {
					return err
				}
			}

			store, err := a.openVault()
			if err != nil {
				return err
			}
			r := a.resolver(store, a.oracle())
			r.PreloadCommon(cmd.Context(), phrases, to)

			s := r.Stats()
			fmt.Fprintf(a.stdout, "phrases:       %d\n", len(phrases))
			fmt.Fprintf(a.stdout, "from vault:    %d\n", s.VaultHits)
			fmt.Fprintf(a.stdout, "from provider: %d\n", s.ProviderCalls-s.ProviderFailures)
			fmt.Fprintf(a.stdout, "vault size:    %d\n", r.VaultSize(cmd.Context()))
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target language code (e.g., ne)")
	cmd.Flags().StringVar(&file, "file", "", "File with one phrase per line (default: built-in list)")
	return cmd
}

// readPhrases reads non-empty lines, skipping # comments.
func readPhrases(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening phrase file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading phrase file: %w", err)
	}
	return out, nil
}
