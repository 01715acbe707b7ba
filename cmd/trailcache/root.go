package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/trailcache"
	"github.com/ZaguanLabs/trailcache/config"
)

// flagOverrides holds persistent flags. Only flags the user actually set
// replace values from the environment.
type flagOverrides struct {
	vaultDriver  string
	vaultPath    string
	resourcePath string
	provider     string
	manifest     string
	origin       string
	sourceLang   string
	logLevel     string
	logFormat    string
	offline      bool
}

func newRootCmd(a *app) *cobra.Command {
	var fo flagOverrides

	root := &cobra.Command{
		Use:           trailcache.Name,
		Short:         trailcache.Description,
		Long:          "trailcache keeps a trekking app usable without a network: it pre-caches the app shell and map tiles, and resolves UI translations through memory, a durable vault and a translation provider.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(&a.cfg); err != nil {
				return err
			}
			fo.apply(cmd, &a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.setupLogger()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&fo.vaultDriver, "vault-driver", "", "Vault driver: sqlite, redis or memory")
	pf.StringVar(&fo.vaultPath, "vault-path", "", "SQLite vault file")
	pf.StringVar(&fo.resourcePath, "resource-path", "", "SQLite resource cache file")
	pf.StringVar(&fo.provider, "provider", "", "Translation provider: mymemory, openai or mock")
	pf.StringVar(&fo.manifest, "manifest", "", "YAML manifest of shell assets and tile regions")
	pf.StringVar(&fo.origin, "origin", "", "App origin used by the built-in manifest")
	pf.StringVar(&fo.sourceLang, "source", "", "Source language code")
	pf.StringVar(&fo.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&fo.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&fo.offline, "offline", false, "Start with connectivity reported as offline")

	root.AddCommand(
		newServeCmd(a),
		newInstallCmd(a),
		newTranslateCmd(a),
		newPreloadCmd(a),
		newVaultCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (fo *flagOverrides) apply(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string, val string) {
		if cmd.Flags().Changed(name) {
			*dst = val
		}
	}
	set("vault-driver", &cfg.VaultDriver, fo.vaultDriver)
	set("vault-path", &cfg.VaultPath, fo.vaultPath)
	set("resource-path", &cfg.ResourcePath, fo.resourcePath)
	set("provider", &cfg.Provider, fo.provider)
	set("manifest", &cfg.ManifestPath, fo.manifest)
	set("origin", &cfg.Origin, fo.origin)
	set("source", &cfg.SourceLang, fo.sourceLang)
	set("log-level", &cfg.LogLevel, fo.logLevel)
	set("log-format", &cfg.LogFormat, fo.logFormat)
	if cmd.Flags().Changed("offline") {
		cfg.Online = !fo.offline
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "%s %s\n", trailcache.Name, trailcache.FullVersion())
			if trailcache.GitCommit != "unknown" && trailcache.GitCommit != "" {
				fmt.Fprintf(a.stdout, "  commit:     %s\n", trailcache.GitCommit)
			}
			if trailcache.BuildDate != "unknown" && trailcache.BuildDate != "" {
				fmt.Fprintf(a.stdout, "  built:      %s\n", trailcache.BuildDate)
			}
			fmt.Fprintf(a.stdout, "  generation: %s\n", trailcache.CacheGeneration)
			return nil
		},
	}
}
