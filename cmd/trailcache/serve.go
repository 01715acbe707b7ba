package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/trailcache"
	"github.com/ZaguanLabs/trailcache/dom"
	"github.com/ZaguanLabs/trailcache/logger"
	"github.com/ZaguanLabs/trailcache/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		preload []string
		terms   []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the caching proxy and translation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Addr
			}
			ctx := cmd.Context()

			store, err := a.openVault()
			if err != nil {
				return err
			}
			oracle := a.oracle()
			resolver := a.resolver(store, oracle)

			icpt, err := a.interceptor(oracle)
			if err != nil {
				return err
			}

			watcher := dom.New(resolver, a.cfg.SourceLang, "",
				dom.WithShield(dom.NewShield(terms...)),
				dom.WithLogger(a.log.With(logger.Component("dom"))),
			)

			// Installation fetches the shell and tiles; the API is usable
			// while it runs.
			go func() {
				if err := icpt.Start(ctx); err != nil {
					a.log.Error("interceptor install failed", logger.Error(err))
				}
			}()
			go preloadLanguages(ctx, a.log, resolver, preload)

			router := server.NewRouter(server.Deps{
				Resolver:     resolver,
				Interceptor:  icpt,
				Observer:     watcher,
				Connectivity: oracle,
				Logger:       a.log,
			})

			srv := server.New(
				server.WithAddr(addr),
				server.WithLogger(a.log),
				server.OnShutdown(icpt.Wait),
			)
			return srv.Run(ctx, router)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: $TRAILCACHE_ADDR)")
	cmd.Flags().StringSliceVar(&preload, "preload", nil, "Target languages to preload common phrases for at startup")
	cmd.Flags().StringSliceVar(&terms, "protect", nil, "Terms the DOM watcher must never translate")
	return cmd
}

func preloadLanguages(ctx context.Context, log *slog.Logger, r *trailcache.Resolver, langs []string) {
	for _, lang := range langs {
		if ctx.Err() != nil {
			return
		}
		r.PreloadCommon(ctx, trailcache.CommonPhrases, lang)
		log.Info("preload finished", slog.String("to", lang), slog.Int("vault_size", r.VaultSize(ctx)))
	}
}
