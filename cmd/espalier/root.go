package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/internal/logging"
	fileAdapter "github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/espalier/pkg/adapters/redis"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier resolves OSCAL profiles into catalogs",
	Long: `Espalier reads OSCAL profiles from a repository, applies their imports,
merge directives and modifications, and writes the resolved catalog.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the profile repository")
	rootCmd.PersistentFlags().String("catalogs", "", "Base path or URL catalog hrefs resolve against (default: --dir)")
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default: "+config.DefaultFile+")")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadSettings reads the configuration file and applies the persistent flags over it.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("dir") {
		cfg.Dir, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("catalogs") {
		cfg.Catalogs, _ = cmd.Flags().GetString("catalogs")
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// openResolver builds a resolver from the configuration, wiring the
// configured cache and its locker.
func openResolver(cfg config.Config, extra ...espalier.Option) (*espalier.Resolver, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)
	slog.SetDefault(logger)

	opts := []espalier.Option{
		espalier.WithLogger(logger),
		espalier.WithParallelism(cfg.Parallelism),
		espalier.WithCatalogBase(cfg.CatalogBase()),
	}

	switch {
	case cfg.Cache.Redis.Addr != "":
		ttl, err := cfg.Cache.Redis.TTLDuration()
		if err != nil {
			return nil, err
		}
		prefix := cfg.Cache.Redis.Prefix
		if prefix == "" {
			prefix = "espalier:"
		}
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		opts = append(opts,
			espalier.WithCache(redisAdapter.NewFromClient(client,
				redisAdapter.WithTTL(ttl),
				redisAdapter.WithPrefix(prefix+"catalog:"),
			)),
			espalier.WithLocker(redisAdapter.NewLocker(client, prefix)),
		)
		logger.Debug("using redis cache", "addr", cfg.Cache.Redis.Addr)
	case cfg.Cache.Dir != "":
		opts = append(opts,
			espalier.WithCache(fileAdapter.NewCache(cfg.Cache.Dir)),
			espalier.WithLocker(memory.NewLocker()),
		)
		logger.Debug("using file cache", "dir", cfg.Cache.Dir)
	}

	return espalier.New(cfg.Dir, append(opts, extra...)...)
}
