// Command superblocker serves the superblock planner API.
//
// The street network comes from a GeoJSON dump on disk (--network-file);
// the production OSM fetcher plugs into the same source interface. Exit
// codes: 0 success, 1 validation error, 2 upstream failure, 3 internal
// error.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/valyala/fasthttp"

	"github.com/tgergo1/superblocker/plan"
	"github.com/tgergo1/superblocker/server"
)

// Exit codes of the CLI contract.
const (
	exitOK       = 0
	exitInvalid  = 1
	exitUpstream = 2
	exitInternal = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:           "superblocker",
		Short:         "Urban superblock planner API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the partition and routing endpoints",
		RunE:  runServe,
	}
	serve.Flags().String("listen", ":8000", "listen address")
	serve.Flags().String("network-file", "", "street-network GeoJSON dump (required)")
	serve.Flags().Duration("fetch-timeout", server.DefaultFetchTimeout, "upstream fetch timeout")
	serve.Flags().String("log-level", "info", "zerolog level (trace..panic)")
	for _, flag := range []string{"listen", "network-file", "fetch-timeout", "log-level"} {
		if err := viper.BindPFlag(flag, serve.Flags().Lookup(flag)); err != nil {
			fmt.Fprintln(os.Stderr, err)

			return exitInternal
		}
	}
	viper.SetEnvPrefix("SUPERBLOCKER")
	viper.AutomaticEnv()

	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		switch {
		case errors.Is(err, errInvalidConfig), errors.Is(err, plan.ErrInvalidBoundingBox):
			return exitInvalid
		case errors.Is(err, plan.ErrUpstreamUnavailable), errors.Is(err, plan.ErrTimeout):
			return exitUpstream
		default:
			return exitInternal
		}
	}

	return exitOK
}

// errInvalidConfig tags operator mistakes (missing flags, bad levels).
var errInvalidConfig = errors.New("invalid configuration")

func runServe(cmd *cobra.Command, _ []string) error {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidConfig, err)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	networkFile := viper.GetString("network-file")
	if networkFile == "" {
		return fmt.Errorf("%w: --network-file is required", errInvalidConfig)
	}
	source, err := server.NewFileSource(networkFile)
	if err != nil {
		return err
	}

	srv := server.New(source, logger, server.Config{
		FetchTimeout: viper.GetDuration("fetch-timeout"),
	})

	addr := viper.GetString("listen")
	logger.Info().Str("addr", addr).Str("network_file", networkFile).Msg("superblocker listening")
	if err := fasthttp.ListenAndServe(addr, srv.Handler); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
