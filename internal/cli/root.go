// Package cli implements basketctl, the command-line client for a local
// flood report basket.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/flood-report-basket/internal/adapter/storage"
	"github.com/couchcryptid/flood-report-basket/internal/basket"
	"github.com/couchcryptid/flood-report-basket/internal/config"
	"github.com/couchcryptid/flood-report-basket/internal/ingest"
	"github.com/couchcryptid/flood-report-basket/internal/observability"
	"github.com/couchcryptid/flood-report-basket/internal/report"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override CLI flags, e.g.
// BASKET_STORAGE_DIR for --storage-dir.
const EnvPrefix = "BASKET"

// app carries the settings and streams shared by every subcommand.
type app struct {
	v     *viper.Viper
	in    io.Reader
	out   io.Writer
	errw  io.Writer
	clock clockwork.Clock
}

// session is an opened basket for the duration of one command.
type session struct {
	store     *basket.Store
	ingester  *ingest.Service
	assembler *report.Assembler
	close     func() error
}

// NewRootCmd builds the basketctl command tree reading from in and writing to
// out and errw.
func NewRootCmd(in io.Reader, out, errw io.Writer) *cobra.Command {
	return newRootCmd(&app{
		v:     viper.New(),
		in:    in,
		out:   out,
		errw:  errw,
		clock: clockwork.NewRealClock(),
	})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "basketctl",
		Short:         "Manage a flood analysis report basket",
		Long:          "basketctl adds flood analysis results to a persistent basket, classifies\nthem by severity, and assembles report fields for printing.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errw)

	flags := rootCmd.PersistentFlags()
	flags.String("storage-backend", config.StorageFile, "Storage backend: file or sqlite")
	flags.String("storage-dir", "./data", "Directory holding file-backed slots")
	flags.String("sqlite-path", "./data/basket.db", "SQLite database path")
	flags.String("slot", "sinagspatial_basket", "Storage slot name")
	flags.String("timezone", "Asia/Manila", "Time zone for record timestamps and report dates")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")

	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("bind flags: %v", err))
	}

	rootCmd.AddCommand(
		a.addCmd(),
		a.importCmd(),
		a.classifyCmd(),
		a.listCmd(),
		a.showCmd(),
		a.removeCmd(),
		a.clearCmd(),
		a.reportCmd(),
	)
	return rootCmd
}

// withSession opens the basket around fn.
func (a *app) withSession(fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := a.openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := s.close(); cerr != nil {
				fmt.Fprintf(a.errw, "warning: close storage: %v\n", cerr)
			}
		}()
		return fn(cmd.Context(), s, args)
	}
}

func (a *app) openSession(ctx context.Context) (*session, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	location, err := time.LoadLocation(a.v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	slot, closeFn, err := storage.Open(storage.Settings{
		Backend:    a.v.GetString("storage-backend"),
		Dir:        a.v.GetString("storage-dir"),
		SQLitePath: a.v.GetString("sqlite-path"),
		Slot:       a.v.GetString("slot"),
	})
	if err != nil {
		return nil, err
	}

	logger := observability.NewLoggerTo(a.errw, a.v.GetString("log-level"), "text")
	metrics := observability.NewUnregisteredMetrics()

	store := basket.NewStore(ctx, slot, a.clock, location, logger, metrics)
	return &session{
		store:     store,
		ingester:  ingest.NewService(store, logger, metrics),
		assembler: report.NewAssembler(a.clock, location, 0, metrics),
		close:     closeFn,
	}, nil
}
