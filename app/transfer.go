package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/studentrep/portal/internal/config"
	"github.com/studentrep/portal/internal/daemon"
	"github.com/studentrep/portal/internal/portal"
)

// stdio selects stdin or stdout for --in and --out.
const stdio = "-"

const serverProbeTimeout = 500 * time.Millisecond

// ErrServerRunning is returned by import while the web service answers on its port.
var ErrServerRunning = errors.New("the portal web service is running, stop it before importing or pass --force")

func init() { //nolint: gochecknoinits
	exportCmd.Flags().StringVar(&exportOut, "out", stdio, "Write the bundle to this file")
	importCmd.Flags().StringVar(&importIn, "in", "", "Read the bundle from this file")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Import even while the web service answers on its port")
	_ = importCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(exportCmd, importCmd)
}

var (
	exportOut   string
	importIn    string
	importForce bool

	exportCmd = &cobra.Command{
		Use:     "export",
		Short:   "Write all messages, files and announcements as a JSON bundle",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(afero.NewOsFs(), func(store *portal.Store) error {
				return exportTo(cmd.Context(), store, exportOut, cmd.OutOrStdout())
			})
		},
	}

	importCmd = &cobra.Command{
		Use:     "import",
		Short:   "Replace the collections contained in a JSON bundle",
		Long: `Replace the collections contained in a JSON bundle.

A running web service keeps its own copy of the collections in memory and
writes it back on the next change, which would undo the import. Stop the
service first, or use the import page of the admin panel.`,
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !importForce {
				if err := ensureServerDown(cfg.Webserver.Port); err != nil {
					return err
				}
			}

			return withStore(afero.NewOsFs(), func(store *portal.Store) error {
				return importFrom(cmd.Context(), store, importIn, cmd.InOrStdin())
			})
		},
	}
)

func withStore(fs afero.Fs, fn func(*portal.Store) error) error {
	if cfg.Storage.StateBackend == config.StateBackendMemory {
		log.Warn().Msg("state backend is memory, the command sees an empty portal")
	}

	b, err := daemon.Open(&cfg, fs)
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(b.Store)
}

func exportTo(ctx context.Context, store *portal.Store, out string, stdout io.Writer) error {
	if out == stdio {
		return store.WriteExport(ctx, stdout)
	}

	f, err := os.Create(out) //nolint:gosec
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	if err = store.WriteExport(ctx, f); err != nil {
		_ = f.Close()

		return err
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}

	log.Info().Str("file", out).Msg("export written")

	return nil
}

func importFrom(ctx context.Context, store *portal.Store, in string, stdin io.Reader) error {
	var (
		raw []byte
		err error
	)

	if in == stdio {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(in) //nolint:gosec
	}

	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}

	if err = store.Import(ctx, raw); err != nil {
		return err
	}

	log.Info().
		Int("messages", len(store.Messages(portal.OldestFirst))).
		Int("resources", len(store.Resources(portal.OldestFirst))).
		Int("infos", len(store.Infos(portal.OldestFirst))).
		Msg("import done")

	return nil
}

// ensureServerDown fails when something accepts connections on the local web port.
func ensureServerDown(port int) error {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), serverProbeTimeout)
	if err != nil {
		return nil //nolint:nilerr // nothing listens
	}

	_ = conn.Close()

	return ErrServerRunning
}
