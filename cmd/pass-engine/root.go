package main

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nikicat/pass-engine/internal/clipboard"
	"github.com/nikicat/pass-engine/internal/config"
	"github.com/nikicat/pass-engine/internal/crypto"
	"github.com/nikicat/pass-engine/internal/engine"
	"github.com/nikicat/pass-engine/internal/logging"
	"github.com/nikicat/pass-engine/internal/store"
)

// app is the state shared by every subcommand, filled in before RunE
type app struct {
	overrides config.Overrides
	cfg       *config.Config
	logger    *log.Logger
	logFile   io.Closer

	// openClipboard is replaced in tests
	openClipboard clipboard.Opener
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&app{openClipboard: clipboard.OpenSystem})
}

func newRootCmdWith(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pass-engine",
		Short:         "pass-engine - clipboard and OTP engine for a pass password store",
		Long:          "pass-engine indexes a password store, copies passwords, logins and one-time codes to the clipboard and clears them again.",
		Version:       Version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.logFile != nil {
				return a.logFile.Close()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.overrides.ConfigPath, "config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/pass-engine/config.yaml)")
	flags.StringVarP(&a.overrides.StorePath, "store-path", "s", "", "Password store path (default: $PASSWORD_STORE_DIR or ~/.password-store)")
	flags.StringVarP(&a.overrides.Backend, "backend", "b", "", "Decryption backend: gpg, openpgp, gopass or plain")
	flags.BoolVarP(&a.overrides.Debug, "debug", "d", false, "Enable debug logging")

	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newOTPCmd(a))
	cmd.AddCommand(newCopyCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.overrides)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logFile = closer
	logger.Debugf("Using store %s with backend %s", cfg.StorePath, cfg.Backend)
	return nil
}

// newSource builds the entry source for the configured backend. The returned
// func releases it.
func (a *app) newSource(ctx context.Context) (store.Source, func(), error) {
	if a.cfg.Backend == store.BackendGopass {
		src, err := store.NewGopassSource(ctx)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {
			if err := src.Close(ctx); err != nil {
				a.logger.Warnf("Failed to close gopass store: %v", err)
			}
		}, nil
	}

	dec, err := crypto.New(a.cfg.Backend, crypto.Options{
		GPGBinary:   a.cfg.GPGBinary,
		KeyringPath: a.cfg.KeyringPath,
		Passphrase:  []byte(a.cfg.Passphrase),
	})
	if err != nil {
		return nil, nil, err
	}
	return store.NewFileSource(store.NewMapper(a.cfg.StorePath, a.cfg.Extension), dec), func() {}, nil
}

// newEngine builds an engine over the configured store and indexes it
func (a *app) newEngine(ctx context.Context) (*engine.Engine, func(), error) {
	src, release, err := a.newSource(ctx)
	if err != nil {
		return nil, nil, err
	}

	sched := clipboard.NewScheduler(clipboard.NewGuard(a.openClipboard), a.logger)
	eng := engine.New(ctx, engine.Options{
		StorePath: a.cfg.StorePath,
		Extension: a.cfg.Extension,
		Source:    src,
		Clipboard: sched,
		Window:    a.cfg.ClipboardTimeout,
		Logger:    a.logger,
	})
	if err := eng.Refresh(); err != nil {
		release()
		return nil, nil, err
	}
	return eng, release, nil
}
