// Command arga-admin curates the ARGA names database through its admin API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/zenibako/arga-golang/arga"
	"github.com/zenibako/arga-golang/config"
	"github.com/zenibako/arga-golang/sheet"
)

var (
	// Global flags
	configPath  string
	sessionPath string
	apiURL      string
	logLevel    string
	dryRun      bool
	assumeYes   bool

	cfg    *config.Config
	client *arga.Client
)

var rootCmd = &cobra.Command{
	Use:   "arga-admin",
	Short: "Curate the ARGA names database from the terminal",
	Long: `arga-admin talks to the ARGA admin API.

Edits to user taxa lists are staged against the rows last fetched from the
server, shown as a marked table, and committed in one confirmed batch.

Run "arga-admin login" first; the session is kept between runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd)
		log.SetLevel(cfg.GetLogLevel())
		if err := cfg.Validate(); err != nil {
			return err
		}

		client = newClient(cfg)
		if saved, err := config.LoadSession(sessionPath); err != nil {
			log.Warn("Ignoring saved session", "error", err)
		} else if saved != nil && saved.APIURL == cfg.APIURL {
			client.RestoreCookies(saved.Cookies)
		}
		return nil
	},
}

func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
}

func newClient(cfg *config.Config) *arga.Client {
	c := arga.NewClient(cfg.APIURL)
	c.SetTimeout(cfg.GetTimeout())
	c.SetMaxRetries(cfg.MaxRetries)
	c.SetPageSize(cfg.PageSize)
	c.SetDryRun(cfg.DryRun)
	c.OnUnauthorized(func() {
		log.Error("The admin API rejected the session. Run \"arga-admin login\" and try again.")
	})
	if cfg.DryRun {
		log.Warn("Dry-run mode: writes are logged, not sent")
	}
	return c
}

func sessionOptions() arga.SessionOptions {
	return arga.SessionOptions{
		CacheDir:    cfg.GetCacheDir(),
		Concurrency: cfg.Concurrency,
		Policy:      sheet.RetainFailed,
	}
}

func confirmer() arga.Confirmer {
	if assumeYes {
		return arga.AutoConfirmer{}
	}
	return arga.HuhConfirmer{}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", config.DefaultSessionPath(), "saved login")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "admin API root (overrides config and ARGA_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "log writes instead of sending them")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "commit without asking")

	rootCmd.AddCommand(loginCmd, logoutCmd)
	rootCmd.AddCommand(datasetsCmd, taxaCmd, attributesCmd, listsCmd)
	rootCmd.AddCommand(userTaxaCmd, importCmd, mediaCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, arga.ErrorMessage(err))
		os.Exit(1)
	}
}
