package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/postcode/webui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the address form as a web page.",
	Long: "`serve --port 8080` starts a web server with the address form. " +
		"Every browser tab edits its own form.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		if flags.Changed("port") {
			cfg.Port, _ = flags.GetInt("port")
		}

		if flags.Changed("open") {
			cfg.OpenBrowser, _ = flags.GetBool("open")
		}

		if flags.Changed("session-timeout") {
			cfg.SessionTimeout, _ = flags.GetDuration("session-timeout")
		}

		server := webui.NewServer().
			WithPortNumber(cfg.Port).
			WithSessionTimeout(cfg.SessionTimeout).
			WithTracer(tracer)

		url, err := server.Start()
		if err != nil {
			return err
		}

		if cfg.OpenBrowser {
			err := browser.OpenURL(url)
			if err != nil {
				log.Warnf("Cannot open a browser: %v", err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "port to listen on, 0 picks a free port "+
		"(default from POSTCODE_PORT or 8080)")
	serveCmd.Flags().Bool("open", false, "open the form in a browser")
	serveCmd.Flags().Duration("session-timeout", webui.DefaultSessionTimeout,
		"drop sessions unused for this long, 0 keeps them")
}
