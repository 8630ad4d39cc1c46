package cli

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/pipeline"
	"github.com/veridex/veridex/internal/server"
)

var servePort string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the harness over HTTP",
	Long: `Serve starts an HTTP server exposing tagging, runs, receipt and
checkpoint verification, and run history. Set server.auth_token (or
VERIDEX_SERVER_AUTH_TOKEN) to require a bearer token on /v1 routes;
/healthz always answers.

Example:
  veridex serve
  veridex serve --port 9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default: 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	cfg.Output.Verbose = verbose

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	p := pipeline.NewPipeline(&cfg)
	defer func() { _ = p.Close() }()

	srv := server.New(p, &cfg)

	fmt.Fprintf(os.Stderr, "veridex listening on :%s\n", cfg.Server.Port)
	if cfg.Server.AuthToken != "" {
		fmt.Fprintf(os.Stderr, "bearer auth enabled on /v1 routes\n")
	}

	return srv.Run()
}
