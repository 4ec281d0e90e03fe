package cmd

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI",
	Long: `Start the web UI: upload a peak list and a PSM table, set the matching
parameters, run the analysis and browse or download the results.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	srv := server.New(server.WithMaxUpload(maxUpload))
	slog.Info("starting web UI", "addr", addr, "maxUpload", maxUpload)
	return srv.Run(addr)
}
