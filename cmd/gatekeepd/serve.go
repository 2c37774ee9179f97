package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gatekeep"
	"gatekeep/discord"
	"gatekeep/eventbus"
	"gatekeep/logging"
	"gatekeep/templates"
	"gatekeep/verify"
)

var (
	serveConfigFile string
	serveDevLogs    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification server",
	Long: `Starts the HTTP server that walks users through Discord verification.

Configuration is read from gatekeep.yaml (discovered upwards from the working
directory) and GK__ environment variables; --config loads an additional file
on top. discord.clientId, discord.clientSecret, discord.botToken,
discord.guildId and discord.roleId must be set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigFile, "config", "", "path to an additional config file")
	serveCmd.Flags().BoolVar(&serveDevLogs, "dev", false, "human-readable log output")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var logger logging.Logger
	if serveDevLogs {
		logger = logging.NewDevLogger()
	} else {
		logger = logging.NewProdLogger()
	}

	if serveConfigFile != "" {
		gatekeep.LoadConfigFile(serveConfigFile)
	}
	gatekeep.ValidateConfig(logger)

	baseCtx := logging.With(context.Background(), logger)
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	// The bus runs on the base context, not the server's: audit events
	// published just before shutdown must still be deliverable during drain.
	bus := eventbus.New(baseCtx)
	if notifier := discord.NotifierFromConfig(); notifier != nil {
		bus.Subscribe(verify.CompletedTopic, notifier.Subscriber())
	} else {
		logging.Warn(ctx, "no webhook configured, verification audit notices disabled")
	}

	tokens := verify.StoreFromConfig()
	verifier := verify.VerifierFromConfig(
		tokens,
		discord.OAuthClientFromConfig(),
		discord.DirectoryFromConfig(),
		bus,
	)

	pages, err := newRenderer()
	if err != nil {
		return err
	}
	handlers := verify.NewHandlers(verifier, pages)

	srv := gatekeep.New(
		gatekeep.WithBaseContext(ctx),
		gatekeep.WithLogger(logger),
		gatekeep.WithHTTPHandlerFunc("/auth", handlers.Auth),
		gatekeep.WithHTTPHandlerFunc("/callback", handlers.Callback),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return srv.Start()
	})
	g.Go(func() error {
		tokens.RunEviction(gctx, time.Minute)
		return nil
	})
	err = g.Wait()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if derr := bus.Shutdown(drainCtx); derr != nil {
		logging.Warnw(drainCtx, "event bus did not drain cleanly", "error", derr)
	}
	return err
}

func newRenderer() (*templates.Renderer, error) {
	if dir := gatekeep.ConfigString("verify.templateDir"); dir != "" {
		return templates.NewFromDir(dir)
	}
	return templates.New()
}
