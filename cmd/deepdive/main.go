package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/deepdive/pkg/engine/claude"
	"github.com/go-go-golems/deepdive/pkg/events"
	"github.com/go-go-golems/deepdive/pkg/helpers"
	"github.com/go-go-golems/deepdive/pkg/inference/toolloop"
	"github.com/go-go-golems/deepdive/pkg/protocol"
	"github.com/go-go-golems/deepdive/pkg/tools"
	"github.com/go-go-golems/deepdive/pkg/tools/websearch"
)

const eventTopic = "chat"

var rootCmd = &cobra.Command{
	Use:   "deepdive",
	Short: "deepdive is a research agent worker speaking a line protocol on stdin/stdout",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func initLogger() {
	// stdout carries the wire protocol, all logging goes to stderr
	var logWriter io.Writer = os.Stderr
	if viper.GetString("log-format") == "text" {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	if viper.GetBool("with-caller") {
		log.Logger = log.With().Caller().Logger()
	}
	log.Logger = log.Output(logWriter)

	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(ctx context.Context) error {
	anthropicKey := viper.GetString("anthropic-api-key")
	braveKey := viper.GetString("brave-api-key")

	registry := tools.NewInMemoryToolRegistry()
	var searchOptions []websearch.ClientOption
	if baseURL := viper.GetString("brave-base-url"); baseURL != "" {
		searchOptions = append(searchOptions, websearch.WithBaseURL(baseURL))
	}
	if count := viper.GetInt("search-count"); count > 0 {
		searchOptions = append(searchOptions, websearch.WithCount(count))
	}
	searchClient := websearch.NewClient(braveKey, searchOptions...)
	if err := websearch.Register(registry, searchClient); err != nil {
		return err
	}

	eng, err := claude.NewClaudeEngine(claude.Config{
		APIKey:    anthropicKey,
		BaseURL:   viper.GetString("anthropic-base-url"),
		Model:     viper.GetString("model"),
		MaxTokens: viper.GetInt("max-tokens"),
	})
	if err != nil {
		return err
	}

	loop := toolloop.New(
		toolloop.WithEngine(eng),
		toolloop.WithRegistry(registry),
		toolloop.WithLoopConfig(toolloop.LoopConfig{
			MaxIterations: viper.GetInt("max-iterations"),
		}),
	)

	router, err := events.NewEventRouter(events.WithLogger(helpers.NewWatermill(log.Logger)))
	if err != nil {
		return err
	}
	defer func() {
		_ = router.Close()
	}()

	emitter := protocol.NewEmitter(os.Stdout)
	router.AddHandler("emitter", eventTopic, emitter.Handle)

	publisher := helpers.CorrelationPublisherDecorator{Publisher: router.Publisher}
	sink := events.NewWatermillSink(publisher, eventTopic)
	handler := protocol.NewHandler(loop, os.Stdin, emitter, sink)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return router.Run(gCtx)
	})
	g.Go(func() error {
		defer cancel()

		// the ready handshake must not race the emitter subscription
		select {
		case <-router.Running():
		case <-gCtx.Done():
			return gCtx.Err()
		case <-time.After(10 * time.Second):
			log.Warn().Msg("event router did not come up in time")
		}

		return handler.Serve(gCtx)
	})

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error, fatal)")
	flags.String("log-format", "json", "log format (json, text)")
	flags.Bool("with-caller", false, "log caller information")
	flags.String("model", claude.DefaultModel, "Anthropic model to use")
	flags.Int("max-tokens", claude.DefaultMaxTokens, "maximum response tokens per inference")
	flags.Int("max-iterations", toolloop.DefaultLoopConfig().MaxIterations, "maximum inference rounds per query")
	flags.String("anthropic-base-url", "", "Anthropic API base URL override")
	flags.String("brave-base-url", "", "Brave search API base URL override")
	flags.Int("search-count", 0, "number of search results to request per query")

	viper.SetEnvPrefix("deepdive")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// API keys come from their conventional environment variables
	cobra.CheckErr(viper.BindEnv("anthropic-api-key", "ANTHROPIC_API_KEY"))
	cobra.CheckErr(viper.BindEnv("brave-api-key", "BRAVE_API_KEY"))

	cobra.CheckErr(viper.BindPFlags(flags))
}
