package cli

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/reverielabs/reverie-lite/pkg/core/identity"
	reverie "github.com/reverielabs/reverie-lite/sdk"
)

// app holds the wired client shared by all subcommands. It is filled in
// by init once flags and the environment are known.
type app struct {
	client *reverie.Client
	logger *zap.Logger
}

// init reads REVERIE_* configuration and wires the client.
func (a *app) init(verbose bool) error {
	v := viper.New()
	v.SetEnvPrefix("REVERIE")
	v.AutomaticEnv()

	v.SetDefault("user_id", "local")
	v.SetDefault("user_name", "there")
	v.SetDefault("watchdog_timeout", "10s")

	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.logger = logger

	watchdogTimeout, err := time.ParseDuration(v.GetString("watchdog_timeout"))
	if err != nil {
		return fmt.Errorf("parse REVERIE_WATCHDOG_TIMEOUT: %w", err)
	}

	opts := []reverie.ClientOption{
		reverie.WithLogger(logger),
		reverie.WithWatchdogTimeout(watchdogTimeout),
		reverie.WithIdentity(identity.NewStatic(identity.Identity{
			ID:   v.GetString("user_id"),
			Name: v.GetString("user_name"),
		})),
	}
	if key := v.GetString("openai_api_key"); key != "" {
		opts = append(opts, reverie.WithOpenAIKey(key))
	}
	if id := v.GetString("sandbox_id"); id != "" {
		opts = append(opts, reverie.WithSandboxID(id))
	}
	if endpoint := v.GetString("token_endpoint"); endpoint != "" {
		opts = append(opts, reverie.WithTokenEndpoint(endpoint))
	}
	if url := v.GetString("server_url"); url != "" {
		opts = append(opts, reverie.WithStaticCredentials(url, v.GetString("participant_token")))
	}
	if voice := v.GetString("voice"); voice != "" {
		opts = append(opts, reverie.WithVoice(voice))
	}

	a.client = reverie.NewClient(opts...)
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return config.Build()
}
