// Package config loads Options from flags, environment variables, and an
// optional YAML file via viper, and watches that file for changes.
package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/jarvisrun/jarvis/internal/jarvis/options"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
)

// Config is the running configuration: the resolved Options plus the viper
// instance that produced it, kept around so OnChange can re-read it.
type Config struct {
	*options.Options
	v *viper.Viper
}

// Load builds a Config from opts (already populated by flag parsing),
// layering in JARVIS_-prefixed environment variables and, if opts.ConfigFile
// is set, a YAML file. For the keys overlay handles, a value found in the
// environment or the file replaces the flag value, including a flag set
// explicitly on the command line; every other field keeps its flag value.
func Load(opts *options.Options) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JARVIS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	overlay(v, opts)
	return &Config{Options: opts, v: v}, nil
}

// overlay applies any config-file values back onto opts for the fields the
// file actually set, leaving flag/default values alone otherwise.
func overlay(v *viper.Viper, o *options.Options) {
	if v.IsSet("listen-addr") {
		o.ListenAddr = v.GetString("listen-addr")
	}
	if v.IsSet("auth-enabled") {
		o.AuthEnabled = v.GetBool("auth-enabled")
	}
	if v.IsSet("auth-token") {
		o.AuthToken = v.GetString("auth-token")
	}
	if v.IsSet("rate-limit-rpm") {
		o.RateLimitRPM = v.GetInt("rate-limit-rpm")
	}
	if v.IsSet("bolt-path") {
		o.BoltPath = v.GetString("bolt-path")
	}
	if v.IsSet("sqlite-path") {
		o.SQLitePath = v.GetString("sqlite-path")
	}
	if v.IsSet("redis-addr") {
		o.RedisAddr = v.GetString("redis-addr")
	}
	if v.IsSet("use-redis") {
		o.UseRedis = v.GetBool("use-redis")
	}
	if v.IsSet("max-sessions") {
		o.MaxSessions = v.GetInt64("max-sessions")
	}
	if v.IsSet("max-llm-calls-per-run") {
		o.MaxLLMCallsPerRun = v.GetInt("max-llm-calls-per-run")
	}
	if v.IsSet("max-browser-steps-per-run") {
		o.MaxBrowserStepsPerRun = v.GetInt("max-browser-steps-per-run")
	}
	if v.IsSet("async-jobs") {
		o.AsyncJobs = v.GetBool("async-jobs")
	}
	if v.IsSet("allow-evaluate") {
		o.AllowEvaluate = v.GetBool("allow-evaluate")
	}
	if v.IsSet("allow-downloads") {
		o.AllowDownloads = v.GetBool("allow-downloads")
	}
	if v.IsSet("block-private-addr") {
		o.BlockPrivateAddr = v.GetBool("block-private-addr")
	}
	if v.IsSet("allow-localhost") {
		o.AllowLocalhost = v.GetBool("allow-localhost")
	}
	if v.IsSet("mcp-config-file") {
		o.MCPConfigFile = v.GetString("mcp-config-file")
	}
}

// WatchAndReload re-applies the config file's values onto the live Options
// whenever it changes on disk. The process does not rebuild any component on
// reload: the server copies its settings out of Options when it is built, so
// a reload updates the Options values but leaves the running rate limiter,
// action engine, session pool and stores with the values they started with.
func (c *Config) WatchAndReload() {
	if c.ConfigFile == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("config file changed, reloading: %s", e.Name)
		overlay(c.v, c.Options)
	})
	c.v.WatchConfig()
}
