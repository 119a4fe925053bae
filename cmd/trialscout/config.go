// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialscout/internal/observability"
	"github.com/pdiddy/trialscout/internal/secrets"
	"github.com/pdiddy/trialscout/pkg/types"
)

// Configuration keys. Nested keys map to env vars with "." replaced by "_",
// e.g. TRIALSCOUT_HTTP_TIMEOUT.
const (
	keyContactAddress  = "contact_address"
	keyOutputDirectory = "output_directory"
	keySearchKeyword   = "search_keyword"
	keyPageSize        = "page_size"
	keyAPIKey          = "api_key"
	keyHTTPTimeout     = "http.timeout"
	keyHTTPUserAgent   = "http.user_agent"
	keyTrialsTimeout   = "trials.timeout"
	keyTrialsInterval  = "trials.interval"
	keyTrialsUserAgent = "trials.user_agent"
	keyLogLevel        = "log.level"
	keyLogFormat       = "log.format"
	keyLedger          = "ledger"
)

// flagKeys maps persistent flag names to the configuration keys they set.
var flagKeys = map[string]string{
	"keyword":    keySearchKeyword,
	"output":     keyOutputDirectory,
	"email":      keyContactAddress,
	"api-key":    keyAPIKey,
	"page-size":  keyPageSize,
	"ledger":     keyLedger,
	"log-level":  keyLogLevel,
	"log-format": keyLogFormat,
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	for flag, key := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// pipelineConfig assembles the pipeline configuration from v, filling the
// contact address and API key from secrets when v leaves them empty.
func pipelineConfig(v *viper.Viper, sec map[string]string) types.PipelineConfig {
	httpCfg := types.HTTPConfig{
		Timeout:   v.GetDuration(keyHTTPTimeout),
		UserAgent: v.GetString(keyHTTPUserAgent),
	}
	cfg := types.PipelineConfig{
		ContactAddress:  secrets.Or(sec, secrets.NCBIEmail, v.GetString(keyContactAddress)),
		OutputDirectory: v.GetString(keyOutputDirectory),
		SearchKeyword:   v.GetString(keySearchKeyword),
		PageSize:        v.GetInt(keyPageSize),
		Entrez: types.EntrezConfig{
			HTTPConfig: httpCfg,
			APIKey:     secrets.Or(sec, secrets.NCBIAPIKey, v.GetString(keyAPIKey)),
		},
		GEO: httpCfg,
		Trials: types.TrialsConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration(keyTrialsTimeout),
				UserAgent: v.GetString(keyTrialsUserAgent),
			},
			Interval: v.GetDuration(keyTrialsInterval),
		},
		Ledger: v.GetBool(keyLedger),
	}
	return cfg.WithDefaults()
}

func loggingConfig(v *viper.Viper) observability.LoggingConfig {
	cfg := observability.DefaultLoggingConfig()
	if s := v.GetString(keyLogLevel); s != "" {
		cfg.Level = s
	}
	if s := v.GetString(keyLogFormat); s != "" {
		cfg.Format = s
	}
	return cfg
}
