package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. JISHO2ANKI_DB.
const envPrefix = "JISHO2ANKI"

// appConfig is the process configuration: flags, config file and
// environment, in increasing order of precedence after defaults.
type appConfig struct {
	LogLevel string        `mapstructure:"log_level"`
	DB       string        `mapstructure:"db"`
	JishoURL string        `mapstructure:"jisho_url"`
	Workers  int           `mapstructure:"workers"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var defaultConfig = map[string]interface{}{
	"log_level": "info",
	"db":        "jisho2anki.db",
	"jisho_url": "https://jisho.org",
	"workers":   4,
	"timeout":   "2m",
}

// options are the per-invocation flags that are never read from the
// config file.
type options struct {
	Queries  []string
	File     string
	Pages    int
	All      bool
	Entry    int
	DryRun   bool
	Lemma    bool
	List     string
	SetURL   string
	SetDeck  string
	SetModel string
	SetTags  string
	Maps     []string
	Show     bool
}

func (o options) configures() bool {
	return o.SetURL != "" || o.SetDeck != "" || o.SetModel != "" || o.SetTags != "" || len(o.Maps) > 0
}

// parseArgs reads flags, the optional YAML config file and JISHO2ANKI_*
// environment variables.
func parseArgs(args []string, stderr io.Writer) (*appConfig, *options, error) {
	fs := pflag.NewFlagSet("jisho2anki", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringArrayVarP(&o.Queries, "query", "q", nil, "search term (repeatable)")
	fs.StringVarP(&o.File, "file", "f", "", "file with one search term per line")
	fs.IntVar(&o.Pages, "pages", 1, "result pages to load per term")
	fs.BoolVar(&o.All, "all", false, "submit every entry instead of one")
	fs.IntVar(&o.Entry, "entry", 1, "1-based position of the entry to submit")
	fs.BoolVar(&o.DryRun, "dry-run", false, "print mapped fields without submitting")
	fs.BoolVar(&o.Lemma, "lemma", false, "search the dictionary form of conjugated terms")
	fs.StringVar(&o.List, "list", "", "list decks, models or fields and exit")
	fs.StringVar(&o.SetURL, "set-url", "", "save the AnkiConnect URL")
	fs.StringVar(&o.SetDeck, "set-deck", "", "save the target deck")
	fs.StringVar(&o.SetModel, "set-model", "", "save the note type")
	fs.StringVar(&o.SetTags, "set-tags", "", "save space-separated tags")
	fs.StringArrayVar(&o.Maps, "map", nil, "save a field mapping as Field=key,key (repeatable)")
	fs.BoolVar(&o.Show, "show-config", false, "print the saved settings")

	fs.String("config", "jisho2anki.yml", "config file path")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("db", "", "sqlite database path")
	fs.String("jisho-url", "", "dictionary site root")
	fs.Int("workers", 0, "concurrent submissions")
	fs.Duration("timeout", 0, "overall time limit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	o.Queries = append(o.Queries, fs.Args()...)

	v := viper.New()
	for k, val := range defaultConfig {
		v.SetDefault(k, val)
	}
	for key, flag := range map[string]string{
		"log_level": "log-level",
		"db":        "db",
		"jisho_url": "jisho-url",
		"workers":   "workers",
		"timeout":   "timeout",
	} {
		if f := fs.Lookup(flag); f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, nil, err
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configFile, _ := fs.GetString("config")
	v.SetConfigFile(configFile)
	v.SetConfigType(strings.TrimPrefix(filepath.Ext(configFile), "."))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg appConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("decode config: %w", err)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	return &cfg, &o, nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
}
