// Package config loads environment variables and provides a typed Config used across the service.
// Defaults come first, then an optional YAML file named by CONFIG_FILE, then the environment.
// It applies sensible defaults so the binary can run locally with minimal setup.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/onnwee/stream-recap/focus"
	"github.com/onnwee/stream-recap/prompt"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	// DataDir holds latest_summary.txt, summary.mp3 and session-logs/.
	DataDir string `yaml:"data_dir"`

	// Twitch
	TwitchChannel     string   `yaml:"twitch_channel"`
	TwitchBotUsername string   `yaml:"twitch_bot_username"`
	TwitchOAuthToken  string   `yaml:"twitch_oauth_token"`
	ExcludedUsers     []string `yaml:"excluded_users"`

	// Summarizer
	SummarizerBinary  string        `yaml:"summarizer_binary"`
	SummarizerModel   string        `yaml:"summarizer_model"`
	SummarizerTimeout time.Duration `yaml:"summarizer_timeout"`
	ChatWindow        int           `yaml:"chat_window"`

	// Speech
	TTSBinary  string        `yaml:"tts_binary"`
	TTSVoice   string        `yaml:"tts_voice"`
	TTSTimeout time.Duration `yaml:"tts_timeout"`

	// Focus timer
	DefaultWorkMinutes   int           `yaml:"default_work_minutes"`
	DefaultBreakMinutes  int           `yaml:"default_break_minutes"`
	TimerPollInterval    time.Duration `yaml:"timer_poll_interval"`
	FinalizeOnWorkExpiry bool          `yaml:"finalize_on_work_expiry"`

	// Prompt
	PromptTemplate     string `yaml:"prompt_template"`
	PromptTemplateFile string `yaml:"prompt_template_file"`

	// Database (optional session index)
	DBDsn string `yaml:"db_dsn"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPAddr:             ":5000",
		DataDir:              ".",
		SummarizerBinary:     "ollama",
		SummarizerModel:      "openchat",
		SummarizerTimeout:    60 * time.Second,
		ChatWindow:           100,
		TTSBinary:            "edge-tts",
		TTSVoice:             "en-US-GuyNeural",
		TTSTimeout:           60 * time.Second,
		DefaultWorkMinutes:   25,
		DefaultBreakMinutes:  5,
		TimerPollInterval:    5 * time.Second,
		FinalizeOnWorkExpiry: true,
		PromptTemplate:       prompt.DefaultTemplate,
	}
}

// Load builds the Config from defaults, CONFIG_FILE and the environment, then
// validates it. Every problem found is returned at once.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		err = decodeYAML(f, cfg)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeYAML overlays r onto cfg. Unknown keys are rejected.
func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("DATA_DIR", &cfg.DataDir)

	str("TWITCH_CHANNEL", &cfg.TwitchChannel)
	str("TWITCH_BOT_USERNAME", &cfg.TwitchBotUsername)
	str("TWITCH_OAUTH_TOKEN", &cfg.TwitchOAuthToken)
	if v := os.Getenv("EXCLUDED_USERS"); v != "" {
		cfg.ExcludedUsers = splitList(v)
	}

	str("SUMMARIZER_BINARY", &cfg.SummarizerBinary)
	str("SUMMARIZER_MODEL", &cfg.SummarizerModel)
	dur("SUMMARIZER_TIMEOUT", &cfg.SummarizerTimeout)
	num("CHAT_WINDOW", &cfg.ChatWindow)

	str("TTS_BINARY", &cfg.TTSBinary)
	str("TTS_VOICE", &cfg.TTSVoice)
	dur("TTS_TIMEOUT", &cfg.TTSTimeout)

	num("DEFAULT_WORK_MINUTES", &cfg.DefaultWorkMinutes)
	num("DEFAULT_BREAK_MINUTES", &cfg.DefaultBreakMinutes)
	dur("TIMER_POLL_INTERVAL", &cfg.TimerPollInterval)
	boolean("FINALIZE_ON_WORK_EXPIRY", &cfg.FinalizeOnWorkExpiry)

	str("PROMPT_TEMPLATE", &cfg.PromptTemplate)
	str("PROMPT_TEMPLATE_FILE", &cfg.PromptTemplateFile)

	str("DB_DSN", &cfg.DBDsn)
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that c contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Template(); err != nil {
		errs = append(errs, err)
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.TwitchOAuthToken != "" && c.TwitchBotUsername == "" {
		errs = append(errs, errors.New("twitch_oauth_token is set but twitch_bot_username is empty"))
	}
	for name, v := range map[string]string{
		"summarizer_binary": c.SummarizerBinary,
		"summarizer_model":  c.SummarizerModel,
		"tts_binary":        c.TTSBinary,
		"tts_voice":         c.TTSVoice,
	} {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	for name, v := range map[string]int{
		"chat_window":           c.ChatWindow,
		"default_work_minutes":  c.DefaultWorkMinutes,
		"default_break_minutes": c.DefaultBreakMinutes,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	for name, v := range map[string]int{
		"default_work_minutes":  c.DefaultWorkMinutes,
		"default_break_minutes": c.DefaultBreakMinutes,
	} {
		if v > focus.MaxMinutes {
			errs = append(errs, fmt.Errorf("%s must be at most %d, got %d", name, focus.MaxMinutes, v))
		}
	}
	for name, v := range map[string]time.Duration{
		"summarizer_timeout":  c.SummarizerTimeout,
		"tts_timeout":         c.TTSTimeout,
		"timer_poll_interval": c.TimerPollInterval,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, v))
		}
	}
	return errors.Join(errs...)
}

// Template returns the configured prompt template. A template file, when set,
// takes precedence over the inline template.
func (c *Config) Template() (*prompt.Template, error) {
	if c.PromptTemplateFile != "" {
		return prompt.LoadFile(c.PromptTemplateFile)
	}
	t, err := prompt.Parse(c.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("prompt_template: %w", err)
	}
	return t, nil
}

// ListenerEnabled reports whether a chat channel is configured.
func (c *Config) ListenerEnabled() bool { return c.TwitchChannel != "" }
