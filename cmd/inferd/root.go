package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"inferd/internal/config"
)

// buildRootCmd constructs the Cobra command tree. Persistent flags carry the
// server configuration; an optional --config file supplies values for flags
// the user did not set explicitly.
func buildRootCmd() *cobra.Command {
	var configPath string
	useMMap := true
	cfg := config.Config{
		Addr:      ":8080",
		ModelsDir: "~/models/llm",
		UseMMap:   &useMMap,
		LogLevel:  "info",
	}
	if v := os.Getenv("INFERD_ADDR"); v != "" {
		cfg.Addr = v
	}

	root := &cobra.Command{
		Use:           "inferd",
		Short:         "Local LLM generation server over llama.cpp",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to config file (.yaml/.json/.toml)")
	pf.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address, e.g. :8080")
	pf.StringVar(&cfg.ModelsDir, "models-dir", cfg.ModelsDir, "Directory to scan for *.gguf model files")
	pf.StringVar(&cfg.DefaultModel, "default-model", "", "Default model id when request omits model")
	pf.IntVar(&cfg.CtxSize, "ctx-size", 0, "Context window size in tokens (0=engine default)")
	pf.IntVar(&cfg.BatchSize, "batch-size", 0, "Max tokens per decode batch (0=engine default)")
	pf.IntVar(&cfg.Threads, "threads", 0, "Worker threads for the native runtime (0=auto)")
	pf.IntVar(&cfg.GPULayers, "gpu-layers", 0, "Layers to offload to the GPU")
	pf.BoolVar(&useMMap, "use-mmap", useMMap, "Memory-map model weights")
	pf.BoolVar(&cfg.UseMLock, "use-mlock", false, "Lock model weights in RAM")
	pf.IntVar(&cfg.DefaultMaxTokens, "default-max-tokens", 0, "max_tokens applied when a request omits it")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return nil
		}
		file, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFileConfig(&cfg, file, cmd.Flags())
		return nil
	}

	root.AddCommand(serveCmd(&cfg), runCmd(&cfg), modelsCmd(&cfg))
	return root
}

// applyFileConfig copies file values into cfg for every setting the user did
// not override on the command line.
func applyFileConfig(cfg *config.Config, file config.Config, flags *pflag.FlagSet) {
	if !flags.Changed("addr") && file.Addr != "" {
		cfg.Addr = file.Addr
	}
	if !flags.Changed("models-dir") && file.ModelsDir != "" {
		cfg.ModelsDir = file.ModelsDir
	}
	if !flags.Changed("default-model") && file.DefaultModel != "" {
		cfg.DefaultModel = file.DefaultModel
	}
	if !flags.Changed("ctx-size") && file.CtxSize > 0 {
		cfg.CtxSize = file.CtxSize
	}
	if !flags.Changed("batch-size") && file.BatchSize > 0 {
		cfg.BatchSize = file.BatchSize
	}
	if !flags.Changed("threads") && file.Threads > 0 {
		cfg.Threads = file.Threads
	}
	if !flags.Changed("gpu-layers") && file.GPULayers > 0 {
		cfg.GPULayers = file.GPULayers
	}
	// A file that never mentions use_mmap must not flip the default, so the
	// merge requires the key to be present (non-nil), not just the flag unset.
	if !flags.Changed("use-mmap") && file.UseMMap != nil {
		if cfg.UseMMap == nil {
			cfg.UseMMap = new(bool)
		}
		*cfg.UseMMap = *file.UseMMap
	}
	if !flags.Changed("use-mlock") && file.UseMLock {
		cfg.UseMLock = true
	}
	if !flags.Changed("default-max-tokens") && file.DefaultMaxTokens > 0 {
		cfg.DefaultMaxTokens = file.DefaultMaxTokens
	}
	if !flags.Changed("log-level") && file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.StreamBuffer > 0 {
		cfg.StreamBuffer = file.StreamBuffer
	}
	if file.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = file.MaxBodyBytes
	}
	if file.CORSEnabled {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = file.CORSOrigins
		cfg.CORSMethods = file.CORSMethods
		cfg.CORSHeaders = file.CORSHeaders
	}
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).With().Timestamp().Logger()
}

// splitCSV splits a comma-separated flag value, trimming whitespace and
// dropping empty items.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
