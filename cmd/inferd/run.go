package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inferd/internal/config"
	"inferd/internal/engine"
	"inferd/internal/registry"
)

// runCmd performs a one-shot generation straight to stdout, without the
// HTTP layer. Ctrl+C cancels cooperatively and keeps the text printed so far.
func runCmd(cfg *config.Config) *cobra.Command {
	var (
		modelID       string
		maxTokens     int
		temperature   float32
		topP          float32
		topK          int
		repeatPenalty float32
		seed          int64
		stopCSV       string
	)
	cmd := &cobra.Command{
		Use:     "run <prompt>",
		Short:   "Generate a completion for a prompt and print it",
		Example: "  inferd run --model tinyllama.Q4_K_M.gguf --max-tokens 64 \"Write a haiku\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(*cfg, modelID, args[0], engine.Request{
				MaxTokens:     maxTokens,
				Temperature:   temperature,
				TopP:          topP,
				TopK:          topK,
				RepeatPenalty: repeatPenalty,
				Seed:          seed,
				Stop:          splitCSV(stopCSV),
			})
		},
	}
	cmd.Flags().StringVar(&modelID, "model", "", "Model id (defaults to --default-model)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 256, "Maximum new tokens to generate")
	cmd.Flags().Float32Var(&temperature, "temperature", 0, "Sampling temperature (0=engine default)")
	cmd.Flags().Float32Var(&topP, "top-p", 0, "Nucleus sampling probability (0=engine default)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Top-K candidates (0=engine default)")
	cmd.Flags().Float32Var(&repeatPenalty, "repeat-penalty", 0, "Repeat penalty (0=off)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0=random)")
	cmd.Flags().StringVar(&stopCSV, "stop", "", "Comma-separated stop sequences")
	return cmd
}

func runOnce(cfg config.Config, modelID, prompt string, req engine.Request) error {
	log := newLogger(cfg.LogLevel)

	reg, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		return err
	}
	if modelID == "" {
		modelID = cfg.DefaultModel
	}
	var path string
	for _, mdl := range reg {
		if mdl.ID == modelID {
			path = mdl.Path
			break
		}
	}
	if path == "" {
		return fmt.Errorf("model not found: %s (have %d models in %s)", modelID, len(reg), cfg.ModelsDir)
	}

	backend := engine.NewLlamaBackend()
	model, err := engine.LoadModel(backend, path, engine.ModelParams{
		Threads:   cfg.Threads,
		GPULayers: cfg.GPULayers,
		UseMMap:   cfg.MMap(),
		UseMLock:  cfg.UseMLock,
	})
	if err != nil {
		return err
	}
	defer model.Close()
	ectx, err := model.NewContext(engine.ContextParams{
		NCtx:    cfg.CtxSize,
		NBatch:  cfg.BatchSize,
		Threads: cfg.Threads,
	})
	if err != nil {
		return err
	}
	defer ectx.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req.Prompt = prompt
	eng := engine.New(engine.Config{Logger: log, StreamBuffer: cfg.StreamBuffer})
	tokens, results := eng.GenerateStream(ctx, model, ectx, req)
	for tok := range tokens {
		fmt.Print(tok)
	}
	fmt.Println()

	sr := <-results
	if sr.Err != nil {
		return sr.Err
	}
	log.Info().
		Str("finish_reason", sr.Result.FinishReason).
		Int("prompt_tokens", sr.Result.PromptTokens).
		Int("emitted_tokens", sr.Result.EmittedTokens).
		Dur("dur", sr.Result.Duration).
		Msg("generation finished")
	return nil
}
