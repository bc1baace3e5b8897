package summarize

import (
	"context"
	"strings"

	"github.com/onnwee/stream-recap/executor"
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Ollama runs `ollama run <model>` with the prompt on stdin.
type Ollama struct {
	Binary string
	Model  string
	exec   executor.Executor
}

// NewOllama returns a Generator backed by the local ollama CLI. An empty
// binary means "ollama" on PATH.
func NewOllama(binary, model string, exec executor.Executor) *Ollama {
	if binary == "" {
		binary = "ollama"
	}
	if exec == nil {
		exec = executor.New()
	}
	return &Ollama{Binary: binary, Model: model, exec: exec}
}

func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	return o.exec.Execute(ctx, strings.NewReader(prompt), o.Binary, "run", o.Model)
}
