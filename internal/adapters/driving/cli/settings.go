package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vetta/internal/adapters/driven/ai"
	"github.com/custodia-labs/vetta/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/vetta/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/vetta/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/vetta/internal/config"
)

var configLLMSkipCheck bool

var configLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Interactively configure the report writer",
	Long: `Choose the language model provider used to write vetting reports,
then check that it answers.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runConfigLLM,
}

func init() {
	configLLMCmd.Flags().BoolVar(&configLLMSkipCheck, "no-check", false, "save without contacting the provider")
	configCmd.AddCommand(configLLMCmd)
}

type llmChoice struct {
	provider     string
	description  string
	defaultModel string
	needsKey     bool
}

var llmChoices = []llmChoice{
	{provider: config.LLMOpenAI, description: "OpenAI", defaultModel: openai.DefaultLLMModel, needsKey: true},
	{provider: config.LLMAnthropic, description: "Anthropic", defaultModel: anthropic.DefaultModel, needsKey: true},
	{provider: config.LLMOllama, description: "Ollama (local)", defaultModel: ollama.DefaultLLMModel},
}

// llmValidator checks a provider configuration. Replaced in tests.
var llmValidator = ai.ValidateLLMConfig

func runConfigLLM(cmd *cobra.Command, _ []string) error {
	in := cmd.InOrStdin()
	reader := bufio.NewReader(in)
	out := cmd.OutOrStdout()

	choice, model := promptLLMChoice(out, reader)

	var apiKey, baseURL string
	if choice.needsKey {
		fmt.Fprint(out, "Enter API key: ")
		apiKey = readPassword(in, reader)
		fmt.Fprintln(out)
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	} else {
		fmt.Fprintf(out, "Enter base URL [%s]: ", ollama.DefaultBaseURL)
		baseURL = readLine(reader)
	}

	values := map[string]string{
		config.KeyLLMProvider: choice.provider,
		config.KeyLLMModel:    model,
		config.KeyLLMAPIKey:   apiKey,
		config.KeyLLMBaseURL:  baseURL,
	}
	// Empty values clear whatever an earlier run stored.
	for key, value := range values {
		if err := configStore.Set(key, value); err != nil {
			return errors.Wrapf(err, "set %s", key)
		}
	}

	loaded, err := config.Load(configStore)
	if err != nil {
		return err
	}

	if !configLLMSkipCheck {
		fmt.Fprint(out, "Validating configuration... ")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := llmValidator(ctx, loaded.LLM); err != nil {
			fmt.Fprintln(out, "FAILED")
			return errors.Wrap(err, "LLM configuration validation failed")
		}
		fmt.Fprintln(out, "OK")
	}

	if err := configStore.Save(); err != nil {
		return errors.Wrap(err, "save configuration")
	}
	fmt.Fprintf(out, "LLM provider configured: %s (%s)\n", choice.description, model)
	return nil
}

func promptLLMChoice(out io.Writer, reader *bufio.Reader) (llmChoice, string) {
	fmt.Fprintln(out, "Select LLM Provider")
	for i, c := range llmChoices {
		fmt.Fprintf(out, "  %d. %s\n", i+1, c.description)
	}
	fmt.Fprint(out, "\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(llmChoices), 1)
	choice := llmChoices[idx-1]

	fmt.Fprintf(out, "Enter model name [%s]: ", choice.defaultModel)
	model := readLine(reader)
	if model == "" {
		model = choice.defaultModel
	}
	return choice, model
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}
