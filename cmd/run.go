package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spigell/careercraft/internal/flow"
	"github.com/spigell/careercraft/internal/flows"
	"github.com/spigell/careercraft/internal/logger"
	"github.com/spigell/careercraft/internal/resume"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run [flow]",
	Short: "Run a single flow with JSON input and print the JSON result",
	Long: `Run a single flow once. The input is a JSON object given with --data,
read from --input (use "-" for stdin) or empty. With --resume the text of a
txt, pdf or docx file is used as the resumeText field.
Without a flow name an interactive picker is shown.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runFlow(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", `file with the JSON input, "-" reads stdin`)
	runCmd.Flags().StringP("data", "D", "", "inline JSON input")
	runCmd.Flags().StringP("resume", "r", "", "resume file used as the resumeText field")
}

func runFlow(cmd *cobra.Command, args []string) {
	logger, err := logger.NewStderr(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	ctx := context.Background()
	if config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.RequestTimeout)
		defer cancel()
	}

	completer, err := newCompleter(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the ai completer", zap.Error(err))
	}

	registry := flow.NewRegistry()
	if err := flows.Register(registry, completer, flow.WithLogger(logger)); err != nil {
		logger.Fatal("registering flows", zap.Error(err))
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	} else if name, err = pickFlow(registry); err != nil {
		logger.Fatal("choosing a flow", zap.Error(err))
	}

	runner, ok := registry.Get(name)
	if !ok {
		logger.Fatal("unknown flow", zap.String("flow", name), zap.Strings("available", registry.Names()))
	}

	body, err := readInput(cmd)
	if err != nil {
		logger.Fatal("reading flow input", zap.Error(err))
	}

	if path, _ := cmd.Flags().GetString("resume"); path != "" {
		if body, err = withResume(body, path); err != nil {
			logger.Fatal("reading resume", zap.String("file", path), zap.Error(err))
		}
	}

	out, err := runner.RunJSON(ctx, body)
	if err != nil {
		var fe *flow.Error
		if errors.As(err, &fe) {
			logger.Error(fe.UserMessage(),
				zap.String("kind", string(fe.Kind)),
				zap.Strings("details", fe.Details),
				zap.Error(fe.Err),
			)
		} else {
			logger.Error("flow failed", zap.Error(err))
		}
		os.Exit(1)
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Fatal("encoding flow result", zap.Error(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}

func pickFlow(registry *flow.Registry) (string, error) {
	prompt := promptui.Select{
		Label: "Choose a flow and press ENTER",
		Items: registry.Names(),
		Size:  10,
	}

	_, name, err := prompt.Run()
	return name, err
}

func readInput(cmd *cobra.Command) ([]byte, error) {
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		return []byte(data), nil
	}

	switch input, _ := cmd.Flags().GetString("input"); input {
	case "":
		return []byte("{}"), nil
	case "-":
		return io.ReadAll(cmd.InOrStdin())
	default:
		return os.ReadFile(input)
	}
}

// withResume sets resumeText in the JSON object body to the text of the file.
func withResume(body []byte, path string) ([]byte, error) {
	input := map[string]any{}
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > resume.MaxSize {
		return nil, resume.ErrTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}

	text, err := resume.ExtractText(resume.DetectMIME(filepath.Base(path), head), data)
	if err != nil {
		return nil, err
	}

	input["resumeText"] = text
	return json.Marshal(input)
}
