package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"coverletter-backend/coverletter/content"
	"coverletter-backend/coverletter/model"
	"coverletter-backend/coverletter/render"
	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/llm/gemini"
	"coverletter-backend/internal/llm/openai"
	"coverletter-backend/internal/notify"
	"coverletter-backend/internal/shared/config"
)

// letterFile is the on-disk input for render and preview.
type letterFile struct {
	Name    string              `json:"name" yaml:"name"`
	Profile model.Profile       `json:"profile" yaml:"profile"`
	Content model.LetterContent `json:"content" yaml:"content"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "letterctl",
		Short:         "Work with cover letters from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCleanCmd(),
		newResolveCmd(),
		newRenderCmd(),
		newPreviewCmd(),
		newGenerateCmd(),
	)
	return root
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [file]",
		Short: "Strip model commentary from text read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), content.Clean(text))
			return err
		},
	}
}

func newResolveCmd() *cobra.Command {
	var profile model.Profile
	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Replace [Your Name] style placeholders with profile values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), content.ResolvePlaceholders(text, profile))
			return err
		},
	}
	cmd.Flags().StringVar(&profile.Name, "name", "", "full name")
	cmd.Flags().StringVar(&profile.Email, "email", "", "email address")
	cmd.Flags().StringVar(&profile.Location, "location", "", "location or address")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var (
		in           string
		out          string
		fallbackOnly bool
		chromeURL    string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a letter file (YAML or JSON) to PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			letter, err := loadLetter(in)
			if err != nil {
				return err
			}
			primary := render.PrimaryStrategy{Geometry: render.LetterGeometry}
			if !fallbackOnly {
				engine := render.NewBrowserEngine(render.BrowserConfig{ControlURL: chromeURL})
				defer engine.Close()
				primary.Engine = engine
			}
			renderer := render.NewRenderer(primary, render.FallbackStrategy{Geometry: render.LetterGeometry}, notify.Log{})

			artifact, err := renderer.Export(cmd.Context(), render.Job{
				DisplayName: letter.Name,
				Content:     content.Finalize(letter.Content, letter.Profile),
			})
			if err != nil {
				return err
			}
			if out == "" {
				out = artifact.FileName
			} else if info, statErr := os.Stat(out); statErr == nil && info.IsDir() {
				out = filepath.Join(out, artifact.FileName)
			}
			if err := os.WriteFile(out, artifact.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d bytes)\n", out, artifact.Path, len(artifact.Data))
			if artifact.Overflow {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: letter does not fit on one page")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "letter file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&out, "out", "", "output file or directory")
	cmd.Flags().BoolVar(&fallbackOnly, "fallback-only", false, "skip the browser renderer")
	cmd.Flags().StringVar(&chromeURL, "chrome-url", "", "DevTools URL of a running browser")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Rasterise the first page of a letter file to PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			letter, err := loadLetter(in)
			if err != nil {
				return err
			}
			finalized := content.Finalize(letter.Content, letter.Profile)
			png, overflow, err := render.PreviewPNG(render.BuildDocument(letter.Name, finalized, time.Now()), render.LetterGeometry)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, png, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(png))
			if overflow {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: letter does not fit on one page")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "letter file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&out, "out", "preview.png", "output PNG")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var (
		jobTitle, company, jdPath string
		suggestions               bool
		provider, modelName       string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft a letter or suggestions with the configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(jdPath)
			if err != nil {
				return err
			}
			cfg := config.Load()
			if provider != "" {
				cfg.LLMProvider = provider
			}
			if modelName != "" {
				cfg.LLMModel = modelName
			}
			client, err := newLLM(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			in := llm.GenerationInput{JobTitle: jobTitle, CompanyName: company, JobDescription: strings.TrimSpace(string(raw))}
			build := llm.CompletePrompt
			if suggestions {
				build = llm.SuggestionsPrompt
			}
			prompt, err := build(in)
			if err != nil {
				return err
			}
			answer, err := client.Complete(cmd.Context(), llm.Request{System: llm.SystemWriter, Prompt: prompt})
			if err != nil {
				return err
			}
			if !suggestions {
				answer = content.Clean(answer)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
			return err
		},
	}
	cmd.Flags().StringVar(&jobTitle, "job-title", "", "job title")
	cmd.Flags().StringVar(&company, "company", "", "company name")
	cmd.Flags().StringVar(&jdPath, "jd", "", "path to the job description")
	cmd.Flags().BoolVar(&suggestions, "suggestions", false, "ask for suggestions instead of a full letter")
	cmd.Flags().StringVar(&provider, "provider", "", "openai or gemini (defaults to LLM_PROVIDER)")
	cmd.Flags().StringVar(&modelName, "model", "", "model name (defaults to LLM_MODEL)")
	_ = cmd.MarkFlagRequired("jd")
	return cmd
}

func newLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, 0)
	default:
		return nil, llm.ErrNotConfigured
	}
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		raw, err := os.ReadFile(args[0])
		return string(raw), err
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	return string(raw), err
}

func loadLetter(path string) (letterFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return letterFile{}, err
	}
	var letter letterFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &letter)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &letter)
	default:
		return letterFile{}, fmt.Errorf("unsupported letter file %q: use .yaml, .yml or .json", path)
	}
	if err != nil {
		return letterFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := letter.Content.Validate(); err != nil {
		return letterFile{}, err
	}
	if strings.TrimSpace(letter.Name) == "" {
		return letterFile{}, errors.New("letter file needs a name")
	}
	return letter, nil
}
