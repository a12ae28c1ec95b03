// Package main provides the ragd CLI for managing corpora, ingesting
// content and querying.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hexfield/ragd/internal/chat"
	"github.com/hexfield/ragd/internal/config"
	"github.com/hexfield/ragd/internal/embedding"
	"github.com/hexfield/ragd/internal/ingest"
	"github.com/hexfield/ragd/internal/llm"
	"github.com/hexfield/ragd/internal/registry"
	"github.com/hexfield/ragd/internal/segment"
	"github.com/hexfield/ragd/internal/session"
	"github.com/hexfield/ragd/internal/source"
	"github.com/hexfield/ragd/internal/store"
)

var (
	corpusFlag  string
	sitemapFlag bool
	topKFlag    int
	modelFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "ragd",
	Short: "Multi-corpus retrieval-augmented chat tool",
	Long: `CLI for managing isolated document corpora backed by Qdrant.

Environment variables:
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY  OpenAI API key for embeddings (required)
  OLLAMA_BASE_URL Ollama server for chat generation (default: http://localhost:11434)
  RAGD_CONFIG     Path to config file (default: ~/.ragd/config.yaml)`,
}

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage corpora",
}

var corpusCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a corpus and make it active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		return withApp(func(ctx context.Context, app *app) error {
			id := app.registry.Create(ctx, args[0], description)
			app.registry.SwitchActive(id)
			fmt.Printf("Created corpus %q (%s)\n", args[0], id)
			return app.save()
		})
	},
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List corpora with live counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			tenants := app.registry.List()
			if len(tenants) == 0 {
				fmt.Println("No corpora. Create one with: ragd corpus create <name>")
				return nil
			}
			var activeID string
			if active, ok := app.registry.Active(); ok {
				activeID = active.ID
			}
			for _, t := range tenants {
				s := t.Summary(ctx)
				marker := " "
				if s.ID == activeID {
					marker = "*"
				}
				fmt.Printf("%s %s  %-20s  %d docs  %d vectors\n", marker, s.ID, s.Name, s.DocumentCount, s.VectorCount)
			}
			return nil
		})
	},
}

var corpusSwitchCmd = &cobra.Command{
	Use:   "switch <id-or-name>",
	Short: "Select the active corpus (clears conversation state)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			t, err := app.resolve(args[0])
			if err != nil {
				return err
			}
			app.registry.SwitchActive(t.ID)
			fmt.Printf("Active corpus: %s\n", t.Name)
			return app.save()
		})
	},
}

var corpusDeleteCmd = &cobra.Command{
	Use:   "delete <id-or-name>",
	Short: "Delete a corpus and its index collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			t, err := app.resolve(args[0])
			if err != nil {
				return err
			}
			if !app.registry.Delete(ctx, t.ID) {
				return fmt.Errorf("failed to delete corpus %s; its collection may be unreachable", t.Name)
			}
			fmt.Printf("Deleted corpus %s\n", t.Name)
			return app.save()
		})
	},
}

var corpusStatusCmd = &cobra.Command{
	Use:   "status [id-or-name]",
	Short: "Show a corpus's document ledger",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			t, err := app.target(args)
			if err != nil {
				return err
			}
			s := t.Summary(ctx)
			fmt.Printf("%s (%s): %d documents, %d vectors\n", s.Name, s.ID, s.DocumentCount, s.VectorCount)
			for _, d := range t.Documents() {
				name := d.Filename
				if name == "" {
					name = d.URL
				}
				fmt.Printf("  [%s] %-40s  %d chunks\n", d.SourceType, name, d.Chunks)
			}
			return nil
		})
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add content to a corpus",
}

var ingestFileCmd = &cobra.Command{
	Use:   "file <path>...",
	Short: "Ingest local files (pdf, docx, txt, md, code)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			t, err := app.targetCorpus()
			if err != nil {
				return err
			}
			for _, path := range args {
				result, err := app.coordinator.IngestFile(ctx, t, path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
					continue
				}
				fmt.Printf("  %s: %d chunks\n", filepath.Base(path), result.Chunks)
				for _, f := range result.FailedUnits {
					fmt.Printf("    skipped %s: %s\n", f.Unit, f.Reason)
				}
			}
			return app.save()
		})
	},
}

var ingestURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Fetch and ingest a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			t, err := app.targetCorpus()
			if err != nil {
				return err
			}
			result, err := app.coordinator.IngestURL(ctx, t, args[0], sitemapFlag, app.cfg.Fetch.MaxSitemapURLs)
			if err != nil {
				return err
			}
			fmt.Printf("Ingested %d URLs, %d chunks\n", result.Units, result.Chunks)
			for _, f := range result.FailedUnits {
				fmt.Printf("  skipped %s: %s\n", f.Unit, f.Reason)
			}
			return app.save()
		})
	},
}

var ingestTextCmd = &cobra.Command{
	Use:   "text [text]",
	Short: "Ingest raw text from an argument or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			t, err := app.targetCorpus()
			if err != nil {
				return err
			}

			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			added := app.coordinator.IngestText(ctx, t, text, store.Metadata{
				SourceType: store.SourceText,
			})
			fmt.Printf("Ingested %d chunks\n", added)
			return app.save()
		})
	},
}

var ingestRepoCmd = &cobra.Command{
	Use:   "repo <owner/repo> [path]",
	Short: "Ingest markdown docs from a GitHub repository",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			t, err := app.targetCorpus()
			if err != nil {
				return err
			}

			parts := strings.SplitN(args[0], "/", 2)
			if len(parts) != 2 {
				return fmt.Errorf("repository must be owner/repo, got %q", args[0])
			}
			basePath := ""
			if len(args) == 2 {
				basePath = args[1]
			}

			ghClient, err := source.NewGitHubClient()
			if err != nil {
				return fmt.Errorf("failed to create GitHub client: %w", err)
			}
			fetcher := source.NewRepoFetcher(ghClient, parts[0], parts[1], basePath)

			result, err := app.coordinator.IngestRepo(ctx, t, fetcher)
			if err != nil {
				return err
			}
			fmt.Printf("Ingested %d docs, %d chunks\n", result.Units, result.Chunks)
			return app.save()
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search the active corpus and print the top passages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			t, err := app.targetCorpus()
			if err != nil {
				return err
			}

			results := t.Store().Search(ctx, args[0], topKFlag)
			if len(results) == 0 {
				fmt.Println("No results.")
				return nil
			}
			for i, r := range results {
				title := r.Metadata.Title
				if title == "" {
					title = r.Metadata.Filename
				}
				if title == "" {
					title = r.Metadata.URL
				}
				fmt.Printf("%d. [%.3f] %s\n%s\n\n", i+1, r.Score, title, r.Content)
			}
			return nil
		})
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat against the active corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			if _, err := app.targetCorpus(); err != nil {
				return err
			}

			model := modelFlag
			if model == "" {
				model = app.cfg.Ollama.DefaultModel
			}

			engine := chat.New(app.registry, app.session, app.llm, model,
				app.cfg.Retrieval.TopK, app.cfg.Fetch.MaxContentSize, app.logger)

			fmt.Println("Chat started. Empty line or Ctrl-D to exit.")
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				query := strings.TrimSpace(scanner.Text())
				if query == "" {
					break
				}

				answer := engine.Ask(ctx, query)
				fmt.Println()
				fmt.Println(answer.Text)
				if len(answer.Sources) > 0 {
					fmt.Println()
					fmt.Println("Sources:")
					for i, src := range answer.Sources {
						name := src.Metadata.Title
						if name == "" {
							name = src.Metadata.Filename
						}
						if name == "" {
							name = src.Metadata.URL
						}
						fmt.Printf("  [%d] %.3f  %s\n", i+1, src.Score, name)
					}
				}
				if len(answer.FollowUps) > 0 {
					fmt.Println()
					fmt.Println("You might also ask:")
					for _, q := range answer.FollowUps {
						fmt.Printf("  - %s\n", q)
					}
				}
				fmt.Println()
			}
			return scanner.Err()
		})
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the Ollama server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *app) error {
			names := app.llm.ListModels(ctx)
			if len(names) == 0 {
				fmt.Println("No models found. Is the Ollama server running?")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		})
	},
}

func init() {
	corpusCreateCmd.Flags().String("description", "", "optional corpus description")
	corpusCmd.AddCommand(corpusCreateCmd, corpusListCmd, corpusSwitchCmd, corpusDeleteCmd, corpusStatusCmd)

	ingestCmd.PersistentFlags().StringVar(&corpusFlag, "corpus", "", "target corpus id or name (default: active)")
	ingestURLCmd.Flags().BoolVar(&sitemapFlag, "sitemap", false, "also ingest URLs from the site's sitemap")
	ingestCmd.AddCommand(ingestFileCmd, ingestURLCmd, ingestTextCmd, ingestRepoCmd)

	queryCmd.Flags().StringVar(&corpusFlag, "corpus", "", "corpus id or name to search (default: active)")
	queryCmd.Flags().IntVar(&topKFlag, "k", 5, "number of passages to return")

	chatCmd.Flags().StringVar(&corpusFlag, "corpus", "", "corpus id or name to chat with (default: active)")
	chatCmd.Flags().StringVar(&modelFlag, "model", "", "Ollama model to use (default: from config)")

	rootCmd.AddCommand(corpusCmd, ingestCmd, queryCmd, chatCmd, modelsCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired components behind every command.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	backend      *store.QdrantBackend
	registry     *registry.Registry
	session      *session.Session
	coordinator  *ingest.Coordinator
	llm          *llm.Client
	registryPath string
}

// withApp wires the full component graph, loads the persisted registry,
// runs fn, and tears down.
func withApp(fn func(ctx context.Context, app *app) error) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	backend, err := store.NewQdrantBackend(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer backend.Close()

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.BatchSize)

	provider := store.NewProvider(backend, embedder, logger)

	// One session shared by the registry and the chat engine, so switching
	// corpora resets the conversation state the engine reads.
	sess := session.New()
	reg := registry.New(provider, sess, logger)

	registryPath := filepath.Join(os.Getenv("HOME"), ".ragd", "registry.yaml")
	if err := reg.LoadFile(ctx, registryPath); err != nil {
		return err
	}

	sizes := segment.Sizes{
		Small:  cfg.Chunking.SmallSize,
		Medium: cfg.Chunking.MediumSize,
		Large:  cfg.Chunking.LargeSize,
	}
	fetcher := source.NewWebFetcher(cfg.RequestTimeout(), int64(cfg.Fetch.MaxContentSize), logger)
	coordinator := ingest.New(sizes, cfg.Chunking.Overlap, cfg.Fetch.MaxContentSize, fetcher, logger)

	llmClient := llm.NewClient(cfg.Ollama.BaseURL, 2*time.Minute, logger)

	return fn(ctx, &app{
		cfg:          cfg,
		logger:       logger,
		backend:      backend,
		registry:     reg,
		session:      sess,
		coordinator:  coordinator,
		llm:          llmClient,
		registryPath: registryPath,
	})
}

func (a *app) save() error {
	return a.registry.SaveFile(a.registryPath)
}

// resolve finds a tenant by exact id or by name.
func (a *app) resolve(ref string) (*registry.Tenant, error) {
	if t, ok := a.registry.Get(ref); ok {
		return t, nil
	}
	for _, t := range a.registry.List() {
		if t.Name == ref {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no corpus matching %q", ref)
}

// target picks the corpus from positional args, falling back to the
// active corpus.
func (a *app) target(args []string) (*registry.Tenant, error) {
	if len(args) == 1 {
		return a.resolve(args[0])
	}
	return a.targetCorpus()
}

// targetCorpus honors --corpus, falling back to the active corpus.
func (a *app) targetCorpus() (*registry.Tenant, error) {
	if corpusFlag != "" {
		return a.resolve(corpusFlag)
	}
	if t, ok := a.registry.Active(); ok {
		return t, nil
	}
	return nil, fmt.Errorf("no active corpus; create one with: ragd corpus create <name>")
}
