// Command deskagent runs the office assistant: it wires credentials, the
// model adapter, the capability providers and the web shell together.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/arodchenko/deskagent/examples/office"
	"github.com/arodchenko/deskagent/pkg/adapters/llm"
	_ "github.com/arodchenko/deskagent/pkg/adapters/llm/gemini"
	_ "github.com/arodchenko/deskagent/pkg/adapters/llm/openai"
	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/config"
	"github.com/arodchenko/deskagent/pkg/mcpclient"
	"github.com/arodchenko/deskagent/pkg/mcpserver"
	"github.com/arodchenko/deskagent/pkg/otel"
	"github.com/arodchenko/deskagent/pkg/prompt"
	"github.com/arodchenko/deskagent/pkg/providers/basic"
	"github.com/arodchenko/deskagent/pkg/providers/calendar"
	"github.com/arodchenko/deskagent/pkg/providers/mail"
	mcpprovider "github.com/arodchenko/deskagent/pkg/providers/mcp"
	"github.com/arodchenko/deskagent/pkg/runtime"
	"github.com/arodchenko/deskagent/pkg/transcript"
	"github.com/arodchenko/deskagent/pkg/transcript/sqlstore"
	"github.com/arodchenko/deskagent/pkg/ui"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type options struct {
	addr          string
	credPath      string
	modelName     string
	modelID       string
	dbURL         string
	showSteps     bool
	mcpAddr       string
	mcpImport     string
	historyTokens int
	temperature   float64
	topP          float64
	maxOutTokens  int
}

func main() {
	var (
		showVersion bool
		opts        options
	)
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.StringVar(&opts.addr, "addr", getEnv("DESKAGENT_ADDR", ":8080"), "http listen address")
	flag.StringVar(&opts.credPath, "credentials", getEnv("DESKAGENT_CREDENTIALS", "credentials.json"), "path to the credential file")
	flag.StringVar(&opts.modelName, "model", getEnv("DESKAGENT_MODEL", "openai"), "model adapter (openai, gemini)")
	flag.StringVar(&opts.modelID, "model-name", getEnv("DESKAGENT_MODEL_NAME", ""), "model identifier passed to the adapter")
	flag.StringVar(&opts.dbURL, "db", getEnv("DATABASE_URL", ""), "transcript database DSN (sqlite:... or postgres://...); empty keeps transcripts in memory")
	flag.BoolVar(&opts.showSteps, "show-steps", false, "include intermediate steps in chat responses")
	flag.StringVar(&opts.mcpAddr, "mcp-addr", "", "also export the toolset over MCP on this address (needs the mcp build tag)")
	flag.StringVar(&opts.mcpImport, "mcp-import", "", "import tools from a remote MCP server at this URL (needs the mcp build tag)")
	flag.IntVar(&opts.historyTokens, "history-tokens", 64000, "token budget for the conversation window")
	flag.Float64Var(&opts.temperature, "temperature", 0, "model sampling temperature (0 leaves the provider default)")
	flag.Float64Var(&opts.topP, "top-p", 0, "model nucleus-sampling mass (0 leaves the provider default)")
	flag.IntVar(&opts.maxOutTokens, "max-output-tokens", 0, "cap on model output tokens per turn (0 leaves the provider default)")
	flag.Parse()

	if showVersion {
		fmt.Printf("deskagent %s (commit=%s, date=%s)\n", version, commit, date)
		return
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "deskagent: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx := context.Background()

	shutdown, err := otel.Init(ctx, otel.Config{ServiceName: "deskagent", ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	creds, err := config.Load(opts.credPath)
	if err != nil {
		return err
	}

	model, err := buildModel(ctx, creds, opts.modelName, opts.modelID)
	if err != nil {
		return err
	}

	currencyKey, err := creds.Require(config.KeyCurrencyAPI)
	if err != nil {
		return err
	}
	weatherKey, err := creds.Require(config.KeyWeatherAPI)
	if err != nil {
		return err
	}
	basicProvider, err := basic.NewProvider(currencyKey, weatherKey, basic.Options{})
	if err != nil {
		return err
	}

	mailbox := office.SeedMailbox()
	cal := office.SeedCalendar()
	mailProvider := mail.NewProvider(mailbox, model, nil)
	calProvider := calendar.NewProvider(cal)

	lists := [][]agent.Tool{
		basicProvider.Tools(),
		mailProvider.Tools(),
		calProvider.Tools(),
	}
	if opts.mcpImport != "" {
		client, err := mcpclient.New(ctx, opts.mcpImport)
		if err != nil {
			return fmt.Errorf("mcp client: %w", err)
		}
		remote, err := mcpprovider.NewProvider(ctx, client)
		if err != nil {
			return fmt.Errorf("mcp import: %w", err)
		}
		defer func() { _ = remote.Close() }()
		log.Printf("mcp: imported %d tools from %s", len(remote.Tools()), opts.mcpImport)
		lists = append(lists, remote.Tools())
	}
	lists = append(lists, []agent.Tool{agent.FinalAnswerTool{}})

	toolset, assemblyLog, err := agent.Assemble(lists...)
	if err != nil {
		return err
	}
	for _, rep := range assemblyLog.Replacements {
		log.Printf("toolset: %q overridden by list %d", rep.Name, rep.ListIndex)
	}

	systemPrompt, err := prompt.RenderSystemPrompt("", toolset.Descriptors(), []string{"datetime", "json"})
	if err != nil {
		return err
	}

	cfg, err := agent.Configure(toolset, model, systemPrompt, []string{"datetime", "json"})
	if err != nil {
		return err
	}
	// the stock final_answer carries no guidance; give it a description the
	// model can act on
	cfg, err = agent.WithToolOverride(cfg, agent.FinalAnswerTool{
		Description: "Sends the final, human-readable answer to the user and ends the task. Use it exactly once, when you are done.",
	})
	if err != nil {
		return err
	}
	if gc := generationConfig(opts); gc != nil {
		cfg = agent.WithGeneration(cfg, gc)
	}

	var steps transcript.Store
	if opts.dbURL == "" {
		steps = transcript.NewMemoryStore()
	} else {
		st, err := sqlstore.Open(ctx, opts.dbURL)
		if err != nil {
			return fmt.Errorf("open transcript store: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate transcript store: %w", err)
		}
		steps = st
	}
	defer func() { _ = steps.Close() }()

	if opts.mcpAddr != "" {
		srv, err := mcpserver.New(ctx)
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		if err := srv.ExportToolset(cfg.Tools, agent.JSONSchemaValidator); err != nil {
			return fmt.Errorf("mcp export: %w", err)
		}
		go func() {
			if err := srv.Serve(ctx, opts.mcpAddr); err != nil {
				log.Printf("mcp server: %v", err)
			}
		}()
	}

	server, err := ui.NewServer(&cfg, ui.Options{
		Steps:     steps,
		Mailbox:   mailbox,
		Calendar:  cal,
		ShowSteps: opts.showSteps,
		SessionOptions: []runtime.SessionOption{
			runtime.WithHistoryOptions(historyOptions(opts.modelID, opts.historyTokens)...),
		},
	})
	if err != nil {
		return err
	}

	log.Printf("deskagent listening on %s (model=%s, show-steps=%v)", opts.addr, model.Name(), opts.showSteps)
	httpServer := &http.Server{Addr: opts.addr, Handler: server.Handler()}
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func buildModel(ctx context.Context, creds *config.Credentials, name, modelID string) (llm.LLM, error) {
	factory, ok := llm.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("unknown model adapter %q", name)
	}
	authKey, err := creds.Require(config.KeyModelAuth)
	if err != nil {
		return nil, err
	}
	cfg := map[string]any{"api_key": authKey}
	if clientID, ok := creds.Get(config.KeyModelClient); ok && clientID != "" {
		cfg["client_id"] = clientID
	}
	if modelID != "" {
		cfg["model"] = modelID
	}
	return factory(ctx, cfg)
}

// generationConfig translates the sampling flags; nil means every flag was
// left at its provider default.
func generationConfig(opts options) *llm.GenerationConfig {
	if opts.temperature == 0 && opts.topP == 0 && opts.maxOutTokens == 0 {
		return nil
	}
	return &llm.GenerationConfig{
		Temperature: opts.temperature,
		TopP:        opts.topP,
		MaxTokens:   opts.maxOutTokens,
	}
}

// historyOptions sets the window budget and, when the model is known to
// tiktoken, an exact token estimator; otherwise the rune-count default stays.
func historyOptions(modelID string, budget int) []runtime.Option {
	opts := []runtime.Option{runtime.WithMaxTokens(budget)}
	if modelID == "" {
		return opts
	}
	est, err := runtime.NewTikTokenEstimator(modelID)
	if err != nil {
		log.Printf("history: no tiktoken encoding for %q, falling back to rune count", modelID)
		return opts
	}
	return append(opts, runtime.WithTokenEstimator(est))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
