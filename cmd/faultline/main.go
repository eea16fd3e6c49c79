package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"faultline/internal/cds"
	"faultline/internal/comptree"
	"faultline/internal/config"
	"faultline/internal/event"
	"faultline/internal/export"
	"faultline/internal/forest"
	"faultline/internal/ingest"
	"faultline/internal/oracle"
	"faultline/internal/session"
	"faultline/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "faultline",
		Short: "Algorithmic debugger: localizes the faulty statement in a traced run",
	}
	configPath string
	dbPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "faultline.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the session database (SQLite); overrides config")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}
	return cfg
}

// buildGraph runs the reconstruction pipeline on one trace file. Structural
// errors abort before any query is offered; non-fatal drops are printed.
func buildGraph(cfg *config.Config, tracePath string) (*comptree.Graph, []*event.Event) {
	events, err := ingest.ReadFile(tracePath)
	if err != nil {
		log.Fatalf("Failed to read trace: %v", err)
	}
	fmt.Printf("📥 Loaded %d events from %s\n", len(events), tracePath)

	f, err := forest.Build(events, forest.Options{AllowOrphans: cfg.Trace.AllowOrphans})
	if err != nil {
		log.Fatalf("Failed to rebuild event forest: %v", err)
	}
	for _, diag := range f.Diagnostics {
		fmt.Printf("⚠️  %s\n", diag)
	}

	stmts, warnings := cds.Synthesize(f)
	for _, w := range warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
	fmt.Printf("🔗 Synthesized %d statements from %d trees\n", len(stmts), len(f.Trees))

	return comptree.Build(stmts), events
}

// buildOracle picks the judgement provider configured for this run.
func buildOracle(ctx context.Context, cfg *config.Config) oracle.Oracle {
	switch cfg.Oracle.Provider {
	case "console":
		return oracle.NewConsole(os.Stdin, os.Stdout)
	case "gemini":
		if cfg.Oracle.APIKey == "" {
			log.Fatal("Gemini API key is required (set FAULTLINE_API_KEY or oracle.api_key)")
		}
		judge, err := oracle.NewGemini(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.Intent)
		if err != nil {
			log.Fatalf("Failed to create Gemini oracle: %v", err)
		}
		return judge
	default:
		log.Fatalf("Unsupported oracle provider: %s", cfg.Oracle.Provider)
		return nil
	}
}

// reportOutcome persists and prints the end state of a localization run.
func reportOutcome(ctx context.Context, store storage.Store, sessionID string, sess *session.Session, g *comptree.Graph) {
	verdict, fault := sess.CurrentVerdict()
	if err := store.SaveGraph(ctx, sessionID, g); err != nil {
		log.Fatalf("Failed to persist session: %v", err)
	}
	if err := store.SetVerdict(ctx, sessionID, verdict.String()); err != nil {
		log.Fatalf("Failed to persist verdict: %v", err)
	}

	fmt.Printf("\n🔎 Verdict after %d queries: %s\n", sess.Queries(), verdict)
	if fault != nil {
		fmt.Printf("💥 Fault isolated: %s\n", fault.Stmt)
	}
	fmt.Printf("💾 Session saved as %s\n", sessionID)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [trace]",
	Short: "Rebuild the dependency graph from a trace and print it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		g, _ := buildGraph(cfg, args[0])

		fmt.Printf("✅ Dependency graph: %d vertices, %d arcs\n", g.Len()-1, len(g.Arcs()))
		for _, v := range g.Vertices() {
			if v.IsRoot() {
				continue
			}
			fmt.Printf("  [%d] %s\n", v.ID, v.Stmt)
		}
		if groups := g.EqualStatementGroups(); len(groups) > 0 {
			fmt.Printf("ℹ️  %d statement(s) occur at more than one call site\n", len(groups))
		}
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug [trace]",
	Short: "Run interactive fault localization over a trace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		g, events := buildGraph(cfg, args[0])
		sess, err := session.New(g, session.Options{
			MaxQueries: cfg.Session.MaxQueries,
			BatchJudge: cfg.Session.BatchJudge,
		})
		if err != nil {
			log.Fatalf("Failed to start session: %v", err)
		}

		store, err := storage.NewSQLiteStore(cfg.DB.Path)
		if err != nil {
			log.Fatalf("Failed to open session database: %v", err)
		}
		defer store.Close()

		sessionID, err := store.CreateSession(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to register session: %v", err)
		}
		if err := store.SaveEvents(ctx, sessionID, events); err != nil {
			log.Fatalf("Failed to persist trace: %v", err)
		}

		verdict, _, err := oracle.Run(ctx, sess, buildOracle(ctx, cfg))
		if err != nil && verdict == session.Unresolved {
			fmt.Printf("⚠️  Session stopped early: %v\n", err)
		}
		reportOutcome(ctx, store, sessionID, sess, g)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Continue a stored debugging session where it stopped",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		store, err := storage.NewSQLiteStore(cfg.DB.Path)
		if err != nil {
			log.Fatalf("Failed to open session database: %v", err)
		}
		defer store.Close()

		g, err := store.LoadGraph(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load session %s: %v", args[0], err)
		}
		sess, err := session.Resume(g, session.Options{
			MaxQueries: cfg.Session.MaxQueries,
			BatchJudge: cfg.Session.BatchJudge,
		})
		if err != nil {
			log.Fatalf("Failed to resume session: %v", err)
		}
		fmt.Printf("📥 Resumed session %s with %d recorded judgements\n", args[0], sess.Queries())

		verdict, _, err := oracle.Run(ctx, sess, buildOracle(ctx, cfg))
		if err != nil && verdict == session.Unresolved {
			fmt.Printf("⚠️  Session stopped early: %v\n", err)
		}
		reportOutcome(ctx, store, args[0], sess, g)
	},
}

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [trace]",
	Short: "Render the dependency graph of a trace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		g, _ := buildGraph(cfg, args[0])

		var out []byte
		switch exportFormat {
		case "mermaid":
			out = []byte(export.Mermaid(g))
		case "dot":
			out = []byte(export.Dot(g))
		case "json":
			var err error
			out, err = export.JSON(g)
			if err != nil {
				log.Fatalf("Failed to render graph: %v", err)
			}
		default:
			log.Fatalf("Unsupported export format: %s", exportFormat)
		}

		if exportOut == "" || exportOut == "-" {
			fmt.Print(string(out))
			return
		}
		if err := os.WriteFile(exportOut, out, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", exportOut, err)
		}
		fmt.Printf("📝 Wrote %s (%s)\n", exportOut, exportFormat)
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [in] [out]",
	Short: "Convert a trace between JSON Lines and the binary format",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		events, err := ingest.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read trace: %v", err)
		}
		switch {
		case hasJSONLExt(args[1]):
			f, err := os.Create(args[1])
			if err != nil {
				log.Fatalf("Failed to create %s: %v", args[1], err)
			}
			defer f.Close()
			if err := ingest.WriteJSONL(f, events); err != nil {
				log.Fatalf("Failed to write trace: %v", err)
			}
		default:
			if err := ingest.WriteBinary(args[1], events); err != nil {
				log.Fatalf("Failed to write trace: %v", err)
			}
		}
		fmt.Printf("✅ Converted %d events to %s\n", len(events), args[1])
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored debugging sessions",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store, err := storage.NewSQLiteStore(cfg.DB.Path)
		if err != nil {
			log.Fatalf("Failed to open session database: %v", err)
		}
		defer store.Close()

		sessions, err := store.ListSessions(context.Background())
		if err != nil {
			log.Fatalf("Failed to list sessions: %v", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No stored sessions.")
			return
		}
		for _, s := range sessions {
			fmt.Printf("%s  %-22s  %s  %s\n", s.ID, s.Verdict, s.CreatedAt, s.TracePath)
		}
	},
}

func hasJSONLExt(path string) bool {
	return strings.HasSuffix(path, ".jsonl") || strings.HasSuffix(path, ".ndjson")
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "mermaid", "Output format: mermaid, dot or json")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "Output file, or - for stdout")
}
