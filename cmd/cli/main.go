package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"darkpattern-scanner/internal/analysis"
	"darkpattern-scanner/internal/config"
	"darkpattern-scanner/internal/export"
	"darkpattern-scanner/internal/monitor"
	"darkpattern-scanner/internal/orchestrator"
	"darkpattern-scanner/internal/platform/tiktok"
	"darkpattern-scanner/internal/platform/youtube"
	"darkpattern-scanner/internal/refdata"
	"darkpattern-scanner/internal/server"
	"darkpattern-scanner/internal/storage"
	"darkpattern-scanner/internal/utils"
	"darkpattern-scanner/pkg/models"
)

var (
	configPath      string
	excludeCreators []string
	sessionName     string
	outputPath      string
	outputFormat    string
	maxResults      int
	platformNames   []string
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "darkpattern-scanner",
	Short: "Scan TikTok and YouTube videos for dark commercial patterns",
	Long: `Dark Pattern Scanner extracts metadata and transcripts from TikTok and
YouTube videos and classifies them against a dark-pattern taxonomy.

Features:
- YouTube Data API extraction with transcript fetching
- TikTok extraction cascade with multiple fallback methods
- Schema-constrained Gemini classification
- Session persistence and export to CSV, XLSX, and JSON`,
	Version: "1.0.0",
}

// app bundles the wired components every command needs.
type app struct {
	cfg          *models.Config
	manager      *config.Manager
	store        *storage.SQLite
	monitor      *monitor.Monitor
	orchestrator *orchestrator.Orchestrator
}

func (a *app) close() {
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.store != nil {
		a.store.Close()
	}
}

func buildApp(ctx context.Context) (*app, error) {
	manager := config.NewManager()
	cfg, err := manager.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	logger := manager.GetLogger()

	mon := monitor.NewMonitor()
	mon.SetLogger(logger)
	mon.Start()

	store, err := storage.NewSQLite(cfg.Database.Path, mon)
	if err != nil {
		mon.Stop()
		return nil, fmt.Errorf("error initializing storage: %w", err)
	}

	tt := tiktok.NewExtractor(tiktok.ExtractorConfig{
		YtdlpPath:       cfg.Extraction.YtdlpPath,
		WhisperPath:     cfg.Extraction.WhisperPath,
		DownloadTimeout: time.Duration(cfg.Extraction.DownloadTimeout) * time.Second,
		MetadataTimeout: time.Duration(cfg.Extraction.MetadataTimeout) * time.Second,
		HTTPTimeout:     time.Duration(cfg.Extraction.HTTPTimeout) * time.Second,
		UserAgent:       cfg.Extraction.UserAgent,
		Cookie:          cfg.Extraction.Cookie,
		Proxy:           cfg.Extraction.Proxy,
		MaxRetries:      cfg.Extraction.MaxRetries,
	}, mon, logger)

	var yt orchestrator.YouTubeExtractor
	if cfg.YouTube.APIKey != "" {
		extractor, err := youtube.NewExtractor(ctx, cfg.YouTube.APIKey, nil, logger)
		if err != nil {
			mon.Stop()
			store.Close()
			return nil, fmt.Errorf("error initializing YouTube client: %w", err)
		}
		yt = extractor
	} else {
		logger.Warn().Msg("YOUTUBE_API_KEY not set, YouTube extraction disabled")
	}

	analyzer := analysis.NewAnalyzer(analysis.Config{
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		Timeout:           time.Duration(cfg.Gemini.Timeout) * time.Second,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
		Monitor:           mon,
	}, logger)

	orch := orchestrator.New(orchestrator.Limits{
		MaxYouTubeURLs:    cfg.Limits.MaxYouTubeURLs,
		MaxTikTokURLs:     cfg.Limits.MaxTikTokURLs,
		MaxKeywordQueries: cfg.Limits.MaxKeywordQueries,
		MaxSearchResults:  cfg.Limits.MaxSearchResults,
	}, tt, yt, analyzer, manager.Prompt(), mon, logger)

	return &app{
		cfg:          cfg,
		manager:      manager,
		store:        store,
		monitor:      mon,
		orchestrator: orch,
	}, nil
}

func parsePlatforms(names []string) []models.Platform {
	platforms := make([]models.Platform, 0, len(names))
	for _, name := range names {
		platforms = append(platforms, models.Platform(strings.ToLower(strings.TrimSpace(name))))
	}
	return platforms
}

// finishBatch prints the summary, saves the session when requested, and
// exports the batch when an output path is given.
func finishBatch(a *app, mode, platform string, batch *models.AnalysisBatch) error {
	flagged := 0
	for _, record := range batch.Records {
		if len(record.Findings) > 0 {
			flagged++
		}
	}
	fmt.Printf("\nAnalysis complete: %d videos, %d with findings\n", len(batch.Records), flagged)

	for _, record := range batch.Records {
		marker := "  "
		if len(record.Findings) > 0 {
			marker = "⚠️ "
		}
		fmt.Printf("%s[%s] %s (%s) confidence=%s\n",
			marker, record.Platform, record.Title, record.VideoID, record.OverallConfidence.String())
	}

	if sessionName != "" {
		session, err := storage.SnapshotSession(sessionName, mode, platform, batch)
		if err != nil {
			return fmt.Errorf("error building session snapshot: %w", err)
		}
		if err := a.store.SaveSession(session); err != nil {
			return fmt.Errorf("error saving session: %w", err)
		}
		fmt.Printf("💾 Session saved: %s\n", sessionName)
	}

	if outputPath != "" {
		exporter := export.NewDataExporter(export.ExportConfig{
			Format:   export.ExportFormat(outputFormat),
			FilePath: outputPath,
		})
		if err := exporter.ExportBatch(batch); err != nil {
			return fmt.Errorf("error exporting batch: %w", err)
		}
		fmt.Printf("📄 Exported to %s\n", outputPath)
	}

	return nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url...]",
	Short: "Analyze videos by URL",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Printf("Analyzing %d URLs...\n", len(args))
		batch := a.orchestrator.Run(ctx, models.SearchRequest{
			Mode:            models.ModeURL,
			Inputs:          args,
			Platforms:       parsePlatforms(platformNames),
			ExcludeCreators: excludeCreators,
		})

		return finishBatch(a, string(models.ModeURL), "all", batch)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [queries]",
	Short: "Analyze videos found by keyword search",
	Long: `Search runs keyword queries and analyzes the results. Multiple queries
are separated by commas or newlines. YouTube results come from the Data
API; TikTok search emits placeholder records.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		batch := a.orchestrator.Run(ctx, models.SearchRequest{
			Mode:            models.ModeKeyword,
			Inputs:          args,
			Platforms:       parsePlatforms(platformNames),
			MaxResults:      maxResults,
			ExcludeCreators: excludeCreators,
		})

		platform := "all"
		if len(platformNames) == 1 {
			platform = strings.ToLower(platformNames[0])
		}
		return finishBatch(a, string(models.ModeKeyword), platform, batch)
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved analysis sessions",
}

var listSessionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		sessions, err := a.store.ListSessions()
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found")
			return nil
		}

		fmt.Printf("📚 Saved Sessions (%d)\n", len(sessions))
		for i, session := range sessions {
			fmt.Printf("\n%d. %s\n", i+1, session.SessionName)
			fmt.Printf("   Type: %s | Platform: %s | Videos: %d\n",
				session.SearchType, session.Platform, session.VideoCount)
			fmt.Printf("   Confidence: %s | Created: %s\n",
				session.OverallConfidenceScore, session.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		return nil
	},
}

var showSessionCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		session, err := a.store.GetSession(args[0])
		if err != nil {
			return fmt.Errorf("error loading session: %w", err)
		}
		if session == nil {
			fmt.Printf("Session not found: %s\n", args[0])
			return nil
		}

		fmt.Printf("📋 Session: %s\n", session.SessionName)
		fmt.Printf("   Type: %s | Platform: %s\n", session.SearchType, session.Platform)
		fmt.Printf("   Videos: %d | Confidence: %s\n", session.VideoCount, session.OverallConfidenceScore)
		fmt.Printf("   Created: %s\n\n", session.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Print(analysis.FormatSessionData(session.AnalysisData))

		return nil
	},
}

var deleteSessionCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.store.DeleteSession(args[0]); err != nil {
			return fmt.Errorf("error deleting session: %w", err)
		}
		fmt.Printf("Session deleted: %s\n", args[0])
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [session-name]",
	Short: "Export a saved session to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		session, err := a.store.GetSession(args[0])
		if err != nil {
			return fmt.Errorf("error loading session: %w", err)
		}
		if session == nil {
			return fmt.Errorf("session not found: %s", args[0])
		}

		var batch models.AnalysisBatch
		if err := json.Unmarshal([]byte(session.AnalysisData), &batch); err != nil {
			return fmt.Errorf("error decoding session data: %w", err)
		}

		if outputPath == "" {
			outputPath = fmt.Sprintf("%s.%s", utils.SanitizeFilename(session.SessionName), outputFormat)
		}
		exporter := export.NewDataExporter(export.ExportConfig{
			Format:   export.ExportFormat(outputFormat),
			FilePath: outputPath,
		})
		if err := exporter.ExportBatch(&batch); err != nil {
			return fmt.Errorf("error exporting session: %w", err)
		}

		fmt.Printf("📄 Exported %d videos to %s\n", len(batch.Records), outputPath)
		return nil
	},
}

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Show the regulatory reference table from Airtable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		logger := a.manager.GetLogger()
		httpClient := utils.NewHTTPClient(utils.ClientConfig{
			Timeout: 30 * time.Second,
			Logger:  logger,
		})
		client := refdata.NewClient(
			a.cfg.Airtable.APIKey, a.cfg.Airtable.BaseID, a.cfg.Airtable.TableID,
			httpClient, logger)

		records, err := client.FetchAll(ctx)
		if err != nil {
			return fmt.Errorf("error fetching reference table: %w", err)
		}

		fmt.Printf("📖 Regulatory Reference Table (%d records)\n", len(records))
		for i, record := range records {
			fmt.Printf("\n%d. %s\n", i+1, record.Field("Law / Guidance"))
			if clause := record.Field("Article / Clause"); clause != "" {
				fmt.Printf("   Article/Clause: %s\n", clause)
			}
			if synthesis := record.Field("High-Level Synthesis"); synthesis != "" {
				fmt.Printf("   Synthesis: %s\n", synthesis)
			}
		}

		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.store.Close()

		srv := server.NewServer(a.cfg, a.store, a.orchestrator, a.monitor, a.manager.GetLogger())
		fmt.Printf("🚀 Starting server on http://%s:%d\n", a.cfg.Server.Host, a.cfg.Server.Port)
		fmt.Println("Press Ctrl+C to stop the server")
		return srv.Run()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := config.NewManager()
		if _, err := manager.Load(configPath); err != nil {
			return fmt.Errorf("error initializing configuration: %w", err)
		}
		fmt.Println("Configuration file created successfully")
		return nil
	},
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := config.NewManager()
		cfg, err := manager.Load(configPath)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}

		fmt.Printf("📋 Current Configuration\n")
		fmt.Printf("   Server: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
		fmt.Printf("   Database Path: %s\n", cfg.Database.Path)
		fmt.Printf("   Gemini Model: %s\n", cfg.Gemini.Model)
		fmt.Printf("   Gemini Key Set: %v\n", cfg.Gemini.APIKey != "")
		fmt.Printf("   YouTube Key Set: %v\n", cfg.YouTube.APIKey != "")
		fmt.Printf("   Airtable Configured: %v\n", cfg.Airtable.APIKey != "")
		fmt.Printf("   Max YouTube URLs: %d\n", cfg.Limits.MaxYouTubeURLs)
		fmt.Printf("   Max TikTok URLs: %d\n", cfg.Limits.MaxTikTokURLs)
		fmt.Printf("   Log Level: %s\n", cfg.Log.Level)

		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	for _, cmd := range []*cobra.Command{analyzeCmd, searchCmd} {
		cmd.Flags().StringSliceVarP(&excludeCreators, "exclude", "e", nil, "Creators to exclude from results")
		cmd.Flags().StringVarP(&sessionName, "session", "s", "", "Save the batch under this session name")
		cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Export the batch to this file")
		cmd.Flags().StringVarP(&outputFormat, "format", "f", "csv", "Export format (csv, xlsx, json)")
		cmd.Flags().StringSliceVarP(&platformNames, "platform", "p", nil, "Limit to platforms (youtube, tiktok)")
	}
	searchCmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "Maximum search results per query")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Export file path (defaults to <session>.<format>)")
	exportCmd.Flags().StringVarP(&outputFormat, "format", "f", "csv", "Export format (csv, xlsx, json)")

	// Add commands
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(refdataCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)

	// Session subcommands
	sessionsCmd.AddCommand(listSessionsCmd)
	sessionsCmd.AddCommand(showSessionCmd)
	sessionsCmd.AddCommand(deleteSessionCmd)

	// Config subcommands
	configCmd.AddCommand(initConfigCmd)
	configCmd.AddCommand(showConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
