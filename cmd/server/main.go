package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"darkpattern-scanner/internal/analysis"
	"darkpattern-scanner/internal/config"
	"darkpattern-scanner/internal/monitor"
	"darkpattern-scanner/internal/orchestrator"
	"darkpattern-scanner/internal/platform/tiktok"
	"darkpattern-scanner/internal/platform/youtube"
	"darkpattern-scanner/internal/server"
	"darkpattern-scanner/internal/storage"
)

func main() {
	// Initialize zerolog logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Load configuration
	configManager := config.NewManager()
	cfg, err := configManager.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}
	logger := configManager.GetLogger()

	// Create monitor
	mon := monitor.NewMonitor()
	mon.SetLogger(logger)
	mon.Start()

	// Initialize storage
	store, err := storage.NewSQLite(cfg.Database.Path, mon)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing storage")
	}
	defer store.Close()

	// Wire the extraction and analysis pipeline
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
		extractor, err := youtube.NewExtractor(context.Background(), cfg.YouTube.APIKey, nil, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing YouTube client")
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
	}, tt, yt, analyzer, configManager.Prompt(), mon, logger)

	// Create and run server
	srv := server.NewServer(cfg, store, orch, mon, logger)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
}
