package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	orchestration "github.com/aida-voice/aida-core/core"
	"github.com/aida-voice/aida-core/core/apps"
	"github.com/aida-voice/aida-core/core/audio/miniaudio"
	"github.com/aida-voice/aida-core/core/dispatch"
	"github.com/aida-voice/aida-core/core/llms/ollama"
	"github.com/aida-voice/aida-core/core/managers/alarms"
	"github.com/aida-voice/aida-core/core/managers/calendar"
	"github.com/aida-voice/aida-core/core/managers/news"
	"github.com/aida-voice/aida-core/core/managers/tasks"
	"github.com/aida-voice/aida-core/core/managers/timers"
	"github.com/aida-voice/aida-core/core/managers/weather"
	"github.com/aida-voice/aida-core/core/music"
	"github.com/aida-voice/aida-core/core/routing"
	"github.com/aida-voice/aida-core/core/websearch"
	"github.com/aida-voice/aida-core/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "aida",
		Short:         "Aida is a voice-driven personal assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	taskStore, err := tasks.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer taskStore.Close()

	alarmStore, err := alarms.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open alarm store: %w", err)
	}
	defer alarmStore.Close()

	calendarStore, err := calendar.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open calendar store: %w", err)
	}
	defer calendarStore.Close()

	registry := timers.NewRegistry()
	searcher := websearch.NewClient()

	dispatcher := dispatch.NewDispatcher(
		dispatch.WithTimerRegistry(registry),
		dispatch.WithAlarmStore(alarmStore),
		dispatch.WithCalendarStore(calendarStore),
		dispatch.WithTaskStore(taskStore),
		dispatch.WithWeatherClient(weather.NewClient(cfg.Latitude, cfg.Longitude)),
		dispatch.WithNewsProvider(news.NewManager(searcher)),
		dispatch.WithWebSearcher(searcher),
	)

	router := routing.NewRouter(ollama.NewClient(cfg.RouterModel, ollama.WithBaseURL(cfg.OllamaBaseURL)))

	recognizer, synthesizer, closeIO, err := buildIO(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIO()

	orchestrator := orchestration.NewOrchestrator(
		orchestration.WithSpeechRecognizer(recognizer),
		orchestration.WithSpeechSynthesizer(synthesizer),
		orchestration.WithStreamingSpeech(cfg.StreamingSpeech),
		orchestration.WithRouter(router),
		orchestration.WithDispatcher(dispatcher),
		orchestration.WithDialogueClient(ollama.NewClient(cfg.ChatModel, ollama.WithBaseURL(cfg.OllamaBaseURL))),
		orchestration.WithSummaryClient(ollama.NewClient(cfg.SummaryModel, ollama.WithBaseURL(cfg.OllamaBaseURL))),
		orchestration.WithRecentTurns(cfg.RecentTurns),
		orchestration.WithAppLauncher(apps.Launch),
		orchestration.WithMusicOpener(music.OpenSearch),
	)
	defer orchestrator.Close()

	go registry.Notify(ctx, func(timer timers.ActiveTimer) {
		if err := synthesizer.Speak(ctx, fmt.Sprintf("Your timer %s is done.", timer.Label)); err != nil {
			logger.WarnContext(ctx, "Failed to announce expired timer", "error", err, "label", timer.Label)
		}
	})

	printStatus("Aida is ready. Say \"exit\" to quit.")
	err = orchestrator.Run(ctx)
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildIO wires the recognizer and synthesizer for the configured input
// mode. The returned closer releases the audio devices in voice mode and is
// a no-op in text mode.
func buildIO(ctx context.Context, cfg *config.Config) (orchestration.SpeechRecognizer, orchestration.SpeechSynthesizer, func(), error) {
	if cfg.InputMode == config.InputModeText {
		return newTextRecognizer(), textSynthesizer{}, func() {}, nil
	}

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open audio devices: %w", err)
	}

	recognizer, err := newVoiceRecognizer(ctx, audioClient)
	if err != nil {
		audioClient.Close()
		return nil, nil, nil, err
	}

	synthesizer := newVoiceSynthesizer(cfg.SpeechServerURL, audioClient)
	closeIO := func() {
		recognizer.Close()
		audioClient.Close()
	}
	return recognizer, synthesizer, closeIO, nil
}
