package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CoinCast/internal/accuracy"
	"CoinCast/internal/analyzer"
	"CoinCast/internal/model"
	"CoinCast/internal/notifier"
	"CoinCast/internal/recorder"
)

// Sender delivers notification text.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// History reads back what earlier analyses recorded.
type History interface {
	LatestSnapshot(ctx context.Context, assetID string) (*model.IndicatorSnapshot, error)
	GetPrediction(ctx context.Context, id string) (*model.Prediction, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  *analyzer.Analyzer
	Evaluator *accuracy.Evaluator
	History   History
	Notifier  Sender
	Assets    []string
	Ctx       context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler. tn may be nil when notifications
// are disabled.
func NewScheduler(ctx context.Context, an *analyzer.Analyzer, ev *accuracy.Evaluator, hist History, tn Sender, assets []string) *Scheduler {
	logger := cronLogger{log.With().Str("component", "cron").Logger()}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Analyzer:  an,
		Evaluator: ev,
		History:   hist,
		Notifier:  tn,
		Assets:    assets,
		Ctx:       ctx,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterAll registers the analysis and accuracy tasks.
func (s *Scheduler) RegisterAll(analysisCron, accuracyCron string) error {
	if _, err := s.Cron.AddFunc(analysisCron, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	if _, err := s.Cron.AddFunc(accuracyCron, s.accuracyTask); err != nil {
		return fmt.Errorf("register accuracy task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("assets", len(s.Assets)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunAnalysisNow executes the analysis task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunAnalysisNow() {
	s.analysisTask()
}

func (s *Scheduler) analysisTask() {
	log.Info().Strs("assets", s.Assets).Msg("running analysis task")
	for _, r := range s.Analyzer.AnalyzeAll(s.Ctx, s.Assets) {
		switch {
		case errors.Is(r.Err, analyzer.ErrInsufficientHistory):
			log.Warn().Err(r.Err).Str("asset", r.AssetID).Msg("analysis skipped")
		case r.Err != nil:
			log.Error().Err(r.Err).Str("asset", r.AssetID).Msg("analysis failed")
			s.trySend(fmt.Sprintf("❌ %s analysis failed: %s", html.EscapeString(r.AssetID), html.EscapeString(r.Err.Error())))
		default:
			s.trySend(notifier.FormatForecast(r.Forecast))
		}
	}
}

func (s *Scheduler) accuracyTask() {
	res, err := s.Evaluator.Sweep(s.Ctx, s.now())
	if err != nil {
		log.Error().Err(err).Msg("accuracy sweep failed")
		return
	}
	if res.Evaluated > 0 {
		s.trySend(notifier.FormatSweep(res))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.Assets)
	}
	switch strings.ToLower(fields[0]) {
	case "/forecast":
		if len(fields) < 2 {
			return "Usage: /forecast &lt;asset&gt;"
		}
		f, err := s.Analyzer.Analyze(ctx, fields[1])
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatForecast(f)
	case "/accuracy":
		asset := ""
		if len(fields) > 1 {
			asset = strings.ToLower(fields[1])
		}
		rep, err := s.Evaluator.Report(ctx, asset, s.now())
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatAccuracy(rep)
	case "/indicators":
		if len(fields) < 2 {
			return "Usage: /indicators &lt;asset&gt;"
		}
		asset := strings.ToLower(fields[1])
		snap, err := s.History.LatestSnapshot(ctx, asset)
		if errors.Is(err, recorder.ErrNotFound) {
			return fmt.Sprintf("No indicators recorded for %s yet", html.EscapeString(asset))
		}
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatSnapshot(snap)
	case "/prediction":
		if len(fields) < 2 {
			return "Usage: /prediction &lt;id&gt;"
		}
		p, err := s.History.GetPrediction(ctx, fields[1])
		if errors.Is(err, recorder.ErrNotFound) {
			return fmt.Sprintf("No prediction with id %s", html.EscapeString(fields[1]))
		}
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatPrediction(p)
	default:
		return notifier.FormatHelp(s.Assets)
	}
}

// errorReply renders err for an HTML chat message.
func errorReply(err error) string {
	return "❌ " + html.EscapeString(err.Error())
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
