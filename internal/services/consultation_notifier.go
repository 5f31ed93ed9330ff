package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ronospace/flowiq/internal/engine"
	"github.com/ronospace/flowiq/internal/models"
)

type ConsultationReporter interface {
	GenerateReport(userID uint, asOf time.Time) (engine.ForecastReport, error)
}

type NotifierUserSource interface {
	ListWithTelegramChatID() ([]models.User, error)
}

// NotifierSettings is the runtime configuration slice the notifier needs.
// An empty bot token disables the worker entirely.
type NotifierSettings struct {
	BotToken string
	Interval time.Duration
}

// ConsultationNotifier is the delivery end of the risk screening: it
// periodically rebuilds each opted-in user's report and pushes an alert for
// every assessment that recommends a consultation. The engine only produces
// the assessments; all sending lives here.
type ConsultationNotifier struct {
	users    NotifierUserSource
	reports  ConsultationReporter
	botToken string
	interval time.Duration
	apiBase  string
	client   *http.Client
	logger   *logrus.Logger

	mu         sync.Mutex
	sentAlerts map[string]time.Time
}

func NewConsultationNotifier(users NotifierUserSource, reports ConsultationReporter, settings NotifierSettings, logger *logrus.Logger) *ConsultationNotifier {
	if logger == nil {
		logger = logrus.New()
	}
	interval := settings.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &ConsultationNotifier{
		users:    users,
		reports:  reports,
		botToken: strings.TrimSpace(settings.BotToken),
		interval: interval,
		apiBase:  "https://api.telegram.org",
		client: &http.Client{
			Timeout: 8 * time.Second,
		},
		logger:     logger,
		sentAlerts: make(map[string]time.Time),
	}
}

func (notifier *ConsultationNotifier) Enabled() bool {
	return notifier.botToken != ""
}

// Start launches the background loop. It runs once immediately, then on every
// tick until the context is cancelled. Without a bot token it does nothing.
func (notifier *ConsultationNotifier) Start(ctx context.Context) {
	if !notifier.Enabled() {
		notifier.logger.Info("consultation notifier disabled: no bot token configured")
		return
	}

	ticker := time.NewTicker(notifier.interval)
	go func() {
		defer ticker.Stop()

		notifier.run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				notifier.run(ctx)
			}
		}
	}()
}

func (notifier *ConsultationNotifier) run(ctx context.Context) {
	users, err := notifier.users.ListWithTelegramChatID()
	if err != nil {
		notifier.logger.WithError(err).Error("consultation notifier: list users failed")
		return
	}

	for _, user := range users {
		if ctx.Err() != nil {
			return
		}
		notifier.notifyUser(ctx, user)
	}
}

func (notifier *ConsultationNotifier) notifyUser(ctx context.Context, user models.User) {
	today := dateOnly(time.Now().In(UserLocation(user)))
	report, err := notifier.reports.GenerateReport(user.ID, today)
	if err != nil {
		notifier.logger.WithError(err).WithField("user_id", user.ID).Error("consultation notifier: report failed")
		return
	}

	for _, assessment := range report.RiskAssessments {
		if !assessment.RecommendsConsultation {
			continue
		}
		key := fmt.Sprintf("%d:%s:%s", user.ID, assessment.ConditionID, today.Format("2006-01-02"))
		if !notifier.shouldSend(key, today) {
			continue
		}
		message := consultationMessage(user, assessment)
		if err := notifier.sendTelegram(ctx, user.TelegramChatID, message); err != nil {
			notifier.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":   user.ID,
				"condition": assessment.ConditionID,
			}).Error("consultation notifier: send failed")
			continue
		}
		notifier.logger.WithFields(logrus.Fields{
			"user_id":   user.ID,
			"condition": assessment.ConditionID,
		}).Info("consultation alert sent")
	}
}

// shouldSend dedupes per user, condition and day, so a 6-hourly loop never
// repeats the same alert within a day.
func (notifier *ConsultationNotifier) shouldSend(key string, today time.Time) bool {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	if sentOn, ok := notifier.sentAlerts[key]; ok && sameDay(sentOn, today) {
		return false
	}

	notifier.sentAlerts[key] = today
	if len(notifier.sentAlerts) > 500 {
		notifier.sentAlerts = make(map[string]time.Time)
	}
	return true
}

// consultationMessage keeps the indicator-level wording contract: a pattern
// worth professional follow-up, never a finding.
func consultationMessage(user models.User, assessment engine.RiskAssessment) string {
	var builder strings.Builder
	name := strings.TrimSpace(user.DisplayName)
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&builder, "Flow iQ: hi %s, your recent cycle data shows a pattern worth discussing with a clinician.\n", name)
	fmt.Fprintf(&builder, "Indicator: %s (risk %.0f%%, confidence %.0f%%).\n", assessment.ConditionName, assessment.RiskScore*100, assessment.Confidence*100)
	for _, factor := range assessment.ContributingFactors {
		fmt.Fprintf(&builder, "- %s\n", factor)
	}
	builder.WriteString("This is a screening signal, not a diagnosis.")
	return builder.String()
}

func (notifier *ConsultationNotifier) sendTelegram(ctx context.Context, chatID string, message string) error {
	values := url.Values{}
	values.Set("chat_id", chatID)
	values.Set("text", message)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", notifier.apiBase, notifier.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := notifier.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func sameDay(a time.Time, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}
