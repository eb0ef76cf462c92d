package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shiftlog/internal/config"
	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/metrics"
)

type fakeReporter struct {
	reportAt time.Time
	mirrorAt time.Time
	err      error
}

func (f *fakeReporter) GenerateWeeklyReport(_ context.Context, now time.Time) (string, error) {
	f.reportAt = now
	return "weekly digest", f.err
}

func (f *fakeReporter) MirrorToSheet(_ context.Context, day time.Time) (int, error) {
	f.mirrorAt = day
	return 2, f.err
}

type fakeNotifier struct {
	enabled bool
	sent    []models.OutboundMessageRequest
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) SendOutbound(_ context.Context, req models.OutboundMessageRequest) (string, error) {
	f.sent = append(f.sent, req)
	return "wamid.1", nil
}

func testConfig() config.Config {
	return config.Config{
		Reporting: config.ReportingConfig{CronSchedule: "0 20 * * 5", Timezone: "UTC"},
		Sheets:    config.SheetsConfig{CredentialsPath: "creds.json", SpreadsheetID: "sheet", SyncSchedule: "30 23 * * *"},
	}
}

func TestScheduler_RunWeeklyReport(t *testing.T) {
	reporter := &fakeReporter{}
	notifier := &fakeNotifier{enabled: true}
	s, err := NewScheduler(testConfig(), reporter, notifier, nil, nil)
	require.NoError(t, err)

	fixed := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.RunWeeklyReport(context.Background()))
	assert.Equal(t, fixed, reporter.reportAt)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "weekly digest", notifier.sent[0].Message)
	assert.Empty(t, notifier.sent[0].To)

	reporter.err = errors.New("store down")
	assert.ErrorIs(t, s.RunWeeklyReport(context.Background()), reporter.err)
	assert.Len(t, notifier.sent, 1)
}

func TestScheduler_RunSheetMirrorUsesTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Reporting.Timezone = "Asia/Shanghai"
	reporter := &fakeReporter{}
	s, err := NewScheduler(cfg, reporter, nil, nil, nil)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC) }
	require.NoError(t, s.RunSheetMirror(context.Background()))
	assert.Equal(t, 15, reporter.mirrorAt.Day())
}

func TestScheduler_StartRegistersEnabledJobs(t *testing.T) {
	s, err := NewScheduler(testConfig(), &fakeReporter{}, &fakeNotifier{enabled: true}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()

	cfg := testConfig()
	cfg.Sheets = config.SheetsConfig{}
	s, err = NewScheduler(cfg, &fakeReporter{}, &fakeNotifier{}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.Empty(t, s.cron.Entries())
	s.Stop()
}

func TestScheduler_InvalidCron(t *testing.T) {
	cfg := testConfig()
	cfg.Reporting.CronSchedule = "every friday"
	s, err := NewScheduler(cfg, &fakeReporter{}, &fakeNotifier{enabled: true}, nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestScheduler_JobRecordsMetrics(t *testing.T) {
	m := metrics.New()
	reporter := &fakeReporter{err: errors.New("quota")}
	s, err := NewScheduler(testConfig(), reporter, nil, m, nil)
	require.NoError(t, err)

	s.job(JobSheetMirror, time.Second, s.RunSheetMirror)()

	n, err := testutil.GatherAndCount(m.Registry(), "shiftlog_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
