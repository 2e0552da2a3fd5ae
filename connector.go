package batam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ngadireddy-mn/batam/contracts"
	"github.com/ngadireddy-mn/batam/internal/config"
	"github.com/ngadireddy-mn/batam/internal/rabbitmq"
	"github.com/ngadireddy-mn/batam/internal/reliability"
)

// ErrNotConnected is returned when a publish is attempted before Connect has
// been called.
var ErrNotConnected = rabbitmq.ErrNotConnected

// Connector publishes build, report and test records to the BATAM analytics
// queue. Construct one with New, call Connect, publish, then Close:
//
//	c := batam.New()
//	if err := c.Connect(ctx, batam.WithHost("rabbit.internal")); err != nil { ... }
//	defer c.Close()
//	msg, err := c.CreateBuild(ctx, build)
//
// A Connector is safe for concurrent use. When publishing is disabled (the
// "publisher" setting resolves to anything but "on" or "true") every publish
// method prints its envelope to the output writer instead of touching the
// broker and still returns the envelope string.
type Connector struct {
	mu       sync.Mutex
	cm       *rabbitmq.ConnectionManager
	resolved *config.Settings

	logger     *slog.Logger
	retry      reliability.RetryPolicy
	out        io.Writer
	metrics    MetricsCollector
	configPath string
	dialer     rabbitmq.Dialer
}

// New creates a Connector. No connection is made until Connect is called.
func New(opts ...Option) *Connector {
	c := &Connector{
		logger:  slog.Default(),
		retry:   reliability.NewFixedDelay(time.Second, 3),
		out:     os.Stdout,
		metrics: NoOpMetricsCollector{},
		dialer:  rabbitmq.AMQPDialer,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.cm = rabbitmq.NewConnectionManager(
		rabbitmq.WithDialer(c.dialer),
		rabbitmq.WithLogger(c.logger),
	)

	return c
}

// Connect resolves the configuration and opens a connection to the broker.
// Explicit options win over values resolved by a previous Connect, which win
// over BATAM_* environment variables, the config file, and defaults. When the
// resolved publisher toggle is off, Connect succeeds without touching the
// network and later publishes print to the output writer.
func (c *Connector) Connect(ctx context.Context, opts ...ConnectOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ov config.Overrides
	for _, opt := range opts {
		opt(&ov)
	}

	path := c.configPath
	if path == "" {
		path = config.Path()
	}
	file, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	settings := config.Resolve(c.resolved, ov, file)
	c.resolved = &settings

	if !settings.Publish {
		c.logger.Info("publishing disabled, envelopes go to output writer",
			"queue", settings.Queue)
		return nil
	}

	return reliability.Retry(ctx, c.retry, "connect", func() error {
		return c.cm.Connect(ctx, settings)
	})
}

// Close shuts down the broker connection. Safe to call when no connection
// exists.
func (c *Connector) Close() error {
	return reliability.Retry(context.Background(), c.retry, "disconnect", c.cm.Close)
}

// CreateBuild publishes a build record with the create_build action. The
// record is validated before any network interaction.
func (c *Connector) CreateBuild(ctx context.Context, build *contracts.Build) (string, error) {
	if err := build.Validate(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionCreateBuild, build)
}

// UpdateBuild publishes a partial build record with the update_build action.
func (c *Connector) UpdateBuild(ctx context.Context, build *contracts.Build) (string, error) {
	return c.publish(ctx, contracts.ActionUpdateBuild, build)
}

// RunAnalysis asks the analytics system to analyze a build.
func (c *Connector) RunAnalysis(ctx context.Context, build *contracts.Build) (string, error) {
	return c.publish(ctx, contracts.ActionRunAnalysis, build)
}

// CreateReport publishes a report record with the create_report action. The
// record is validated before any network interaction.
func (c *Connector) CreateReport(ctx context.Context, report *contracts.Report) (string, error) {
	if err := report.Validate(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionCreateReport, report)
}

// UpdateReport publishes a partial report record with the update_report
// action.
func (c *Connector) UpdateReport(ctx context.Context, report *contracts.Report) (string, error) {
	return c.publish(ctx, contracts.ActionUpdateReport, report)
}

// CreateTest publishes a test record with the create_test action. The record
// is validated before any network interaction.
func (c *Connector) CreateTest(ctx context.Context, test *contracts.Test) (string, error) {
	if err := test.Validate(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionCreateTest, test)
}

// UpdateTest publishes a test record with the update_test action. Updates
// carry the same identity requirements as creates.
func (c *Connector) UpdateTest(ctx context.Context, test *contracts.Test) (string, error) {
	if err := test.Validate(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateTest, test)
}

// AddBuildCommits updates only the commits of an existing build, identified
// by id or name.
func (c *Connector) AddBuildCommits(ctx context.Context, id, name string, commits []contracts.Commit) (string, error) {
	build := &contracts.Build{ID: id, Name: name, Commits: commits}
	if err := build.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateBuild, build)
}

// AddBuildInfos updates only the info pairs of an existing build.
func (c *Connector) AddBuildInfos(ctx context.Context, id, name string, infos []contracts.Pair) (string, error) {
	build := &contracts.Build{ID: id, Name: name, Infos: infos}
	if err := build.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateBuild, build)
}

// AddBuildReports updates only the report references of an existing build.
func (c *Connector) AddBuildReports(ctx context.Context, id, name string, reports []contracts.Pair) (string, error) {
	build := &contracts.Build{ID: id, Name: name, Reports: reports}
	if err := build.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateBuild, build)
}

// AddBuildSteps updates only the steps of an existing build.
func (c *Connector) AddBuildSteps(ctx context.Context, id, name string, steps []contracts.Step) (string, error) {
	build := &contracts.Build{ID: id, Name: name, Steps: steps}
	if err := build.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateBuild, build)
}

// UpdateBuildEndDate updates only the end date of an existing build.
func (c *Connector) UpdateBuildEndDate(ctx context.Context, id, name string, endDate time.Time) (string, error) {
	end := endDate.UTC()
	build := &contracts.Build{ID: id, Name: name, EndDate: &end}
	if err := build.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateBuild, build)
}

// UpdateBuildStatus updates only the status of an existing build.
func (c *Connector) UpdateBuildStatus(ctx context.Context, id, name, status string) (string, error) {
	build := &contracts.Build{ID: id, Name: name, Status: status}
	if err := build.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateBuild, build)
}

// RequestAnalysis kicks off analysis for a build identified by id or name.
// Set override when test results replaced those of an already analyzed
// build.
func (c *Connector) RequestAnalysis(ctx context.Context, id, name string, override bool) (string, error) {
	build := &contracts.Build{ID: id, Name: name, Override: override}
	if err := build.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionRunAnalysis, build)
}

// AddReportLogs updates only the log links of an existing report.
func (c *Connector) AddReportLogs(ctx context.Context, id, name, buildID, buildName string, logs []string) (string, error) {
	report := &contracts.Report{ID: id, Name: name, BuildID: buildID, BuildName: buildName, Logs: logs}
	if err := report.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateReport, report)
}

// UpdateReportStatus updates only the status of an existing report.
func (c *Connector) UpdateReportStatus(ctx context.Context, id, name, buildID, buildName, status string) (string, error) {
	report := &contracts.Report{ID: id, Name: name, BuildID: buildID, BuildName: buildName, Status: status}
	if err := report.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateReport, report)
}

// UpdateReportEndDate updates only the end date of an existing report.
func (c *Connector) UpdateReportEndDate(ctx context.Context, id, name, buildID, buildName string, endDate time.Time) (string, error) {
	end := endDate.UTC()
	report := &contracts.Report{ID: id, Name: name, BuildID: buildID, BuildName: buildName, EndDate: &end}
	if err := report.ValidateRef(); err != nil {
		return "", err
	}
	return c.publish(ctx, contracts.ActionUpdateReport, report)
}

// publish is the single delivery path behind every action. It seals the
// record into an envelope, then either sends it to the broker under the retry
// policy or prints it to the output writer when publishing is disabled. The
// envelope string is returned in both modes so callers can inspect exactly
// what was sent.
func (c *Connector) publish(ctx context.Context, action contracts.Action, record any) (string, error) {
	c.mu.Lock()
	settings := c.resolved
	c.mu.Unlock()

	if settings == nil {
		return "", fmt.Errorf("batam: %w: call Connect before publishing", ErrNotConnected)
	}

	msg, err := contracts.Seal(action, record)
	if err != nil {
		return "", err
	}

	if !settings.Publish {
		fmt.Fprintln(c.out, msg)
		c.metrics.RecordPublish(string(action), 0, true)
		return msg, nil
	}

	start := time.Now()
	err = reliability.Retry(ctx, c.retry, "publish "+string(action), func() error {
		err := c.cm.Publish(ctx, []byte(msg))
		if errors.Is(err, rabbitmq.ErrNotConnected) {
			// Retrying cannot help until the caller connects.
			return reliability.Permanent(err)
		}
		return err
	})
	c.metrics.RecordPublish(string(action), time.Since(start), err == nil)
	if err != nil {
		c.logger.Error("publish failed",
			"action", string(action),
			"queue", settings.Queue,
			"error", err)
		return "", err
	}

	c.logger.Debug("message published",
		"action", string(action),
		"queue", settings.Queue)

	return msg, nil
}
