package batam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngadireddy-mn/batam/contracts"
	"github.com/ngadireddy-mn/batam/internal/rabbitmq"
	"github.com/ngadireddy-mn/batam/internal/reliability"
)

type fakeChannel struct {
	closed    bool
	published [][]byte
	queues    []string
	failures  int
	calls     int
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.queues = append(f.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("channel already closed")
	}
	f.published = append(f.published, msg.Body)
	return nil
}

func (f *fakeChannel) IsClosed() bool { return f.closed }
func (f *fakeChannel) Close() error   { f.closed = true; return nil }

type fakeConnection struct {
	ch     *fakeChannel
	closed bool
}

func (f *fakeConnection) Channel() (rabbitmq.Channel, error) { return f.ch, nil }
func (f *fakeConnection) IsClosed() bool                     { return f.closed }
func (f *fakeConnection) Close() error                       { f.closed = true; return nil }

type fakeDialer struct {
	conns    []*fakeConnection
	dialErr  error
	failures int
	calls    int
}

func (f *fakeDialer) dial(url string) (rabbitmq.Connection, error) {
	f.calls++
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	if f.calls <= f.failures {
		return nil, errors.New("dial tcp: connection refused")
	}
	conn := &fakeConnection{ch: &fakeChannel{}}
	f.conns = append(f.conns, conn)
	return conn, nil
}

// lastPublished returns the most recent body any fake connection received.
func (f *fakeDialer) lastPublished(t *testing.T) []byte {
	t.Helper()
	for i := len(f.conns) - 1; i >= 0; i-- {
		if n := len(f.conns[i].ch.published); n > 0 {
			return f.conns[i].ch.published[n-1]
		}
	}
	t.Fatal("no message was published")
	return nil
}

func newTestConnector(t *testing.T) (*Connector, *fakeDialer, *bytes.Buffer) {
	t.Helper()
	dialer := &fakeDialer{}
	out := &bytes.Buffer{}
	c := New(
		withDialer(dialer.dial),
		WithOutput(out),
		WithRetryPolicy(reliability.NewFixedDelay(time.Millisecond, 3)),
		WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")),
	)
	return c, dialer, out
}

func mustBuild(t *testing.T) *contracts.Build {
	t.Helper()
	b, err := contracts.NewBuild("nightly-42",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		contracts.WithBuildStatus("RUNNING"))
	require.NoError(t, err)
	return b
}

func TestConnectorConnect(t *testing.T) {
	t.Run("disabled publisher never dials", func(t *testing.T) {
		c, dialer, _ := newTestConnector(t)

		err := c.Connect(context.Background(), WithPublisher("off"))

		require.NoError(t, err)
		assert.Equal(t, 0, dialer.calls)
	})

	t.Run("enabled publisher dials and declares the queue", func(t *testing.T) {
		c, dialer, _ := newTestConnector(t)

		err := c.Connect(context.Background(), WithPublisher("on"), WithQueue("ci-results"))

		require.NoError(t, err)
		require.Equal(t, 1, dialer.calls)
		assert.Equal(t, []string{"ci-results"}, dialer.conns[0].ch.queues)
	})

	t.Run("retries transient dial failures", func(t *testing.T) {
		c, dialer, _ := newTestConnector(t)
		dialer.failures = 2

		err := c.Connect(context.Background(), WithPublisher("on"))

		require.NoError(t, err)
		assert.Equal(t, 3, dialer.calls)
	})

	t.Run("surfaces the connection error after retries exhaust", func(t *testing.T) {
		c, dialer, _ := newTestConnector(t)
		dialer.dialErr = errors.New("dial tcp: connection refused")

		err := c.Connect(context.Background(), WithPublisher("on"))

		require.Error(t, err)
		var connErr *rabbitmq.ConnectionError
		assert.ErrorAs(t, err, &connErr)
		assert.Equal(t, 3, dialer.calls)
	})

	t.Run("settings stick across calls, overrides win", func(t *testing.T) {
		c, dialer, _ := newTestConnector(t)

		require.NoError(t, c.Connect(context.Background(),
			WithPublisher("off"), WithQueue("first-queue"), WithHost("first-host")))

		// Queue sticks from the previous resolve, host is overridden, and
		// the publish toggle is recomputed rather than inherited.
		require.NoError(t, c.Connect(context.Background(),
			WithPublisher("on"), WithHost("second-host")))

		require.Equal(t, 1, dialer.calls)
		assert.Equal(t, []string{"first-queue"}, dialer.conns[0].ch.queues)
	})
}

func TestPublishRequiresConnect(t *testing.T) {
	c, _, _ := newTestConnector(t)

	_, err := c.CreateBuild(context.Background(), mustBuild(t))

	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestDryRunMode(t *testing.T) {
	t.Run("prints the exact envelope and returns it", func(t *testing.T) {
		c, dialer, out := newTestConnector(t)
		require.NoError(t, c.Connect(context.Background(), WithPublisher("off")))

		msg, err := c.CreateBuild(context.Background(), mustBuild(t))

		require.NoError(t, err)
		want := `{"action":"create_build","data":{"name":"nightly-42","startDate":"2024-01-01T00:00:00Z","status":"RUNNING"}}`
		assert.Equal(t, want, msg)
		assert.Equal(t, want+"\n", out.String())
		assert.Equal(t, 0, dialer.calls)
	})

	t.Run("matches what enabled mode sends to the broker", func(t *testing.T) {
		test, err := contracts.NewTest("login-works", "report-1", "",
			contracts.WithTestStatus("PASS"))
		require.NoError(t, err)

		dry, _, dryOut := newTestConnector(t)
		require.NoError(t, dry.Connect(context.Background(), WithPublisher("off")))
		dryMsg, err := dry.CreateTest(context.Background(), test)
		require.NoError(t, err)

		live, liveDialer, _ := newTestConnector(t)
		require.NoError(t, live.Connect(context.Background(), WithPublisher("on")))
		liveMsg, err := live.CreateTest(context.Background(), test)
		require.NoError(t, err)

		sent := liveDialer.lastPublished(t)
		assert.Equal(t, string(sent), dryMsg)
		assert.Equal(t, string(sent)+"\n", dryOut.String())
		assert.Equal(t, liveMsg, dryMsg)
	})
}

func TestPublishActions(t *testing.T) {
	c, dialer, _ := newTestConnector(t)
	require.NoError(t, c.Connect(context.Background(), WithPublisher("on")))
	ctx := context.Background()

	build := mustBuild(t)
	report, err := contracts.NewReport("smoke", "build-1", "")
	require.NoError(t, err)
	test, err := contracts.NewTest("login-works", "report-1", "")
	require.NoError(t, err)
	testUpdate, err := contracts.NewTest("login-works", "report-1", "",
		contracts.WithTestID("test-9"), contracts.WithTestStatus("FAIL"))
	require.NoError(t, err)

	calls := []struct {
		action string
		run    func() (string, error)
	}{
		{"create_build", func() (string, error) { return c.CreateBuild(ctx, build) }},
		{"update_build", func() (string, error) { return c.UpdateBuild(ctx, build) }},
		{"run_analysis", func() (string, error) { return c.RunAnalysis(ctx, build) }},
		{"create_report", func() (string, error) { return c.CreateReport(ctx, report) }},
		{"update_report", func() (string, error) { return c.UpdateReport(ctx, report) }},
		{"create_test", func() (string, error) { return c.CreateTest(ctx, test) }},
		{"update_test", func() (string, error) { return c.UpdateTest(ctx, testUpdate) }},
	}

	for _, call := range calls {
		msg, err := call.run()
		require.NoError(t, err, call.action)

		var env contracts.Envelope
		require.NoError(t, json.Unmarshal([]byte(msg), &env))
		assert.Equal(t, call.action, string(env.Action))
		assert.Equal(t, msg, string(dialer.lastPublished(t)))
	}
}

func TestPublishRetry(t *testing.T) {
	t.Run("delivers after transient failures", func(t *testing.T) {
		c, dialer, _ := newTestConnector(t)
		require.NoError(t, c.Connect(context.Background(), WithPublisher("on")))

		dialer.conns[0].ch.failures = 2

		msg, err := c.CreateBuild(context.Background(), mustBuild(t))

		require.NoError(t, err)
		assert.Equal(t, 3, dialer.conns[0].ch.calls)
		assert.Equal(t, msg, string(dialer.conns[0].ch.published[0]))
	})

	t.Run("surfaces the original error after exhaustion", func(t *testing.T) {
		c, dialer, _ := newTestConnector(t)
		require.NoError(t, c.Connect(context.Background(), WithPublisher("on")))

		dialer.conns[0].ch.failures = 3

		_, err := c.CreateBuild(context.Background(), mustBuild(t))

		require.Error(t, err)
		var pubErr *rabbitmq.PublishError
		assert.ErrorAs(t, err, &pubErr)
		assert.Equal(t, 3, dialer.conns[0].ch.calls)
	})
}

func TestSelfHealingReconnect(t *testing.T) {
	c, dialer, _ := newTestConnector(t)
	require.NoError(t, c.Connect(context.Background(), WithPublisher("on")))

	// Broker-side drop between publishes.
	dialer.conns[0].ch.closed = true

	msg, err := c.CreateBuild(context.Background(), mustBuild(t))

	require.NoError(t, err)
	assert.Equal(t, 2, dialer.calls)
	assert.Equal(t, msg, string(dialer.conns[1].ch.published[0]))
}

func TestValidationGating(t *testing.T) {
	c, dialer, out := newTestConnector(t)
	require.NoError(t, c.Connect(context.Background(), WithPublisher("on")))

	t.Run("create build without a name", func(t *testing.T) {
		start := time.Now()
		_, err := c.CreateBuild(context.Background(), &contracts.Build{StartDate: &start})
		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	})

	t.Run("create report without a build reference", func(t *testing.T) {
		_, err := c.CreateReport(context.Background(), &contracts.Report{Name: "smoke"})
		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	})

	t.Run("create test without a report reference", func(t *testing.T) {
		_, err := c.CreateTest(context.Background(), &contracts.Test{Name: "login-works"})
		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	})

	t.Run("nothing reaches the transport or the writer", func(t *testing.T) {
		for _, conn := range dialer.conns {
			assert.Empty(t, conn.ch.published)
		}
		assert.Empty(t, out.String())
	})
}

func TestConvenienceOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("require an identifying reference", func(t *testing.T) {
		c, _, _ := newTestConnector(t)
		require.NoError(t, c.Connect(ctx, WithPublisher("off")))

		_, err := c.AddBuildCommits(ctx, "", "", nil)
		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)

		_, err = c.UpdateBuildStatus(ctx, "", "", "PASS")
		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)

		_, err = c.RequestAnalysis(ctx, "", "", false)
		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)

		_, err = c.AddReportLogs(ctx, "", "smoke", "", "", []string{"http://logs/1"})
		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	})

	t.Run("publish partial update envelopes", func(t *testing.T) {
		c, _, out := newTestConnector(t)
		require.NoError(t, c.Connect(ctx, WithPublisher("off")))

		msg, err := c.UpdateBuildStatus(ctx, "", "nightly-42", "PASS")
		require.NoError(t, err)
		assert.Equal(t, `{"action":"update_build","data":{"name":"nightly-42","status":"PASS"}}`, msg)

		msg, err = c.RequestAnalysis(ctx, "build-1", "", true)
		require.NoError(t, err)
		assert.Equal(t, `{"action":"run_analysis","data":{"id":"build-1","override":true}}`, msg)

		msg, err = c.AddReportLogs(ctx, "report-1", "", "", "", []string{"http://logs/1"})
		require.NoError(t, err)
		assert.Equal(t, `{"action":"update_report","data":{"id":"report-1","logs":["http://logs/1"]}}`, msg)

		assert.Equal(t, 3, strings.Count(out.String(), "\n"))
	})

	t.Run("end date updates carry RFC3339 UTC", func(t *testing.T) {
		c, _, _ := newTestConnector(t)
		require.NoError(t, c.Connect(ctx, WithPublisher("off")))

		msg, err := c.UpdateBuildEndDate(ctx, "", "nightly-42",
			time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
		require.NoError(t, err)
		assert.Contains(t, msg, `"endDate":"2024-01-02T03:04:05Z"`)
	})
}

func TestConnectorClose(t *testing.T) {
	t.Run("idempotent without a connection", func(t *testing.T) {
		c, _, _ := newTestConnector(t)

		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	})

	t.Run("closes channel and connection", func(t *testing.T) {
		c, dialer, _ := newTestConnector(t)
		require.NoError(t, c.Connect(context.Background(), WithPublisher("on")))

		require.NoError(t, c.Close())

		assert.True(t, dialer.conns[0].ch.closed)
		assert.True(t, dialer.conns[0].closed)
	})
}
