// Package notify publishes build run events to NATS.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/faustbuild/internal/faust"
	"git.home.luguber.info/inful/faustbuild/internal/logfields"
)

const flushTimeout = 2 * time.Second

// Publisher is the subset of a NATS connection the observer needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Client owns a NATS connection used for run events.
type Client struct {
	conn *nats.Conn
}

// Connect dials the NATS server at url.
func Connect(url string) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.Name("faustbuild"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Debug("NATS client connected", "url", url)
	return &Client{conn: conn}, nil
}

// Publish sends data and flushes so short-lived CLI runs do not drop events.
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return err
	}
	return c.conn.FlushTimeout(flushTimeout)
}

// Close drains and closes the connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}

// Observer publishes a RunEvent for each driver callback on
// <subject>.started, <subject>.invocation and <subject>.completed.
type Observer struct {
	pub     Publisher
	subject string
	now     func() time.Time
}

// NewObserver returns a faust.BuildObserver publishing on subject.
func NewObserver(pub Publisher, subject string) *Observer {
	return &Observer{pub: pub, subject: subject, now: time.Now}
}

func (o *Observer) OnRunStart(report *faust.RunReport) {
	o.publish(newRunEvent(EventRunStarted, report, o.now()))
}

func (o *Observer) OnInvocationComplete(report *faust.RunReport, inv faust.InvocationReport) {
	ev := newRunEvent(EventInvocation, report, o.now())
	ev.Invocation = &InvocationEv{
		Source:     inv.Source,
		Output:     inv.Output,
		Command:    inv.Command,
		DurationMS: inv.Duration.Milliseconds(),
		Error:      inv.Error,
	}
	o.publish(ev)
}

func (o *Observer) OnRunComplete(report *faust.RunReport) {
	o.publish(newRunEvent(EventRunCompleted, report, o.now()))
}

func (o *Observer) publish(ev RunEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("Failed to marshal run event", logfields.RunID(ev.RunID), logfields.Error(err))
		return
	}
	subject := o.subject + "." + ev.Kind
	if err := o.pub.Publish(subject, data); err != nil {
		slog.Warn("Failed to publish run event",
			logfields.RunID(ev.RunID),
			slog.String("subject", subject),
			logfields.Error(err))
		return
	}
	slog.Debug("Published run event", logfields.RunID(ev.RunID), slog.String("subject", subject))
}
