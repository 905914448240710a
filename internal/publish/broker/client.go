// Package broker wraps the Kafka producer behind a bounded queue and a
// single transmission worker. The tick loop only ever pays a short enqueue;
// retries, backoff and delivery accounting happen on the worker goroutine.
package broker

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"orrery/pkg/platform/backoff"
	"orrery/pkg/platform/sentinel"
)

// Record is one message bound for the broker. Key is the body id so the
// broker preserves per-body ordering.
type Record struct {
	Topic string
	Key   string
	Value []byte
}

// EnqueuePolicy selects behavior when the publish queue is full.
type EnqueuePolicy string

const (
	// PolicyBlock applies backpressure: Enqueue blocks the caller until
	// the worker drains a slot or the context is cancelled.
	PolicyBlock EnqueuePolicy = "block"
	// PolicyDrop rejects the record immediately with ErrQueueFull so the
	// caller can count it.
	PolicyDrop EnqueuePolicy = "drop"
)

// Config carries producer connection and queueing configuration.
type Config struct {
	Brokers  []string
	ClientID string

	// SASL/PLAIN credentials; both empty disables SASL.
	SASLUser     string
	SASLPassword string
	TLS          bool

	// Topics that must already exist; checked once at connect time.
	RequiredTopics []string

	QueueSize    int
	Policy       EnqueuePolicy
	Retry        backoff.Policy
	DrainTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ClientID == "" {
		c.ClientID = "orrery"
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.Policy == "" {
		c.Policy = PolicyBlock
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 10 * time.Second
	}
	return c
}

// produceFn transmits one record. Split out so the worker's retry behavior
// is testable without a broker.
type produceFn func(ctx context.Context, rec Record) error

// Client is the producer handle. Enqueue is safe for concurrent use;
// Run must be started exactly once before records are delivered.
type Client struct {
	cfg     Config
	kc      *kgo.Client
	produce produceFn
	logger  *slog.Logger
	metrics *Metrics

	queue chan Record
	quit  chan struct{} // closed by Close; stops Enqueue and starts the drain
	done  chan struct{} // closed when the worker exits

	// Delivery context for the worker. Independent of the caller's run
	// context so a process-level cancellation cannot fail records the
	// drain could still deliver; Close cancels it after the drain wait.
	deliverCtx    context.Context
	cancelDeliver context.CancelFunc

	closeOnce sync.Once
}

// Option configures the Client.
type Option func(*Client)

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New connects to the broker and verifies the required topics exist.
// A connection failure here is fatal to the caller by contract.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()

	kopts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		// The worker owns retries; keep the client's own budget small so
		// our backoff state machine stays authoritative.
		kgo.RecordRetries(1),
		kgo.ProduceRequestTimeout(5 * time.Second),
	}
	if cfg.SASLUser != "" || cfg.SASLPassword != "" {
		kopts = append(kopts, kgo.SASL(plain.Auth{
			User: cfg.SASLUser,
			Pass: cfg.SASLPassword,
		}.AsMechanism()))
	}
	if cfg.TLS {
		kopts = append(kopts, kgo.DialTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}

	kc, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := kc.Ping(ctx); err != nil {
		kc.Close()
		return nil, fmt.Errorf("broker %v unreachable: %w", cfg.Brokers, sentinel.ErrUnavailable)
	}
	if err := checkTopics(ctx, kc, cfg.RequiredTopics); err != nil {
		kc.Close()
		return nil, err
	}

	c := newClient(cfg, logger, opts...)
	c.kc = kc
	c.produce = func(ctx context.Context, rec Record) error {
		res := kc.ProduceSync(ctx, &kgo.Record{
			Topic: rec.Topic,
			Key:   []byte(rec.Key),
			Value: rec.Value,
		})
		return res.FirstErr()
	}
	return c, nil
}

// newClient builds the queueing machinery without a connection. Tests use
// it directly with an injected produce function.
func newClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan Record, cfg.QueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	c.deliverCtx, c.cancelDeliver = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// checkTopics confirms the pre-provisioned topics are present so a
// misconfigured deployment fails fast instead of producing into the void.
func checkTopics(ctx context.Context, kc *kgo.Client, topics []string) error {
	if len(topics) == 0 {
		return nil
	}
	adm := kadm.NewClient(kc)
	details, err := adm.ListTopics(ctx, topics...)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	for _, topic := range topics {
		if !details.Has(topic) {
			return fmt.Errorf("topic %q not provisioned: %w", topic, sentinel.ErrNotFound)
		}
	}
	return nil
}

// Enqueue hands a record to the transmission worker. Under PolicyBlock a
// full queue applies backpressure bounded by ctx; under PolicyDrop it
// returns ErrQueueFull immediately.
func (c *Client) Enqueue(ctx context.Context, rec Record) error {
	select {
	case <-c.quit:
		return fmt.Errorf("producer closed: %w", sentinel.ErrUnavailable)
	default:
	}

	switch c.cfg.Policy {
	case PolicyDrop:
		select {
		case c.queue <- rec:
		default:
			if c.metrics != nil {
				c.metrics.Dropped.Inc()
			}
			return fmt.Errorf("topic %s key %s: %w", rec.Topic, rec.Key, sentinel.ErrQueueFull)
		}
	default:
		select {
		case c.queue <- rec:
		case <-c.quit:
			// A caller parked on a full queue must not be stranded, and
			// the queue channel is never closed, so there is no panic
			// window here.
			return fmt.Errorf("producer closed: %w", sentinel.ErrUnavailable)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if c.metrics != nil {
		c.metrics.QueueDepth.Set(float64(len(c.queue)))
	}
	return nil
}

// Run is the transmission worker loop. It delivers until Close, then
// flushes whatever is still queued before returning. Deliveries run on the
// client's internal context, so only Close can abort an in-flight retry;
// aborted records are reported as delivery failures, never silently lost.
func (c *Client) Run() error {
	defer close(c.done)

	for {
		select {
		case rec := <-c.queue:
			c.transmit(rec)
		case <-c.quit:
			for {
				select {
				case rec := <-c.queue:
					c.transmit(rec)
				default:
					return nil
				}
			}
		}
	}
}

func (c *Client) transmit(rec Record) {
	if c.metrics != nil {
		c.metrics.QueueDepth.Set(float64(len(c.queue)))
	}
	if err := c.deliver(c.deliverCtx, rec); err != nil {
		c.logger.ErrorContext(c.deliverCtx, "record delivery failed",
			"topic", rec.Topic, "key", rec.Key, "error", err)
	}
}

// deliver attempts one record with bounded exponential backoff.
// At-least-once: the record is retried until acknowledged or the budget is
// exhausted, at which point exactly one ErrDeliveryFailed is raised.
func (c *Client) deliver(ctx context.Context, rec Record) error {
	bo := c.cfg.Retry.Start()
	for {
		err := c.produce(ctx, rec)
		if err == nil {
			if c.metrics != nil {
				c.metrics.Delivered.Inc()
			}
			return nil
		}

		delay, ok := bo.Next()
		if !ok {
			if c.metrics != nil {
				c.metrics.DeliveryFailures.Inc()
			}
			return fmt.Errorf("after %d attempts: %v: %w", bo.Attempt(), err, sentinel.ErrDeliveryFailed)
		}
		if c.metrics != nil {
			c.metrics.Retries.Inc()
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			// Shutdown mid-backoff: report rather than drop silently.
			if c.metrics != nil {
				c.metrics.DeliveryFailures.Inc()
			}
			return fmt.Errorf("aborted during backoff: %w", sentinel.ErrDeliveryFailed)
		}
	}
}

// Close stops accepting records and waits for the worker to flush the
// queue, bounded by ctx and the configured drain timeout. Only when the
// wait expires are in-flight retries cancelled; those records surface as
// delivery failures.
func (c *Client) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.quit)

		select {
		case <-c.done:
		case <-ctx.Done():
			err = fmt.Errorf("drain interrupted: %w", ctx.Err())
		case <-time.After(c.cfg.DrainTimeout):
			err = fmt.Errorf("drain timeout after %s: %w", c.cfg.DrainTimeout, sentinel.ErrDeliveryFailed)
		}

		c.cancelDeliver()
		if err != nil {
			// The worker aborts quickly once its context is cancelled;
			// give it a moment so the connection is not torn down under
			// an in-flight produce.
			select {
			case <-c.done:
			case <-time.After(time.Second):
			}
		}

		if c.kc != nil {
			c.kc.Close()
		}
	})
	return err
}
