package agent

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mygarage/internal/obd"
)

// Sink receives decoded batches. Satisfied by Publisher; tests use a fake.
type Sink interface {
	Connected() bool
	Publish(batch []obd.Reading) error
}

// Collector polls the adapter on an interval and ships what it decodes.
// Batches that cannot be published go to the spool and drain once the
// broker link is back.
type Collector struct {
	bus      Bus
	sink     Sink
	spool    *Spool
	pids     []byte
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewCollector builds a collector over the given poll set. An empty pid list
// falls back to obd.DefaultPollSet.
func NewCollector(bus Bus, sink Sink, spool *Spool, pids []byte, interval time.Duration, logger *zap.Logger) *Collector {
	if len(pids) == 0 {
		pids = obd.DefaultPollSet
	}
	return &Collector{
		bus:      bus,
		sink:     sink,
		spool:    spool,
		pids:     pids,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run polls until the context is canceled.
func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			batch := c.poll()
			if len(batch) == 0 {
				continue
			}
			c.ship(batch)
		}
	}
}

// poll requests every configured PID once. Decode failures are logged and
// skipped; a dead bus yields an empty batch.
func (c *Collector) poll() []obd.Reading {
	batch := make([]obd.Reading, 0, len(c.pids))
	for _, pid := range c.pids {
		line, err := c.bus.Request(obd.PollCommand(pid))
		if err != nil {
			c.logger.Warn("bus request failed", zap.Uint8("pid", pid), zap.Error(err))
			continue
		}

		reading, err := obd.ParseResponse(line, c.now())
		if err != nil {
			if !errors.Is(err, obd.ErrNotAResponse) {
				c.logger.Warn("undecodable response",
					zap.Uint8("pid", pid),
					zap.String("line", line),
					zap.Error(err))
			}
			continue
		}
		batch = append(batch, reading)
	}
	return batch
}

// ship publishes the batch, draining any backlog first so readings arrive in
// collection order. While the broker is unreachable everything spools.
func (c *Collector) ship(batch []obd.Reading) {
	if !c.sink.Connected() {
		c.spoolBatch(batch)
		return
	}

	drained, err := c.spool.Drain(c.sink.Publish)
	if drained > 0 {
		c.logger.Info("drained spooled batches", zap.Int("batches", drained))
	}
	if err != nil {
		c.logger.Warn("spool drain interrupted", zap.Error(err))
		c.spoolBatch(batch)
		return
	}

	if err := c.sink.Publish(batch); err != nil {
		c.logger.Warn("publish failed, spooling batch", zap.Error(err))
		c.spoolBatch(batch)
	}
}

func (c *Collector) spoolBatch(batch []obd.Reading) {
	if err := c.spool.Append(batch); err != nil {
		c.logger.Error("spool append failed, batch lost",
			zap.Int("readings", len(batch)),
			zap.Error(err))
	}
}
