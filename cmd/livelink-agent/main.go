package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mygarage/internal/agent"
	"mygarage/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := agent.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger("livelink-agent")
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // best-effort flush

	pids, err := cfg.PollSet()
	if err != nil {
		logger.Fatal("bad pid list", zap.Error(err))
	}

	spool, err := agent.OpenSpool(cfg.SpoolPath)
	if err != nil {
		logger.Fatal("failed to open spool", zap.Error(err))
	}
	defer spool.Close()

	bus, err := agent.OpenSerialBus(cfg.Serial.Device, cfg.Serial.Baud)
	if err != nil {
		logger.Fatal("failed to open serial bus", zap.Error(err))
	}
	defer bus.Close()

	publisher := agent.NewPublisher(cfg.MQTT.Broker, cfg.Device.ID, cfg.Device.Token, logger)
	if err := publisher.Connect(); err != nil {
		// Not fatal: paho keeps retrying and batches spool meanwhile.
		logger.Warn("broker unreachable at startup", zap.Error(err))
	}
	defer publisher.Close()

	collector := agent.NewCollector(bus, publisher, spool, pids, cfg.PollInterval(), logger)
	logger.Info("livelink agent started",
		zap.String("device_id", cfg.Device.ID),
		zap.String("serial", cfg.Serial.Device))

	if err := collector.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("collector stopped with error", zap.Error(err))
	}
}
