package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nuost/ebbflood/pkg/config"
	"github.com/nuost/ebbflood/pkg/events"
	"github.com/nuost/ebbflood/pkg/gpio"
	"github.com/nuost/ebbflood/pkg/mqtt"
	"github.com/nuost/ebbflood/pkg/store"
)

// Run starts the daemon and blocks until SIGINT or SIGTERM.
func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logrus.WithFields(conf.LogrusFields()).Info("config loaded")

	if unixSocketPath == "" {
		unixSocketPath = conf.Socket
	}

	db, err := store.Open(conf.Database)
	if err != nil {
		return err
	}

	for _, p := range conf.GPIO.Inputs {
		if err := db.RegisterDevice(p.Device, ""); err != nil {
			return err
		}
	}
	for _, p := range conf.GPIO.Outputs {
		if err := db.RegisterDevice(p.Device, ""); err != nil {
			return err
		}
	}

	var chip gpio.Chip
	if len(conf.GPIO.Inputs) > 0 || len(conf.GPIO.Outputs) > 0 {
		chip, err = gpio.NewRealChip(conf.GPIO.Chip)
		if err != nil {
			return err
		}
	}

	inputs := make([]gpio.InputConfig, 0, len(conf.GPIO.Inputs))
	for _, p := range conf.GPIO.Inputs {
		inputs = append(inputs, gpio.InputConfig{
			Device:  p.Device,
			Channel: p.Channel,
			Pin:     gpio.Pin{Line: p.Line, ActiveLow: p.ActiveLow},
			Poll:    p.Poll.Duration,
		})
	}
	sampler, err := gpio.NewSampler(chip, inputs, db, logrus.StandardLogger())
	if err != nil {
		return err
	}

	outputs := make([]gpio.OutputConfig, 0, len(conf.GPIO.Outputs))
	for _, p := range conf.GPIO.Outputs {
		outputs = append(outputs, gpio.OutputConfig{
			Device:  p.Device,
			Channel: p.Channel,
			Pin:     gpio.Pin{Line: p.Line, ActiveLow: p.ActiveLow},
		})
	}
	driver, err := gpio.NewDriver(chip, outputs, logrus.StandardLogger())
	if err != nil {
		return err
	}

	hub := events.NewEventHub()
	sinks := MultiSink{NewHubSink(hub)}

	var publisher mqtt.Publisher
	if conf.MQTT.Enabled() {
		publisher, err = mqtt.NewRealPublisher(mqtt.Options{
			Broker:      conf.MQTT.Broker,
			ClientID:    conf.MQTT.ClientID,
			TopicPrefix: conf.MQTT.TopicPrefix,
			Username:    conf.MQTT.Username,
			Password:    conf.MQTT.Password,
		})
		if err != nil {
			return err
		}
		logrus.WithField("broker", conf.MQTT.Broker).Info("connected to mqtt broker")

		names := map[string]string{}
		for _, fc := range conf.Controllers {
			names[fc.ID] = fc.Name
		}
		sinks = append(sinks, NewEventPublisher(publisher, names, logrus.StandardLogger()))
	}

	meas := NewMeasurements(db, sampler)
	reg := NewRegistry(conf.Controllers, db, meas, driver, sinks, logrus.StandardLogger())
	reg.RestoreActivations()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sampler.Run(ctx)
	go reg.RunLoop(ctx, conf.TickInterval.Duration)
	go pruneLoop(ctx, db, conf.SampleRetention.Duration)

	if err := reg.StartSchedulers(); err != nil {
		return err
	}

	router := setupRoutes(reg, hub, logrus.StandardLogger())
	srv := &http.Server{Handler: router}

	// A previous unclean shutdown can leave the socket file behind.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return err
	}

	if allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		if err := os.Chmod(unixSocketPath, 0777); err != nil {
			return err
		}
	}

	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	shutdownCancel()

	logrus.Info("stopping schedulers and tick loop")
	reg.StopSchedulers()
	cancel()

	logrus.Info("deactivating controllers")
	reg.DeactivateAll()

	driver.Close()
	sampler.Close()
	if chip != nil {
		if err := chip.Close(); err != nil {
			logrus.Errorf("failed to close gpio chip: %v", err)
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logrus.Errorf("failed to close mqtt connection: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		logrus.Errorf("failed to close database: %v", err)
	}

	logrus.Info("exiting")
	return nil
}

// pruneLoop periodically deletes samples older than the retention
// window.
func pruneLoop(ctx context.Context, db *store.DB, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.PruneSamples(time.Now().Add(-retention))
			if err != nil {
				logrus.Errorf("failed to prune samples: %v", err)
				continue
			}
			if n > 0 {
				logrus.WithField("rows", n).Debug("pruned old samples")
			}
		}
	}
}
