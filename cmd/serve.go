package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/gb28181registrar/internal/config"
	"firestige.xyz/gb28181registrar/internal/eventbus"
	"firestige.xyz/gb28181registrar/internal/log"
	"firestige.xyz/gb28181registrar/internal/metrics"
	"firestige.xyz/gb28181registrar/internal/registrar"
	"firestige.xyz/gb28181registrar/internal/sip"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registrar core in the foreground",
	Long: `Run the registrar core in foreground.

serve loads the process configuration and per-user-agent policy file,
starts the metrics endpoint, and brings up the single-consumer worker
that drives the registration state machine. It then waits for SIGTERM or
SIGINT to shut down gracefully, letting any in-flight transaction finish
before exiting.

A real SIP transport (socket listener, message parser, transaction
matching) is an external collaborator this binary does not implement —
serve wires the registrar core against it through the sip.Transport
interface. Without one injected, the core starts fully initialized but
idle, which is enough to exercise the worker, policy table, caches, and
metrics end to end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log.Init(&log.LoggerConfig{
		Level:   cfg.Log.Level,
		Pattern: cfg.Log.Pattern,
		Time:    cfg.Log.Time,
		File:    fileAppenderFromConfig(cfg.Log.File),
	})
	logger := log.GetLogger()
	logger.WithField("config", configFile).Info("registrar: starting")

	policy, err := loadPolicy(cfg.Policy)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hooks := eventbus.NewInMemoryEventBus(8, 256)
	defer hooks.Close()
	registerDefaultHooks(hooks, logger)

	queue := registrar.NewQueue(cfg.Registrar.QueueCapacity)
	wake := make(chan struct{}, 1)
	builder := sip.NewBuilder(cfg.SIP.ServerAgent, cfg.Registrar.Realm, 0)

	localAccount := sip.Account{
		Username:              "",
		Domain:                cfg.Node.Domain,
		LocalPort:             0,
		MsgProtocol:           cfg.SIP.Protocol,
		AuthenticationEnabled: cfg.Registrar.AuthenticationEnabled,
	}

	worker := &registrar.Worker{
		Queue:         queue,
		Wakeup:        wake,
		Policy:        policy,
		Builder:       builder,
		LocalAccount:  localAccount,
		Auth:          registrar.PermissiveAuthenticator{},
		Devices:       sip.NewInMemoryDeviceCache(24*time.Hour, time.Hour),
		Bindings:      sip.NewInMemoryBindingStore(time.Hour),
		Hooks:         hooks,
		MinimumExpiry: cfg.Registrar.MinimumExpirySeconds,
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := metricsServer.Start(ctx); err != nil {
			return err
		}
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	logger.Info("registrar: started, waiting for signals")
	<-sigChan
	logger.Info("registrar: received shutdown signal")

	cancel()
	<-workerDone

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Warn("registrar: metrics server shutdown error")
		}
	}

	logger.Info("registrar: stopped gracefully")
	return nil
}

func loadPolicy(cfg config.PolicyConfig) (*registrar.PolicyTable, error) {
	var table *registrar.PolicyTable
	if cfg.File == "" {
		table = registrar.NewPolicyTable(nil)
	} else {
		var err error
		table, err = registrar.LoadPolicyXML(cfg.File)
		if err != nil {
			return nil, err
		}
	}

	overrides, err := registrar.DecodePolicyOverrides(cfg.Overrides)
	if err != nil {
		return nil, err
	}
	table.ApplyOverrides(overrides)
	return table, nil
}

func fileAppenderFromConfig(f *config.FileLogConfig) *log.FileAppenderOpt {
	if f == nil {
		return nil
	}
	return &log.FileAppenderOpt{
		Filename:   f.Path,
		MaxSize:    f.MaxSizeMB,
		MaxAge:     f.MaxAgeDays,
		MaxBackups: f.MaxBackups,
		Compress:   f.Compress,
	}
}

// registerDefaultHooks subscribes a log-only handler to each hook topic
// so serve starts cleanly without a real RPC/alarm subscriber wired.
func registerDefaultHooks(bus eventbus.EventBus, logger log.Logger) {
	logOnly := func(topic string) eventbus.Handler {
		return func(event *eventbus.Event) error {
			logger.WithField("topic", topic).WithField("call_id", event.CallID).
				Debug("registrar: hook fired (no subscriber configured)")
			return nil
		}
	}
	_ = bus.Subscribe(registrar.TopicRPCRegister, logOnly(registrar.TopicRPCRegister))
	_ = bus.Subscribe(registrar.TopicAlarmSubscribe, logOnly(registrar.TopicAlarmSubscribe))
}
