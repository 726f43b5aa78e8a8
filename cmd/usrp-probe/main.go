// cmd/usrp-probe/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"usrphost-go/bus"
	"usrphost-go/prop"
	"usrphost-go/services/config"
	"usrphost-go/services/dboard"
	"usrphost-go/services/dboard/devices/xcvr"
	"usrphost-go/services/logging"
	"usrphost-go/services/sim"
	"usrphost-go/services/syncmon"
	"usrphost-go/services/usrp"
	"usrphost-go/types"
)

const busQueueLen = 32

func main() {
	cfgPath := pflag.StringP("config", "c", "", "Path to a YAML config file.")
	profile := pflag.StringP("profile", "p", "default", "Embedded config profile, used when --config is not given.")
	doSync := pflag.BoolP("sync", "s", false, "Align board times at an unknown PPS edge before printing.")
	syncTo := pflag.Float64("sync-time", 0, "Time in seconds loaded at the PPS edge.")
	dumpTree := pflag.BoolP("tree", "t", false, "Dump the property tree.")
	logLevel := pflag.StringP("log-level", "l", "", "Override the configured log level.")
	watch := pflag.BoolP("watch", "w", false, "Keep running and report sync status until interrupted.")
	listProfiles := pflag.Bool("list-profiles", false, "List the embedded profiles and exit.")
	pflag.Parse()

	if *listProfiles {
		for _, p := range config.Profiles() {
			fmt.Println(p)
		}
		return
	}

	cfg, err := loadConfig(*cfgPath, *profile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "usrp-probe:", err)
		os.Exit(2)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	log := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, log, cfg, probeOpts{sync: *doSync, syncTo: types.TimeFromReal(*syncTo), tree: *dumpTree, watch: *watch})
	stop()
	if err != nil {
		log.Error("probe failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig(path, profile string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadProfile(profile)
}

type probeOpts struct {
	sync   bool
	syncTo types.TimeSpec
	tree   bool
	watch  bool
}

func run(ctx context.Context, log *slog.Logger, cfg *config.Config, po probeOpts) error {
	reg := dboard.Default()
	xcvr.Register(reg)

	dev, err := sim.NewDevice(cfg.Device,
		sim.WithRegistry(reg),
		sim.WithLogger(log.With("svc", "sim")),
		sim.WithNoPPS(cfg.Sync.NoPPS),
	)
	if err != nil {
		return fmt.Errorf("building device: %w", err)
	}

	b := bus.NewBus(busQueueLen)
	config.Publish(b.NewConnection("config"), cfg)
	warnings := b.NewConnection("probe").Subscribe(usrp.TopicWarning.Append(bus.MultiLevel))
	defer warnings.Unsubscribe()

	opts := append(usrp.OptionsFromConfig(cfg),
		usrp.WithLogger(log.With("svc", "usrp")),
		usrp.WithBus(b.NewConnection("usrp")),
	)
	u := usrp.New(dev, opts...)

	if po.sync {
		if err := u.SetTimeUnknownPPS(ctx, po.syncTo); err != nil {
			return fmt.Errorf("time sync: %w", err)
		}
		ok, err := u.TimeSynchronized()
		if err != nil {
			return err
		}
		log.Info("time sync done", "state", u.SyncState().String(), "synchronized", ok)
	}

	s, err := u.PPString()
	if err != nil {
		return err
	}
	fmt.Print(s)

	if po.tree {
		if err := prop.Dump(os.Stdout, dev); err != nil {
			return err
		}
	}

	n := 0
	for len(warnings.Channel()) > 0 {
		<-warnings.Channel()
		n++
	}
	if n > 0 {
		log.Warn("warnings raised during probe", "count", n)
	}

	if po.watch {
		return watchSync(ctx, log, b, u, cfg.Sync.MonitorInterval)
	}
	return nil
}

func watchSync(ctx context.Context, log *slog.Logger, b *bus.Bus, u *usrp.USRP, every time.Duration) error {
	mon := &syncmon.Service{Dev: u, Interval: every, Log: log.With("svc", "syncmon")}
	if err := mon.Start(ctx, b.NewConnection("syncmon")); err != nil {
		return err
	}
	sub := b.NewConnection("watch").Subscribe(syncmon.TopicStatus)
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-sub.Channel():
			st := m.Payload.(syncmon.Status)
			fmt.Printf("%s synchronized=%v %s\n", st.At.Format(time.RFC3339), st.Synchronized, st.Err)
		}
	}
}
