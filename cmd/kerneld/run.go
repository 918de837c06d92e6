package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kerneld-io/kerneld/internal/geosite"
	"github.com/kerneld-io/kerneld/internal/kernel"
	"github.com/kerneld-io/kerneld/internal/keybind"
	"github.com/kerneld-io/kerneld/internal/keybind/hotkey/hostkey"
	"github.com/kerneld-io/kerneld/internal/kerrors"
	"github.com/kerneld-io/kerneld/internal/mdx"
	"github.com/kerneld-io/kerneld/internal/obs"
	"github.com/kerneld-io/kerneld/internal/proxy"
	"github.com/kerneld-io/kerneld/internal/proxy/statsexport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "boot the kernel with the proxy, dictionary and hotkey modules",
	RunE:  runRun,
}

// runConfig is the top-level shape of kerneld.yaml.
type runConfig struct {
	Proxy        proxy.Config       `mapstructure:"proxy"`
	Dictionaries []string           `mapstructure:"dictionaries"`
	Geosite      geositeConfig      `mapstructure:"geosite"`
	Keybind      keybindConfig      `mapstructure:"keybind"`
	Redis        statsexport.Config `mapstructure:"redis"`
}

type geositeConfig struct {
	DB     string `mapstructure:"db"`
	Source string `mapstructure:"source"`
}

type keybindConfig struct {
	Adapter string `mapstructure:"adapter"`
}

func runRun(cmd *cobra.Command, args []string) error {
	var cfg runConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return kerrors.Wrap(err, "run: parsing configuration")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	inj := kernel.New()
	group := kernel.NewModuleGroup(
		buildGeositeModule(cfg.Geosite), // must run before proxy, which depends on its Store
		&mdx.Module{Paths: cfg.Dictionaries},
		&proxy.Module{Config: cfg.Proxy, Lookup: geositeLookupFromInjector(inj)},
		&keybind.Module{NewAdapter: newHotkeyAdapter(cfg.Keybind)},
	)
	if err := kernel.RunModules(ctx, inj, group); err != nil {
		return kerrors.Wrap(err, "run: starting modules")
	}

	if cfg.Redis.RedisURL != "" || os.Getenv("KERNELD_REDIS_URL") != "" {
		exporter, err := statsexport.New(ctx, cfg.Redis)
		if err != nil {
			obs.Logger.WithField("component", "kerneld.run").Warnf("stats export disabled: %v", err)
		} else {
			defer exporter.Close()
			built, err := kernel.Get[*proxy.Built](ctx, inj)
			if err == nil {
				go exporter.Run(ctx, cfg.Redis.Interval, func() []proxy.Snapshot {
					return proxy.Stats(built.Egresses)
				})
			}
		}
	}

	obs.Logger.WithField("component", "kerneld.run").Info("kernel running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	obs.Logger.WithField("component", "kerneld.run").Info("shutting down")
	cancel()
	time.Sleep(250 * time.Millisecond) // let in-flight accept/dispatch goroutines observe ctx.Done
	return nil
}

// newHotkeyAdapter builds the global hotkey adapter keybind.Module should
// use, per cfg.Adapter. Only "hostkey" (the default) and "none" are wired
// here: nativepoll and webwindow need a platform keyboard Source or an
// embedding window handle respectively, neither of which this binary
// constructs, so selecting them is left to a build that provides one.
func newHotkeyAdapter(cfg keybindConfig) func(*keybind.KeyDispatcher) keybind.Adapter {
	if cfg.Adapter == "none" {
		return nil
	}
	return func(disp *keybind.KeyDispatcher) keybind.Adapter {
		return hostkey.New(func(seq keybind.KeySequence) {
			disp.Feed(seq[0])
		})
	}
}

// geositeModule opens a geosite.Store at EarlyInit time and registers it
// into the Injector, so later modules can resolve geosite:<tag> targets
// against it.
type geositeModule struct {
	cfg geositeConfig
}

func buildGeositeModule(cfg geositeConfig) kernel.Module {
	return &geositeModule{cfg: cfg}
}

func (m *geositeModule) EarlyInit(ctx context.Context, inj *kernel.Injector) error {
	if m.cfg.DB == "" {
		return nil
	}
	var list *geosite.SiteGroupList
	if m.cfg.Source != "" {
		data, err := os.ReadFile(m.cfg.Source)
		if err != nil {
			return kerrors.Wrap(err, "run: reading geosite source %s", m.cfg.Source)
		}
		list, err = geosite.Parse(data)
		if err != nil {
			return kerrors.Wrap(err, "run: parsing geosite source %s", m.cfg.Source)
		}
	} else {
		list = &geosite.SiteGroupList{}
	}
	store, err := geosite.Open(m.cfg.DB, list)
	if err != nil {
		return kerrors.Wrap(err, "run: opening geosite store %s", m.cfg.DB)
	}
	kernel.Insert(inj, store)
	return nil
}

func (m *geositeModule) Init(ctx context.Context, inj *kernel.Injector) error { return nil }

// geositeLookupFromInjector defers resolving the *geosite.Store until the
// proxy module's own EarlyInit runs, which is guaranteed to be after the
// geosite module's by the module group's registration order.
func geositeLookupFromInjector(inj *kernel.Injector) proxy.GeositeLookup {
	return func(tag string) ([]string, error) {
		store, err := kernel.Get[*geosite.Store](context.Background(), inj)
		if err != nil {
			return nil, kerrors.Wrap(err, "run: no geosite store configured for geosite:%s", tag)
		}
		return store.Lookup(tag)
	}
}
