package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"git.sr.ht/~whereswaldon/labelscope/backend"
)

// settings is the resolved configuration of one run.
type settings struct {
	LabelsPath string
	StorePath  string
	Mapping    backend.Mapping
	LogLevel   log.Level
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labelscope [csv...]",
		Short: "Label the points of time series on an interactive chart",
		Long: `labelscope opens CSV time series on a chart. Brush the overview strip to
zoom, drag a rectangle over the chart to select points and pick labels for
them. Labels are read from a YAML catalog and assignments are saved to a
JSON annotation store.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			return run(s, args)
		},
	}
	flags := cmd.Flags()
	flags.String("config", "", "config file (default labelscope.yaml in the working or user config directory)")
	flags.String("labels", "labels.yaml", "label catalog file")
	flags.String("store", "annotations.json", "annotation store file")
	flags.String("timestamp-column", "", "CSV column holding timestamps (detected when empty)")
	flags.String("value-column", "", "CSV column holding values (detected when empty)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	_ = v.BindPFlags(flags)
	v.SetEnvPrefix("LABELSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return cmd
}

// loadSettings reads the optional config file into v and resolves the
// settings from flags, environment and file, in that order of precedence.
func loadSettings(v *viper.Viper) (settings, error) {
	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
	} else {
		v.SetConfigName("labelscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "labelscope"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("failed reading config: %w", err)
		}
	}
	level, err := log.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return settings{}, fmt.Errorf("invalid log level: %w", err)
	}
	return settings{
		LabelsPath: v.GetString("labels"),
		StorePath:  v.GetString("store"),
		Mapping: backend.Mapping{
			Timestamp: v.GetString("timestamp-column"),
			Value:     v.GetString("value-column"),
		},
		LogLevel: level,
	}, nil
}

func run(s settings, paths []string) error {
	log.SetLevel(s.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	mutator := stream.NewMutator(ctx, time.Second)
	bundle, err := backend.NewBundle(ctx, mutator, backend.Config{
		LabelsPath: s.LabelsPath,
		StorePath:  s.StorePath,
		Mapping:    s.Mapping,
	})
	if err != nil {
		cancel()
		return err
	}
	log.Info("loaded label catalog", "labels", len(bundle.Catalog.Labels()), "path", s.LabelsPath)
	for _, path := range paths {
		bundle.Datasource.LoadFromPath(path)
	}
	go func() {
		w := app.NewWindow(app.Title("labelscope"), app.Size(unit.Dp(1280), unit.Dp(800)))
		ws := backend.NewWindowState(ctx, bundle, w)
		expl := explorer.NewExplorer(w)
		err := loop(w, ws, expl)
		cancel()
		if err != nil {
			log.Fatal("window closed with error", "err", err)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

func loop(w *app.Window, ws backend.WindowState, expl *explorer.Explorer) error {
	var ops op.Ops
	ui := NewUI(ws, expl, w.Invalidate)
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}
