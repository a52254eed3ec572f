/*
 * Copyright (C) 2024 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/guardio/guardio/pkg/config"
	"github.com/guardio/guardio/pkg/operational"
	"github.com/guardio/guardio/pkg/orchestrator"
	"github.com/guardio/guardio/pkg/present"
	"github.com/guardio/guardio/pkg/sensor"
	"github.com/guardio/guardio/pkg/utils"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

var (
	buildVersion       = "unknown"
	buildDate          = "unknown"
	cfgFile            string
	logLevel           string
	envPrefix          = "GUARDIO"
	defaultLogFileName = ".guardio"
	opts               config.Options
	vip                *viper.Viper
	cfgFound           bool
)

// rootCmd represents the root command
var rootCmd = &cobra.Command{
	Use:   "guardio",
	Short: "Learn interaction patterns and flag behavioral anomalies, locally",
	Run: func(_ *cobra.Command, _ []string) {
		os.Exit(run())
	},
}

// initConfig use config file and ENV variables if set.
func initConfig() {
	vip = viper.New()

	if cfgFile != "" {
		vip.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		// Search config in home directory with name ".guardio" (without extension).
		vip.AddConfigPath(home)
		vip.SetConfigName(defaultLogFileName)
	}

	vip.SetEnvPrefix(envPrefix)
	vip.AutomaticEnv()

	cfgErr := vip.ReadInConfig()
	cfgFound = cfgErr == nil

	bindFlags(rootCmd, vip)

	initLogger()

	if cfgErr != nil {
		log.Debugf("no config file loaded: %v", cfgErr)
	}
}

func initLogger() {
	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		ll = log.ErrorLevel
	}
	log.SetLevel(ll)
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableColors: false, FullTimestamp: true, PadLevelText: true, DisableQuote: true})
}

func dumpConfig(w io.Writer, cfg *config.ConfigFileStruct) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error dumping config: %w", err)
	}
	_, err = fmt.Fprintf(w, "Using configuration:\n%s\n", out)
	return err
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, ".") || strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(f.Name))
			_ = v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix))
		}

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			switch val.(type) {
			case bool, uint, string, int32, int16, int8, int, uint32, uint64, int64, float64, float32, []string, []int:
				_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
			default:
				var jsonNew = jsoniter.ConfigCompatibleWithStandardLibrary
				b, err := jsonNew.Marshal(&val)
				if err != nil {
					log.Fatalf("can't parse flag %s into json with value %v got error %s", f.Name, val, err)
					return
				}
				_ = cmd.Flags().Set(f.Name, string(b))
			}
		}
	})
}

func initFlags() {
	cobra.OnInitialize(initConfig)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s)", defaultLogFileName))
	flags.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warning, error")
	flags.Float64Var(&opts.Sigma, "sigma", config.DefaultSigma, "Detection sensitivity, in standard deviations")
	flags.Float64Var(&opts.Cooldown, "cooldown", config.DefaultCooldown.Seconds(), "Minimum spacing between alerts of the same agent, in seconds")
	flags.DurationVar(&opts.JoinTimeout, "join-timeout", config.DefaultJoinTimeout, "Time given to each agent to stop")
	flags.StringVar(&opts.Source, "source", "", "Replay file of recorded samples (- for standard input)")
	flags.StringVar(&opts.Focus, "focus", config.FocusAuto, "Focus query backend: auto, xdotool, replay, none")
	flags.StringVar(&opts.SummarySchedule, "summary-schedule", config.DefaultSummarySchedule, "Cron schedule of the session summary log (off to disable)")
	flags.StringVar(&opts.Agents, "agents", "", "json of config file agents field")
	flags.StringVar(&opts.Risk, "risk", "", "json of config file risk field")
	flags.StringVar(&opts.Presenter, "presenter", "", "Presentation sink: stdout, log, none (default: stdout)")
	flags.StringVar(&opts.PresenterFormat, "presenter.format", "", "stdout record format: json, text (default: json)")
	flags.StringVar(&opts.Health.Address, "health.address", "127.0.0.1", "Health server address")
	flags.StringVar(&opts.Health.Port, "health.port", "0", "Health and metrics server port (0: disabled)")
}

func main() {
	// Initialize flags (command line parameters)
	initFlags()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// replaySource opens the replay stream named by the configuration, if any
func replaySource(cfg *config.ConfigFileStruct) (*sensor.Replay, io.Closer, error) {
	if cfg.Source == "" {
		return nil, nil, nil
	}
	if cfg.Source == "-" {
		return sensor.NewReplay(os.Stdin, nil), nil, nil
	}
	f, err := os.Open(cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open replay source: %w", err)
	}
	return sensor.NewReplay(f, nil), f, nil
}

func buildSensors(cfg *config.ConfigFileStruct, replay *sensor.Replay) orchestrator.Sensors {
	var sensors orchestrator.Sensors
	if replay != nil {
		sensors.Pointer = replay.Pointer
		sensors.Keys = replay.Keys
	} else {
		log.Warn("no sample source configured; movement and typing agents will report Error")
	}
	switch cfg.Focus {
	case config.FocusNone:
		sensors.Focus = sensor.Unavailable{}
	case config.FocusXWindow:
		sensors.Focus = sensor.NewXFocus()
	case config.FocusReplay:
		sensors.Focus = replay.Focus
	default:
		if replay != nil {
			sensors.Focus = replay.Focus
		} else {
			sensors.Focus = sensor.NewXFocus()
		}
	}
	return sensors
}

// onConfigChange pushes live settings to the running orchestrator
func onConfigChange(v *viper.Viper, orch *orchestrator.Orchestrator) func(fsnotify.Event) {
	return func(e fsnotify.Event) {
		log.Infof("config file changed: %s", e.Name)
		current := orch.Settings()
		if v.IsSet("sigma") {
			if sigma := v.GetFloat64("sigma"); sigma != current.Sigma {
				if err := orch.SetSigma(sigma); err != nil {
					log.Errorf("ignoring config change: %v", err)
				}
			}
		}
		if v.IsSet("cooldown") {
			if cooldown := config.SecondsToDuration(v.GetFloat64("cooldown")); cooldown != current.Cooldown {
				if err := orch.SetCooldown(cooldown); err != nil {
					log.Errorf("ignoring config change: %v", err)
				}
			}
		}
	}
}

func run() int {
	fmt.Fprintf(os.Stderr, "Starting %s:\n=====\nBuild version: %s\nBuild date: %s\n\n", filepath.Base(os.Args[0]), buildVersion, buildDate)

	cfg, err := config.ParseConfig(&opts)
	if err != nil {
		log.Errorf("error in parsing config file: %v", err)
		return 1
	}
	if err := dumpConfig(os.Stderr, &cfg); err != nil {
		log.Error(err)
		return 1
	}

	utils.SetupElegantExit()
	ctx, cancel := utils.ExitContext(context.Background())
	defer cancel()

	replay, closer, err := replaySource(&cfg)
	if err != nil {
		log.Error(err)
		return 1
	}
	if closer != nil {
		defer closer.Close()
	}

	presenter, err := present.New(cfg.Presenter)
	if err != nil {
		log.Errorf("failed to initialize presenter: %v", err)
		return 1
	}
	orch := orchestrator.New(cfg, buildSensors(&cfg, replay), presenter, nil)

	healthServer := operational.NewHealthServer(&opts, orch.IsAlive, orch.IsReady)

	if err := orch.Start(ctx); err != nil {
		log.Errorf("failed to start: %v", err)
		return 1
	}
	if cfgFound {
		vip.OnConfigChange(onConfigChange(vip, orch))
		vip.WatchConfig()
	}
	if replay != nil {
		go func() {
			if err := replay.Run(ctx); err != nil {
				log.Errorf("replay stopped: %v", err)
			}
			log.Info("replay finished")
			cancel()
		}()
	}

	<-ctx.Done()
	orch.Stop()
	log.Infof("session %s ended with risk score %d", orch.Session(), orch.Score())

	if healthServer != nil {
		_ = healthServer.Shutdown(context.Background())
	}
	log.Debugf("exiting main run")
	return 0
}
