package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/velox-sim/velox/internal/compare"
	"github.com/velox-sim/velox/internal/input"
	"github.com/velox-sim/velox/internal/models"
	"github.com/velox-sim/velox/internal/sim"
	"github.com/velox-sim/velox/internal/tui"
)

var (
	configFile string
	logLevel   string

	modelName string
	vehicleID int
	dt        float64
	steps     int
	throttle  float64
	brake     float64
	steer     float64
	drift     bool
	exportTo  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "velox",
		Short: "interactive vehicle-dynamics playground",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetFormatter(&easy.Formatter{
				TimestampFormat: "15:04:05",
				LogFormat:       "%time% [%lvl%] %msg%\n",
			})
			if lvl, err := logrus.ParseLevel(logLevel); err == nil {
				logrus.SetLevel(lvl)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			// default to the interactive playground
			driveCmd(cmd, args)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "parameter bundle (yaml); built-in defaults when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "st", "dynamics model (st, std)")
	rootCmd.PersistentFlags().IntVar(&vehicleID, "vehicle", 2, "vehicle id")
	rootCmd.PersistentFlags().BoolVar(&drift, "drift", false, "drift safety profile")

	drive := &cobra.Command{
		Use:   "drive",
		Short: "interactive terminal playground",
		Run:   driveCmd,
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "batch run with constant input",
		RunE:  runCmd,
	}
	run.Flags().Float64Var(&dt, "dt", 0.02, "step timestep [s]")
	run.Flags().IntVar(&steps, "steps", 250, "number of steps")
	run.Flags().Float64Var(&throttle, "throttle", 1.0, "throttle [0..1]")
	run.Flags().Float64Var(&brake, "brake", 0.0, "brake [0..1]")
	run.Flags().Float64Var(&steer, "steer", 0.0, "steering nudge [-1..1]")
	run.Flags().StringVar(&exportTo, "export", "", "write flattened telemetry trace (json)")

	cmp := &cobra.Command{
		Use:   "compare [scenario.json] [reference.json]",
		Short: "cross-check against a reference trace",
		Args:  cobra.ExactArgs(2),
		RunE:  compareCmd,
	}

	vehicles := &cobra.Command{
		Use:   "vehicles",
		Short: "list built-in vehicles",
		Run:   vehiclesCmd,
	}

	rootCmd.AddCommand(drive, run, cmp, vehicles)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func driveCmd(cmd *cobra.Command, args []string) {
	kind, err := models.ParseKind(modelName)
	if err != nil {
		logrus.Fatal(err)
	}
	bundle := sim.Prepare(configFile, logrus.StandardLogger())
	if err := tui.Run(bundle, kind, vehicleID, drift); err != nil {
		logrus.Fatal(err)
	}
}

func runCmd(cmd *cobra.Command, args []string) error {
	kind, err := models.ParseKind(modelName)
	if err != nil {
		return err
	}
	bundle := sim.Prepare(configFile, logrus.StandardLogger())
	daemon := sim.NewDaemon(bundle, logrus.StandardLogger())
	err = daemon.Reset(sim.ResetOptions{
		Model:       kind,
		VehicleID:   vehicleID,
		Dt:          dt,
		Drift:       drift,
		ControlMode: input.Keyboard,
	})
	if err != nil {
		return err
	}

	speeds := make([]float64, 0, steps)
	var trace []map[string]float64
	for i := 0; i < steps; i++ {
		frame, err := daemon.Step(input.Input{
			Mode:          input.Keyboard,
			Dt:            dt,
			Timestamp:     float64(i) * dt,
			Throttle:      throttle,
			Brake:         brake,
			SteeringNudge: steer,
		})
		if err != nil {
			return err
		}
		speeds = append(speeds, frame.Velocity.Speed)
		if exportTo != "" {
			trace = append(trace, frame.Flatten())
		}
	}

	snap := daemon.Snapshot()
	fmt.Printf("%s vehicle %d, %d steps @ %.3fs\n\n", kind, vehicleID, steps, dt)
	fmt.Println(asciigraph.Plot(speeds, asciigraph.Height(12), asciigraph.Width(70), asciigraph.Caption("speed [m/s]")))
	fmt.Printf("\nfinal: speed=%.2f m/s  pos=(%.1f, %.1f)  distance=%.1f m  energy=%.0f\n",
		snap.Telemetry.Velocity.Speed, snap.Telemetry.Pose.X, snap.Telemetry.Pose.Y,
		snap.Telemetry.Totals.Distance, snap.Telemetry.Totals.Energy)

	if exportTo != "" {
		data, err := json.MarshalIndent(trace, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportTo, data, 0644); err != nil {
			return err
		}
		logrus.Infof("trace written to %s (%d frames)", exportTo, len(trace))
	}
	return nil
}

func compareCmd(cmd *cobra.Command, args []string) error {
	scenario, err := compare.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ref, err := compare.LoadReference(args[1])
	if err != nil {
		return err
	}

	bundle := sim.Prepare(configFile, logrus.StandardLogger())
	got, err := compare.Run(scenario, bundle)
	if err != nil {
		return err
	}
	report, err := compare.Diff(scenario.Name, got, ref, scenario.Tolerances)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "FIELD\tRMSE\tMAX\tTOL\t\n")
	for _, f := range report.Fields {
		mark := ""
		if f.Exceeded {
			mark = "EXCEEDED"
		}
		fmt.Fprintf(w, "%s\t%.3g\t%.3g\t%.3g\t%s\n", f.Field, f.RMSE, f.MaxAbs, f.Tolerance, mark)
	}
	w.Flush()

	if failures := report.Failures(); len(failures) > 0 {
		return fmt.Errorf("%d of %d fields exceeded tolerance over %d steps",
			len(failures), len(report.Fields), report.Steps)
	}
	fmt.Printf("\nall %d fields within tolerance over %d steps\n", len(report.Fields), report.Steps)
	return nil
}

func vehiclesCmd(cmd *cobra.Command, args []string) {
	bundle := sim.Prepare(configFile, logrus.StandardLogger())
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\tMASS\tWHEELBASE\tMU\tSTEER MAX\tA MAX\t\n")
	for id := 1; id <= len(bundle.Vehicles); id++ {
		v, err := bundle.Vehicle(id)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%.0f kg\t%.3f m\t%.2f\t%.3f rad\t%.1f m/s²\t\n",
			id, v.Name, v.Mass, v.Wheelbase(), v.Friction(), v.Steering.Max, v.Longitudinal.AMax)
	}
	w.Flush()
}
