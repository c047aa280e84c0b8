package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/macsim/macsim/sim/scenario"
	"github.com/macsim/macsim/sim/source"
	"github.com/macsim/macsim/sim/trace"
)

var (
	// CLI flags for the run command
	configPath     string  // Scenario YAML file; empty = build from flags below
	seed           int64   // Seed for interarrival sampling
	horizon        float64 // Simulated time after which the run stops
	logLevel       string  // Log verbosity level
	traceLevel     string  // Dispatch trace level
	timeIncrement  float64 // Slot duration
	mismatchPolicy string  // Off-route packet policy

	// Quick-mode topology and traffic flags, used when --config is empty
	topologyKind string  // line or ring
	numNodes     int     // Number of TDMA nodes
	numSlots     int     // TDMA cycle length (0 = one slot per node)
	rate         float64 // Packet arrivals per time unit at node 0
	maxPackets   int     // Packets to generate (0 = unlimited)
	lossProb     float64 // Per-reception loss probability
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "macsim",
	Short: "Discrete-event simulator for time-slotted medium-access networks",
}

// runCmd executes the simulation using a scenario file or CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a TDMA multihop simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		sc, err := loadScenario(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := runScenario(sc, trace.TraceLevel(traceLevel), os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// loadScenario reads --config when set, otherwise assembles a line or ring
// scenario with a single flow from node 0 to the last node. Explicitly set
// flags override the file.
func loadScenario(cmd *cobra.Command) (*scenario.Scenario, error) {
	var sc *scenario.Scenario
	if configPath != "" {
		var err error
		if sc, err = scenario.Load(configPath); err != nil {
			return nil, err
		}
	} else {
		route := make([]int, numNodes)
		for i := range route {
			route[i] = i
		}
		sc = &scenario.Scenario{
			Seed:            seed,
			Horizon:         horizon,
			TimeIncrement:   timeIncrement,
			MismatchPolicy:  mismatchPolicy,
			LossProbability: lossProb,
			Topology:        scenario.TopologySpec{Kind: topologyKind, Nodes: numNodes, Slots: numSlots},
			Flows: []scenario.FlowSpec{{
				Route:      route,
				Arrival:    source.DistSpec{Process: "exponential", Rate: rate},
				MaxPackets: maxPackets,
			}},
		}
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		sc.Seed = seed
	}
	if flags.Changed("horizon") {
		sc.Horizon = horizon
	}
	if flags.Changed("mismatch-policy") {
		sc.MismatchPolicy = mismatchPolicy
	}
	return sc, nil
}

// runScenario builds, executes and reports one run.
func runScenario(sc *scenario.Scenario, level trace.TraceLevel, out io.Writer) error {
	run, err := scenario.Build(sc, scenario.Options{TraceLevel: level})
	if err != nil {
		return err
	}
	if err := run.Execute(); err != nil {
		return fmt.Errorf("run %s aborted: %w", run.ID, err)
	}
	run.Report(out)
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Scenario YAML file")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for interarrival sampling")
	runCmd.Flags().Float64Var(&horizon, "horizon", 1000, "Simulated time after which the run stops (0 = until idle)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Dispatch trace level (none, events)")
	runCmd.Flags().Float64Var(&timeIncrement, "time-increment", 1.0, "Slot duration")
	runCmd.Flags().StringVar(&mismatchPolicy, "mismatch-policy", "drop", "Off-route packet policy (drop, warn, fail)")

	runCmd.Flags().StringVar(&topologyKind, "topology", "line", "Topology kind without --config (line, ring)")
	runCmd.Flags().IntVar(&numNodes, "nodes", 4, "Number of TDMA nodes")
	runCmd.Flags().IntVar(&numSlots, "slots", 0, "TDMA cycle length (0 = one slot per node)")
	runCmd.Flags().Float64Var(&rate, "rate", 0.1, "Packet arrivals per time unit at node 0")
	runCmd.Flags().IntVar(&maxPackets, "max-packets", 100, "Packets to generate (0 = unlimited)")
	runCmd.Flags().Float64Var(&lossProb, "loss", 0, "Per-reception loss probability")

	rootCmd.AddCommand(runCmd)
}
