package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/edp1096/powerflow/pkg/analysis"
	"github.com/edp1096/powerflow/pkg/netlist"
	"github.com/edp1096/powerflow/pkg/network"
	"github.com/edp1096/powerflow/pkg/report"
)

var version = "dev"

// fileOptions is the optional TOML override for in-case .option
// values. Zero values mean "keep what the case file says".
type fileOptions struct {
	MaxIterations int     `toml:"max_iterations"`
	Tolerance     float64 `toml:"tolerance"`
	UpdateRule    string  `toml:"update_rule"`
}

func newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func loadCase(path string) (*netlist.CaseData, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %v", err)
	}
	return netlist.Parse(string(content))
}

func buildNetwork(caseData *netlist.CaseData) (*network.Network, error) {
	net := network.New(caseData.Title)
	for _, b := range caseData.Buses {
		if err := net.AddBus(b); err != nil {
			return nil, err
		}
	}
	for _, l := range caseData.Lines {
		net.AddLine(l)
	}

	if err := net.BuildMatrix(); err != nil {
		return nil, err
	}
	return net, nil
}

func applyConfig(opts *netlist.Options, path string) error {
	var fo fileOptions
	if _, err := toml.DecodeFile(path, &fo); err != nil {
		return fmt.Errorf("reading config %s: %v", path, err)
	}

	if fo.MaxIterations > 0 {
		opts.MaxIterations = fo.MaxIterations
	}
	if fo.Tolerance > 0 {
		opts.Tolerance = fo.Tolerance
	}
	if fo.UpdateRule != "" {
		opts.Rule = netlist.UpdateRule(fo.UpdateRule)
	}
	return nil
}

func solveCommand(logger *log.Logger) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "solve <case-file>",
		Short: "Run a Gauss-Seidel power-flow solve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseData, err := loadCase(args[0])
			if err != nil {
				return err
			}
			if configPath != "" {
				if err := applyConfig(&caseData.Options, configPath); err != nil {
					return err
				}
			}

			rule, err := analysis.ParseUpdateRule(string(caseData.Options.Rule))
			if err != nil {
				return err
			}

			logger.Debug("case loaded", "buses", len(caseData.Buses), "lines", len(caseData.Lines))

			net, err := buildNetwork(caseData)
			if err != nil {
				return err
			}
			defer net.Destroy()

			gs := analysis.NewGaussSeidel()
			gs.SetMaxIterations(caseData.Options.MaxIterations)
			gs.SetTolerance(caseData.Options.Tolerance)
			gs.SetUpdateRule(rule)

			if err := gs.Setup(net); err != nil {
				return err
			}
			if err := gs.Execute(); err != nil {
				return err
			}

			logger.Info("solve finished", "state", gs.State().String(), "iterations", gs.Iterations())

			r := &report.Report{
				Network:    net,
				Voltages:   gs.Voltages(),
				Trace:      gs.Trace(),
				State:      gs.State(),
				Iterations: gs.Iterations(),
				Mismatches: analysis.EvaluateMismatch(net, gs.Voltages()),
			}
			r.Render(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML file overriding solver options")
	return cmd
}

func ybusCommand(logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ybus <case-file>",
		Short: "Build and print the bus admittance matrix without solving",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseData, err := loadCase(args[0])
			if err != nil {
				return err
			}

			net, err := buildNetwork(caseData)
			if err != nil {
				return err
			}
			defer net.Destroy()

			logger.Debug("matrix built", "size", net.Size())
			report.WriteMatrix(cmd.OutOrStdout(), net)
			return nil
		},
	}
}

func main() {
	var verbose bool
	logger := newLogger(false)

	root := &cobra.Command{
		Use:          "powerflow",
		Short:        "Gauss-Seidel power-flow solver",
		Long:         `powerflow computes the steady-state voltage profile of a power network from bus and line records using the Gauss-Seidel method.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("powerflow %s\n", version))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(solveCommand(logger))
	root.AddCommand(ybusCommand(logger))

	if err := root.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
