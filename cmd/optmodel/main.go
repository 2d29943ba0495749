// cmd/optmodel/main.go — command line front end for gosymopt problem files
//
// Usage:
//
//	optmodel solve problem.yaml --method bfgs --verbose
//	optmodel render problem.json
//
// Every flag can also be set through the environment with the OPTMODEL_
// prefix, e.g. OPTMODEL_MAX_ITERATIONS=200.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/njchilds90/gosymopt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("OPTMODEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "optmodel",
		Short:        "Solve and render constrained optimization problems described in JSON or YAML",
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("verbose", false, "log every solver iteration")
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newSolveCmd(v), newRenderCmd(v))
	return root
}

func newSolveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve [problem file]",
		Short: "Solve a problem file and print the optimum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(v.GetBool("verbose"))
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			p, err := load(args[0], logger)
			if err != nil {
				return err
			}
			opts, err := solveOptions(v)
			if err != nil {
				return err
			}
			res, err := p.Solve(opts...)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), p, res, v.GetString("output"))
		},
	}
	f := cmd.Flags()
	f.String("method", "", "optimizer: lbfgs, bfgs, cg, gradient-descent or nelder-mead")
	f.Int("max-iterations", 0, "major iteration limit of each inner solve")
	f.Bool("advisory-constraints", false, "display constraints without enforcing them")
	f.StringP("output", "o", "text", "output format: text or json")
	_ = v.BindPFlags(f)
	return cmd
}

func newRenderCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [problem file]",
		Short: "Print a problem file as LaTeX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load(args[0], zap.NewNop())
			if err != nil {
				return err
			}
			if v.GetBool("plain") {
				_, err = io.WriteString(cmd.OutOrStdout(), p.String())
				return err
			}
			out, err := p.Render()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().Bool("plain", false, "print a plain-text summary instead of LaTeX")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func load(path string, logger *zap.Logger) (*gosymopt.Problem, error) {
	doc, err := gosymopt.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	return doc.Build(gosymopt.WithLogger(logger))
}

func solveOptions(v *viper.Viper) ([]gosymopt.SolveOption, error) {
	opts := []gosymopt.SolveOption{
		gosymopt.Verbose(v.GetBool("verbose")),
		gosymopt.EnforceConstraints(!v.GetBool("advisory-constraints")),
	}
	if name := v.GetString("method"); name != "" {
		m, err := gosymopt.ParseMethod(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, gosymopt.UseMethod(m))
	}
	if n := v.GetInt("max-iterations"); n > 0 {
		s := gosymopt.DefaultSettings()
		s.MaxIterations = n
		opts = append(opts, gosymopt.UseSettings(s))
	}
	return opts, nil
}

type resultView struct {
	Sense        string             `json:"sense"`
	Objective    float64            `json:"objective"`
	Values       map[string]float64 `json:"values"`
	Status       string             `json:"status"`
	Iterations   int                `json:"iterations"`
	MaxViolation float64            `json:"max_violation"`
	Runtime      string             `json:"runtime"`
}

func printResult(w io.Writer, p *gosymopt.Problem, res *gosymopt.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resultView{
			Sense:        string(p.OptType()),
			Objective:    res.F,
			Values:       res.Values,
			Status:       res.Status,
			Iterations:   res.Iterations,
			MaxViolation: res.MaxViolation,
			Runtime:      res.Runtime.String(),
		})
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintf(w, "status:     %s (%d iterations)\n", res.Status, res.Iterations)
	fmt.Fprintf(w, "objective:  %g\n", res.F)
	if res.MaxViolation > 0 {
		fmt.Fprintf(w, "violation:  %g\n", res.MaxViolation)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tVALUE\tACTIVE")
	for _, v := range p.Variables() {
		fmt.Fprintf(tw, "%s\t%g\t%t\n", v.Name(), res.Values[v.Name()], v.IsActive())
	}
	return tw.Flush()
}
