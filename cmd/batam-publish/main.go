// batam-publish sends a single build, report or test record to the BATAM
// analytics queue. Records are read as JSON files; with --dry-run the
// envelope is printed instead of published.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngadireddy-mn/batam"
	"github.com/ngadireddy-mn/batam/contracts"
	"github.com/ngadireddy-mn/batam/telemetry"
)

var (
	flagHost     string
	flagPort     int
	flagUsername string
	flagPassword string
	flagVHost    string
	flagQueue    string
	flagConfig   string
	flagDryRun   bool
	flagUpdate   bool

	flagBuildID   string
	flagBuildName string
	flagOverride  bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "batam-publish",
		Short:         "Publish build, report and test records to the BATAM queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagHost, "host", "", "broker host")
	pf.IntVar(&flagPort, "port", 0, "broker port")
	pf.StringVar(&flagUsername, "username", "", "broker username")
	pf.StringVar(&flagPassword, "password", "", "broker password")
	pf.StringVar(&flagVHost, "vhost", "", "broker virtual host")
	pf.StringVar(&flagQueue, "queue", "", "target queue")
	pf.StringVar(&flagConfig, "config", "", "config file path (default batam.yaml)")
	pf.BoolVar(&flagDryRun, "dry-run", false, "print the envelope instead of publishing")

	root.AddCommand(buildCmd(), reportCmd(), testCmd(), analyzeCmd())
	return root
}

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <record.json>",
		Short: "Publish a build record (create_build, or update_build with --update)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnector(cmd, func(ctx context.Context, c *batam.Connector) (string, error) {
				var build contracts.Build
				if err := readRecord(args[0], &build); err != nil {
					return "", err
				}
				if flagUpdate {
					return c.UpdateBuild(ctx, &build)
				}
				return c.CreateBuild(ctx, &build)
			})
		},
	}
	cmd.Flags().BoolVar(&flagUpdate, "update", false, "publish as an update")
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <record.json>",
		Short: "Publish a report record (create_report, or update_report with --update)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnector(cmd, func(ctx context.Context, c *batam.Connector) (string, error) {
				var report contracts.Report
				if err := readRecord(args[0], &report); err != nil {
					return "", err
				}
				if flagUpdate {
					return c.UpdateReport(ctx, &report)
				}
				return c.CreateReport(ctx, &report)
			})
		},
	}
	cmd.Flags().BoolVar(&flagUpdate, "update", false, "publish as an update")
	return cmd
}

func testCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <record.json>",
		Short: "Publish a test record (create_test, or update_test with --update)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnector(cmd, func(ctx context.Context, c *batam.Connector) (string, error) {
				var test contracts.Test
				if err := readRecord(args[0], &test); err != nil {
					return "", err
				}
				if flagUpdate {
					return c.UpdateTest(ctx, &test)
				}
				return c.CreateTest(ctx, &test)
			})
		},
	}
	cmd.Flags().BoolVar(&flagUpdate, "update", false, "publish as an update")
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask the analytics system to analyze a build (run_analysis)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnector(cmd, func(ctx context.Context, c *batam.Connector) (string, error) {
				return c.RequestAnalysis(ctx, flagBuildID, flagBuildName, flagOverride)
			})
		},
	}
	cmd.Flags().StringVar(&flagBuildID, "id", "", "build id")
	cmd.Flags().StringVar(&flagBuildName, "name", "", "build name")
	cmd.Flags().BoolVar(&flagOverride, "override", false, "results override a previously analyzed build")
	return cmd
}

// withConnector connects, runs the publish function, prints the envelope and
// tears the connection down.
func withConnector(cmd *cobra.Command, fn func(context.Context, *batam.Connector) (string, error)) error {
	logger := telemetry.SetupLogger()

	opts := []batam.Option{batam.WithLogger(logger)}
	if flagConfig != "" {
		opts = append(opts, batam.WithConfigFile(flagConfig))
	}
	c := batam.New(opts...)

	connectOpts := connectOptions(cmd)
	ctx := cmd.Context()
	if err := c.Connect(ctx, connectOpts...); err != nil {
		return err
	}
	defer c.Close()

	msg, err := fn(ctx, c)
	if err != nil {
		return err
	}

	if !flagDryRun {
		// Dry-run mode already printed the envelope.
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	}
	return nil
}

// connectOptions translates set flags into explicit overrides; unset flags
// fall through to env, file and defaults.
func connectOptions(cmd *cobra.Command) []batam.ConnectOption {
	var opts []batam.ConnectOption
	flags := cmd.Flags()

	if flags.Changed("host") {
		opts = append(opts, batam.WithHost(flagHost))
	}
	if flags.Changed("port") {
		opts = append(opts, batam.WithPort(flagPort))
	}
	if flags.Changed("username") {
		opts = append(opts, batam.WithUsername(flagUsername))
	}
	if flags.Changed("password") {
		opts = append(opts, batam.WithPassword(flagPassword))
	}
	if flags.Changed("vhost") {
		opts = append(opts, batam.WithVHost(flagVHost))
	}
	if flags.Changed("queue") {
		opts = append(opts, batam.WithQueue(flagQueue))
	}
	if flagDryRun {
		opts = append(opts, batam.WithPublisher("off"))
	} else {
		opts = append(opts, batam.WithPublisher("on"))
	}

	return opts
}

func readRecord(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse record %s: %w", path, err)
	}
	return nil
}
