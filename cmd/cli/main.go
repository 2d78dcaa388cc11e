package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hive-corporation/alert-enricher/internal/adapter/geoip"
	"github.com/hive-corporation/alert-enricher/internal/adapter/handler"
	"github.com/hive-corporation/alert-enricher/internal/config"
	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/service"
)

var version = "dev"

// errEnrichmentFailed signals a Failure result; the result itself is already printed.
var errEnrichmentFailed = errors.New("enrichment failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errEnrichmentFailed) {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert-enricher",
		Short: "Enrich CloudWatch alarm notifications with detection context",
		Long: `Classifies CloudWatch alarm notifications delivered over SNS, extracts
source IPs from the state reason and adds geolocation and response guidance.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors manually
	}

	// Setup Viper for automatic env binding
	viper.SetEnvPrefix("ALERT_ENRICHER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	flags := cmd.PersistentFlags()
	flags.String("server", "", "gRPC address of the enrichment API (empty runs locally)")
	flags.Duration("timeout", 30*time.Second, "Overall timeout")

	if err := viper.BindPFlag("server", flags.Lookup("server")); err != nil {
		panic(fmt.Sprintf("failed to bind server flag: %v", err))
	}
	if err := viper.BindPFlag("timeout", flags.Lookup("timeout")); err != nil {
		panic(fmt.Sprintf("failed to bind timeout flag: %v", err))
	}

	cmd.AddCommand(newEnrichCmd(), newClassifyCmd(), newVersionCmd())

	return cmd
}

func newEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich an SNS event read from a file (use --file - for stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("file", "-", "Path to the SNS event JSON")
	if err := viper.BindPFlag("file", cmd.Flags().Lookup("file")); err != nil {
		panic(fmt.Sprintf("failed to bind file flag: %v", err))
	}

	return cmd
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <alarm-name>",
		Short: "Show detection type, severity and recommendations for an alarm name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "alert-enricher %s\n", version)
		},
	}
}

func runEnrich(ctx context.Context, stdin io.Reader, out io.Writer) error {
	raw, err := readEvent(viper.GetString("file"), stdin)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var result domain.Result
	if addr := viper.GetString("server"); addr != "" {
		client, closeConn, err := dial(addr)
		if err != nil {
			return err
		}
		defer closeConn()

		result, err = client.EnrichAlert(ctx, raw)
		if err != nil {
			return fmt.Errorf("error calling enrichment API at %s: %w", addr, err)
		}
	} else {
		geoTimeout := config.Load().GeoTimeout
		geo := service.NewGeoContextProvider(geoip.NewIPAPILocator(geoTimeout), geoTimeout)
		result = service.NewPipeline(geo).Enrich(ctx, raw)
	}

	if err := printJSON(out, result); err != nil {
		return err
	}
	if !result.Succeeded() {
		return errEnrichmentFailed
	}
	return nil
}

func runClassify(ctx context.Context, out io.Writer, alarmName string) error {
	addr := viper.GetString("server")
	if addr == "" {
		return printJSON(out, domain.ClassifyAlarm(alarmName))
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	client, closeConn, err := dial(addr)
	if err != nil {
		return err
	}
	defer closeConn()

	classification, err := client.ClassifyAlarm(ctx, alarmName)
	if err != nil {
		return fmt.Errorf("error calling enrichment API at %s: %w", addr, err)
	}
	return printJSON(out, classification)
}

func readEvent(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("error reading stdin: %w", err)
		}
		return raw, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return raw, nil
}

func dial(addr string) (*handler.EnrichmentClient, func(), error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to enrichment API: %w", err)
	}
	return handler.NewEnrichmentClient(conn), func() { conn.Close() }, nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, viper.GetDuration("timeout"))
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
