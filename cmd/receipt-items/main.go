package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/time/rate"

	"github.com/zombor/receipt-items/internal/document"
	"github.com/zombor/receipt-items/internal/limiter"
	"github.com/zombor/receipt-items/internal/otel"
	"github.com/zombor/receipt-items/internal/receipt"
	"github.com/zombor/receipt-items/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-items")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dbPath         = fs.StringLong("db", "receipt-items.db", "Job database file path")
		region         = fs.StringLong("region", "", "AWS region (defaults to the SDK configuration)")
		inputBucket    = fs.StringLong("input-bucket", "", "S3 bucket for uploaded receipts (uploads disabled when empty)")
		outputBucket   = fs.StringLong("output-bucket", "", "S3 bucket for item records (local output when empty)")
		outputDir      = fs.StringLong("output-dir", "./records", "Local directory for item records")
		currency       = fs.StringLong("currency", "EUR", "Currency code written with every item")
		heuristicsPath = fs.StringLong("heuristics", "", "YAML file overriding ignored products and store names")
		snsTopicARN    = fs.StringLong("sns-topic-arn", "", "SNS topic notified when an analysis completes")
		roleARN        = fs.StringLong("role-arn", "", "IAM role allowed to publish to the SNS topic")
		rateLimit      = fs.Float64Long("rate", 0, "Maximum analysis API calls per second (0 disables limiting)")
		telemetry      = fs.BoolLong("telemetry", "Export traces and metrics over OTLP")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		interpretPath  = fs.StringLong("interpret", "", "Interpret a saved analysis JSON file, print records and exit")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_ITEMS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	heuristics := receipt.DefaultHeuristics()
	if *heuristicsPath != "" {
		var err error
		heuristics, err = receipt.LoadHeuristics(*heuristicsPath)
		if err != nil {
			slog.Error("Failed to load heuristics", "path", *heuristicsPath, "error", err)
			os.Exit(1)
		}
	}

	if *interpretPath != "" {
		if err := interpret(*interpretPath, heuristics, *currency); err != nil {
			slog.Error("Failed to interpret analysis", "path", *interpretPath, "error", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()

	if *telemetry {
		shutdown, err := otel.Setup(ctx, "receipt-items", version)
		if err != nil {
			slog.Error("Failed to initialize telemetry", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				slog.Warn("Failed to flush telemetry", "error", err)
			}
		}()
	}

	// Initialize AWS configuration
	var awsOpts []func(*awsconfig.LoadOptions) error
	if *region != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(*region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		slog.Error("Failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize scanner
	slog.Info("Initializing Textract scanner...", "region", awsCfg.Region, "sns_topic_arn", *snsTopicARN)
	var scanner scanning.Scanner = scanning.NewTextract(awsCfg, scanning.TextractOptions{
		SNSTopicARN: *snsTopicARN,
		RoleARN:     *roleARN,
	})
	if *rateLimit > 0 {
		scanner = limiter.NewScanner(rate.NewLimiter(rate.Limit(*rateLimit), 1), scanner)
	}
	scanner = otel.NewScanner("textract", scanner)
	defer scanner.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	var inputs receipt.Storage
	if *inputBucket != "" {
		inputs = receipt.NewS3Storage(awsCfg, *inputBucket)
	}

	var outputs receipt.Storage
	if *outputBucket != "" {
		s3Outputs := receipt.NewS3Storage(awsCfg, *outputBucket)
		slog.Info("Writing records to S3", "bucket", s3Outputs.Bucket())
		outputs = s3Outputs
	} else {
		outputs, err = receipt.NewLocalStorage(*outputDir)
		if err != nil {
			slog.Error("Failed to initialize storage", "error", err)
			os.Exit(1)
		}
	}

	// Initialize service
	receiptService := receipt.NewService(db, scanner, inputs, outputs, receipt.Options{
		InputBucket: *inputBucket,
		Currency:    *currency,
		Heuristics:  heuristics,
	})

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// interpret prints the records of a saved analysis response as NDJSON
func interpret(path string, heuristics receipt.Heuristics, currency string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading analysis: %w", err)
	}

	var analysis struct {
		Blocks []document.Block `json:"Blocks"`
	}
	if err := json.Unmarshal(data, &analysis); err != nil {
		return fmt.Errorf("decoding analysis: %w", err)
	}

	result, err := heuristics.Interpret(analysis.Blocks)
	if err != nil {
		return err
	}

	records, _, err := receipt.BuildRecords(result, currency)
	if err != nil {
		return err
	}

	slog.Info("Receipt interpreted",
		"store", result.Info.Store,
		"items", len(records),
		"ignored", result.Stats.Ignored,
		"unparsable", result.Stats.Unparsable,
		"corrected", result.Stats.Corrected,
		"discarded", result.Stats.Discarded,
	)
	return receipt.EncodeRecords(os.Stdout, records)
}
