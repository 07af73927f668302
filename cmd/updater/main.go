// Package main is the entry point for the saving-fee updater, a run-once
// maintenance tool that pins a contract's saving fee to a fixed USD value
// across every configured chain.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/saving-fee-updater/internal/config"
	"github.com/yourorg/saving-fee-updater/internal/fee"
	"github.com/yourorg/saving-fee-updater/internal/model"
	"github.com/yourorg/saving-fee-updater/internal/price"
	"github.com/yourorg/saving-fee-updater/internal/signer"
	"github.com/yourorg/saving-fee-updater/internal/submit"
	"github.com/yourorg/saving-fee-updater/internal/telemetry"
	"github.com/yourorg/saving-fee-updater/internal/validation"
)

// main is the entry point for the application
func main() {
	// Secrets and chain settings may come from a local .env, like the
	// deployment this tool replaces
	_ = godotenv.Load()

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Configuration error: %v", err)
	}

	shutdown := telemetry.InitTracer(cfg.OtelEndpoint)
	defer shutdown()

	if err := run(context.Background(), cfg); err != nil {
		shutdown()
		logrus.Fatalf("Run aborted: %v", err)
	}
}

// run executes the pipeline: fetch price, derive fee, update every chain.
// A returned error is fatal; per-chain failures are only logged and never
// surface here, so the process still exits 0 after a completed loop.
func run(ctx context.Context, cfg config.Config) error {
	started := time.Now()
	ctx, span := telemetry.Tracer().Start(ctx, "saving-fee-update")
	defer span.End()

	priceUSD, err := price.New(cfg).Fetch(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}

	quoteOpts := validation.QuoteOptions{
		MinPrice: cfg.MinPriceUSD,
		MaxPrice: cfg.MaxPriceUSD,
	}
	if err := validation.ValidateQuote(priceUSD, quoteOpts); err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("implausible price quote: %w", err)
	}

	feeWei, err := fee.UsdToWei(cfg.TargetUSD, priceUSD)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	quote := model.NewFeeQuote(cfg.PriceProvider, priceUSD, feeWei)

	logrus.WithFields(logrus.Fields{
		"provider":  quote.Provider,
		"price_usd": quote.PriceUSD,
		"fee_wei":   quote.FeeWei,
	}).Infof("ETH price: $%v, saving fee: %s wei (~$%v)", quote.PriceUSD, quote.FeeWei, cfg.TargetUSD)

	sig, err := signer.FromHex(cfg.Credentials.PrivateKeyHex)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	if derived := sig.Address(); derived != cfg.Credentials.AccountAddress {
		logrus.Warnf("ACCOUNT_ADDRESS %s does not match key-derived address %s; nonces will be looked up for the configured address",
			cfg.Credentials.AccountAddress.Hex(), derived.Hex())
	}

	span.SetAttributes(
		attribute.Float64("price.usd", quote.PriceUSD),
		attribute.String("fee.wei", quote.FeeWei.String()),
		attribute.Int("chains", len(cfg.Chains)),
	)

	submitter := submit.New(sig, cfg.Credentials.AccountAddress, submit.Options{
		GasLimit:       cfg.GasLimit,
		ReceiptTimeout: cfg.ReceiptTimeout,
		DryRun:         cfg.DryRun,
	})
	results := submitter.UpdateAll(ctx, cfg.Chains, feeWei)

	report := model.RunReport{Quote: quote, Results: results, Started: started}
	logSummary(report)

	if cfg.PushgatewayURL != "" {
		if err := telemetry.PushRunReport(cfg.PushgatewayURL, report); err != nil {
			logrus.Warnf("Metrics push failed: %v", err)
		}
	}

	return nil
}

// logSummary prints one line per chain plus the run totals.
func logSummary(report model.RunReport) {
	for _, result := range report.Results {
		log := logrus.WithField("chain", result.Chain)
		switch {
		case result.Failed():
			log.Errorf("FAILED: %v", result.Err)
		case result.DryRun:
			log.Infof("DRY RUN: signed tx %s, not broadcast", result.TxHash.Hex())
		case result.Succeeded:
			log.Infof("OK: tx %s confirmed in block %d (gas used %d)",
				result.TxHash.Hex(), result.BlockNumber, result.GasUsed)
		default:
			log.Warnf("REVERTED: tx %s in block %d", result.TxHash.Hex(), result.BlockNumber)
		}
	}

	logrus.WithFields(logrus.Fields{
		"chains":  len(report.Results),
		"failed":  report.FailedCount(),
		"elapsed": time.Since(report.Started).Round(time.Millisecond),
	}).Info("Run complete")
}
