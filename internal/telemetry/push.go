package telemetry

import (
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/saving-fee-updater/internal/model"
)

// PushRunReport exports the run's outcome to a Prometheus Pushgateway.
// The process exits after the run, so metrics are pushed rather than
// scraped. Export failures are logged by the caller and never change the
// exit code.
func PushRunReport(url string, report model.RunReport) error {
	registry := prometheus.NewRegistry()

	priceGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "saving_fee_price_usd",
		Help: "Native token USD price used for this run",
	})
	feeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "saving_fee_wei",
		Help: "Computed saving fee in wei",
	})
	chainSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "saving_fee_update_success",
		Help: "Whether the chain's fee update confirmed successfully (1/0)",
	}, []string{"chain"})
	chainDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "saving_fee_update_duration_seconds",
		Help: "Wall time spent updating the chain",
	}, []string{"chain"})
	runDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "saving_fee_run_duration_seconds",
		Help: "Total wall time of the run",
	})

	registry.MustRegister(priceGauge, feeGauge, chainSuccess, chainDuration, runDuration)

	priceGauge.Set(report.Quote.PriceUSD)
	if report.Quote.FeeWei != nil {
		fee, _ := new(big.Float).SetInt(report.Quote.FeeWei).Float64()
		feeGauge.Set(fee)
	}
	for _, result := range report.Results {
		success := 0.0
		if result.Succeeded {
			success = 1.0
		}
		chainSuccess.WithLabelValues(result.Chain).Set(success)
		chainDuration.WithLabelValues(result.Chain).Set(result.Elapsed.Seconds())
	}
	runDuration.Set(time.Since(report.Started).Seconds())

	logrus.Debugf("Pushing run metrics to %s", url)
	return push.New(url, "saving_fee_updater").
		Gatherer(registry).
		Push()
}
