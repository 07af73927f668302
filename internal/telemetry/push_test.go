package telemetry

import (
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/saving-fee-updater/internal/model"
)

func testReport() model.RunReport {
	return model.RunReport{
		Quote: model.NewFeeQuote("coingecko", 2000, big.NewInt(500000000000000)),
		Results: []model.ChainResult{
			{Chain: "base", Succeeded: true, Elapsed: 3 * time.Second},
			{Chain: "celo", Err: errors.New("rpc down"), Elapsed: time.Second},
		},
		Started: time.Now().Add(-5 * time.Second),
	}
}

func TestPushRunReport(t *testing.T) {
	var path string
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := PushRunReport(srv.URL, testReport()); err != nil {
		t.Fatalf("PushRunReport error = %v", err)
	}

	if !strings.Contains(path, "saving_fee_updater") {
		t.Errorf("push path = %s, want job name in it", path)
	}
	for _, metric := range []string{
		"saving_fee_price_usd",
		"saving_fee_wei",
		"saving_fee_update_success",
		"saving_fee_run_duration_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("pushed body missing %s", metric)
		}
	}
}

func TestPushRunReportUnreachable(t *testing.T) {
	if err := PushRunReport("http://127.0.0.1:1", testReport()); err == nil {
		t.Error("expected error for unreachable pushgateway")
	}
}
