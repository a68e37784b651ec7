package core_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/entregaops/deliverypay/internal/core"
)

func waitForRun(t *testing.T, svc *core.Service, runID string) core.Run {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := svc.GetRun(runID)
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if run.Status == core.RunComplete || run.Status == core.RunFailed {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("run did not finish in time")
	return core.Run{}
}

func TestServiceStartRun(t *testing.T) {
	st := newFakeStore(pricingRows())
	svc := core.NewService(st, core.PipelineConfig{}, core.NewRunLimiter(2, time.Second), slog.Default())

	data := oldCSV(map[string]string{
		"data_entrega": "2025-03-05",
		"svc":          "CAP SP",
		"veiculo":      "Van",
		"hora_inicio":  "08:00",
	})

	runID, err := svc.StartRun(context.Background(), "export.csv", data)
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	run := waitForRun(t, svc, runID)
	if run.Status != core.RunComplete {
		t.Fatalf("run status = %q (error %q), want complete", run.Status, run.Error)
	}
	if run.Result == nil {
		t.Fatal("finished run has no result")
	}
	if run.Result.InsertedDeliveries != 1 || run.Result.InsertedPayments != 1 {
		t.Errorf("result = %+v, want 1 delivery and 1 payment", run.Result)
	}
	if run.FinishedAt == nil {
		t.Error("finished run has no FinishedAt")
	}
}

func TestServiceRunFailure(t *testing.T) {
	st := newFakeStore(pricingRows())
	st.failTable = core.TableDelivery
	svc := core.NewService(st, core.PipelineConfig{}, core.NewRunLimiter(2, time.Second), slog.Default())

	data := oldCSV(map[string]string{"data_entrega": "2025-03-05"})
	runID, err := svc.StartRun(context.Background(), "export.csv", data)
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	run := waitForRun(t, svc, runID)
	if run.Status != core.RunFailed {
		t.Fatalf("run status = %q, want failed", run.Status)
	}
	if run.Error == "" {
		t.Error("failed run has empty Error")
	}
	if run.Result != nil {
		t.Errorf("failed run has result %+v", run.Result)
	}
}

func TestServiceInvalidUpload(t *testing.T) {
	st := newFakeStore(pricingRows())
	svc := core.NewService(st, core.PipelineConfig{}, core.NewRunLimiter(2, time.Second), slog.Default())

	runID, err := svc.StartRun(context.Background(), "export.csv", []byte("data_entrega,svc\n"))
	if err != nil {
		t.Fatalf("StartRun() error = %v; validation happens inside the run", err)
	}

	run := waitForRun(t, svc, runID)
	if run.Status != core.RunFailed {
		t.Fatalf("run status = %q, want failed", run.Status)
	}
}

func TestServiceGetRunUnknown(t *testing.T) {
	st := newFakeStore(pricingRows())
	svc := core.NewService(st, core.PipelineConfig{}, nil, slog.Default())

	if _, err := svc.GetRun("nope"); !errors.Is(err, core.ErrRunNotFound) {
		t.Fatalf("GetRun(unknown) error = %v, want ErrRunNotFound", err)
	}
}

func TestServiceDrain(t *testing.T) {
	st := newFakeStore(pricingRows())
	svc := core.NewService(st, core.PipelineConfig{}, core.NewRunLimiter(1, time.Second), slog.Default())

	data := oldCSV(map[string]string{"data_entrega": "2025-03-05"})
	runID, err := svc.StartRun(context.Background(), "export.csv", data)
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	run := waitForRun(t, svc, runID)
	if run.Status != core.RunComplete {
		t.Errorf("run status after drain = %q, want complete", run.Status)
	}
}
