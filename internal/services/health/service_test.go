package health

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/goleak"
)

func TestStatusWithoutChecks(t *testing.T) {
	report := NewService().Status(context.Background())
	if !report.OK || report.Checks != nil {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestStatusReportsFailingCheck(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := NewService().
		Add("db", func(context.Context) error { return nil }).
		Add("redis", func(context.Context) error { return errors.New("connection refused") }).
		Add("ignored", nil)

	report := svc.Status(context.Background())
	if report.OK {
		t.Fatal("expected report to fail")
	}
	if report.Checks["db"] != "ok" || report.Checks["redis"] != "connection refused" {
		t.Fatalf("unexpected checks %+v", report.Checks)
	}
	if _, ok := report.Checks["ignored"]; ok {
		t.Fatal("nil check should not be registered")
	}
}
