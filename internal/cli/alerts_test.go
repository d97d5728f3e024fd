package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/todo/internal/observability"
)

type alertsMock struct {
	alerts []observability.Alert
	err    error
}

func (m *alertsMock) Evaluate() ([]observability.Alert, error) {
	return m.alerts, m.err
}

// runAlerts runs alertsCmd against engine with the given flag values.
func runAlerts(t *testing.T, engine observability.AlertEngine, asJSON bool, minSeverity string) (string, error) {
	t.Helper()
	orig, origJSON, origMin := AlertEngine, alertsJSON, alertsMinSeverity
	t.Cleanup(func() { AlertEngine, alertsJSON, alertsMinSeverity = orig, origJSON, origMin })
	AlertEngine, alertsJSON, alertsMinSeverity = engine, asJSON, minSeverity

	var buf bytes.Buffer
	alertsCmd.SetOut(&buf)
	t.Cleanup(func() { alertsCmd.SetOut(nil) })

	err := alertsCmd.RunE(alertsCmd, nil)
	return buf.String(), err
}

func sampleAlerts() []observability.Alert {
	now := time.Now().UTC()
	return []observability.Alert{
		{Condition: "task_overdue", Severity: observability.SeverityHigh, Message: `Task "Buy milk" is overdue`, TriggeredAt: now},
		{Condition: "task_due_soon", Severity: observability.SeverityMedium, Message: `Task "Pay rent" is due soon`, TriggeredAt: now},
		{Condition: "too_many_active", Severity: observability.SeverityLow, Message: "25 active tasks", TriggeredAt: now},
	}
}

func TestAlertsCmd_NilEngine(t *testing.T) {
	_, err := runAlerts(t, nil, false, "low")
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}

func TestAlertsCmd_NoAlerts(t *testing.T) {
	out, err := runAlerts(t, &alertsMock{}, false, "low")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "No active alerts." {
		t.Errorf("output = %q", out)
	}
}

func TestAlertsCmd_WithAlerts(t *testing.T) {
	out, err := runAlerts(t, &alertsMock{alerts: sampleAlerts()}, false, "low")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"3 active alert(s)", "HIGH", "is overdue", "task_due_soon", "25 active tasks"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAlertsCmd_MinSeverity(t *testing.T) {
	tests := []struct {
		floor string
		want  int
	}{
		{"high", 1},
		{"MEDIUM", 2},
		{"low", 3},
		{"", 3},
	}
	for _, tt := range tests {
		t.Run(tt.floor, func(t *testing.T) {
			out, err := runAlerts(t, &alertsMock{alerts: sampleAlerts()}, false, tt.floor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := fmt.Sprintf("%d active alert(s)", tt.want); !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		})
	}

	if _, err := runAlerts(t, &alertsMock{}, false, "urgent"); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestAlertsCmd_EvaluateError(t *testing.T) {
	_, err := runAlerts(t, &alertsMock{err: fmt.Errorf("event log read error")}, false, "low")
	if err == nil || !strings.Contains(err.Error(), "evaluating alerts") {
		t.Errorf("expected wrapped evaluate error, got %v", err)
	}
}

func TestAlertsCmd_JSON(t *testing.T) {
	out, err := runAlerts(t, &alertsMock{}, true, "low")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("expected empty JSON array, got %q", out)
	}

	out, err = runAlerts(t, &alertsMock{alerts: sampleAlerts()}, true, "high")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"condition": "task_overdue"`) || strings.Contains(out, "too_many_active") {
		t.Errorf("unexpected JSON:\n%s", out)
	}
}
