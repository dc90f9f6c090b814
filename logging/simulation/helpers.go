package simulation

import (
	"context"

	"motion-arena/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when a room's step exceeds its tick budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventCommandBackpressure is emitted when the command queue rejects input.
	EventCommandBackpressure logging.EventType = "simulation.command_backpressure"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// BackpressurePayload records a queue rejection.
type BackpressurePayload struct {
	Reason string `json:"reason"`
	Count  uint64 `json:"count"`
}

// TickBudgetOverrun publishes a warning when a step exceeds the configured budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, room logging.EntityRef, payload TickBudgetOverrunPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Actor:    room,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	})
}

// CommandBackpressure publishes a warning when an actor's input is throttled.
func CommandBackpressure(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BackpressurePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCommandBackpressure,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	})
}
