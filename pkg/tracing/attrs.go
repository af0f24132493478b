package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func withScenarioID(scenarioID string) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("evalcore.scenario_id", scenarioID))
}

func withTaskIndex(taskIndex int) trace.SpanStartOption {
	return trace.WithAttributes(attribute.Int("evalcore.task_index", taskIndex))
}

func withActionIndex(actionIndex int) trace.SpanStartOption {
	return trace.WithAttributes(attribute.Int("evalcore.action_index", actionIndex))
}
