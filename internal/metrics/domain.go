package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DomainMetrics counts the business events the dashboards care about.
type DomainMetrics struct {
	studentRegistrations  metric.Int64Counter
	projectsCreated       metric.Int64Counter
	projectsDeleted       metric.Int64Counter
	applicationsSubmitted metric.Int64Counter
	applicationsAccepted  metric.Int64Counter
	messagesPosted        metric.Int64Counter
	accessDenied          metric.Int64Counter
}

func NewDomainMetrics(meter metric.Meter) (*DomainMetrics, error) {
	dm := &DomainMetrics{}

	var err error

	dm.studentRegistrations, err = meter.Int64Counter(
		"students.registrations",
		metric.WithDescription("Student registrations"),
		metric.WithUnit("{registration}"),
	)
	if err != nil {
		return nil, err
	}

	dm.projectsCreated, err = meter.Int64Counter(
		"projects.created",
		metric.WithDescription("Projects created"),
		metric.WithUnit("{project}"),
	)
	if err != nil {
		return nil, err
	}

	dm.projectsDeleted, err = meter.Int64Counter(
		"projects.deleted",
		metric.WithDescription("Projects deleted (owner or admin)"),
		metric.WithUnit("{project}"),
	)
	if err != nil {
		return nil, err
	}

	dm.applicationsSubmitted, err = meter.Int64Counter(
		"applications.submitted",
		metric.WithDescription("Project applications submitted"),
		metric.WithUnit("{application}"),
	)
	if err != nil {
		return nil, err
	}

	dm.applicationsAccepted, err = meter.Int64Counter(
		"applications.accepted",
		metric.WithDescription("Project applications accepted into a team"),
		metric.WithUnit("{application}"),
	)
	if err != nil {
		return nil, err
	}

	dm.messagesPosted, err = meter.Int64Counter(
		"messages.posted",
		metric.WithDescription("Team chat messages posted"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	dm.accessDenied, err = meter.Int64Counter(
		"access.denied",
		metric.WithDescription("Requests rejected by the access control checks"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return dm, nil
}

func (dm *DomainMetrics) RecordStudentRegistration(ctx context.Context) {
	if dm == nil || dm.studentRegistrations == nil {
		return
	}
	dm.studentRegistrations.Add(ctx, 1)
}

func (dm *DomainMetrics) RecordProjectCreated(ctx context.Context) {
	if dm == nil || dm.projectsCreated == nil {
		return
	}
	dm.projectsCreated.Add(ctx, 1)
}

func (dm *DomainMetrics) RecordProjectDeleted(ctx context.Context, byAdmin bool) {
	if dm == nil || dm.projectsDeleted == nil {
		return
	}
	dm.projectsDeleted.Add(ctx, 1, metric.WithAttributes(attribute.Bool("admin", byAdmin)))
}

func (dm *DomainMetrics) RecordApplicationSubmitted(ctx context.Context) {
	if dm == nil || dm.applicationsSubmitted == nil {
		return
	}
	dm.applicationsSubmitted.Add(ctx, 1)
}

func (dm *DomainMetrics) RecordApplicationAccepted(ctx context.Context) {
	if dm == nil || dm.applicationsAccepted == nil {
		return
	}
	dm.applicationsAccepted.Add(ctx, 1)
}

func (dm *DomainMetrics) RecordMessagePosted(ctx context.Context) {
	if dm == nil || dm.messagesPosted == nil {
		return
	}
	dm.messagesPosted.Add(ctx, 1)
}

func (dm *DomainMetrics) RecordAccessDenied(ctx context.Context, operation string) {
	if dm == nil || dm.accessDenied == nil {
		return
	}
	dm.accessDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
