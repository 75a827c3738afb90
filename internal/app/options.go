package app

import (
	"context"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/KenzieRafa/TST-Reservation-API/internal/app"

type settings struct {
	logger      *zap.Logger
	tracer      trace.Tracer
	policy      domain.RefundPolicy
	waitlistTTL time.Duration
	ids         IDGenerator
}

func newSettings(opts []Option) settings {
	s := settings{
		logger:      zap.NewNop(),
		tracer:      otel.Tracer(tracerName),
		policy:      domain.DefaultRefundPolicy(),
		waitlistTTL: domain.DefaultWaitlistTTL,
		ids:         randomIDs{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures any of the services; options a service does not use are ignored.
type Option func(*settings)

func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithRefundPolicy overrides the cancellation refund rule. Invalid policies are ignored.
func WithRefundPolicy(p domain.RefundPolicy) Option {
	return func(s *settings) {
		if p.Validate() == nil {
			s.policy = p
		}
	}
}

// WithWaitlistTTL overrides how long new waitlist entries stay eligible.
func WithWaitlistTTL(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.waitlistTTL = d
		}
	}
}

func WithIDGenerator(g IDGenerator) Option {
	return func(s *settings) {
		if g != nil {
			s.ids = g
		}
	}
}

func (s settings) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
