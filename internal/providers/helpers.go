package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/cassiomorais/paygate/internal/providers")

func startSpan(ctx context.Context, gateway, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, gateway+"."+op, trace.WithAttributes(
		attribute.String("gateway", gateway),
		attribute.String("gateway.operation", op),
	))
}

// finish must be deferred directly so that recover sees a panic raised by the
// adapter. A panic becomes an UNKNOWN_ERROR result.
func finish(gateway string, span trace.Span, res **Result) {
	if r := recover(); r != nil {
		*res = NewFailure(gateway, fmt.Sprintf("internal error: %v", r), CodeUnknown, nil)
	}
	if *res != nil {
		span.SetAttributes(attribute.String("unified_id", (*res).UnifiedID))
		if !(*res).Success {
			span.SetStatus(codes.Error, (*res).Error.Message)
			span.SetAttributes(attribute.String("error.code", (*res).Error.Code))
		}
	}
	span.End()
}

var (
	errAmountNotFinite  = errors.New("amount must be a finite number")
	errAmountBelowMinor = errors.New("amount is smaller than one minor currency unit")
	errAmountTooLarge   = errors.New("amount is too large")
	errAmountFractional = errors.New("amount must be a whole number of minor units")

	maxMinorUnits     = decimal.NewFromInt(math.MaxInt64)
	smallestMinorUnit = decimal.NewFromInt(1)
)

// minorUnits checks an amount that is already expressed in minor units. It
// must be a whole number.
func minorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, errAmountNotFinite
	}
	d := decimal.NewFromFloat(amount)
	if !d.IsInteger() {
		return 0, errAmountFractional
	}
	return boundedMinorUnits(d)
}

// toMinorUnits converts a major-unit amount (50.00) to minor units (5000),
// rounding to the nearest minor unit.
func toMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, errAmountNotFinite
	}
	return boundedMinorUnits(decimal.NewFromFloat(amount).Shift(2).Round(0))
}

func boundedMinorUnits(d decimal.Decimal) (int64, error) {
	if d.LessThan(smallestMinorUnit) {
		return 0, errAmountBelowMinor
	}
	if d.GreaterThan(maxMinorUnits) {
		return 0, errAmountTooLarge
	}
	return d.IntPart(), nil
}

// amountFailure reports a conversion error as a validation failure.
func amountFailure(gateway string, err error) *Result {
	return newValidationFailure(gateway, "Invalid amount: "+err.Error(), []string{err.Error()})
}

// fromMinorUnits converts minor units (5000) back to major units (50).
func fromMinorUnits(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}

func lowerCurrency(c string) string { return strings.ToLower(strings.TrimSpace(c)) }

func upperCurrency(c string) string { return strings.ToUpper(strings.TrimSpace(c)) }

// metadataValue flattens an arbitrary metadata value for providers that only
// accept string values.
func metadataValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
