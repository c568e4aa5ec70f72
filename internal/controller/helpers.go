package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	domainErrors "github.com/cassiomorais/paygate/internal/domain/errors"
	"github.com/cassiomorais/paygate/internal/providers"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies, webhooks included.
const maxBodyBytes = 1 << 20

// stripeResourceMissing is Stripe's code for an unknown object id.
const stripeResourceMissing = "resource_missing"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrGatewayNotSupported, http.StatusNotFound, "gateway_not_supported"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "validation_error",
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			writeJSON(w, m.status, ErrorResponse{Error: err.Error(), Code: m.code})
			return
		}
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  "internal_error",
	})
}

// writeResult sends the unified envelope with a status derived from its
// error code.
func writeResult(w http.ResponseWriter, res *providers.Result, okStatus int) {
	writeJSON(w, resultStatus(res, okStatus), res)
}

func resultStatus(res *providers.Result, okStatus int) int {
	if res.Success {
		return okStatus
	}
	switch res.ErrorCode() {
	case providers.CodeValidation:
		return http.StatusBadRequest
	case providers.CodeGatewayUnavailable:
		return http.StatusServiceUnavailable
	case providers.CodeUnknown:
		return http.StatusBadGateway
	case providers.CodeNotFound, stripeResourceMissing:
		return http.StatusNotFound
	default:
		return http.StatusPaymentRequired
	}
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return domainErrors.NewValidationError(fe.Field(), fmt.Sprintf("validation failed on '%s'", fe.Tag()))
		}
		return domainErrors.NewValidationError("body", err.Error())
	}

	return nil
}
