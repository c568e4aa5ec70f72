package providers

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// GenerateUnifiedID returns unified_<gateway>_<base36 millis>_<5 random chars>.
// The id is for tracing only; nothing looks payments up by it.
func GenerateUnifiedID(gateway string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	id := uuid.New()
	// the top bit keeps the base36 form longer than five digits
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(id[8:])|1<<63, 36)
	return fmt.Sprintf("unified_%s_%s_%s", gateway, ts, suffix[len(suffix)-5:])
}

// NewSuccess wraps a provider payload in the success envelope.
func NewSuccess(gateway string, payload any) *Result {
	return &Result{
		Success:         true,
		Gateway:         gateway,
		GatewayResponse: payload,
		Timestamp:       time.Now().UTC(),
		UnifiedID:       GenerateUnifiedID(gateway),
	}
}

// NewFailure builds the error envelope. An empty code becomes UNKNOWN_ERROR.
func NewFailure(gateway, message, code string, details any) *Result {
	if code == "" {
		code = CodeUnknown
	}
	return &Result{
		Success: false,
		Gateway: gateway,
		Error: &ErrorDetail{
			Message: message,
			Code:    code,
			Details: details,
		},
		Timestamp: time.Now().UTC(),
		UnifiedID: GenerateUnifiedID(gateway),
	}
}

func newValidationFailure(gateway, message string, details any) *Result {
	return NewFailure(gateway, message, CodeValidation, details)
}
