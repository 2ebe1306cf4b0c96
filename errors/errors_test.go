package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{New(ErrCodeInvalidInput, "bad", http.StatusBadRequest), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{New(ErrCodeAcceleratorBusy, "busy", http.StatusServiceUnavailable), ErrCodeAcceleratorBusy, http.StatusServiceUnavailable, true},
		{ServiceUnavailable("api"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{Timeout("run"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{GateTimeout(time.Second), ErrCodeAcceleratorBusy, http.StatusServiceUnavailable, true},
		{MissingField("audio"), ErrCodeMissingField, http.StatusBadRequest, false},
		{PayloadTooLarge(10), ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge, false},
		{AudioDecode(nil), ErrCodeAudioDecode, http.StatusUnprocessableEntity, false},
		{InitializationFailed("whisper", nil), ErrCodeInitialization, http.StatusServiceUnavailable, false},
		{Pipeline("transcribe", nil), ErrCodePipeline, http.StatusInternalServerError, false},
		{ExternalServiceError("pyannote", nil), ErrCodeExternalService, http.StatusBadGateway, true},
		{Validation("bad input"), ErrCodeInvalidInput, http.StatusBadRequest, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if tc.err.Code != tc.code || tc.err.HTTPStatus != tc.status || tc.err.Retryable != tc.retryable {
				t.Errorf("got %s/%d/%v, want %s/%d/%v",
					tc.err.Code, tc.err.HTTPStatus, tc.err.Retryable, tc.code, tc.status, tc.retryable)
			}
		})
	}
}

func TestPipelineErrorNamesStage(t *testing.T) {
	cause := stderrors.New("corrupt buffer")
	err := Pipeline("transcribe", cause)

	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}
	if stage, ok := StageOf(fmt.Errorf("run: %w", err)); !ok || stage != "transcribe" {
		t.Errorf("StageOf = %q, %v", stage, ok)
	}
	if got := err.ToResponse().Error.Details["stage"]; got != "transcribe" {
		t.Errorf("response stage = %v", got)
	}

	for _, other := range []error{Timeout("run"), stderrors.New("plain")} {
		if _, ok := StageOf(other); ok {
			t.Errorf("StageOf(%v) should find nothing", other)
		}
	}
}

func TestDetails(t *testing.T) {
	if got := GateTimeout(1500 * time.Millisecond).Details["waited_ms"]; got != int64(1500) {
		t.Errorf("waited_ms = %v", got)
	}
	if got := InvalidInput("max_speakers", "too small").Details["field"]; got != "max_speakers" {
		t.Errorf("field = %v", got)
	}
	if _, ok := InvalidInput("", "bad").Details["field"]; ok {
		t.Error("empty field should not be recorded")
	}

	e := &AppError{}
	e.WithDetail("k", "v").WithDetail("k", "w")
	if e.Details["k"] != "w" {
		t.Errorf("WithDetail on a nil map: %v", e.Details)
	}
}

func TestCauseChain(t *testing.T) {
	cause := stderrors.New("root cause")
	err := ServiceUnavailable("whisper").WithCause(cause)
	if err.Unwrap() != cause || !strings.Contains(err.Error(), "root cause") {
		t.Errorf("cause lost: %v", err)
	}
	if MissingField("audio").Unwrap() != nil {
		t.Error("no cause should unwrap to nil")
	}
}

func TestMatching(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", AudioDecode(nil))
	if !IsCode(wrapped, ErrCodeAudioDecode) || IsCode(wrapped, ErrCodeTimeout) {
		t.Error("IsCode should match only the wrapped code")
	}
	if IsCode(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("IsCode matched a plain error")
	}

	got, ok := AsAppError(fmt.Errorf("wrap: %w", Internal(nil)))
	if !ok || got.Code != ErrCodeInternal {
		t.Errorf("AsAppError = %v, %v", got, ok)
	}
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("AsAppError accepted a plain error")
	}
}

func TestStatusFor(t *testing.T) {
	if StatusFor(ErrCodeAcceleratorBusy) != http.StatusServiceUnavailable {
		t.Error("ACCELERATOR_BUSY should map to 503")
	}
	if StatusFor("NOT_A_CODE") != http.StatusInternalServerError {
		t.Error("unknown codes should map to 500")
	}
}
