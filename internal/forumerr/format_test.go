package forumerr

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestFormatForCLIIncludesKindAndCode(t *testing.T) {
	err := StoreBusy("busy_timeout exceeded", nil)
	out := FormatForCLI(err)
	if !strings.Contains(out, "StoreBusy") || !strings.Contains(out, err.Code) {
		t.Errorf("expected CLI output to include kind and code, got: %s", out)
	}
}

func TestFormatForCLIWrapsPlainError(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))
	if !strings.Contains(out, "boom") {
		t.Errorf("expected wrapped message, got: %s", out)
	}
}

func TestFormatJSONRoundTrips(t *testing.T) {
	err := IndexMissing("shard r_golang active version missing on disk", nil)
	data, marshalErr := FormatJSON(err)
	if marshalErr != nil {
		t.Fatalf("FormatJSON failed: %v", marshalErr)
	}

	var decoded jsonError
	if unmarshalErr := json.Unmarshal(data, &decoded); unmarshalErr != nil {
		t.Fatalf("failed to decode: %v", unmarshalErr)
	}
	if decoded.Kind != string(KindIndexMissing) {
		t.Errorf("expected kind %s, got %s", KindIndexMissing, decoded.Kind)
	}
}

func TestFormatForLogIncludesDetails(t *testing.T) {
	err := InvalidInput("query too long").WithDetail("max_length", "500")
	log := FormatForLog(err)
	if log["detail_max_length"] != "500" {
		t.Errorf("expected detail in log map, got: %+v", log)
	}
	if log["error_kind"] != string(KindInvalidInput) {
		t.Errorf("expected error_kind in log map, got: %+v", log)
	}
}
