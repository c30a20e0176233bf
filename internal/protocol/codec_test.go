package protocol

import (
	"math"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		checkFn func(t *testing.T, resp *Response)
	}{
		{
			name:  "full response",
			input: `{"success":true,"output":"done","duration_ms":12.4}`,
			checkFn: func(t *testing.T, resp *Response) {
				if resp.Success == nil || !*resp.Success {
					t.Error("want success=true")
				}
				if string(resp.Output) != `"done"` {
					t.Errorf("unexpected output: %s", resp.Output)
				}
				if resp.DurationMs == nil || *resp.DurationMs != 12.4 {
					t.Error("duration_ms not parsed")
				}
			},
		},
		{
			name:  "unknown fields tolerated",
			input: `{"output":"x","extra":{"a":1}}`,
			checkFn: func(t *testing.T, resp *Response) {
				if resp.Success != nil {
					t.Error("success should be absent")
				}
			},
		},
		{
			name:  "surrounding whitespace",
			input: "\n  {\"output\":\"x\"}\n",
		},
		{name: "empty input", input: ``, wantErr: true},
		{name: "plain text", input: `hello`, wantErr: true},
		{name: "json array", input: `[1,2]`, wantErr: true},
		{name: "json string", input: `"hi"`, wantErr: true},
		{name: "truncated object", input: `{"output":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.checkFn != nil {
				tt.checkFn(t, resp)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantStructured bool
		wantSuccess    bool
		wantOutput     string
		wantError      string
		wantDuration   *int64
	}{
		{
			name:           "structured success",
			input:          `{"success":true,"output":"X"}`,
			wantStructured: true,
			wantSuccess:    true,
			wantOutput:     "X",
		},
		{
			name:           "structured without success defaults to true",
			input:          `{"output":"X"}`,
			wantStructured: true,
			wantSuccess:    true,
			wantOutput:     "X",
		},
		{
			name:           "worker reports logical failure",
			input:          `{"success":false,"error":"no quests"}`,
			wantStructured: true,
			wantSuccess:    false,
			wantError:      "no quests",
		},
		{
			name:           "non-string output kept as compact json",
			input:          `{"output": {"files": [ "a.ts" ]}}`,
			wantStructured: true,
			wantSuccess:    true,
			wantOutput:     `{"files":["a.ts"]}`,
		},
		{
			name:           "duration rounded",
			input:          `{"output":"x","duration_ms":41.6}`,
			wantStructured: true,
			wantSuccess:    true,
			wantOutput:     "x",
			wantDuration:   ptr(int64(42)),
		},
		{
			name:           "negative duration ignored",
			input:          `{"output":"x","duration_ms":-5}`,
			wantStructured: true,
			wantSuccess:    true,
			wantOutput:     "x",
		},
		{
			name:           "out of range duration ignored",
			input:          `{"output":"x","duration_ms":1e20}`,
			wantStructured: true,
			wantSuccess:    true,
			wantOutput:     "x",
		},
		{
			name:        "plain text fallback",
			input:       "hello\n",
			wantSuccess: true,
			wantOutput:  "hello",
		},
		{
			name:        "broken json fallback keeps raw text",
			input:       `{"output": "unterminated`,
			wantSuccess: true,
			wantOutput:  `{"output": "unterminated`,
		},
		{
			name:        "empty stdout",
			input:       "",
			wantSuccess: true,
			wantOutput:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse([]byte(tt.input))
			if got.Structured != tt.wantStructured {
				t.Errorf("Structured = %v, want %v", got.Structured, tt.wantStructured)
			}
			if got.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", got.Success, tt.wantSuccess)
			}
			if got.Output != tt.wantOutput {
				t.Errorf("Output = %q, want %q", got.Output, tt.wantOutput)
			}
			if got.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", got.Error, tt.wantError)
			}
			switch {
			case tt.wantDuration == nil && got.DurationMs != nil:
				t.Errorf("DurationMs = %d, want nil", *got.DurationMs)
			case tt.wantDuration != nil && (got.DurationMs == nil || *got.DurationMs != *tt.wantDuration):
				t.Errorf("DurationMs = %v, want %d", got.DurationMs, *tt.wantDuration)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestValidDurationMs(t *testing.T) {
	tests := []struct {
		ms   float64
		want bool
	}{
		{0, true},
		{41.6, true},
		{1 << 62, true},
		{-1, false},
		{math.MaxInt64, false},
		{1e20, false},
		{math.Inf(1), false},
		{math.NaN(), false},
	}
	for _, tt := range tests {
		if got := validDurationMs(tt.ms); got != tt.want {
			t.Errorf("validDurationMs(%v) = %v, want %v", tt.ms, got, tt.want)
		}
	}
}
