package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/zx06/pwclip/internal/errors"
)

type statusLike struct {
	Backend  string         `json:"backend"`
	Settings map[string]any `json:"settings"`
	Notice   *string        `json:"notice,omitempty"`
}

func TestWriteOK_JSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatJSON, map[string]any{"k": "v"}); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.OK || env.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteError_JSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeCfgInvalid, "bad", map[string]any{"x": 1})
	if err := w.WriteError(FormatJSON, xe); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.OK || env.Error == nil || env.Error.Code != errors.CodeCfgInvalid {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteError_DoesNotExposeCause(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	cause := stderrors.New("dbus: secret hunter2 rejected")
	xe := errors.Wrap(errors.CodeKeyringWriteFailed, "keyring write failed", nil, cause)
	if err := w.WriteError(FormatJSON, xe); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "hunter2") {
		t.Errorf("error output must not include cause text, got: %s", out.String())
	}
}

func TestWriteOK_YAMLFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatYAML, map[string]any{"version": "1.0.0"}); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	if !strings.Contains(result, "ok: true") {
		t.Errorf("YAML should contain 'ok: true', got: %s", result)
	}
	if !strings.Contains(result, "version: 1.0.0") {
		t.Errorf("YAML should contain version, got: %s", result)
	}
}

func TestWriteOK_TableFlattensNested(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	data := statusLike{Backend: "keyring", Settings: map[string]any{"auto_clear": true, "auto_clear_secs": 20}}
	if err := w.WriteOK(FormatTable, data); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	for _, want := range []string{"data.backend", "keyring", "data.settings.auto_clear ", "data.settings.auto_clear_secs", "20"} {
		if !strings.Contains(result, want) {
			t.Errorf("table output missing %q:\n%s", want, result)
		}
	}
	if strings.Contains(result, "data.notice") {
		t.Errorf("omitempty field should not be rendered:\n%s", result)
	}
	// 键有序输出
	if strings.Index(result, "data.settings.auto_clear ") > strings.Index(result, "data.settings.auto_clear_secs") {
		t.Errorf("expected sorted keys:\n%s", result)
	}
}

func TestWriteError_TableFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeSecretNotFound, "no password saved yet", map[string]any{"hint": "pwclip set"})
	if err := w.WriteError(FormatTable, xe); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	for _, want := range []string{"ok", "false", "error.code", string(errors.CodeSecretNotFound), "error.details.hint", "pwclip set"} {
		if !strings.Contains(result, want) {
			t.Errorf("table output missing %q:\n%s", want, result)
		}
	}
}

func TestWriteOK_CSV(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatCSV, map[string]any{"backend": "memory", "has_password": false}); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	want := [][]string{
		{"ok", "true"},
		{"schema_version", "1"},
		{"data.backend", "memory"},
		{"data.has_password", "false"},
	}
	if len(records) != len(want) {
		t.Fatalf("records=%v want %v", records, want)
	}
	for i := range want {
		if records[i][0] != want[i][0] || records[i][1] != want[i][1] {
			t.Errorf("row %d = %v want %v", i, records[i], want[i])
		}
	}
}

func TestWriteOK_TableNilData(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "data") {
		t.Errorf("nil data should not render a data row: %q", out.String())
	}
}

func TestWrite_InvalidFormat(t *testing.T) {
	w := New(&bytes.Buffer{}, &bytes.Buffer{})
	err := w.WriteOK(Format("xml"), nil)
	if !errors.HasCode(err, errors.CodeCfgInvalid) {
		t.Fatalf("expected PWCLIP_CFG_INVALID, got %v", err)
	}
}

func TestIsValid(t *testing.T) {
	for _, f := range []Format{FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV} {
		if !IsValid(f) {
			t.Errorf("IsValid(%q) = false", f)
		}
	}
	if IsValid(Format("xml")) {
		t.Error("IsValid(xml) = true")
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		ok   bool
	}{
		{in: "", want: FormatAuto, ok: true},
		{in: " JSON ", want: FormatJSON, ok: true},
		{in: "Table", want: FormatTable, ok: true},
		{in: "xml", ok: false},
	}
	for _, tc := range cases {
		got, ok := ParseFormat(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseFormat(%q)=(%q,%v) want (%q,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	if len(Formats()) != 5 {
		t.Fatalf("Formats()=%v", Formats())
	}
}

func TestErrorEnvelope_Nil(t *testing.T) {
	env := ErrorEnvelope(nil)
	if env.OK || env.Error == nil || env.Error.Code != errors.CodeInternal {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}
