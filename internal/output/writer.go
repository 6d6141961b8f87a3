package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/zx06/pwclip/internal/errors"
)

type Writer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, err io.Writer) Writer {
	return Writer{Out: out, Err: err}
}

func (w Writer) WriteOK(format Format, data any) error {
	return w.write(format, OKEnvelope(data))
}

func (w Writer) WriteError(format Format, xe *errors.XError) error {
	return w.write(format, ErrorEnvelope(xe))
}

func (w Writer) write(format Format, env Envelope) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w.Out)
		enc.SetEscapeHTML(false)
		return enc.Encode(env)
	case FormatYAML:
		b, err := yaml.Marshal(env)
		if err != nil {
			return err
		}
		_, err = w.Out.Write(b)
		if err != nil {
			return err
		}
		if len(b) == 0 || b[len(b)-1] != '\n' {
			_, _ = w.Out.Write([]byte("\n"))
		}
		return nil
	case FormatTable:
		return writeTable(w.Out, env)
	case FormatCSV:
		return writeCSV(w.Out, env)
	default:
		return errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": string(format)})
	}
}

// rows 把 envelope 展平成有序的 key/value 行；嵌套对象用 "a.b" 表示。
func rows(env Envelope) [][2]string {
	out := [][2]string{
		{"ok", fmt.Sprintf("%v", env.OK)},
		{"schema_version", fmt.Sprintf("%d", env.SchemaVersion)},
	}
	if env.OK {
		if env.Data != nil {
			out = appendFlattened(out, "data", env.Data)
		}
		return out
	}
	if env.Error != nil {
		out = append(out,
			[2]string{"error.code", string(env.Error.Code)},
			[2]string{"error.message", env.Error.Message},
		)
		if len(env.Error.Details) > 0 {
			out = appendFlattened(out, "error.details", env.Error.Details)
		}
	}
	return out
}

func appendFlattened(out [][2]string, prefix string, v any) [][2]string {
	// 先经 JSON 归一化，保证 struct tag 与 JSON 输出一致
	b, err := json.Marshal(v)
	if err != nil {
		return append(out, [2]string{prefix, fmt.Sprintf("%v", v)})
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return append(out, [2]string{prefix, string(b)})
	}
	return flatten(out, prefix, generic)
}

func flatten(out [][2]string, prefix string, v any) [][2]string {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return append(out, [2]string{prefix, "{}"})
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = flatten(out, prefix+"."+k, t[k])
		}
		return out
	case []any:
		b, _ := json.Marshal(t)
		return append(out, [2]string{prefix, string(b)})
	case nil:
		return append(out, [2]string{prefix, ""})
	case float64:
		return append(out, [2]string{prefix, strconv.FormatFloat(t, 'f', -1, 64)})
	default:
		return append(out, [2]string{prefix, fmt.Sprintf("%v", t)})
	}
}

func writeTable(out io.Writer, env Envelope) error {
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	for _, r := range rows(env) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

func writeCSV(out io.Writer, env Envelope) error {
	cw := csv.NewWriter(out)
	for _, r := range rows(env) {
		_ = cw.Write([]string{r[0], r[1]})
	}
	cw.Flush()
	return cw.Error()
}
