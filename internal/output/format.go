package output

import "strings"

// Format 是输出格式；auto 在终端上解析为 table，否则为 json。
type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

var allFormats = []Format{FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV}

func IsValid(f Format) bool {
	for _, v := range allFormats {
		if f == v {
			return true
		}
	}
	return false
}

// ParseFormat 忽略大小写与首尾空白；空串视为 auto。
func ParseFormat(s string) (Format, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatAuto, true
	}
	f := Format(s)
	return f, IsValid(f)
}

// Formats 返回全部合法格式，用于帮助信息。
func Formats() []string {
	out := make([]string, 0, len(allFormats))
	for _, f := range allFormats {
		out = append(out, string(f))
	}
	return out
}
