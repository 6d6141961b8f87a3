package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/pwclip/internal/app"
	"github.com/zx06/pwclip/internal/config"
	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/output"
)

// CopyInput represents the input for the copy_password tool
type CopyInput struct {
	TimeoutSecs *int  `json:"timeout_secs,omitempty"`
	AutoClear   *bool `json:"auto_clear,omitempty"`
}

// UpdateSettingsInput represents the input for the update_settings tool
type UpdateSettingsInput struct {
	AutoClear     *bool `json:"auto_clear,omitempty"`
	AutoClearSecs *int  `json:"auto_clear_secs,omitempty"`
}

// ToolHandler manages MCP tools
type ToolHandler struct {
	ctrl *app.Controller
}

// NewToolHandler creates a new tool handler
func NewToolHandler(ctrl *app.Controller) *ToolHandler {
	return &ToolHandler{ctrl: ctrl}
}

func bound(v float64) *float64 { return &v }

// timeoutSchema 描述超时参数；范围与设置校验一致。
func timeoutSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Description: description,
		Minimum:     bound(config.MinAutoClearSecs),
		Maximum:     bound(config.MaxAutoClearSecs),
	}
}

func copyInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"timeout_secs": timeoutSchema("Seconds before the clipboard is cleared (defaults to saved setting)"),
			"auto_clear": {
				Type:        "boolean",
				Description: "Clear the clipboard after the timeout (defaults to saved setting)",
			},
		},
	}
}

func settingsInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"auto_clear": {
				Type:        "boolean",
				Description: "Enable or disable clipboard auto-clear",
			},
			"auto_clear_secs": timeoutSchema("Auto-clear timeout in seconds"),
		},
	}
}

// RegisterTools registers all tools with the MCP server.
// The password itself is never returned by any tool.
func (h *ToolHandler) RegisterTools(server *mcp.Server) {
	mcp.AddTool[struct{}, any](server, &mcp.Tool{
		Name:        "status",
		Description: "Show storage backend, whether a password is saved, settings and clipboard timer state",
	}, h.Status)

	server.AddTool(&mcp.Tool{
		Name:        "copy_password",
		Description: "Copy the saved password to the system clipboard",
		InputSchema: copyInputSchema(),
	}, h.copyHandler)

	mcp.AddTool[struct{}, any](server, &mcp.Tool{
		Name:        "clear_clipboard",
		Description: "Clear the clipboard immediately and cancel any pending auto-clear",
	}, h.ClearClipboard)

	mcp.AddTool[struct{}, any](server, &mcp.Tool{
		Name:        "forget_password",
		Description: "Remove the saved password and clear the clipboard",
	}, h.ForgetPassword)

	mcp.AddTool[struct{}, any](server, &mcp.Tool{
		Name:        "get_settings",
		Description: "Show persisted auto-clear settings",
	}, h.GetSettings)

	server.AddTool(&mcp.Tool{
		Name:        "update_settings",
		Description: "Update and persist auto-clear settings",
		InputSchema: settingsInputSchema(),
	}, h.updateSettingsHandler)
}

// decodeArgs unmarshals raw tool arguments; absent arguments decode to the zero value
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// copyHandler is the raw handler for copy_password tool
func (h *ToolHandler) copyHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input CopyInput
	if err := decodeArgs(req.Params.Arguments, &input); err != nil {
		return h.errorResult(errors.Wrap(errors.CodeCfgInvalid, "invalid input", nil, err)), nil
	}
	result, _, err := h.CopyPassword(ctx, req, input)
	return result, err
}

// updateSettingsHandler is the raw handler for update_settings tool
func (h *ToolHandler) updateSettingsHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input UpdateSettingsInput
	if err := decodeArgs(req.Params.Arguments, &input); err != nil {
		return h.errorResult(errors.Wrap(errors.CodeCfgInvalid, "invalid input", nil, err)), nil
	}
	result, _, err := h.UpdateSettings(ctx, req, input)
	return result, err
}

// Status reports controller state
func (h *ToolHandler) Status(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	return h.okResult(h.ctrl.Status()), nil, nil
}

// CopyPassword copies the saved password to the clipboard
func (h *ToolHandler) CopyPassword(ctx context.Context, req *mcp.CallToolRequest, input CopyInput) (*mcp.CallToolResult, any, error) {
	res, xe := h.ctrl.Copy(app.CopyOptions{
		CLI: config.Overrides{AutoClear: input.AutoClear, AutoClearSecs: input.TimeoutSecs},
	})
	if xe != nil {
		return h.errorResult(xe), nil, nil
	}
	return h.okResult(res), nil, nil
}

// ClearClipboard clears the clipboard now
func (h *ToolHandler) ClearClipboard(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	if xe := h.ctrl.ClearClipboard(); xe != nil {
		return h.errorResult(xe), nil, nil
	}
	return h.okResult(map[string]any{"clipboard_cleared": true}), nil, nil
}

// ForgetPassword removes the saved password
func (h *ToolHandler) ForgetPassword(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	res, xe := h.ctrl.ClearPassword()
	if xe != nil {
		return h.errorResult(xe), nil, nil
	}
	return h.okResult(res), nil, nil
}

// GetSettings returns cached settings
func (h *ToolHandler) GetSettings(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	return h.okResult(map[string]any{
		"settings_path": h.ctrl.SettingsPath(),
		"settings":      h.ctrl.Settings(),
	}), nil, nil
}

// UpdateSettings persists new settings
func (h *ToolHandler) UpdateSettings(ctx context.Context, req *mcp.CallToolRequest, input UpdateSettingsInput) (*mcp.CallToolResult, any, error) {
	if input.AutoClear == nil && input.AutoClearSecs == nil {
		return h.errorResult(errors.New(errors.CodeCfgInvalid, "at least one of auto_clear, auto_clear_secs is required", nil)), nil, nil
	}
	st, xe := h.ctrl.UpdateSettings(config.Overrides{AutoClear: input.AutoClear, AutoClearSecs: input.AutoClearSecs})
	if xe != nil {
		return h.errorResult(xe), nil, nil
	}
	return h.okResult(map[string]any{"settings": st}), nil, nil
}

// okResult wraps data in the standard envelope
func (h *ToolHandler) okResult(data any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(output.OKEnvelope(data), "", "  ")
	if err != nil {
		return h.errorResult(errors.Wrap(errors.CodeInternal, "failed to marshal result", nil, err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonData)},
		},
	}
}

// errorResult formats an error as an MCP tool error
func (h *ToolHandler) errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: h.formatError(err)},
		},
	}
}

// formatError formats an error as JSON
func (h *ToolHandler) formatError(err error) string {
	var xe *errors.XError
	if err != nil {
		xe = errors.AsOrWrap(err)
	}
	jsonData, _ := json.MarshalIndent(output.ErrorEnvelope(xe), "", "  ")
	return string(jsonData)
}

// CreateServer creates a new MCP server with pwclip tools
func CreateServer(version string, ctrl *app.Controller) (*mcp.Server, error) {
	if ctrl == nil {
		return nil, errors.New(errors.CodeInternal, "controller is nil", nil)
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pwclip",
		Version: version,
	}, nil)

	handler := NewToolHandler(ctrl)
	handler.RegisterTools(server)

	return server, nil
}
