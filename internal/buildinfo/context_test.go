package buildinfo

import "testing"

func TestContextGetVersion(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{name: "nil context", ctx: nil, want: "unknown"},
		{name: "empty version", ctx: &Context{BuildDate: "2023-01-01", SystemID: "test-system"}, want: "unknown"},
		{name: "valid version", ctx: &Context{Version: "1.0.0"}, want: "1.0.0"},
		{name: "pre-release tag", ctx: &Context{Version: "1.0.0-beta.1"}, want: "1.0.0-beta.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctx.GetVersion(); got != tt.want {
				t.Errorf("GetVersion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextGetBuildDate(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{name: "nil context", ctx: nil, want: "unknown"},
		{name: "empty build date", ctx: &Context{Version: "1.0.0"}, want: "unknown"},
		{name: "valid build date", ctx: &Context{BuildDate: "2023-01-01T12:00:00Z"}, want: "2023-01-01T12:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctx.GetBuildDate(); got != tt.want {
				t.Errorf("GetBuildDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextGetSystemID(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{name: "nil context", ctx: nil, want: "unknown"},
		{name: "empty system ID", ctx: &Context{Version: "1.0.0"}, want: "unknown"},
		{name: "valid system ID", ctx: &Context{SystemID: "550e8400-e29b-41d4-a716-446655440000"}, want: "550e8400-e29b-41d4-a716-446655440000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctx.GetSystemID(); got != tt.want {
				t.Errorf("GetSystemID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextImplementsBuildInfo(t *testing.T) {
	var _ BuildInfo = (*Context)(nil)

	ctx := &Context{Version: "1.0.0", BuildDate: "2023-01-01", SystemID: "test-system"}
	var info BuildInfo = ctx

	if got := info.GetVersion(); got != "1.0.0" {
		t.Errorf("GetVersion() = %v, want %v", got, "1.0.0")
	}
	if got := info.GetBuildDate(); got != "2023-01-01" {
		t.Errorf("GetBuildDate() = %v, want %v", got, "2023-01-01")
	}
	if got := info.GetSystemID(); got != "test-system" {
		t.Errorf("GetSystemID() = %v, want %v", got, "test-system")
	}
}

func TestContextEdgeCases(t *testing.T) {
	t.Run("all fields empty", func(t *testing.T) {
		ctx := &Context{}
		if got := ctx.GetVersion(); got != "unknown" {
			t.Errorf("GetVersion() = %v, want unknown", got)
		}
		if got := ctx.GetBuildDate(); got != "unknown" {
			t.Errorf("GetBuildDate() = %v, want unknown", got)
		}
		if got := ctx.GetSystemID(); got != "unknown" {
			t.Errorf("GetSystemID() = %v, want unknown", got)
		}
	})

	t.Run("whitespace is preserved, not treated as empty", func(t *testing.T) {
		ctx := &Context{Version: " ", BuildDate: "\t", SystemID: "\n"}
		if got := ctx.GetVersion(); got != " " {
			t.Errorf("GetVersion() = %q, want %q", got, " ")
		}
		if got := ctx.GetBuildDate(); got != "\t" {
			t.Errorf("GetBuildDate() = %q, want %q", got, "\t")
		}
		if got := ctx.GetSystemID(); got != "\n" {
			t.Errorf("GetSystemID() = %q, want %q", got, "\n")
		}
	})
}

func TestNewValidationResult(t *testing.T) {
	result := NewValidationResult()

	if !result.Valid {
		t.Error("NewValidationResult() should create a valid result")
	}
	if result.HasIssues() {
		t.Error("NewValidationResult() should not have issues initially")
	}
	if len(result.Warnings) != 0 || len(result.Errors) != 0 {
		t.Errorf("NewValidationResult() should start with no warnings or errors")
	}
}

func TestValidationResultAddWarning(t *testing.T) {
	result := NewValidationResult()

	result.AddWarning("test warning")
	if !result.HasIssues() {
		t.Error("should have issues after adding a warning")
	}
	if !result.Valid {
		t.Error("should still be valid after a warning")
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != "test warning" {
		t.Errorf("Warnings = %v, want [test warning]", result.Warnings)
	}
}

func TestValidationResultAddError(t *testing.T) {
	result := NewValidationResult()

	result.AddError("test error")
	if !result.HasIssues() {
		t.Error("should have issues after adding an error")
	}
	if result.Valid {
		t.Error("should not be valid after an error")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "test error" {
		t.Errorf("Errors = %v, want [test error]", result.Errors)
	}
}

func TestValidationResultHasIssues(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(*ValidationResult)
		want      bool
	}{
		{name: "no issues", setupFunc: func(r *ValidationResult) {}, want: false},
		{name: "with warning", setupFunc: func(r *ValidationResult) { r.AddWarning("w") }, want: true},
		{name: "with error", setupFunc: func(r *ValidationResult) { r.AddError("e") }, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewValidationResult()
			tt.setupFunc(result)
			if got := result.HasIssues(); got != tt.want {
				t.Errorf("HasIssues() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkContextGetVersion(b *testing.B) {
	ctx := &Context{Version: "1.0.0", BuildDate: "2023-01-01", SystemID: "test-system"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ctx.GetVersion()
	}
}

func BenchmarkContextGetVersionNil(b *testing.B) {
	var ctx *Context
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ctx.GetVersion()
	}
}
