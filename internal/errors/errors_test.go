package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewFromRegistry(t *testing.T) {
	err := New("B101")
	if err.Category != CategoryRender {
		t.Errorf("Category = %s, want %s", err.Category, CategoryRender)
	}
	if err.Message != "Unknown component" {
		t.Errorf("Message = %q, want %q", err.Message, "Unknown component")
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("B999")
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q, want %q", err.Message, "Unknown error")
	}
}

func TestErrorString(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("B100").WithDetail("component Counter").Wrap(cause)

	want := "B100: Render function failed: component Counter: boom"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New("B200").WithDetail("button"))
	if !stderrors.Is(err, New("B200")) {
		t.Error("errors.Is should match on code")
	}
	if stderrors.Is(err, New("B201")) {
		t.Error("errors.Is should not match a different code")
	}
	if got := CodeOf(err); got != "B200" {
		t.Errorf("CodeOf = %q, want B200", got)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "B100") != nil {
		t.Error("FromError(nil) should be nil")
	}

	existing := New("B150")
	if got := FromError(fmt.Errorf("wrap: %w", existing), "B100"); got != existing {
		t.Error("FromError should return the *Error already in the chain")
	}

	plain := stderrors.New("plain")
	got := FromError(plain, "B100")
	if got.Code != "B100" || got.Wrapped != plain {
		t.Errorf("FromError = %+v, want code B100 wrapping plain", got)
	}
}

func TestFormatPlain(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("B101").
		WithDetail(`component "Counter" is not known to its owner`).
		WithSuggestion("Register the type").
		Format()

	for _, want := range []string{"ERROR B101: Unknown component", `component "Counter"`, "Hint: Register the type"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("aaa bbb ccc ddd", 7)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2: %q", len(lines), lines)
	}
	if lines[0] != "aaa bbb" || lines[1] != "ccc ddd" {
		t.Errorf("lines = %q", lines)
	}
}

func TestRegister(t *testing.T) {
	Register("B998", Template{Category: CategoryCLI, Message: "custom"})
	tpl, ok := GetTemplate("B998")
	if !ok || tpl.Message != "custom" {
		t.Errorf("GetTemplate = %+v, %v", tpl, ok)
	}
}

func TestRegistryRanges(t *testing.T) {
	ranges := []struct {
		lo, hi   int
		category Category
	}{
		{100, 149, CategoryRender},
		{150, 199, CategoryLifecycle},
		{200, 249, CategoryTemplate},
		{300, 349, CategoryConfig},
		{400, 449, CategoryCLI},
	}
	byCategory := map[Category][]string{}
	for code, tpl := range registry {
		var n int
		if _, err := fmt.Sscanf(code, "B%d", &n); err != nil {
			t.Errorf("malformed code %q", code)
			continue
		}
		if n >= 900 {
			continue
		}
		found := false
		for _, r := range ranges {
			if n >= r.lo && n <= r.hi {
				found = true
				if tpl.Category != r.category {
					t.Errorf("%s: category %s, want %s", code, tpl.Category, r.category)
				}
			}
		}
		if !found {
			t.Errorf("%s outside every category range", code)
		}
		byCategory[tpl.Category] = append(byCategory[tpl.Category], code)
	}
	if got := byCategory[CategoryLifecycle]; len(got) != 1 || got[0] != "B150" {
		t.Errorf("lifecycle codes = %v, want [B150]", got)
	}
}
