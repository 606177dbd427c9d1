package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/goliatone/go-treestate/tree"
)

type layoutSettings struct {
	Title   string   `json:"title"`
	Columns int      `json:"columns,omitempty"`
	Widgets []string `json:"widgets,omitempty"`
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name          string         `json:"name"`
	Document      string         `json:"document"`
	Options       []string       `json:"options"`
	PreHooks      []string       `json:"pre_hooks"`
	PostHooks     []string       `json:"post_hooks"`
	CustomDecoder string         `json:"custom_decoder"`
	Expect        layoutSettings `json:"expect"`
	ExpectErr     string         `json:"expect_err"`
}

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_layout.json")

	for _, tc := range fx.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			root, err := tree.ParseString(tc.Document)
			if err != nil {
				t.Fatalf("parse document: %v", err)
			}
			before := root.Clone()

			decoder := NewDecoder[layoutSettings](buildOptions(tc)...)
			result, err := decoder.Decode(Context{Asset: tc.Name}, root)

			if !tree.Equal(before, root) {
				t.Fatalf("decode mutated the document")
			}
			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded settings mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecodeNilDocument(t *testing.T) {
	_, err := NewDecoder[layoutSettings]().Decode(Context{Path: "/tmp/x.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "/tmp/x.json") {
		t.Fatalf("expected nil document error naming the path, got %v", err)
	}
}

func TestPostHookErrorIsWrapped(t *testing.T) {
	sentinel := errors.New("columns out of range")
	decoder := NewDecoder[layoutSettings](WithPostHook[layoutSettings](func(Context, *layoutSettings) error {
		return sentinel
	}))
	root := tree.Object(tree.Member("title", tree.Scalar("x")))

	_, err := decoder.Decode(Context{}, root)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped post-hook error, got %v", err)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[layoutSettings] {
	options := []DecoderOption[layoutSettings]{}

	for _, optName := range tc.Options {
		switch optName {
		case "use_number":
			options = append(options, WithUseNumber[layoutSettings]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[layoutSettings]())
		}
	}
	for _, hookName := range tc.PreHooks {
		if hookName == "split_widget_list" {
			options = append(options, WithPreHook[layoutSettings](splitWidgetList))
		}
	}
	for _, hookName := range tc.PostHooks {
		if hookName == "default_columns" {
			options = append(options, WithPostHook[layoutSettings](defaultColumns))
		}
	}
	if tc.CustomDecoder == "title_only" {
		options = append(options, WithCustomDecoder[layoutSettings](titleOnly))
	}
	return options
}

func splitWidgetList(_ Context, payload map[string]any) (map[string]any, error) {
	raw, ok := payload["widget_list"].(string)
	if !ok {
		return payload, nil
	}
	delete(payload, "widget_list")
	var widgets []any
	for _, part := range strings.Split(raw, ",") {
		widgets = append(widgets, strings.TrimSpace(part))
	}
	payload["widgets"] = widgets
	return payload, nil
}

func defaultColumns(_ Context, settings *layoutSettings) error {
	if settings.Columns == 0 {
		settings.Columns = 2
	}
	return nil
}

func titleOnly(_ Context, root *tree.Node) (layoutSettings, error) {
	title, ok := root.Child("title")
	if !ok {
		return layoutSettings{}, fmt.Errorf("missing title")
	}
	text, _ := title.Value.(string)
	return layoutSettings{Title: strings.ToUpper(text)}, nil
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("failed to locate fixture directory")
	}
	fixturePath := filepath.Join(filepath.Dir(filename), "..", "..", "testdata", name)
	raw, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", fixturePath, err)
	}
	var out fixture
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", fixturePath, err)
	}
	return out
}
