// Package hydrate decodes edited JSON trees into typed configuration structs
// for the views that derive settings from the document.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-treestate/tree"
)

// Context identifies the document being hydrated.
type Context struct {
	Asset string
	Path  string
}

func (c Context) label() string {
	if c.Asset != "" {
		return c.Asset
	}
	if c.Path != "" {
		return c.Path
	}
	return "document"
}

// PreHook lets callers mutate or normalise an object payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the hydrated struct after decoding.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default JSON decoding when provided.
type CustomDecoder[T any] func(Context, *tree.Node) (T, error)

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts document trees into strongly typed structs.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
	custom       CustomDecoder[T]
}

// WithPreHook applies hook prior to decoding. Pre-hooks require an object
// root.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithUseNumber enables json.Decoder.UseNumber during decoding.
func WithUseNumber[T any]() DecoderOption[T] {
	return WithDecoderConfig[T](func(dec *json.Decoder) {
		dec.UseNumber()
	})
}

// WithDisallowUnknownFields invokes json.Decoder.DisallowUnknownFields.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return WithDecoderConfig[T](func(dec *json.Decoder) {
		dec.DisallowUnknownFields()
	})
}

// WithDecoderConfig allows callers to configure the json.Decoder directly.
func WithDecoderConfig[T any](configure func(*json.Decoder)) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if configure != nil {
			d.configureDec = append(d.configureDec, configure)
		}
	}
}

// WithCustomDecoder replaces the default JSON decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts root into T applying configured hooks. root is never
// mutated.
func (d *Decoder[T]) Decode(ctx Context, root *tree.Node) (T, error) {
	var zero T

	if root == nil {
		return zero, fmt.Errorf("hydrate: document is nil for %q", ctx.label())
	}

	var (
		result T
		err    error
	)
	if d.custom != nil {
		result, err = d.custom(ctx, root.Clone())
		if err != nil {
			return zero, fmt.Errorf("hydrate: custom decoder for %q failed: %w", ctx.label(), err)
		}
	} else {
		buffer, err := d.payload(ctx, root)
		if err != nil {
			return zero, err
		}
		decoder := json.NewDecoder(bytes.NewReader(buffer))
		for _, configure := range d.configureDec {
			configure(decoder)
		}
		if err := decoder.Decode(&result); err != nil {
			return zero, fmt.Errorf("hydrate: decode %q: %w", ctx.label(), err)
		}
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx.label(), err)
		}
	}

	return result, nil
}

func (d *Decoder[T]) payload(ctx Context, root *tree.Node) ([]byte, error) {
	buffer, err := tree.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("hydrate: marshal %q: %w", ctx.label(), err)
	}
	if len(d.preHooks) == 0 {
		return buffer, nil
	}
	if root.Kind != tree.KindObject {
		return nil, fmt.Errorf("hydrate: pre-hooks for %q need an object root, got %s", ctx.label(), root.Kind)
	}

	current := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(buffer))
	dec.UseNumber()
	if err := dec.Decode(&current); err != nil {
		return nil, fmt.Errorf("hydrate: clone payload for %q: %w", ctx.label(), err)
	}
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx.label(), err)
		}
		if next != nil {
			current = next
		}
	}
	buffer, err = json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("hydrate: marshal payload for %q: %w", ctx.label(), err)
	}
	return buffer, nil
}
