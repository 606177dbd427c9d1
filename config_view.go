package treestate

import (
	"github.com/goliatone/go-treestate/internal/hydrate"
	"github.com/goliatone/go-treestate/pkg/logging"
	"github.com/goliatone/go-treestate/tree"
)

// ConfigContext identifies the document handed to config hooks.
type ConfigContext = hydrate.Context

// ConfigViewOption configures a ConfigView.
type ConfigViewOption[T any] func(*configViewConfig[T])

type configViewConfig[T any] struct {
	decoderOpts []hydrate.DecoderOption[T]
	logger      logging.Logger
	context     ConfigContext
	preview     func()
	defaults    *tree.Node
}

// ConfigWithPreHook rewrites the raw object before it is decoded.
func ConfigWithPreHook[T any](hook func(ConfigContext, map[string]any) (map[string]any, error)) ConfigViewOption[T] {
	return func(cfg *configViewConfig[T]) {
		cfg.decoderOpts = append(cfg.decoderOpts, hydrate.WithPreHook[T](hook))
	}
}

// ConfigWithPostHook adjusts or validates the decoded value.
func ConfigWithPostHook[T any](hook func(ConfigContext, *T) error) ConfigViewOption[T] {
	return func(cfg *configViewConfig[T]) {
		cfg.decoderOpts = append(cfg.decoderOpts, hydrate.WithPostHook[T](hook))
	}
}

// ConfigStrict rejects documents with fields T does not declare.
func ConfigStrict[T any]() ConfigViewOption[T] {
	return func(cfg *configViewConfig[T]) {
		cfg.decoderOpts = append(cfg.decoderOpts, hydrate.WithDisallowUnknownFields[T]())
	}
}

// ConfigWithLogger attaches the logger used for decode failures.
func ConfigWithLogger[T any](logger logging.Logger) ConfigViewOption[T] {
	return func(cfg *configViewConfig[T]) {
		cfg.logger = logger
	}
}

// ConfigWithContext names the document in hook contexts and errors.
func ConfigWithContext[T any](ctx ConfigContext) ConfigViewOption[T] {
	return func(cfg *configViewConfig[T]) {
		cfg.context = ctx
	}
}

// ConfigWithDefaults layers the document over defaults before decoding, so
// members the document omits keep their default values.
func ConfigWithDefaults[T any](defaults *tree.Node) ConfigViewOption[T] {
	return func(cfg *configViewConfig[T]) {
		cfg.defaults = defaults.Clone()
	}
}

// ConfigWithPreview sets the callback run by RefreshPreview.
func ConfigWithPreview[T any](preview func()) ConfigViewOption[T] {
	return func(cfg *configViewConfig[T]) {
		cfg.preview = preview
	}
}

// ConfigView is a Views implementation that decodes the document into T and
// hands the result to apply whenever derived config is refreshed.
type ConfigView[T any] struct {
	source   RootSource
	apply    func(T)
	decoder  *hydrate.Decoder[T]
	logger   logging.Logger
	context  ConfigContext
	preview  func()
	defaults *tree.Node

	last    T
	decoded bool
}

// NewConfigView builds a view reading the document from source, usually
// the Controller itself.
func NewConfigView[T any](source RootSource, apply func(T), opts ...ConfigViewOption[T]) *ConfigView[T] {
	cfg := configViewConfig[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &ConfigView[T]{
		source:   source,
		apply:    apply,
		decoder:  hydrate.NewDecoder[T](cfg.decoderOpts...),
		logger:   logging.OrNop(cfg.logger),
		context:  cfg.context,
		preview:  cfg.preview,
		defaults: cfg.defaults,
	}
}

// RefreshPreview implements Views.
func (v *ConfigView[T]) RefreshPreview() {
	if v.preview != nil {
		v.preview()
	}
}

// RefreshDerivedConfig implements Views. A document that does not decode is
// logged and the previous value is kept.
func (v *ConfigView[T]) RefreshDerivedConfig() {
	var root *tree.Node
	if v.source != nil {
		root = v.source.Root()
	}
	if root != nil && v.defaults != nil {
		root = tree.MergeLayers(root, v.defaults)
	}
	value, err := v.decoder.Decode(v.context, root)
	if err != nil {
		v.logger.Log(logging.Event{
			Level:   logging.LevelWarn,
			Op:      "config.decode",
			Message: "could not derive config from document",
			Path:    v.context.Path,
			Err:     err,
		})
		return
	}
	v.last = value
	v.decoded = true
	if v.apply != nil {
		v.apply(value)
	}
}

// Current returns the last decoded value and whether one exists.
func (v *ConfigView[T]) Current() (T, bool) {
	return v.last, v.decoded
}
