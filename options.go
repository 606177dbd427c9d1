package treestate

import (
	"github.com/goliatone/go-treestate/pkg/activity"
	"github.com/goliatone/go-treestate/pkg/autosave"
	"github.com/goliatone/go-treestate/pkg/clipboard"
	"github.com/goliatone/go-treestate/pkg/logging"
	"github.com/goliatone/go-treestate/tree"
)

// Option configures a Controller.
type Option func(*optionsConfig)

type optionsConfig struct {
	confirmer      Confirmer
	views          []Views
	editor         Editor
	widget         Widget
	history        History
	autosave       *autosave.Persistence
	clipboard      clipboard.Clipboard
	logger         logging.Logger
	activityHooks  activity.Hooks
	activityConfig activity.Config
	actor          activity.EditorEventInput
	sessionID      string
	keyMap         *KeyMap
	toggle         func()
	evaluator      Evaluator
	programCache   ProgramCache
	functions      *FunctionRegistry
	initialRoot    *tree.Node
}

func applyOptions(opts []Option) optionsConfig {
	cfg := optionsConfig{
		activityConfig: activity.Config{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithConfirmer sets the collaborator asked before unsaved changes are
// discarded. Without one, resets of a dirty document are refused.
func WithConfirmer(confirmer Confirmer) Option {
	return func(cfg *optionsConfig) {
		cfg.confirmer = confirmer
	}
}

// WithViews appends views refreshed after resets and history steps.
func WithViews(views ...Views) Option {
	return func(cfg *optionsConfig) {
		for _, view := range views {
			if view != nil {
				cfg.views = append(cfg.views, view)
			}
		}
	}
}

// WithEditor sets the node editing widget.
func WithEditor(editor Editor) Option {
	return func(cfg *optionsConfig) {
		cfg.editor = editor
	}
}

// WithWidget sets the tree widget that receives every applied root.
func WithWidget(widget Widget) Option {
	return func(cfg *optionsConfig) {
		cfg.widget = widget
	}
}

// WithHistory sets the undo/redo capability.
func WithHistory(history History) Option {
	return func(cfg *optionsConfig) {
		cfg.history = history
	}
}

// WithAutosave sets the autosave persistence. Without one, autosave
// operations are no-ops.
func WithAutosave(persistence *autosave.Persistence) Option {
	return func(cfg *optionsConfig) {
		cfg.autosave = persistence
	}
}

// WithClipboard replaces the system clipboard.
func WithClipboard(cb clipboard.Clipboard) Option {
	return func(cfg *optionsConfig) {
		cfg.clipboard = cb
	}
}

// WithLogger attaches the logger used for recovered failures and query
// timings.
func WithLogger(logger logging.Logger) Option {
	return func(cfg *optionsConfig) {
		cfg.logger = logger
	}
}

// WithActivityHooks attaches activity hooks. Hooks are cloned and nil
// entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *optionsConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides emission defaults.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *optionsConfig) {
		cfg.activityConfig = config
	}
}

// WithActor stamps actor, user and tenant IDs on every activity event.
func WithActor(actorID, userID, tenantID string) Option {
	return func(cfg *optionsConfig) {
		cfg.actor.ActorID = actorID
		cfg.actor.UserID = userID
		cfg.actor.TenantID = tenantID
	}
}

// WithSessionID replaces the generated session ID.
func WithSessionID(id string) Option {
	return func(cfg *optionsConfig) {
		cfg.sessionID = id
	}
}

// WithKeyMap replaces DefaultKeyMap.
func WithKeyMap(keys KeyMap) Option {
	return func(cfg *optionsConfig) {
		cfg.keyMap = &keys
	}
}

// WithToggle sets the callback bound to the toggle key.
func WithToggle(toggle func()) Option {
	return func(cfg *optionsConfig) {
		cfg.toggle = toggle
	}
}

// WithEvaluator sets the query engine. The default is expr.
func WithEvaluator(evaluator Evaluator) Option {
	return func(cfg *optionsConfig) {
		cfg.evaluator = evaluator
	}
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *optionsConfig) {
		cfg.programCache = cache
	}
}

// WithInitialRoot sets the document the session starts with. The default is
// an empty object.
func WithInitialRoot(root *tree.Node) Option {
	return func(cfg *optionsConfig) {
		cfg.initialRoot = root
	}
}
