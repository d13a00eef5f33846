package tools

import (
	"regexp"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

// ToolTypeFunction is the type of the tool definitions sent to the model
const ToolTypeFunction = "function"

var validName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Entry is a registered tool
type Entry struct {
	Name   string
	Tool   ITool
	Schema *jsonschema.Schema
}

// Registry is a name-indexed set of tools, safe for concurrent use.
// The definitions are returned in the registration order.
type Registry struct {
	lock    sync.RWMutex
	entries map[string]*Entry
	names   []string
}

// NewRegistry returns a registry with the tools
func NewRegistry(list ...ITool) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]*Entry),
	}
	if err := r.Add(list...); err != nil {
		return nil, err
	}
	return r, nil
}

// Add registers the tools by their names
func (r *Registry) Add(list ...ITool) error {
	for _, tool := range list {
		if tool == nil {
			return errors.Mark(errors.New("tool is nil"), chatmodel.ErrConfiguration)
		}
		if err := r.Register(tool.Name(), tool); err != nil {
			return err
		}
	}
	return nil
}

// Register adds the tool with the name.
// Registering a name again replaces the tool, and keeps its position.
func (r *Registry) Register(name string, tool ITool) error {
	if !validName.MatchString(name) {
		return errors.Mark(errors.Newf("invalid tool name %q: must match %s", name, validName.String()), chatmodel.ErrConfiguration)
	}
	if tool == nil {
		return errors.Mark(errors.Newf("tool %s is nil", name), chatmodel.ErrConfiguration)
	}
	params := tool.Parameters()
	if params == nil || params.Type != "object" {
		return errors.Mark(errors.Newf("tool %s: parameters must be an object schema", name), chatmodel.ErrConfiguration)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*Entry)
	}
	if _, ok := r.entries[name]; ok {
		logger.KV(xlog.DEBUG, "reason", "replaced", "tool", name)
	} else {
		r.names = append(r.names, name)
	}
	r.entries[name] = &Entry{
		Name:   name,
		Tool:   tool,
		Schema: params,
	}
	return nil
}

// Lookup returns the registered tool
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the names of the registered tools
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return slices.Clone(r.names)
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.names)
}

// Tools returns the registered tools
func (r *Registry) Tools() []ITool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	list := make([]ITool, 0, len(r.names))
	for _, name := range r.names {
		list = append(list, r.entries[name].Tool)
	}
	return list
}

// Definitions returns the tool definitions to advertise to the model
func (r *Registry) Definitions() []llms.Tool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if len(r.names) == 0 {
		return nil
	}
	defs := make([]llms.Tool, 0, len(r.names))
	for _, name := range r.names {
		e := r.entries[name]
		defs = append(defs, llms.Tool{
			Type: ToolTypeFunction,
			Function: &llms.FunctionDefinition{
				Name:        e.Name,
				Description: e.Tool.Description(),
				Parameters:  e.Schema,
			},
		})
	}
	return defs
}
