// Package registry provides the in-memory Agent index: lookup by name,
// keyword, and free text, plus filesystem watching with a debounced
// rescan. The Registry is the sole authority over Agent records; every
// other component receives read-only handles (pointers to the stored
// records, which they must not mutate).
package registry

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/errs"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/loader"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/logging"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// InitResult mirrors loader.LoadResult; Registry.Init returns one so
// callers can report initial load errors without the registry exposing
// its loader dependency.
type InitResult struct {
	Agents         []*model.Agent
	Errors         []*errs.Error
	FilesProcessed int
}

// Registry is the in-memory, concurrency-safe Agent index.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*model.Agent

	loader      *loader.Loader
	projectRoot string
	loadOpts    loader.Options

	watcher   *watcher
	logger    *zap.Logger
	closeOnce sync.Once
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithLoadOptions sets the loader.Options used by Init and reload passes.
func WithLoadOptions(opts loader.Options) Option {
	return func(r *Registry) { r.loadOpts = opts }
}

// New creates a Registry bound to projectRoot. A nil logger defaults to a
// no-op logger.
func New(projectRoot string, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		agents:      make(map[string]*model.Agent),
		loader:      loader.New(logger),
		projectRoot: projectRoot,
		logger:      logging.OrDefault(logger).With(zap.String("component", "agent_registry")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init populates the registry from the Loader and starts the hot-reload
// watcher over every directory in the loader's search order. It returns
// the same {agents, errors, filesProcessed} shape the Loader produces.
func (r *Registry) Init() *InitResult {
	result := r.loader.LoadAgents(r.projectRoot, r.loadOpts)

	r.mu.Lock()
	for _, a := range result.Agents {
		r.agents[a.Name] = a
	}
	r.mu.Unlock()

	r.watcher = newWatcher(r.logger, r.rescan, r.watchedDirs())
	r.watcher.start()

	return &InitResult{Agents: result.Agents, Errors: result.Errors, FilesProcessed: result.FilesProcessed}
}

// rescan implements the hot-reload protocol of §4.2 for a single watched
// directory: it lists what is currently on disk, unregisters agents whose
// file is gone, and re-loads every file found, registering on success and
// unregistering on failure. If the directory itself is gone, every agent
// sourced from it is unregistered.
func (r *Registry) rescan(dir string) {
	files, err := loader.ListAgentFiles(dir)
	if err != nil {
		r.unregisterByPathPrefix(dir)
		return
	}

	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}

	r.mu.Lock()
	for name, a := range r.agents {
		if strings.HasPrefix(a.FilePath, dir) && !present[a.FilePath] {
			delete(r.agents, name)
		}
	}
	r.mu.Unlock()

	for _, path := range files {
		if err := r.ReloadFile(path); err != nil {
			r.logger.Debug("hot-reload failed for file", zap.String("path", path), zap.Error(err))
		}
	}
}

func (r *Registry) watchedDirs() []string {
	dirs := []string{filepath.Join(r.projectRoot, ".pk", "agents")}
	if r.loadOpts.IncludeGlobal && r.loadOpts.UserHome != "" {
		dirs = append(dirs, filepath.Join(r.loadOpts.UserHome, ".pk", "agents"))
	}
	dirs = append(dirs, r.loadOpts.ExtraPaths...)
	return dirs
}

// Get returns the agent registered under name, if any.
func (r *Registry) Get(name string) (*model.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// List returns every registered agent, sorted by name so that callers
// ranking agents get the same order for the same registry state.
func (r *Registry) List() []*model.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Find returns agents whose keywords match any of the given keywords by
// substring, in either direction, case-insensitively.
func (r *Registry) Find(keywords []string) []*model.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Agent
	for _, a := range r.agents {
		if keywordsOverlapSubstring(a.Keywords, keywords) {
			out = append(out, a)
		}
	}
	return out
}

// FindByExactKeywords returns agents that have an exact (case-insensitive)
// match for at least one of the given keywords.
func (r *Registry) FindByExactKeywords(keywords []string) []*model.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Agent
	for _, a := range r.agents {
		for _, k := range keywords {
			if a.HasKeyword(k) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// SearchText returns agents whose name, description, or any keyword
// contains q, case-insensitively.
func (r *Registry) SearchText(q string) []*model.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ql := strings.ToLower(q)
	var out []*model.Agent
	for _, a := range r.agents {
		if strings.Contains(strings.ToLower(a.Name), ql) ||
			strings.Contains(strings.ToLower(a.Description), ql) {
			out = append(out, a)
			continue
		}
		for _, k := range a.Keywords {
			if strings.Contains(strings.ToLower(k), ql) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Register adds or overwrites the agent under its Name.
func (r *Registry) Register(a *model.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Name] = a
}

// Unregister removes the agent registered under name, if any.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, name)
}

// Clear removes every registered agent.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[string]*model.Agent)
}

// Size returns the number of registered agents.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Reload re-scans every configured directory from scratch and applies
// collision resolution, same as Init but without restarting the watcher.
func (r *Registry) Reload() *InitResult {
	result := r.loader.LoadAgents(r.projectRoot, r.loadOpts)

	fresh := make(map[string]*model.Agent, len(result.Agents))
	for _, a := range result.Agents {
		fresh[a.Name] = a
	}

	r.mu.Lock()
	r.agents = fresh
	r.mu.Unlock()

	return &InitResult{Agents: result.Agents, Errors: result.Errors, FilesProcessed: result.FilesProcessed}
}

// ReloadFile re-parses a single agent file and registers it on success.
// On failure, any previously-loaded agent whose FilePath equals path is
// unregistered, matching the "unregister on failed reload" decision.
func (r *Registry) ReloadFile(path string) *errs.Error {
	agent, loadErr := r.loader.LoadAgentFile(path)
	if loadErr != nil {
		r.unregisterByPath(path)
		return loadErr
	}
	agent.Source = r.sourceForPath(path)
	r.Register(agent)
	return nil
}

// sourceForPath classifies path by which watched directory contains it,
// matching the project/global distinction assigned during the initial
// load.
func (r *Registry) sourceForPath(path string) model.Source {
	if r.loadOpts.IncludeGlobal && r.loadOpts.UserHome != "" {
		if strings.HasPrefix(path, filepath.Join(r.loadOpts.UserHome, ".pk", "agents")) {
			return model.SourceGlobal
		}
	}
	return model.SourceProject
}

func (r *Registry) unregisterByPath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, a := range r.agents {
		if a.FilePath == path {
			delete(r.agents, name)
		}
	}
}

// unregisterByPathPrefix removes every agent whose FilePath starts with
// prefix, used when a watched directory disappears entirely.
func (r *Registry) unregisterByPathPrefix(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, a := range r.agents {
		if strings.HasPrefix(a.FilePath, prefix) {
			delete(r.agents, name)
		}
	}
}

// Dispose stops the watcher and releases its debounce timers. Safe to
// call multiple times.
func (r *Registry) Dispose() {
	r.closeOnce.Do(func() {
		if r.watcher != nil {
			r.watcher.stop()
		}
	})
}

func keywordsOverlapSubstring(have, want []string) bool {
	for _, h := range have {
		hl := strings.ToLower(h)
		for _, w := range want {
			wl := strings.ToLower(w)
			if strings.Contains(hl, wl) || strings.Contains(wl, hl) {
				return true
			}
		}
	}
	return false
}
