// Package loader discovers, parses, and validates agent definitions from
// markdown files with structured front-matter, returning validated Agent
// records or typed LoadErrors. It never panics or propagates ambient
// errors across its public surface; a single bad file is aggregated into
// the Errors slice of the returned LoadResult.
package loader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/errs"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/logging"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// agentFileExts are the only extensions the loader considers.
var agentFileExts = map[string]bool{".md": true, ".markdown": true}

// ListAgentFiles returns the sorted, full paths of every agent file
// currently present in dir. Used by the registry's rescan loop to compute
// the on-disk agent-file set for a watched directory.
func ListAgentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if agentFileExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// Options configures a load pass. All fields are optional.
type Options struct {
	// UserHome, when non-empty and IncludeGlobal is true, is scanned for
	// <UserHome>/.pk/agents as a global (source=global) agent directory.
	UserHome      string
	IncludeGlobal bool

	// ExtraPaths are additional project-sourced directories to scan, in
	// order, after the project and (optional) global directories.
	ExtraPaths []string
}

// LoadResult is the aggregate outcome of a load pass: every agent that
// validated, every error encountered along the way, and how many files
// were examined.
type LoadResult struct {
	Agents        []*model.Agent
	Errors        []*errs.Error
	FilesProcessed int
}

// Loader discovers and parses agent definition files.
type Loader struct {
	logger *zap.Logger
}

// New creates a Loader. A nil logger defaults to a no-op logger.
func New(logger *zap.Logger) *Loader {
	return &Loader{logger: logging.OrDefault(logger).With(zap.String("component", "agent_loader"))}
}

// scanDir is one directory to scan together with the Source to assign to
// any agent found in it.
type scanDir struct {
	path   string
	source model.Source
}

// LoadAgents scans the deterministic search order for projectRoot and
// returns every validated Agent plus every error encountered. Collision
// resolution (project beats global, else first-encountered wins) is
// applied once all directories have been scanned.
func (l *Loader) LoadAgents(projectRoot string, opts Options) *LoadResult {
	dirs := l.searchOrder(projectRoot, opts)

	result := &LoadResult{}
	var ordered []*model.Agent
	var batchErr error

	for _, d := range dirs {
		entries, err := os.ReadDir(d.path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			batchErr = multierr.Append(batchErr, errs.Wrap(errs.KindFileError, "cannot read agent directory", err).WithPath(d.path))
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if agentFileExts[strings.ToLower(filepath.Ext(e.Name()))] {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			path := filepath.Join(d.path, name)
			result.FilesProcessed++
			agent, loadErr := l.LoadAgentFile(path)
			if loadErr != nil {
				batchErr = multierr.Append(batchErr, loadErr)
				l.logger.Debug("agent file failed to load", zap.String("path", path), zap.Error(loadErr))
				continue
			}
			agent.Source = d.source
			ordered = append(ordered, agent)
		}
	}

	// Every appended failure is always a *errs.Error, so the split-back
	// below never drops one to a plain error.
	for _, e := range multierr.Errors(batchErr) {
		if le, ok := e.(*errs.Error); ok {
			result.Errors = append(result.Errors, le)
		}
	}
	result.Agents = resolveCollisions(ordered)
	return result
}

// searchOrder builds the deterministic directory list from §4.1: project
// agents, then global agents if enabled, then any extra paths.
func (l *Loader) searchOrder(projectRoot string, opts Options) []scanDir {
	dirs := []scanDir{
		{path: filepath.Join(projectRoot, ".pk", "agents"), source: model.SourceProject},
	}
	if opts.IncludeGlobal && opts.UserHome != "" {
		dirs = append(dirs, scanDir{path: filepath.Join(opts.UserHome, ".pk", "agents"), source: model.SourceGlobal})
	}
	for _, p := range opts.ExtraPaths {
		dirs = append(dirs, scanDir{path: p, source: model.SourceProject})
	}
	return dirs
}

// LoadAgentFile parses and validates a single agent definition file.
func (l *Loader) LoadAgentFile(path string) (*model.Agent, *errs.Error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindFileError, "cannot read agent file", err).WithPath(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindFileError, "cannot stat agent file", err).WithPath(path)
	}

	fmBlock, body, splitErr := splitFrontMatter(string(raw))
	if splitErr != nil {
		if e, ok := splitErr.(*errs.Error); ok {
			return nil, e.WithPath(path)
		}
		return nil, errs.Wrap(errs.KindParseError, splitErr.Error(), splitErr).WithPath(path)
	}

	parsed, parseErr := parseFrontMatter(fmBlock)
	if parseErr != nil {
		if e, ok := parseErr.(*errs.Error); ok {
			return nil, e.WithPath(path)
		}
		return nil, errs.Wrap(errs.KindParseError, "front-matter parse failed", parseErr).WithPath(path)
	}

	agent := toAgent(parsed)
	agent.FilePath = path
	agent.LastModified = info.ModTime()
	agent.Content = string(raw)

	trimmedBody := strings.TrimSpace(body)
	if agent.SystemPrompt == "" && trimmedBody != "" {
		agent.SystemPrompt = trimmedBody
	}

	if err := agent.Validate(); err != nil {
		return nil, errs.Wrap(errs.KindValidationError, err.Error(), err).WithPath(path)
	}
	return agent, nil
}

func toAgent(fm *frontMatter) *model.Agent {
	a := &model.Agent{
		Name:         fm.Name,
		Description:  fm.Description,
		Keywords:     fm.Keywords,
		Model:        fm.Model,
		Provider:     model.Provider(fm.Provider),
		SystemPrompt: fm.SystemPrompt,
		Temperature:  fm.Temperature,
		MaxTokens:    fm.MaxTokens,
	}
	if fm.Priority != nil {
		a.Priority = *fm.Priority
	} else {
		a.Priority = model.NoPriority
	}
	for _, t := range fm.Tools {
		a.Tools = append(a.Tools, model.Tool{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	for _, e := range fm.Examples {
		a.Examples = append(a.Examples, model.Example{Input: e.Input, Output: e.Output, Description: e.Description})
	}
	return a
}

// resolveCollisions groups agents by name and keeps exactly one per name:
// a project-sourced agent wins over a global one; otherwise the first
// encountered (by scan order) wins.
func resolveCollisions(agents []*model.Agent) []*model.Agent {
	byName := make(map[string]*model.Agent, len(agents))
	order := make([]string, 0, len(agents))
	for _, a := range agents {
		existing, ok := byName[a.Name]
		if !ok {
			byName[a.Name] = a
			order = append(order, a.Name)
			continue
		}
		if existing.Source != model.SourceProject && a.Source == model.SourceProject {
			byName[a.Name] = a
		}
	}
	resolved := make([]*model.Agent, 0, len(order))
	for _, name := range order {
		resolved = append(resolved, byName[name])
	}
	return resolved
}
