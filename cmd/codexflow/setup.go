package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/Schrodinger0/codex-flow-sub001/internal/backend"
	"github.com/Schrodinger0/codex-flow-sub001/internal/catalog"
	"github.com/Schrodinger0/codex-flow-sub001/internal/config"
	"github.com/Schrodinger0/codex-flow-sub001/internal/decomposer"
	"github.com/Schrodinger0/codex-flow-sub001/internal/events"
	"github.com/Schrodinger0/codex-flow-sub001/internal/executor"
	"github.com/Schrodinger0/codex-flow-sub001/internal/memory"
	"github.com/Schrodinger0/codex-flow-sub001/internal/selector"
	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

var warnColor = color.New(color.FgYellow)

// loadCatalog returns the configured catalog, or the built-in one when no
// catalog file exists. With watching enabled the file is hot-reloaded
// between runs; the returned closer stops the watcher.
func loadCatalog(cfg *config.Config) ([]models.AgentDescriptor, func(), error) {
	noop := func() {}

	if _, err := os.Stat(cfg.Catalog.Path); err != nil {
		if os.IsNotExist(err) {
			return catalog.Default(), noop, nil
		}
		return nil, noop, fmt.Errorf("checking catalog: %w", err)
	}

	if cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(cfg.Catalog.Path, func(err error) {
			warnColor.Fprintf(os.Stderr, "warn: catalog reload failed: %v\n", err)
		})
		if err != nil {
			return nil, noop, fmt.Errorf("watching catalog: %w", err)
		}
		return watcher.Snapshot(), func() { watcher.Close() }, nil
	}

	agents, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, noop, fmt.Errorf("loading catalog: %w", err)
	}
	return agents, noop, nil
}

// buildSelector returns the selection strategy for the configured mode.
// Delegated mode needs a backend; without one it degrades to heuristic
// with a warning.
func buildSelector(ctx context.Context, cfg *config.Config) selector.Strategy {
	switch cfg.Selector.Mode {
	case "rules":
		return selector.NewRules()
	case "delegated":
		gen, err := backend.Resolve(ctx, cfg.Backends)
		if err != nil {
			if !errors.Is(err, backend.ErrNoBackend) {
				warnColor.Fprintf(os.Stderr, "warn: backend unavailable: %v\n", err)
			}
			warnColor.Fprintln(os.Stderr, "warn: no generative backend, selector degrades to heuristic")
			return selector.Heuristic{}
		}
		return selector.NewDelegated(gen)
	default:
		return selector.Heuristic{}
	}
}

// buildDecomposer mirrors buildSelector for decomposition strategies.
func buildDecomposer(ctx context.Context, cfg *config.Config, sink events.Sink) decomposer.Strategy {
	switch cfg.Selector.Mode {
	case "rules":
		return decomposer.Rules{}
	case "delegated":
		gen, err := backend.Resolve(ctx, cfg.Backends)
		if err != nil {
			if !errors.Is(err, backend.ErrNoBackend) {
				warnColor.Fprintf(os.Stderr, "warn: backend unavailable: %v\n", err)
			}
			warnColor.Fprintln(os.Stderr, "warn: no generative backend, decomposer degrades to heuristic")
			return decomposer.Heuristic{}
		}
		return decomposer.NewDelegated(gen, sink)
	default:
		return decomposer.Heuristic{}
	}
}

// buildMemory returns the configured memory store.
func buildMemory(cfg *config.Config) (memory.Store, error) {
	switch cfg.Memory.Driver {
	case "redis":
		client := memory.DialRedis(cfg.Memory.RedisAddr, cfg.Memory.RedisPassword)
		return memory.NewRedisStore(client, cfg.Memory.MaxEntries, cfg.Memory.TTL), nil
	default:
		return memory.NewFileStore(cfg.Memory.Dir)
	}
}

// openEventLog opens the run's JSONL event log under the log directory.
func openEventLog(cfg *config.Config) (*events.Log, error) {
	return events.OpenLog(filepath.Join(cfg.LogDir, "events.jsonl"))
}

// buildExecutor assembles the execution adapter from configuration.
func buildExecutor(cfg *config.Config, sink events.Sink, store memory.Store) (*executor.Executor, error) {
	workspace, err := executor.NewWorkspace(cfg.Workspace.Root, cfg.Workspace.Retention)
	if err != nil {
		return nil, err
	}
	return executor.New(sink, store, workspace).
		WithRemote(cfg.Executor.RemoteEndpoint).
		WithTimeout(cfg.Executor.TaskTimeout).
		WithVerbose(cfg.Executor.Verbose), nil
}
