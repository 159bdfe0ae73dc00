package federation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// SnapshotStore persists the last loaded peer list.
type SnapshotStore interface {
	Replace(ctx context.Context, hosts []string) error
	List(ctx context.Context) ([]string, error)
}

// peersFile is the YAML layout of the peers file.
type peersFile struct {
	Peers []string `yaml:"peers"`
}

// FileDirectory reads peers from a YAML file and reloads it when the file
// changes. The last good list is kept in a SnapshotStore so a broken or
// missing file does not empty the directory.
type FileDirectory struct {
	path     string
	store    SnapshotStore
	logger   zerolog.Logger
	debounce time.Duration

	mu    sync.RWMutex
	peers []string

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewFileDirectory creates a directory for path. store may be nil.
func NewFileDirectory(path string, store SnapshotStore, logger zerolog.Logger) *FileDirectory {
	return &FileDirectory{
		path:     path,
		store:    store,
		logger:   logger.With().Str("component", "peer-directory").Logger(),
		debounce: 200 * time.Millisecond,
	}
}

// Peers implements Directory.
func (d *FileDirectory) Peers(context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, len(d.peers))
	copy(out, d.peers)
	return out, nil
}

// Refresh rereads the file. On failure the current list is kept, seeded
// from the snapshot store if the directory is still empty.
func (d *FileDirectory) Refresh(ctx context.Context) error {
	hosts, err := readPeersFile(d.path)
	if err != nil {
		d.seedFromStore(ctx)
		return err
	}

	d.mu.Lock()
	d.peers = hosts
	d.mu.Unlock()

	if d.store != nil {
		if err := d.store.Replace(ctx, hosts); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to store peer snapshot")
		}
	}
	d.logger.Info().Int("count", len(hosts)).Msg("Loaded peers")
	return nil
}

// Start loads the file and watches its directory for changes.
func (d *FileDirectory) Start(ctx context.Context) error {
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warn().Err(err).Str("path", d.path).Msg("Failed to load peers file")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Editors replace files on save, so the parent directory is watched.
	if err := w.Add(filepath.Dir(d.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", d.path, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	d.watcher = w
	d.cancel = cancel
	d.wg.Add(1)
	go d.eventLoop(loopCtx)
	return nil
}

// Stop stops watching the file.
func (d *FileDirectory) Stop() error {
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	d.wg.Wait()
	return d.watcher.Close()
}

func (d *FileDirectory) eventLoop(ctx context.Context) {
	defer d.wg.Done()

	target := filepath.Clean(d.path)
	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(d.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			if err := d.Refresh(ctx); err != nil {
				d.logger.Warn().Err(err).Msg("Failed to reload peers file")
			}

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (d *FileDirectory) seedFromStore(ctx context.Context) {
	if d.store == nil {
		return
	}
	d.mu.RLock()
	empty := len(d.peers) == 0
	d.mu.RUnlock()
	if !empty {
		return
	}

	hosts, err := d.store.List(ctx)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Failed to read peer snapshot")
		return
	}
	d.mu.Lock()
	d.peers = hosts
	d.mu.Unlock()
}

func readPeersFile(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New("no peers file configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f peersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return NormalizeHosts(f.Peers), nil
}
