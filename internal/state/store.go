// Package state persists the "last seen" cursors of every poller and owns
// the in-memory copy shared between them.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
)

// ErrStateMissing is returned when a state file does not exist. Run
// "state init" to create it.
var ErrStateMissing = errors.New("state file missing")

const filePerm = 0o644

// Store reads and writes the two state files.
type Store struct {
	channelPath string
	puzzlesPath string
	log         logger.Logger
}

// NewStore creates a Store for the given file paths.
func NewStore(channelPath, puzzlesPath string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{channelPath: channelPath, puzzlesPath: puzzlesPath, log: log}
}

// ChannelPath returns the location of the channel cursor file.
func (s *Store) ChannelPath() string { return s.channelPath }

// PuzzlesPath returns the location of the puzzles file.
func (s *Store) PuzzlesPath() string { return s.puzzlesPath }

// LoadChannel reads the channel cursor. Malformed content yields an empty
// cursor and a warning.
func (s *Store) LoadChannel() (domain.ChannelCursor, error) {
	raw, err := s.readJSON(s.channelPath)
	if err != nil {
		return domain.ChannelCursor{}, err
	}
	return domain.DecodeChannelCursor(raw), nil
}

// LoadPuzzles reads the newest link per source key. Entries that are not
// objects, or fields that are not strings, become empty values.
func (s *Store) LoadPuzzles() (map[string]domain.PuzzleLink, error) {
	raw, err := s.readJSON(s.puzzlesPath)
	if err != nil {
		return nil, err
	}

	puzzles := make(map[string]domain.PuzzleLink)
	entries, ok := raw.(map[string]any)
	if !ok {
		if raw != nil {
			s.log.Warn("Puzzles state is not an object, starting empty",
				logger.String("path", s.puzzlesPath))
		}
		return puzzles, nil
	}
	for key, value := range entries {
		puzzles[key] = domain.DecodePuzzleLink(value)
	}
	return puzzles, nil
}

// Load reads both files into a State. Every key in sourceKeys is present
// in the result.
func (s *Store) Load(sourceKeys []string) (State, error) {
	cursor, err := s.LoadChannel()
	if err != nil {
		return State{}, err
	}
	puzzles, err := s.LoadPuzzles()
	if err != nil {
		return State{}, err
	}
	for _, key := range sourceKeys {
		if _, ok := puzzles[key]; !ok {
			puzzles[key] = domain.PuzzleLink{}
		}
	}
	return State{Channel: cursor, Puzzles: puzzles}, nil
}

// SaveChannel overwrites the channel cursor file.
func (s *Store) SaveChannel(cursor domain.ChannelCursor) error {
	return writeJSON(s.channelPath, cursor)
}

// SavePuzzles overwrites the puzzles file with the complete map.
func (s *Store) SavePuzzles(puzzles map[string]domain.PuzzleLink) error {
	if puzzles == nil {
		puzzles = map[string]domain.PuzzleLink{}
	}
	return writeJSON(s.puzzlesPath, puzzles)
}

// Seed creates whichever state files are missing: a cursor for channel and
// an empty link for each source key. Existing files are left untouched.
// It returns the paths it created.
func (s *Store) Seed(channel string, sourceKeys []string) ([]string, error) {
	var created []string

	if !exists(s.channelPath) {
		if err := s.SaveChannel(domain.ChannelCursor{Channel: channel}); err != nil {
			return created, err
		}
		created = append(created, s.channelPath)
	}

	if !exists(s.puzzlesPath) {
		puzzles := make(map[string]domain.PuzzleLink, len(sourceKeys))
		for _, key := range sourceKeys {
			puzzles[key] = domain.PuzzleLink{}
		}
		if err := s.SavePuzzles(puzzles); err != nil {
			return created, err
		}
		created = append(created, s.puzzlesPath)
	}

	return created, nil
}

func (s *Store) readJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrStateMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}

	var raw any
	if unmarshalErr := json.Unmarshal(data, &raw); unmarshalErr != nil {
		s.log.Warn("Malformed state file, using empty state",
			logger.String("path", path),
			logger.Error(unmarshalErr),
		)
		return nil, nil
	}
	return raw, nil
}

// writeJSON replaces path with the indented encoding of v. The data is
// written to a sibling temp file first so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("chmod temp state: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state %s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
