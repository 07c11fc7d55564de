package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/alarm-controller/internal/config"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/repository"
)

// Repository defines persistence operations for the alarm state.
type Repository interface {
	Load(ctx context.Context) (Value, error)
	Save(ctx context.Context, value Value) error
}

// Value is the persisted alarm state code.
type Value uint8

const (
	// ValueDisarmed is stored for a disarmed alarm.
	ValueDisarmed Value = 0
	// ValueArmed is stored for an armed alarm.
	ValueArmed Value = 1
	// ValueTriggered is stored while the alarm is going off.
	ValueTriggered Value = 2
	// ValueError is a recognised code with no matching runtime state.
	ValueError Value = 3
	// ValueUnknown is reported for anything unreadable or unrecognised.
	ValueUnknown Value = 0xFF
)

// FromState maps a runtime alarm state to its persisted code.
// Arming has no code of its own and is kept as Armed.
func FromState(s domain.State) Value {
	switch s {
	case domain.StateDisarmed:
		return ValueDisarmed
	case domain.StateArming, domain.StateArmed:
		return ValueArmed
	case domain.StateTriggered:
		return ValueTriggered
	default:
		return ValueError
	}
}

// State maps the persisted code back to a runtime state.
// The second result is false for codes without a runtime state.
func (v Value) State() (domain.State, bool) {
	switch v {
	case ValueDisarmed:
		return domain.StateDisarmed, true
	case ValueArmed:
		return domain.StateArmed, true
	case ValueTriggered:
		return domain.StateTriggered, true
	case ValueError, ValueUnknown:
		return domain.StateDisarmed, false
	default:
		return domain.StateDisarmed, false
	}
}

// String returns a display name of the code.
func (v Value) String() string {
	switch v {
	case ValueDisarmed:
		return "Disarmed"
	case ValueArmed:
		return "Armed"
	case ValueTriggered:
		return "Triggered"
	case ValueError:
		return "Error"
	default:
		return "Unknown"
	}
}

// formatVersion is the current on-disk layout: {version, value}.
const formatVersion byte = 1

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("state not found")

// FileRepository persists the alarm state code to a small binary file.
type FileRepository struct {
	// path is the filesystem location of the state file.
	path string
	// mu serialises access to the state file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes the state at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the state code from disk. A missing file yields ErrNotFound;
// an unrecognised code yields ValueUnknown without an error, so that a
// corrupt file never prevents boot.
func (r *FileRepository) Load(_ context.Context) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := repository.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ValueUnknown, ErrNotFound
		}

		return ValueUnknown, fmt.Errorf("read state file: %w", err)
	}

	return decode(contents), nil
}

// Save writes the state code to disk atomically.
func (r *FileRepository) Save(_ context.Context, value Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := repository.WriteFileAtomic(r.path, encode(value), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// encode renders the versioned record.
func encode(value Value) []byte {
	return []byte{formatVersion, byte(value)}
}

// decode parses the versioned record, or the legacy single enumerated byte.
func decode(contents []byte) Value {
	var raw byte

	switch {
	case len(contents) == 1:
		raw = contents[0]
	case len(contents) == 2 && contents[0] == formatVersion:
		raw = contents[1]
	default:
		return ValueUnknown
	}

	switch value := Value(raw); value {
	case ValueDisarmed, ValueArmed, ValueTriggered, ValueError:
		return value
	default:
		return ValueUnknown
	}
}
