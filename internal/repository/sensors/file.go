package sensors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/oshokin/alarm-controller/internal/config"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/repository"
)

// Repository persists the user-editable part of sensor records: id, name and enabled flag.
type Repository interface {
	// Load returns every registered sensor with an Unknown state.
	Load(ctx context.Context) ([]domain.Sensor, error)
	// Store registers a new sensor; an already registered id is left untouched.
	Store(ctx context.Context, sensor domain.Sensor) error
	// Update replaces the registry entry of the sensor, adding it when missing.
	Update(ctx context.Context, sensor domain.Sensor) error
}

// document is the on-disk shape of the registry.
type document struct {
	// Sensors lists the registered sensors.
	Sensors []record `json:"sensors"`
}

// record is one registry entry. Enabled is a string for compatibility with
// registries written by earlier controllers.
type record struct {
	// ID is the sensor identifier in hex.
	ID string `json:"id"`
	// Enabled is "true" or "false".
	Enabled string `json:"enabled,omitempty"`
	// Name is the user label.
	Name string `json:"name"`
}

// corruptSuffix is appended to a registry that could not be parsed.
const corruptSuffix = ".corrupt"

// ErrCorrupt is returned by Load when the registry could not be parsed. The
// damaged file is moved aside and the repository continues empty.
var ErrCorrupt = errors.New("sensor registry is corrupt")

var (
	// errMissingSensors is returned for a registry without the "sensors" key.
	errMissingSensors = errors.New(`sensor registry has no "sensors" key`)
	// errInvalidEnabled is returned for an enabled value other than "true"/"false".
	errInvalidEnabled = errors.New(`enabled must be "true" or "false"`)
)

// FileRepository stores the registry as a JSON file. Comments and trailing
// commas are accepted on read so the file can be edited by hand.
type FileRepository struct {
	// path is the filesystem location of the registry.
	path string
	// mu serialises access to the registry.
	mu sync.Mutex
	// sensors is the last loaded or written registry.
	sensors []domain.Sensor
	// loaded is set once sensors mirrors the file.
	loaded bool
}

// NewFileRepository creates a repository for the registry at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the registry. A missing file is created empty. A file that does
// not parse is renamed with a ".corrupt" suffix and ErrCorrupt is returned;
// later calls see an empty registry and rebuild the file.
func (r *FileRepository) Load(_ context.Context) ([]domain.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}

	return slices.Clone(r.sensors), nil
}

// Store registers a sensor unless its id is already present.
func (r *FileRepository) Store(_ context.Context, sensor domain.Sensor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(); err != nil {
		return err
	}

	if slices.ContainsFunc(r.sensors, func(s domain.Sensor) bool { return s.ID == sensor.ID }) {
		return nil
	}

	return r.write(append(slices.Clone(r.sensors), registryEntry(sensor)))
}

// Update replaces the registry entry of a sensor, or appends it.
func (r *FileRepository) Update(_ context.Context, sensor domain.Sensor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(); err != nil {
		return err
	}

	next := slices.Clone(r.sensors)

	idx := slices.IndexFunc(next, func(s domain.Sensor) bool { return s.ID == sensor.ID })
	if idx < 0 {
		next = append(next, registryEntry(sensor))
	} else {
		next[idx] = registryEntry(sensor)
	}

	return r.write(next)
}

// ensureLoaded reads the file once, creating it when missing.
func (r *FileRepository) ensureLoaded() error {
	if r.loaded {
		return nil
	}

	contents, err := repository.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read sensor registry: %w", err)
		}

		if err = r.write(nil); err != nil {
			return fmt.Errorf("create sensor registry: %w", err)
		}

		return nil
	}

	sensors, err := decode(contents)
	if err != nil {
		return r.quarantine(err)
	}

	r.sensors = sensors
	r.loaded = true

	return nil
}

// quarantine moves an unparsable registry aside and starts over empty.
func (r *FileRepository) quarantine(cause error) error {
	if err := os.Rename(r.path, r.path+corruptSuffix); err != nil {
		return fmt.Errorf("%w: %w (move aside: %w)", ErrCorrupt, cause, err)
	}

	r.sensors = nil
	r.loaded = true

	return fmt.Errorf("%w, moved to %s: %w", ErrCorrupt, filepath.Base(r.path)+corruptSuffix, cause)
}

// write persists sensors and only then adopts them as the cached registry.
func (r *FileRepository) write(sensors []domain.Sensor) error {
	data, err := encode(sensors)
	if err != nil {
		return err
	}

	if err = repository.WriteFileAtomic(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write sensor registry: %w", err)
	}

	r.sensors = sensors
	r.loaded = true

	return nil
}

// registryEntry keeps only the persisted fields of a sensor.
func registryEntry(sensor domain.Sensor) domain.Sensor {
	return domain.Sensor{
		ID:      sensor.ID,
		Enabled: sensor.Enabled,
		Name:    sensor.Name,
	}
}

// decode parses the registry, tolerating JSONC comments and trailing commas.
func decode(contents []byte) ([]domain.Sensor, error) {
	var (
		doc struct {
			Sensors *[]record `json:"sensors"`
		}
		sensors []domain.Sensor
	)

	if err := json.Unmarshal(jsonc.ToJSON(contents), &doc); err != nil {
		return nil, fmt.Errorf("parse sensor registry: %w", err)
	}

	if doc.Sensors == nil {
		return nil, errMissingSensors
	}

	for _, rec := range *doc.Sensors {
		id, err := domain.ParseSensorID(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("parse sensor registry: %w", err)
		}

		var enabled bool

		switch rec.Enabled {
		case "true":
			enabled = true
		case "false", "":
		default:
			return nil, fmt.Errorf("sensor %s: %w, got %q", id, errInvalidEnabled, rec.Enabled)
		}

		sensors = append(sensors, domain.Sensor{
			ID:      id,
			Enabled: enabled,
			Name:    rec.Name,
		})
	}

	return sensors, nil
}

// encode renders the registry as indented JSON.
func encode(sensors []domain.Sensor) ([]byte, error) {
	doc := document{
		Sensors: make([]record, 0, len(sensors)),
	}

	for _, sensor := range sensors {
		enabled := "false"
		if sensor.Enabled {
			enabled = "true"
		}

		doc.Sensors = append(doc.Sensors, record{
			ID:      sensor.ID.String(),
			Enabled: enabled,
			Name:    sensor.Name,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sensor registry: %w", err)
	}

	return append(data, '\n'), nil
}
