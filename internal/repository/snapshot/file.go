package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/dispatch-monitor/internal/config"
	"github.com/oshokin/dispatch-monitor/internal/domain/station"
)

// Snapshot is the persisted alarm state.
type Snapshot struct {
	// ActiveSince is when the current alarm started. Zero when no alarm is active.
	ActiveSince time.Time
	// SavedAt is when the snapshot was written.
	SavedAt time.Time
	// Entries is the alarm list at the time of saving.
	Entries []station.AlarmEntry
}

// Repository defines persistence operations for the snapshot.
type Repository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// FileRepository persists the snapshot to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the snapshot file.
	path string
	// mu serializes file access.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the snapshot file does not exist yet.
	ErrNotFound = errors.New("snapshot not found")
	// errMalformed is returned when the file decodes but has the wrong shape.
	errMalformed = errors.New("malformed snapshot")
)

// Field names of the stored document.
const (
	fieldActiveSince = "active_since"
	fieldSavedAt     = "saved_at"
	fieldEntries     = "entries"
	fieldText        = "text"
	fieldSeverity    = "severity"
	fieldSource      = "source"
	fieldGroup       = "group"
	fieldPoint       = "point"
)

// NewFileRepository creates a repository that reads and writes JSON at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the snapshot from disk.
func (r *FileRepository) Load(_ context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var doc structpb.Struct
	if err = protojson.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot file: %w", err)
	}

	return fromStruct(&doc)
}

// Save writes the snapshot to disk.
func (r *FileRepository) Save(_ context.Context, snapshot *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := toStruct(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}

	return nil
}

// formatTime renders a timestamp, keeping the zero time as an empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime is the inverse of formatTime.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339Nano, s)
}

// toStruct converts the snapshot into a protobuf Struct.
func toStruct(snapshot *Snapshot) (*structpb.Struct, error) {
	entries := make([]any, len(snapshot.Entries))
	for i, entry := range snapshot.Entries {
		entries[i] = map[string]any{
			fieldText:     entry.Text,
			fieldSeverity: entry.Severity.String(),
			fieldSource:   int(entry.Source.Kind),
			fieldGroup:    entry.Source.Group,
			fieldPoint:    entry.Source.Point,
		}
	}

	return structpb.NewStruct(map[string]any{
		fieldActiveSince: formatTime(snapshot.ActiveSince),
		fieldSavedAt:     formatTime(snapshot.SavedAt),
		fieldEntries:     entries,
	})
}

// fromStruct converts a protobuf Struct back into a snapshot.
func fromStruct(doc *structpb.Struct) (*Snapshot, error) {
	fields := doc.GetFields()

	activeSince, err := parseTime(fields[fieldActiveSince].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errMalformed, fieldActiveSince, err)
	}

	savedAt, err := parseTime(fields[fieldSavedAt].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errMalformed, fieldSavedAt, err)
	}

	values := fields[fieldEntries].GetListValue().GetValues()
	entries := make([]station.AlarmEntry, 0, len(values))

	for i, value := range values {
		entry := value.GetStructValue().GetFields()
		if entry == nil {
			return nil, fmt.Errorf("%w: entry %d is not an object", errMalformed, i)
		}

		severity, ok := station.ParseSeverity(entry[fieldSeverity].GetStringValue())
		if !ok {
			return nil, fmt.Errorf("%w: entry %d has unknown severity", errMalformed, i)
		}

		entries = append(entries, station.AlarmEntry{
			Text:     entry[fieldText].GetStringValue(),
			Severity: severity,
			Source: station.SourceRef{
				Kind:  station.SourceKind(entry[fieldSource].GetNumberValue()),
				Group: int(entry[fieldGroup].GetNumberValue()),
				Point: int(entry[fieldPoint].GetNumberValue()),
			},
		})
	}

	return &Snapshot{
		ActiveSince: activeSince,
		SavedAt:     savedAt,
		Entries:     entries,
	}, nil
}
