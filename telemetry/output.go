package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pelagic-games/strike/config"
)

// EventCSV is the CSV projection of an Event.
type EventCSV struct {
	Tick       int32   `csv:"tick"`
	Type       string  `csv:"type"`
	OrganismID uint32  `csv:"organism_id"`
	SpeciesID  uint8   `csv:"species_id"`
	TargetID   uint32  `csv:"target_id"`
	Amount     float32 `csv:"amount"`
	Reason     string  `csv:"reason"`
}

// ToCSV converts an event to its CSV record.
func (e Event) ToCSV() EventCSV {
	return EventCSV{
		Tick:       e.Tick,
		Type:       e.Type.String(),
		OrganismID: e.OrganismID,
		SpeciesID:  e.SpeciesID,
		TargetID:   e.TargetID,
		Amount:     e.Amount,
		Reason:     e.Reason,
	}
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	statsFile *os.File
	eventFile *os.File

	statsHeaderWritten bool
	eventHeaderWritten bool
}

// NewOutputManager creates an output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "stats.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating stats.csv: %w", err)
	}
	om.statsFile = f

	f, err = os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		om.statsFile.Close()
		return nil, fmt.Errorf("creating events.csv: %w", err)
	}
	om.eventFile = f

	return om, nil
}

// WriteConfig saves the run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats writes a window stats record to stats.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}

	records := []WindowStats{stats}
	if !om.statsHeaderWritten {
		if err := gocsv.Marshal(records, om.statsFile); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		om.statsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.statsFile); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WriteEvents appends event records to events.csv.
func (om *OutputManager) WriteEvents(events []Event) error {
	if om == nil || len(events) == 0 {
		return nil
	}

	records := make([]EventCSV, len(events))
	for i, ev := range events {
		records[i] = ev.ToCSV()
	}

	if !om.eventHeaderWritten {
		if err := gocsv.Marshal(records, om.eventFile); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
		om.eventHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.eventFile); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.statsFile != nil {
		if err := om.statsFile.Close(); err != nil {
			firstErr = err
		}
	}
	if om.eventFile != nil {
		if err := om.eventFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
