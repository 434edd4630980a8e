package fleet

import (
	"encoding/json"
	"os"

	"tidewatch-sim/internal/tide"
)

// FileWriter writes readings, alerts, events, and fleet state to JSONL files.
type FileWriter struct {
	readingFile *os.File
	alertFile   *os.File
	eventFile   *os.File
	stateFile   *os.File
	readingEnc  *json.Encoder
	alertEnc    *json.Encoder
	eventEnc    *json.Encoder
	stateEnc    *json.Encoder
}

// NewFileWriter creates a FileWriter. alertPath, eventPath, or statePath may
// be empty to skip those logs.
func NewFileWriter(readingPath, alertPath, eventPath, statePath string) (*FileWriter, error) {
	rf, err := os.Create(readingPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{readingFile: rf, readingEnc: json.NewEncoder(rf)}
	if alertPath != "" {
		af, err := os.Create(alertPath)
		if err != nil {
			rf.Close()
			return nil, err
		}
		fw.alertFile = af
		fw.alertEnc = json.NewEncoder(af)
	}
	if eventPath != "" {
		ef, err := os.Create(eventPath)
		if err != nil {
			if fw.alertFile != nil {
				fw.alertFile.Close()
			}
			rf.Close()
			return nil, err
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	if statePath != "" {
		sf, err := os.Create(statePath)
		if err != nil {
			if fw.alertFile != nil {
				fw.alertFile.Close()
			}
			if fw.eventFile != nil {
				fw.eventFile.Close()
			}
			rf.Close()
			return nil, err
		}
		fw.stateFile = sf
		fw.stateEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// Write logs a single reading row.
func (f *FileWriter) Write(row tide.ReadingRow) error {
	return f.readingEnc.Encode(row)
}

// WriteBatch logs multiple reading rows.
func (f *FileWriter) WriteBatch(rows []tide.ReadingRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlert logs a single alert row, if enabled.
func (f *FileWriter) WriteAlert(row tide.AlertRow) error {
	if f.alertEnc == nil {
		return nil
	}
	return f.alertEnc.Encode(row)
}

// WriteAlerts logs multiple alert rows.
func (f *FileWriter) WriteAlerts(rows []tide.AlertRow) error {
	for _, r := range rows {
		if err := f.WriteAlert(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent logs a single lifecycle event row, if enabled.
func (f *FileWriter) WriteEvent(row tide.EventRow) error {
	if f.eventEnc == nil {
		return nil
	}
	return f.eventEnc.Encode(row)
}

// WriteEvents logs multiple lifecycle event rows.
func (f *FileWriter) WriteEvents(rows []tide.EventRow) error {
	for _, r := range rows {
		if err := f.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteFleetState logs a fleet aggregate row, if enabled.
func (f *FileWriter) WriteFleetState(row tide.FleetStateRow) error {
	if f.stateEnc == nil {
		return nil
	}
	return f.stateEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.readingFile != nil {
		if e := f.readingFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.alertFile != nil {
		if e := f.alertFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.eventFile != nil {
		if e := f.eventFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.stateFile != nil {
		if e := f.stateFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
