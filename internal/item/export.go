package item

import "encoding/json"

// ExportSchemaVersion is written into the header line of every export.
const ExportSchemaVersion = "1.0"

// ExportHeader is the first line of a JSONL export.
type ExportHeader struct {
	// Header detection field - true only for header line
	SieveExport   bool   `json:"_sieve_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
	Count         int    `json:"count"`
}

// ParseExportLine decodes one JSONL line. It returns a header for the
// header line and an item otherwise.
func ParseExportLine(line []byte) (*ExportHeader, *Item, error) {
	var probe struct {
		SieveExport bool `json:"_sieve_export"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, nil, err
	}
	if probe.SieveExport {
		var h ExportHeader
		if err := json.Unmarshal(line, &h); err != nil {
			return nil, nil, err
		}
		return &h, nil, nil
	}
	var it Item
	if err := json.Unmarshal(line, &it); err != nil {
		return nil, nil, err
	}
	return nil, &it, nil
}
