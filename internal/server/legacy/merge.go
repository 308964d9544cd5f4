package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/kabyedict/internal/common"
)

// StatusUnavailable marks words that have no validation record.
const StatusUnavailable = "non_disponible"

// Record is a JSON object kept as-is so unknown keys survive a merge.
type Record map[string]any

var validationKeys = []string{"statut_validation", "date_validation", "notes_validation", "verifie_par"}

// MergeStats describes a merge.
type MergeStats struct {
	Entries     int `json:"entries"`
	Validations int `json:"validations"`
	Merged      int `json:"merged"`
	Matched     int `json:"matched"`
	Missing     int `json:"missing"`
}

// ReadRecords decodes a JSON array of objects, or a file store object whose
// "mots" key holds that array. Numbers are kept exact.
func ReadRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if len(data) > 0 && data[0] == '{' {
		var doc struct {
			Words []Record `json:"mots"`
		}
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorMalformedData, err)
		}
		return doc.Words, nil
	}

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorMalformedData, err)
	}
	return records, nil
}

// MergeValidation copies the validation fields of each validation record
// onto the entry with the same id. Entries without a record are marked
// StatusUnavailable with empty validation fields. Validation records
// without an id are ignored; for repeated ids the last one wins.
func MergeValidation(entries, validations []Record) ([]Record, MergeStats) {
	byID := make(map[string]Record, len(validations))
	for _, v := range validations {
		id, ok := recordID(v)
		if !ok {
			continue
		}
		byID[id] = Record{
			"statut_validation": valueOr(v, "statut_validation", StatusUnavailable),
			"date_validation":   valueOr(v, "date_validation", ""),
			"notes_validation":  valueOr(v, "notes_validation", ""),
			"verifie_par":       valueOr(v, "verifie_par", ""),
		}
	}

	stats := MergeStats{Entries: len(entries), Validations: len(validations)}
	merged := make([]Record, 0, len(entries))

	for _, e := range entries {
		out := make(Record, len(e)+len(validationKeys))
		for k, v := range e {
			out[k] = v
		}

		id, _ := recordID(e)
		if fields, ok := byID[id]; ok {
			for k, v := range fields {
				out[k] = v
			}
			stats.Matched++
		} else {
			out["statut_validation"] = StatusUnavailable
			out["date_validation"] = ""
			out["notes_validation"] = ""
			out["verifie_par"] = ""
			stats.Missing++
		}
		merged = append(merged, out)
	}
	stats.Merged = len(merged)
	return merged, stats
}

func recordID(r Record) (string, bool) {
	v, ok := r["id"]
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// valueOr returns r[key] when the key is present, else fallback. Present
// null values are kept as null, as the export tool did.
func valueOr(r Record, key, fallback string) any {
	if v, ok := r[key]; ok {
		return v
	}
	return fallback
}
