package repository

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
)

// Firestore field names of a ticket document. They match the collection
// written by the earlier browser client so existing documents stay readable.
const (
	fieldNumber      = "numeroTicket"
	fieldSequence    = "secuencia"
	fieldName        = "nombre"
	fieldEmail       = "usuario"
	fieldDepartment  = "departamento"
	fieldProblemType = "tipoProblema"
	fieldDescription = "descripcion"
	fieldStatus      = "estado"
	fieldTechnician  = "tecnico"
	fieldAttachments = "archivos"
	fieldCreatedAt   = "fecha"
	fieldUpdatedAt   = "actualizado"
	fieldVersion     = "version"
)

// encodeTicketDocument builds the document written on creation. Timestamps are server assigned.
func encodeTicketDocument(rec ticketRecord) map[string]any {
	files := make([]map[string]any, 0, len(rec.Attachments))
	for _, a := range rec.Attachments {
		entry := map[string]any{
			"nombre": a.Name,
			"url":    a.URL,
			"type":   a.Type,
			"size":   a.Size,
		}
		if a.Path != "" {
			entry["path"] = a.Path
		}
		files = append(files, entry)
	}
	var technician any
	if rec.Technician != nil {
		technician = *rec.Technician
	}
	return map[string]any{
		fieldNumber:      rec.Number,
		fieldSequence:    rec.Sequence,
		fieldName:        rec.RequesterName,
		fieldEmail:       rec.RequesterEmail,
		fieldDepartment:  rec.Department,
		fieldProblemType: rec.ProblemType,
		fieldDescription: rec.Description,
		fieldStatus:      rec.Status,
		fieldTechnician:  technician,
		fieldAttachments: files,
		fieldCreatedAt:   firestore.ServerTimestamp,
		fieldUpdatedAt:   firestore.ServerTimestamp,
		fieldVersion:     rec.Version,
	}
}

// decodeTicketDocument reads a document of any vintage. Missing or mistyped
// fields fall back to zero values, which toDomain turns into defaults.
func decodeTicketDocument(id string, data map[string]any, created, updated time.Time) ticketRecord {
	rec := ticketRecord{
		ID:             id,
		Number:         stringField(data[fieldNumber]),
		Sequence:       intField(data[fieldSequence]),
		RequesterName:  stringField(data[fieldName]),
		RequesterEmail: stringField(data[fieldEmail]),
		Department:     stringField(data[fieldDepartment]),
		ProblemType:    stringField(data[fieldProblemType]),
		Description:    stringField(data[fieldDescription]),
		Status:         stringField(data[fieldStatus]),
		Attachments:    attachmentsField(data[fieldAttachments]),
		CreatedAt:      timeField(data[fieldCreatedAt], created),
		UpdatedAt:      timeField(data[fieldUpdatedAt], updated),
		Version:        intField(data[fieldVersion]),
	}
	if tech := stringField(data[fieldTechnician]); tech != "" {
		rec.Technician = &tech
	}
	// Older documents carry a bare numeric ticket number and no sequence.
	if n, ok := data[fieldNumber].(int64); ok && rec.Sequence == 0 {
		rec.Sequence = n
	}
	return rec
}

func stringField(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return fmt.Sprintf("%06d", val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return ""
}

func intField(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case float64:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n
	}
	return 0
}

func timeField(v any, fallback time.Time) time.Time {
	if t, ok := v.(time.Time); ok && !t.IsZero() {
		return t
	}
	return fallback
}

// attachmentsField accepts both the {nombre,url,type,size} objects and bare URL strings.
func attachmentsField(v any) []attachmentRecord {
	items, ok := v.([]any)
	if !ok {
		return []attachmentRecord{}
	}
	out := make([]attachmentRecord, 0, len(items))
	for _, item := range items {
		switch entry := item.(type) {
		case string:
			if entry == "" {
				continue
			}
			out = append(out, attachmentRecord{Name: path.Base(strings.SplitN(entry, "?", 2)[0]), URL: entry})
		case map[string]any:
			name := stringField(entry["nombre"])
			if name == "" {
				name = stringField(entry["name"])
			}
			out = append(out, attachmentRecord{
				Name: name,
				URL:  stringField(entry["url"]),
				Type: stringField(entry["type"]),
				Size: intField(entry["size"]),
				Path: stringField(entry["path"]),
			})
		}
	}
	return out
}
