// Package models defines the data structures used across the application.
// Remote types mirror the JSON shapes served by the complaint service.
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Session is the citizen currently using the portal.
// An empty Identity means logged out.
type Session struct {
	DisplayName string `json:"display_name"`
	Identity    string `json:"identity"`
}

// User is the registration payload sent to the complaint service.
type User struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// CreateUserResponse is returned by POST /createuser
type CreateUserResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginResult holds whatever user info the service returns on a successful login.
type LoginResult struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Complaint is a complaint as stored by the service. ComplaintID is opaque.
type Complaint struct {
	ComplaintID      string     `json:"complaintId"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	Complaints       string     `json:"complaints"`
	DepartmentEmails []string   `json:"department_emails"`
	FolderPath       string     `json:"folderPath"`
	ComplaintDate    *Timestamp `json:"complaint_date,omitempty"`
}

// Attachment is the stored form of a complaint file: original name plus
// base64 encoded content.
type Attachment struct {
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent"`
}

// ComplaintList is the body of GET /getallcomplaintforuser.
// Complaint is kept raw because the service may send an object or an array.
type ComplaintList struct {
	User      json.RawMessage `json:"user,omitempty"`
	Complaint json.RawMessage `json:"complaint"`
}

// ComplaintDetail is the body of GET /getcomplaintforuser
type ComplaintDetail struct {
	Complaint Complaint    `json:"complaint"`
	Files     []Attachment `json:"files"`
}

// StagedFile is a file chosen in the composer but not yet submitted.
type StagedFile struct {
	Name string
	Data []byte
}

// Size returns the byte size of the staged file.
func (f StagedFile) Size() int64 { return int64(len(f.Data)) }

// Coordinates is a raw position fix.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a resolved geolocation enrichment for a complaint.
type Location struct {
	Coordinates
	Address string `json:"address"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status    string     `json:"status"`
	Version   string     `json:"version"`
	Uptime    string     `json:"uptime,omitempty"`
	Remote    string     `json:"remote,omitempty"`
	LastProbe *time.Time `json:"last_probe,omitempty"`
}

// Timestamp accepts the date encodings the service is known to emit:
// RFC 3339 strings, zone-less ISO strings, and epoch milliseconds.
// Anything else decodes to the zero time so one odd date cannot fail
// the record it sits in.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '"' {
		if ms, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
