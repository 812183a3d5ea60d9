package photo

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"path"
	"time"
)

// Type is the capture mode of a photo record
type Type string

const (
	TypeSingle Type = "single"
	TypeStrip  Type = "strip"
)

// FrameCount returns how many frames a record of this type holds
func (t Type) FrameCount() int {
	switch t {
	case TypeSingle:
		return 1
	case TypeStrip:
		return 3
	default:
		return 0
	}
}

// Photo is the persisted artifact of one capture session
type Photo struct {
	ID         int64     `db:"id" json:"id"`
	Type       Type      `db:"type" json:"type"`
	Filter     string    `db:"filter" json:"filter"`
	Background string    `db:"background" json:"background"`
	FilePath   string    `db:"file_path" json:"filePath"`   // primary (first) image
	PhotoURLs  URLList   `db:"photo_urls" json:"photoUrls"` // capture order
	QRCode     string    `db:"qr_code" json:"qrCode"`
	ShareID    string    `db:"share_id" json:"shareId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// FileKeys returns the storage keys of every file backing the record
func (p *Photo) FileKeys() []string {
	keys := make([]string, 0, len(p.PhotoURLs)+1)
	for _, u := range p.PhotoURLs {
		keys = append(keys, path.Base(u))
	}
	if p.QRCode != "" {
		keys = append(keys, path.Base(p.QRCode))
	}
	return keys
}

// URLList is stored as a jsonb array
type URLList []string

// Value implements driver.Valuer
func (l URLList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Scan implements sql.Scanner
func (l *URLList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = URLList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("photo_urls: unsupported type")
	}
	return json.Unmarshal(data, (*[]string)(l))
}
