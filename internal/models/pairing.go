package models

import (
	"encoding/base64"
	"time"
)

// PairingImage is a displayable pairing code.
type PairingImage struct {
	ContentType string    `json:"contentType"`
	Data        []byte    `json:"-"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// DataURI renders the image as a data URI suitable for an <img> tag.
func (p PairingImage) DataURI() string {
	if len(p.Data) == 0 {
		return ""
	}
	return "data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Empty reports whether there is nothing to display.
func (p PairingImage) Empty() bool {
	return len(p.Data) == 0
}
