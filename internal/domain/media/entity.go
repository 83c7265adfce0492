package media

import (
	"errors"
	"time"
)

// Kind enum
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var (
	// ErrUnsupportedFormat is returned for anything that is not image/* or video/*.
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyFile         = errors.New("empty file")
)

// File is the raw upload as received from the user.
type File struct {
	Filename string
	MIMEType string
	Content  []byte
}

// PreviewHandle is a revocable reference to a displayable copy of the media.
type PreviewHandle struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Asset is one accepted media file. Kind never changes after Classify.
type Asset struct {
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	MIMEType  string        `json:"mime_type"`
	Kind      Kind          `json:"kind"`
	Size      int64         `json:"size"`
	Content   []byte        `json:"-"`
	Preview   PreviewHandle `json:"preview"`
	CreatedAt time.Time     `json:"created_at"`
}
