// Package settings persists the configuration and snippet list as the legacy
// ClipHoard SettingsData XML document.
package settings

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings is the user-facing configuration persisted alongside the snippets
type Settings struct {
	TopMost                   bool   `xml:"TopMost" json:"topMost"`
	OpenPopupOnCursorLocation bool   `xml:"OpenPopupOnCursorLocation" json:"openPopupAtCursor"`
	ClosePopupOnSelection     bool   `xml:"ClosePopupOnSelection" json:"closePopupOnSelection"`
	Control                   bool   `xml:"Control" json:"control"`
	Alt                       bool   `xml:"Alt" json:"alt"`
	Shift                     bool   `xml:"Shift" json:"shift"`
	Hotkey                    string `xml:"Hotkey" json:"hotkey"`
	AutoPasteDelay            int    `xml:"AutoPasteDelay" json:"autoPasteDelayMs"`
}

// Blob is the on-disk unit: settings plus the serialized snippet list
type Blob struct {
	XMLName xml.Name `xml:"SettingsData"`
	Settings
	SavedItems string `xml:"SavedItems"`
}

// IOError reports a settings file that could not be read or written
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s settings file %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError reports a settings file whose content is not a SettingsData document
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse settings file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileName returns the settings file name for a product
func FileName(product string) string {
	return product + "-SettingsData.txt"
}

// Default returns the first-run settings: no hotkey, no auto-paste, no snippets
func Default() *Blob {
	return &Blob{SavedItems: "[]"}
}

// Load reads the settings file at path. A missing file is first created with
// default values.
func Load(path string) (*Blob, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	blob, err := Unmarshal(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return blob, nil
}

// Unmarshal decodes a SettingsData document. Elements missing from data keep
// their default values.
func Unmarshal(data []byte) (*Blob, error) {
	blob := Default()
	data = bytes.TrimPrefix(data, utf8BOM)
	if err := xml.Unmarshal(data, blob); err != nil {
		return nil, err
	}
	if blob.XMLName.Local != "SettingsData" {
		return nil, fmt.Errorf("unexpected root element %q", blob.XMLName.Local)
	}
	blob.Hotkey = strings.TrimSpace(blob.Hotkey)

	return blob, nil
}

// Save writes the whole blob to path through a temporary file so that the
// previous file survives a failed write
func Save(path string, blob *Blob) error {
	data, err := Marshal(blob)
	if err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &IOError{Op: "write", Path: path, Err: err}
	}

	return nil
}

// Marshal renders the blob as an indented SettingsData document
func Marshal(blob *Blob) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(blob); err != nil {
		return nil, err
	}
	buf.WriteString("\n")

	return buf.Bytes(), nil
}
