// Package record implements the on-disk record codec for the store's log
// segments.
//
// A record is one command, serialized as a self-delimiting JSON object with
// an embedded command tag:
//
//	{"command":"Set","key":"k","value":"v"}
//	{"command":"Rm","key":"k"}
//
// Records are concatenated back-to-back with no framing bytes, no length
// prefixes and no mandatory separators. Boundaries between adjacent records
// are detected by the streaming decoder, which reports the byte offset at
// which the next record begins. That offset report is the only mechanism the
// engine uses to determine record lengths during recovery.
package record

import (
	"encoding/json"
	"fmt"
	"io"
)

// Command tag values distinguishing the two record shapes.
const (
	// TagSet marks a record that logically writes key ↦ value.
	TagSet = "Set"

	// TagRemove marks a record that logically deletes key.
	TagRemove = "Rm"
)

// Command is one decoded log record. The Name field carries the command tag;
// Value is only meaningful for Set records and is omitted from the encoding
// of Remove records.
type Command struct {
	Name  string `json:"command"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// NewSet builds the record that writes key ↦ value.
func NewSet(key, value string) Command {
	return Command{Name: TagSet, Key: key, Value: value}
}

// NewRemove builds the record that deletes key.
func NewRemove(key string) Command {
	return Command{Name: TagRemove, Key: key}
}

// IsSet reports whether the record is a Set command.
func (c Command) IsSet() bool {
	return c.Name == TagSet
}

// IsRemove reports whether the record is a Remove command.
func (c Command) IsRemove() bool {
	return c.Name == TagRemove
}

// Validate rejects records whose tag is neither Set nor Rm. Such bytes may
// parse as JSON but are not part of the log format.
func (c Command) Validate() error {
	switch c.Name {
	case TagSet, TagRemove:
		return nil
	default:
		return fmt.Errorf("unknown command tag %q", c.Name)
	}
}

// Encode serializes one command into its on-disk byte form. The output of
// Encode round-trips through DecodeOne and the streaming Decoder for any key
// and value, including strings
// containing arbitrary Unicode, embedded quotes and newlines; JSON's standard
// escaping handles all of them.
func Encode(cmd Command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeOne decodes exactly one record from data, which must hold the record's
// full byte range and nothing else. This is the read path's counterpart of the
// index: the engine fetches the exact range an index entry names and decodes
// it in isolation.
func DecodeOne(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, err
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Decoder streams records out of a reader positioned at a record boundary.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder constructs a streaming decoder over r. The offsets it reports
// are relative to r's position at construction time, so callers replaying a
// segment seek to offset zero first.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next decodes the next record and returns it together with the byte offset
// in the source at which the following record begins. A clean end of the
// stream surfaces as io.EOF; bytes that don't parse as a complete record,
// including a torn record at the tail, surface as a decode error.
func (d *Decoder) Next() (Command, int64, error) {
	var cmd Command
	if err := d.dec.Decode(&cmd); err != nil {
		return Command{}, 0, err
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, 0, err
	}
	return cmd, d.dec.InputOffset(), nil
}
