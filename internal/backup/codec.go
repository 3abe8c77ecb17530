// Package backup converts goal data to and from the versioned JSON backup
// document.
//
// The document is an envelope carrying the schema version, the creation
// timestamp in epoch milliseconds and the list of goals with their
// transactions. Goal images are embedded as base64 PNG strings and every
// date-bearing field uses DateLayout.
package backup

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/greenstash/greenstash/internal/model"
)

// CurrentSchemaVersion is written into every envelope this codec produces.
const CurrentSchemaVersion = 1

// DateLayout is yyyy-MM-dd'T'HH:mm:ss.SSSZ, e.g. 2024-03-15T00:00:00.000+0000.
const DateLayout = "2006-01-02T15:04:05.000-0700"

// ImagePolicy decides what Decode does with an image that cannot be decoded.
type ImagePolicy string

const (
	// ImagePolicyFail aborts the whole decode with a CorruptImageError.
	ImagePolicyFail ImagePolicy = "fail"
	// ImagePolicyPlaceholder drops the image, records the error in
	// Envelope.ImageErrors and keeps going.
	ImagePolicyPlaceholder ImagePolicy = "placeholder"
)

func ParseImagePolicy(s string) (ImagePolicy, error) {
	switch ImagePolicy(s) {
	case ImagePolicyFail, ImagePolicyPlaceholder:
		return ImagePolicy(s), nil
	case "":
		return ImagePolicyFail, nil
	}
	return "", fmt.Errorf("invalid image policy %q: must be one of [fail placeholder]", s)
}

// Envelope is the decoded backup document.
type Envelope struct {
	Version   int
	Timestamp int64
	Data      []model.GoalWithTransactions

	// ImageErrors lists images dropped under ImagePolicyPlaceholder.
	ImageErrors []*CorruptImageError
}

// CreatedAt returns the envelope timestamp as a time.
func (e *Envelope) CreatedAt() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

type Options struct {
	ImagePolicy ImagePolicy
	// Location is used to render dates. Defaults to UTC.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// Codec encodes and decodes backup documents. It is safe for concurrent use.
type Codec struct {
	policy     ImagePolicy
	loc        *time.Location
	now        func() time.Time
	version    int
	migrations map[int]Migration
	last       atomic.Int64
}

func New(opts Options) *Codec {
	return newCodec(opts, CurrentSchemaVersion, migrations)
}

func newCodec(opts Options, version int, steps map[int]Migration) *Codec {
	c := &Codec{
		policy:     opts.ImagePolicy,
		loc:        opts.Location,
		now:        opts.Now,
		version:    version,
		migrations: steps,
	}
	if c.policy == "" {
		c.policy = ImagePolicyFail
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Version returns the schema version written by Encode.
func (c *Codec) Version() int {
	return c.version
}

// Encode wraps goals in an envelope stamped with the current schema version
// and time, and returns the JSON text.
func (c *Codec) Encode(goals []model.GoalWithTransactions) (string, error) {
	data := make([]goalWire, 0, len(goals))
	for i := range goals {
		g, err := c.goalToWire(&goals[i])
		if err != nil {
			return "", fmt.Errorf("data[%d]: %w", i, err)
		}
		data = append(data, g)
	}

	version := c.version
	timestamp := c.stamp()
	env := envelopeWire{
		Version:   &version,
		Timestamp: &timestamp,
		Data:      &data,
	}

	out, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup: %w", err)
	}
	return string(out), nil
}

// stamp returns the current time in epoch millis, never less than a
// previously returned value.
func (c *Codec) stamp() int64 {
	now := c.now().UnixMilli()
	for {
		last := c.last.Load()
		if now < last {
			now = last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// Decode parses a backup document produced by Encode, upgrading older
// schema versions through the registered migrations.
func (c *Codec) Decode(text string) (*Envelope, error) {
	doc := []byte(text)

	var head struct {
		Version *int `json:"version"`
	}
	err := json.Unmarshal(doc, &head)
	if err != nil {
		return nil, &MalformedBackupError{Err: err}
	}
	if head.Version == nil {
		return nil, malformed("version", "missing")
	}

	version := *head.Version
	if version <= 0 {
		return nil, malformed("version", "must be positive, got %d", version)
	}
	if version > c.version {
		return nil, &UnsupportedSchemaError{Version: version, Supported: c.version}
	}
	if version < c.version {
		doc, err = c.migrate(doc, version)
		if err != nil {
			return nil, err
		}
	}

	var wire envelopeWire
	err = json.Unmarshal(doc, &wire)
	if err != nil {
		return nil, &MalformedBackupError{Err: err}
	}
	if wire.Timestamp == nil {
		return nil, malformed("timestamp", "missing")
	}
	if wire.Data == nil {
		return nil, malformed("data", "missing")
	}

	env := &Envelope{
		Version:   c.version,
		Timestamp: *wire.Timestamp,
		Data:      make([]model.GoalWithTransactions, 0, len(*wire.Data)),
	}
	for i, g := range *wire.Data {
		goal, err := c.goalFromWire(i, &g, env)
		if err != nil {
			return nil, err
		}
		env.Data = append(env.Data, goal)
	}

	return env, nil
}
