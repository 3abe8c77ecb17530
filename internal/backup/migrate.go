package backup

import (
	"bytes"
	"encoding/json"
)

// Migration upgrades a generic JSON document from version v to v+1 in place.
// Numbers are json.Number so amounts keep their exact text.
type Migration func(doc map[string]any) error

// migrations is keyed by the version a step upgrades from. Schema version 1
// is the first published format, so there is nothing to upgrade yet.
var migrations = map[int]Migration{}

// migrate walks doc from version up to the codec's version one step at a
// time. A missing step means the document cannot be read.
func (c *Codec) migrate(doc []byte, version int) ([]byte, error) {
	var generic map[string]any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	err := dec.Decode(&generic)
	if err != nil {
		return nil, &MalformedBackupError{Err: err}
	}

	for v := version; v < c.version; v++ {
		step, ok := c.migrations[v]
		if !ok {
			return nil, &UnsupportedSchemaError{Version: version, Supported: c.version}
		}
		err = step(generic)
		if err != nil {
			return nil, &MalformedBackupError{Path: "version", Err: err}
		}
	}
	generic["version"] = c.version

	out, err := json.Marshal(generic)
	if err != nil {
		return nil, &MalformedBackupError{Err: err}
	}
	return out, nil
}
