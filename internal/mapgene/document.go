package mapgene

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxov/voxov/internal/voerr"
)

// reservedIndexed are the underscore-prefixed indexed keys every map
// document may carry, per spec §3's Map document field table.
var reservedIndexed = [8]string{"_0", "_1", "_2", "_3", "_4", "_5", "_6", "_7"}

// Document is a map_1 document as stored: the reserved fields pulled out
// into named members, and the caller's own fields kept as raw JSON.
type Document struct {
	Id     string                     `json:"_id"`
	Uid    string                     `json:"_uid"`
	Pub    bool                       `json:"_pub"`
	Eol    int64                      `json:"_eol"`
	Tip    int64                      `json:"_tip"`
	Size   int64                      `json:"_size"`
	Ns     string                     `json:"_ns,omitempty"`
	Idx    [8]json.RawMessage         `json:"-"`
	Geo    []float64                  `json:"_geo,omitempty"`
	Fields map[string]json.RawMessage `json:"-"`
}

// MarshalJSON flattens the reserved fields and user fields into one JSON
// object, the wire/storage representation of a map document.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Fields)+12)
	put := func(k string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[k] = b
		return nil
	}
	if err := put("_id", d.Id); err != nil {
		return nil, err
	}
	if err := put("_uid", d.Uid); err != nil {
		return nil, err
	}
	if err := put("_pub", d.Pub); err != nil {
		return nil, err
	}
	if err := put("_eol", d.Eol); err != nil {
		return nil, err
	}
	if err := put("_tip", d.Tip); err != nil {
		return nil, err
	}
	if err := put("_size", d.Size); err != nil {
		return nil, err
	}
	if d.Ns != "" {
		if err := put("_ns", d.Ns); err != nil {
			return nil, err
		}
	}
	if d.Geo != nil {
		if err := put("_geo", d.Geo); err != nil {
			return nil, err
		}
	}
	for i, v := range d.Idx {
		if v != nil {
			out[reservedIndexed[i]] = v
		}
	}
	for k, v := range d.Fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON, splitting reserved fields
// back out from the caller's own fields.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Fields = make(map[string]json.RawMessage)
	for k, v := range raw {
		switch k {
		case "_id":
			if err := json.Unmarshal(v, &d.Id); err != nil {
				return err
			}
		case "_uid":
			if err := json.Unmarshal(v, &d.Uid); err != nil {
				return err
			}
		case "_pub":
			if err := json.Unmarshal(v, &d.Pub); err != nil {
				return err
			}
		case "_eol":
			if err := json.Unmarshal(v, &d.Eol); err != nil {
				return err
			}
		case "_tip":
			if err := json.Unmarshal(v, &d.Tip); err != nil {
				return err
			}
		case "_size":
			if err := json.Unmarshal(v, &d.Size); err != nil {
				return err
			}
		case "_ns":
			if err := json.Unmarshal(v, &d.Ns); err != nil {
				return err
			}
		case "_geo":
			if err := json.Unmarshal(v, &d.Geo); err != nil {
				return err
			}
		default:
			if idx := indexedFieldIndex(k); idx >= 0 {
				d.Idx[idx] = v
				continue
			}
			if strings.HasPrefix(k, "_") {
				return voerr.New(voerr.ReservedKey)
			}
			d.Fields[k] = v
		}
	}
	return nil
}

func indexedFieldIndex(key string) int {
	for i, k := range reservedIndexed {
		if k == key {
			return i
		}
	}
	return -1
}

// ValidateUserFields rejects any user-supplied field name starting with an
// underscore that is not one of the recognized reserved keys -- callers
// populate Fields only from request bodies they've already screened, but
// this is the single choke point that enforces the invariant.
func ValidateUserFields(fields map[string]json.RawMessage) error {
	for k := range fields {
		if strings.HasPrefix(k, "_") {
			return voerr.New(voerr.ReservedKey)
		}
	}
	return nil
}

// Size returns the serialized byte size of the document, used for the
// space-cost computation.
func Size(d Document) (int64, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return 0, fmt.Errorf("sizing document: %w", err)
	}
	return int64(len(b)), nil
}
