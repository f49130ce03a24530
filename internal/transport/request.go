// Package transport implements the HTTP header-driven wire protocol: the
// single `POST /` request is described entirely by headers (never query
// strings or JSON envelopes), and the response echoes the refunded
// remainder back the same way.
package transport

import (
	"io"
	"net/http"
	"strconv"

	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/voerr"
)

// Request is a parsed POST / request: the request kind plus every
// optional field a kind may need, per spec §6's request header table.
type Request struct {
	Type string

	Access  *ids.Id
	Refresh *ids.Id
	Phone   *string
	Message *ids.Id

	Costs costmodel.Costs
	Fed   *ids.Id

	Gid *string
	Arg *string

	Hash   *string
	Days   *int64
	Public *bool

	Vendor *ids.Id

	// Body is the MemePut request body, a stream of opaque bytes. Every
	// other request type ignores it.
	Body io.Reader
}

// Parse reads a Request out of r's headers.
func Parse(r *http.Request) (*Request, error) {
	h := r.Header

	reqType := h.Get("type")
	if reqType == "" {
		return nil, voerr.New(voerr.ApiMissingQueryType)
	}
	req := &Request{Type: reqType, Body: r.Body}

	var err error
	if req.Access, err = optionalID(h, "access"); err != nil {
		return nil, err
	}
	if req.Refresh, err = optionalID(h, "refresh"); err != nil {
		return nil, err
	}
	if v := h.Get("phone"); v != "" {
		req.Phone = &v
	}
	if req.Message, err = optionalID(h, "message"); err != nil {
		return nil, err
	}
	if req.Fed, err = optionalID(h, "fed"); err != nil {
		return nil, err
	}
	if req.Vendor, err = optionalID(h, "vendor"); err != nil {
		return nil, err
	}
	if v := h.Get("gid"); v != "" {
		req.Gid = &v
	}
	if v := h.Get("arg"); v != "" {
		req.Arg = &v
	}
	if v := h.Get("hash"); v != "" {
		req.Hash = &v
	}

	if req.Costs.Time, err = optionalInt(h, "time"); err != nil {
		return nil, err
	}
	if req.Costs.Space, err = optionalInt(h, "space"); err != nil {
		return nil, err
	}
	if req.Costs.Traffic, err = optionalInt(h, "traffic"); err != nil {
		return nil, err
	}
	if req.Costs.Tip, err = optionalInt(h, "tip"); err != nil {
		return nil, err
	}

	if v := h.Get("days"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, voerr.New(voerr.ApiParseNum)
		}
		req.Days = &n
	}
	if v := h.Get("public"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, voerr.New(voerr.ApiParseNum)
		}
		req.Public = &b
	}

	return req, nil
}

func optionalID(h http.Header, key string) (*ids.Id, error) {
	v := h.Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := ids.Parse(v)
	if err != nil {
		return nil, voerr.New(voerr.ApiParseId)
	}
	return &id, nil
}

func optionalInt(h http.Header, key string) (int64, error) {
	v := h.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, voerr.New(voerr.ApiParseNum)
	}
	return n, nil
}

// RequireAccess returns the request's access token, or ApiMissingEntry if
// absent.
func (req *Request) RequireAccess() (ids.Id, error) {
	if req.Access == nil {
		return ids.Zero, voerr.New(voerr.ApiMissingEntry)
	}
	return *req.Access, nil
}

// RequireGid returns the request's gene id, or ApiMissingEntry if absent.
func (req *Request) RequireGid() (string, error) {
	if req.Gid == nil {
		return "", voerr.New(voerr.ApiMissingEntry)
	}
	return *req.Gid, nil
}

// RequireArg returns the request's gene argument, defaulting to "{}" when
// absent (several gene operations accept an empty object).
func (req *Request) RequireArg() string {
	if req.Arg == nil {
		return "{}"
	}
	return *req.Arg
}

// RequireHash returns the request's content hash, or ApiParseHash if
// absent or malformed.
func (req *Request) RequireHash() (string, error) {
	if req.Hash == nil {
		return "", voerr.New(voerr.ApiParseHash)
	}
	if _, err := ids.ParseHash(*req.Hash); err != nil {
		return "", voerr.New(voerr.ApiParseHash)
	}
	return *req.Hash, nil
}

// RequireDays returns the request's day count, or ApiParseNum if absent.
func (req *Request) RequireDays() (int64, error) {
	if req.Days == nil {
		return 0, voerr.New(voerr.ApiParseNum)
	}
	return *req.Days, nil
}
