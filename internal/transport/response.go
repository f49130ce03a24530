package transport

import (
	"io"
	"net/http"
	"strconv"

	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/voerr"
)

// WriteResult writes a successful response: the echoed request type, the
// refunded remainder across all four dimensions, and a JSON-string body.
func WriteResult(w http.ResponseWriter, reqType string, remainder costmodel.Costs, body string) {
	setCostHeaders(w, reqType, remainder)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// WriteStream writes a successful response whose body is streamed from
// src (MemeGet), rather than held as a single string.
func WriteStream(w http.ResponseWriter, reqType string, remainder costmodel.Costs, src io.Reader) error {
	setCostHeaders(w, reqType, remainder)
	w.WriteHeader(http.StatusOK)
	_, err := io.Copy(w, src)
	return err
}

// WriteError writes an error response: the HTTP status from statusFor (400
// for request-header errors, 5xx otherwise), `type: Error`, and
// `error: <kind>`, with no body.
func WriteError(w http.ResponseWriter, remainder costmodel.Costs, err error) {
	setCostHeaders(w, "Error", remainder)
	w.Header().Set("error", string(voerr.KindOf(err)))
	w.WriteHeader(statusFor(err))
}

func setCostHeaders(w http.ResponseWriter, reqType string, remainder costmodel.Costs) {
	w.Header().Set("type", reqType)
	w.Header().Set("time", strconv.FormatInt(remainder.Time, 10))
	w.Header().Set("space", strconv.FormatInt(remainder.Space, 10))
	w.Header().Set("traffic", strconv.FormatInt(remainder.Traffic, 10))
	w.Header().Set("tip", strconv.FormatInt(remainder.Tip, 10))
}

// statusFor maps an error kind to the response status code. Missing or
// malformed request headers are the client's fault (400); everything else
// -- cost/gene/meme failures, store errors -- is reported as 5xx with the
// kind carrying the real distinction the client needs.
func statusFor(err error) int {
	switch voerr.KindOf(err) {
	case voerr.ApiParseId, voerr.ApiParseNum, voerr.ApiParseHash,
		voerr.ApiMissingEntry, voerr.ApiUnknownQueryType, voerr.ApiMissingQueryType:
		return http.StatusBadRequest
	case voerr.IO:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
