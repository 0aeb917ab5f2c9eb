package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes a JSON response with the given status code. The payload
// is marshaled before any header is written, so an encoding failure still
// produces a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail is an RFC 7807 problem. Extra fields are flattened into the
// top-level object (e.g. retry_after on 429).
type ProblemDetail struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Status   int                    `json:"status"`
	Detail   string                 `json:"detail,omitempty"`
	Instance string                 `json:"instance,omitempty"`
	Extra    map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Extra next to the standard members. Standard members
// win over Extra keys of the same name.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(p.Extra)+5)
	for k, v := range p.Extra {
		m[k] = v
	}

	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}

	return json.Marshal(m)
}

// RespondError writes an RFC 7807 problem for status with a detail message
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondProblem(w, ProblemDetail{Status: status, Detail: detail})
}

// RespondErrorWithExtras writes an RFC 7807 problem with additional members
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]interface{}) {
	RespondProblem(w, ProblemDetail{Status: status, Detail: detail, Extra: extras})
}

// RespondProblem writes p as application/problem+json, filling Type and Title
// from the status when they are empty.
func RespondProblem(w http.ResponseWriter, p ProblemDetail) {
	if p.Type == "" {
		p.Type = problemType(p.Status)
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	w.Write(payload)
}

// problemTypes maps the statuses this API returns to the RFC section that
// defines them
var problemTypes = map[int]string{
	// request problems
	http.StatusBadRequest:   "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1",
	http.StatusUnauthorized: "https://datatracker.ietf.org/doc/html/rfc7235#section-3.1",
	http.StatusForbidden:    "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.3",
	http.StatusNotFound:     "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4",
	http.StatusConflict:     "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.8",

	// AI collaborator problems
	http.StatusTooManyRequests: "https://datatracker.ietf.org/doc/html/rfc6585#section-4",
	http.StatusBadGateway:      "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.3",
	http.StatusGatewayTimeout:  "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.5",

	http.StatusInternalServerError: "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.1",
}

func problemType(status int) string {
	if t, ok := problemTypes[status]; ok {
		return t
	}
	return "about:blank"
}
