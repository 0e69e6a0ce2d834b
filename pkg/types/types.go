package types

import "time"

// Body selects which payload of an interface is transformed.
type Body string

const (
	BodyRequest  Body = "request"
	BodyResponse Body = "response"
)

// Valid reports whether b names a known body.
func (b Body) Valid() bool {
	return b == BodyRequest || b == BodyResponse
}

// Interface is one API interface fetched from a YApi server.
type Interface struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Title       string    `json:"title"`
	Method      string    `json:"method"`
	Path        string    `json:"path"`
	ReqBodyType string    `json:"req_body_type"`
	ReqSchema   string    `json:"req_schema,omitempty"`
	ReqIsSchema bool      `json:"req_is_schema"`
	ResBodyType string    `json:"res_body_type"`
	ResSchema   string    `json:"res_schema,omitempty"`
	ResIsSchema bool      `json:"res_is_schema"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Schema returns the raw body text for the selected body and whether it is
// a JSON schema rather than a sample payload.
func (i *Interface) Schema(body Body) (string, bool) {
	if body == BodyRequest {
		return i.ReqSchema, i.ReqIsSchema
	}
	return i.ResSchema, i.ResIsSchema
}

// Snippet records one generated declaration text.
type Snippet struct {
	ID         int64     `json:"id"`
	Source     string    `json:"source"`
	Ref        string    `json:"ref"`
	Body       Body      `json:"body"`
	TopName    string    `json:"top_name"`
	DiscardTop bool      `json:"discard_top"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Snippet sources.
const (
	SourceYApi   = "yapi"
	SourceFile   = "file"
	SourceSample = "sample"
	SourceHAR    = "har"
	SourceInline = "inline"
)

// Exchange is one captured request/response pair.
type Exchange struct {
	Seq                 int                 `json:"seq"`
	Timestamp           time.Time           `json:"timestamp"`
	Method              string              `json:"method"`
	Host                string              `json:"host"`
	Path                string              `json:"path"`
	QueryParams         map[string][]string `json:"query_params,omitempty"`
	RequestBody         string              `json:"request_body,omitempty"`
	RequestBodyEncoding string              `json:"request_body_encoding,omitempty"`
	ContentType         string              `json:"content_type,omitempty"`
	StatusCode          int                 `json:"status_code"`
	ResponseBody        string              `json:"response_body,omitempty"`
	ResponseContentType string              `json:"response_content_type,omitempty"`
	CallCount           int                 `json:"call_count,omitempty"`
}
