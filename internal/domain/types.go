package domain

import "strings"

// Route identifies one of the downstream operations the gateway fronts.
type Route string

const (
	RouteProcessDocument Route = "process-document"
	RouteAsk             Route = "ask"
	RouteSummarize       Route = "summarize"
	RouteCompare         Route = "compare"
)

// Path returns the downstream URL path for the route.
func (r Route) Path() string {
	return "/" + string(r)
}

// maxQuestionLength bounds questions forwarded to the processing service.
const maxQuestionLength = 2000

// AskRequest is the boundary schema for POST /ask.
type AskRequest struct {
	Question  string   `json:"question"`
	DocIDs    []string `json:"doc_ids,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
}

// Validate trims the question and rejects empty or oversized input before
// any downstream budget is spent.
func (r *AskRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return ErrValidation("Question cannot be empty")
	}
	if len(r.Question) > maxQuestionLength {
		return ErrValidation("Question exceeds maximum length")
	}
	return nil
}

// SummarizeRequest is the boundary schema for POST /summarize.
type SummarizeRequest struct {
	DocIDs    []string `json:"doc_ids,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
}

// CompareRequest is the boundary schema for POST /compare.
type CompareRequest struct {
	DocIDs    []string `json:"doc_ids,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
}

// ProcessDocumentRequest is the downstream payload for a staged upload.
// The staged file path is substituted for the raw bytes the client sent.
type ProcessDocumentRequest struct {
	FilePath     string `json:"filePath"`
	OriginalName string `json:"originalName"`
	SessionID    string `json:"sessionId,omitempty"`
}
