package schemas

import (
	"net/url"

	z "github.com/Oudwins/zog"
)

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type TaskSubmission struct {
	Email         string       `json:"email"`
	Secret        string       `json:"secret"`
	Task          string       `json:"task"`
	Round         int          `json:"round"`
	Nonce         string       `json:"nonce"`
	Brief         string       `json:"brief"`
	EvaluationURL string       `json:"evaluation_url"`
	Attachments   []Attachment `json:"attachments"`
}

var TaskSubmissionSchema = z.Struct(z.Shape{
	"Email":         z.String().Required().Trim(),
	"Secret":        z.String().Required(),
	"Task":          z.String().Required().Trim(),
	"Round":         z.Int().Required().OneOf([]int{1, 2}),
	"Nonce":         z.String().Required(),
	"Brief":         z.String().Required(),
	"EvaluationURL": z.String().Required().Trim().TestFunc(isHTTPURLTest, z.Message("evaluation_url is not a valid http(s) URL")),
})

func isHTTPURLTest(valPtr *string, ctx z.Ctx) bool {
	parsed, err := url.Parse(*valPtr)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
