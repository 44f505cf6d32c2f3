// Package event turns S3 change notifications into work requests.
package event

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/apperr"
)

// WorkRequest identifies the object that triggered an invocation.
type WorkRequest struct {
	Bucket string
	Key    string
}

// Parse decodes a raw notification payload and returns the first record's
// bucket and key. Any decoding problem is a *apperr.MalformedEventError.
func Parse(raw []byte) (WorkRequest, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return WorkRequest{}, &apperr.MalformedEventError{Reason: "empty payload"}
	}
	var ev events.S3Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return WorkRequest{}, &apperr.MalformedEventError{Reason: "invalid JSON"}
	}
	return FromS3Event(ev)
}

// FromS3Event extracts the first record of an already-decoded notification.
//
// Keys arrive URL-encoded in notifications ("+" for space); the returned key is
// decoded so it can be used directly against the store.
func FromS3Event(ev events.S3Event) (WorkRequest, error) {
	if len(ev.Records) == 0 {
		return WorkRequest{}, &apperr.MalformedEventError{Reason: "no records"}
	}
	rec := ev.Records[0]
	bucket := strings.TrimSpace(rec.S3.Bucket.Name)
	if bucket == "" {
		return WorkRequest{}, &apperr.MalformedEventError{Reason: "missing s3.bucket.name"}
	}
	if rec.S3.Object.Key == "" {
		return WorkRequest{}, &apperr.MalformedEventError{Reason: "missing s3.object.key"}
	}
	key, err := url.QueryUnescape(rec.S3.Object.Key)
	if err != nil {
		return WorkRequest{}, &apperr.MalformedEventError{Reason: "undecodable s3.object.key"}
	}
	return WorkRequest{Bucket: bucket, Key: key}, nil
}
