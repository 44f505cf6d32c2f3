package app

import (
	"encoding/json"
	"net/http"
)

// Response is the Lambda proxy-style result both handlers return. Body is a
// JSON document encoded as a string.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func success(message string, extra map[string]string) Response {
	body := map[string]string{"message": message}
	for k, v := range extra {
		body[k] = v
	}
	return respond(http.StatusOK, body)
}

func failure(status int, message string) Response {
	return respond(status, map[string]string{"error": message})
}

func respond(status int, body map[string]string) Response {
	b, err := json.Marshal(body)
	if err != nil {
		// A map of strings always encodes.
		panic(err)
	}
	return Response{StatusCode: status, Body: string(b)}
}

// Message returns the "message" or "error" field of the body.
func (r Response) Message() string {
	var body map[string]string
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		return ""
	}
	if m, ok := body["message"]; ok {
		return m
	}
	return body["error"]
}
