package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func requestContext(t *testing.T, remoteAddr string, headers map[string]string) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c
}

func TestClientIPHeaderPrecedence(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "forwarded chain wins and uses the first hop",
			remote:  "10.0.0.1:1234",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2", "X-Real-IP": "203.0.113.9"},
			want:    "203.0.113.7",
		},
		{
			name:    "real ip used when no forwarded chain",
			remote:  "10.0.0.1:1234",
			headers: map[string]string{"X-Real-IP": "203.0.113.9"},
			want:    "203.0.113.9",
		},
		{
			name:   "remote address stripped of port",
			remote: "10.0.0.1:1234",
			want:   "10.0.0.1",
		},
		{
			name:   "remote address without port passes through",
			remote: "10.0.0.1",
			want:   "10.0.0.1",
		},
	}
	for _, tc := range cases {
		c := requestContext(t, tc.remote, tc.headers)
		if got := clientIP(c); got != tc.want {
			t.Fatalf("%s: clientIP = %q, want %q", tc.name, got, tc.want)
		}
	}
}
