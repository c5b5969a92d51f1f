package internal_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/identity-service/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ClientIP", func() {
	request := func(remoteAddr string, headers map[string]string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req
	}

	DescribeTable("derives the address from the peer only",
		func(remoteAddr string, headers map[string]string, expected string) {
			Expect(internal.ClientIP(request(remoteAddr, headers))).To(Equal(expected))
		},
		Entry("host and port", "203.0.113.9:5555", nil, "203.0.113.9"),
		Entry("forged forwarding headers", "203.0.113.9:5555",
			map[string]string{"X-Forwarded-For": "not-an-ip, 1.2.3.4", "X-Real-IP": "1.2.3.4"}, "203.0.113.9"),
		Entry("bare address rewritten by RealIP", "198.51.100.4", nil, "198.51.100.4"),
		Entry("bracketed IPv6 with port", "[2001:db8::1]:443", nil, "2001:db8::1"),
		Entry("hostname", "proxy.internal:8080", nil, ""),
		Entry("empty", "", nil, ""),
	)
})
