package providers

import "net/http"

// SharedClient is the process-global HTTP client every provider client is
// built over: one connection pool, no redirects followed for REST calls
// since a redirected response is treated the same as an unavailable one.
var SharedClient = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}
