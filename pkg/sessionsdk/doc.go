// Package sessionsdk is a Go client for the cookie session service.
//
// The client keeps the session cookie in an http.CookieJar, so a Login
// followed by Get calls behaves like a browser:
//
//	c, _ := sessionsdk.NewClient("http://localhost:8080")
//	if err := c.Login(ctx, "alice", "correct-pw"); err != nil {
//		// *sessionsdk.Error carries the status code and error body
//	}
//	body, _ := c.Get(ctx, "/auth/user/user-profile")
//
// The package also holds the request and response types served by the
// HTTP handlers, so server and client share one definition.
package sessionsdk
