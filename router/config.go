package router

import "time"

// Config holds the settings for the default middleware stages.
type Config struct {
	// Timeout bounds each request. Zero disables the timeout stage.
	Timeout time.Duration
	CORS    CORSConfig
	// QuietRoutes are request paths the logging stage never logs.
	QuietRoutes []string
	// HideHeaders are replaced by a length marker in request logs.
	HideHeaders []string
	// SkipValidation lists path prefixes that bypass OpenAPI request
	// validation, such as probe and metrics endpoints.
	SkipValidation []string
}

// CORSConfig configures the CORS stage. It is active only when Origins is
// non-empty; "*" allows every origin.
type CORSConfig struct {
	Origins          []string
	Methods          []string
	Headers          []string
	AllowCredentials bool
}

func (c Config) clone() Config {
	c.QuietRoutes = cloneStrings(c.QuietRoutes)
	c.HideHeaders = cloneStrings(c.HideHeaders)
	c.SkipValidation = cloneStrings(c.SkipValidation)
	c.CORS.Origins = cloneStrings(c.CORS.Origins)
	c.CORS.Methods = cloneStrings(c.CORS.Methods)
	c.CORS.Headers = cloneStrings(c.CORS.Headers)
	return c
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return append([]string(nil), values...)
}
