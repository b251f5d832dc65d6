// Package router builds the host request pipeline in front of an API
// handler. CORS runs first when origins are configured, then the
// interceptors, so that a served document carries CORS headers but never
// reaches request validation. OpenAPI validation, the request timeout, and
// debug request logging follow. ExampleNew shows a document interceptor
// mounted ahead of an API handler.
package router
