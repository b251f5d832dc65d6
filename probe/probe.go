package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Func is a health check returning an error when the resource is unavailable.
type Func func(ctx context.Context) error

// DocumentHealth exposes the last captured generation failure of a document.
// *speccache.Cache satisfies it.
type DocumentHealth interface {
	LastFailure(name string) error
}

// DBPinger is the subset of *sql.DB used for readiness checks.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// MongoPinger is the subset of *mongo.Client used for readiness checks.
type MongoPinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// HTTPDoer is the subset of *http.Client used by NewHTTPProbe.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewDocumentProbe fails while the named document's last generation failed.
// A document that was never generated is considered healthy.
func NewDocumentProbe(docs DocumentHealth, name string) Func {
	return func(context.Context) error {
		if docs == nil {
			return nilComponentError("document "+name, "cache")
		}
		if err := docs.LastFailure(name); err != nil {
			return fmt.Errorf("document %s probe failed: %w", name, err)
		}
		return nil
	}
}

// NewPingProbe wraps fn with a named error.
func NewPingProbe(name string, fn Func) Func {
	return func(ctx context.Context) error {
		if fn == nil {
			return nilComponentError(name, "ping function")
		}
		if err := fn(contextOrBackground(ctx)); err != nil {
			return fmt.Errorf("%s probe failed: %w", name, err)
		}
		return nil
	}
}

// NewDBPingProbe pings a database such as PostgreSQL.
func NewDBPingProbe(name string, db DBPinger) Func {
	if db == nil {
		return NewPingProbe(name, nil)
	}
	return NewPingProbe(name, db.PingContext)
}

// NewMongoPingProbe pings MongoDB with readPref, or the primary when nil.
func NewMongoPingProbe(client MongoPinger, readPref *readpref.ReadPref) Func {
	if readPref == nil {
		readPref = readpref.Primary()
	}
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("mongo probe: client is nil")
		}
		if err := client.Ping(contextOrBackground(ctx), readPref); err != nil {
			return fmt.Errorf("mongo probe failed: %w", err)
		}
		return nil
	}
}

// NewHTTPProbe issues a GET against target and succeeds on a 2xx status. A nil
// client falls back to http.DefaultClient.
func NewHTTPProbe(name, target string, client HTTPDoer) Func {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		target := strings.TrimSpace(target)
		if target == "" {
			return fmt.Errorf("%s probe: target URL is required", name)
		}

		req, err := http.NewRequestWithContext(contextOrBackground(ctx), http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("%s probe: failed to build request: %w", name, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s probe request failed: %w", name, err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%s probe: unexpected status %d %s", name, resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func nilComponentError(name, component string) error {
	return fmt.Errorf("%s probe: %s is nil", name, component)
}
