package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/ledger/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_App(t *testing.T) {
	t.Log("Given the need to route requests through the app.")
	{
		shutdown := make(chan os.Signal, 1)

		var order []string
		mw := func(name string) web.Middleware {
			return func(handler web.Handler) web.Handler {
				return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
					order = append(order, name)
					return handler(ctx, w, r)
				}
			}
		}

		app := web.NewApp(shutdown, mw("first"), mw("second"))

		app.Handle(http.MethodGet, "v1", "/balances/:address", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v, err := web.GetValues(ctx)
			if err != nil {
				return err
			}

			resp := map[string]string{
				"address": web.Param(r, "address"),
				"traceid": v.TraceID,
			}
			return web.Respond(ctx, w, resp, http.StatusOK)
		})

		app.Handle(http.MethodGet, "v1", "/broken", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			return web.NewShutdownError("integrity issue")
		})

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/balances/0xbill", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould get a 200 status: got %d", failed, w.Code)
		}

		var resp map[string]string
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the response: %s", failed, err)
		}

		if resp["address"] != "0xbill" || resp["traceid"] == "" {
			t.Fatalf("\t%s\tShould get the param and a trace id: %v", failed, resp)
		}
		t.Logf("\t%s\tShould get the param and a trace id.", success)

		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Fatalf("\t%s\tShould run the middleware in order: %v", failed, order)
		}
		t.Logf("\t%s\tShould run the middleware in order.", success)

		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/broken", nil))

		select {
		case <-shutdown:
			t.Logf("\t%s\tShould signal a shutdown for an integrity issue.", success)
		default:
			t.Fatalf("\t%s\tShould signal a shutdown for an integrity issue.", failed)
		}
	}
}
