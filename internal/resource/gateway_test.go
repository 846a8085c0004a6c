package resource

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestHTTPGatewayRoutes(t *testing.T) {
	type seen struct{ method, path, body, contentType string }
	var got []seen

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = append(got, seen{r.Method, r.URL.Path, string(b), r.Header.Get("Content-Type")})
		switch r.Method {
		case http.MethodPost:
			var d itemDraft
			_ = json.Unmarshal(b, &d)
			_ = json.NewEncoder(w).Encode(item{ID: 21, Title: d.Title, Price: d.Price})
		case http.MethodPut:
			var d itemDraft
			_ = json.Unmarshal(b, &d)
			_ = json.NewEncoder(w).Encode(item{ID: 7, Title: d.Title})
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"unexpected":"shape"}`))
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":1,"title":"a"},{"id":2,"title":"b"}]`))
		}
	}))
	defer srv.Close()

	gw := NewHTTPGateway[item, itemDraft]("items", srv.URL+"/items/", WithListURL(srv.URL+"/all"))
	ctx := context.Background()

	created, err := gw.Create(ctx, itemDraft{Title: "Lamp", Price: 5})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 21 || created.Title != "Lamp" {
		t.Fatalf("created = %+v", created)
	}

	updated, err := gw.Update(ctx, 7, itemDraft{Title: "Desk"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != 7 || updated.Title != "Desk" {
		t.Fatalf("updated = %+v", updated)
	}

	id, err := gw.Delete(ctx, 7)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if id != 7 {
		t.Fatalf("deleted id = %d, want 7", id)
	}

	items, err := gw.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}

	want := []seen{
		{method: "POST", path: "/items", contentType: "application/json"},
		{method: "PUT", path: "/items/7", contentType: "application/json"},
		{method: "DELETE", path: "/items/7"},
		{method: "GET", path: "/all"},
	}
	if len(got) != len(want) {
		t.Fatalf("requests = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].method != w.method || got[i].path != w.path || got[i].contentType != w.contentType {
			t.Fatalf("request %d = %+v, want %+v", i, got[i], w)
		}
	}
	if !strings.Contains(got[0].body, `"title":"Lamp"`) {
		t.Fatalf("create body = %s", got[0].body)
	}
	if got[2].body != "" {
		t.Fatalf("delete sent a body: %q", got[2].body)
	}
}

func TestHTTPGatewayHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := NewHTTPGateway[item, itemDraft]("items", srv.URL+"/items")
	_, err := gw.Create(context.Background(), itemDraft{Title: "x"})

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.Status != 500 {
		t.Fatalf("status = %d, want 500", httpErr.Status)
	}
	if !strings.Contains(err.Error(), "request failed with status code 500") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestHTTPGatewayTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	gw := NewHTTPGateway[item, itemDraft]("items", srv.URL, WithTimeout(20*time.Millisecond))
	_, err := gw.Delete(context.Background(), 1)

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if tErr.Op != http.MethodDelete {
		t.Fatalf("op = %q", tErr.Op)
	}
}

func TestHTTPGatewayHeaders(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	gw := NewHTTPGateway[item, itemDraft]("items", srv.URL, WithHeader("Authorization", "Bearer t"))
	items, err := gw.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("items = %#v, want empty slice", items)
	}
	if auth != "Bearer t" {
		t.Fatalf("Authorization = %q", auth)
	}
}

func TestGatewayTimeoutLeavesClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	for _, opts := range [][]GatewayOption{
		{WithHTTPClient(shared), WithTimeout(2 * time.Second)},
		{WithTimeout(2 * time.Second), WithHTTPClient(shared)},
	} {
		o := buildGatewayOptions(opts)
		if o.client.Timeout != 2*time.Second {
			t.Fatalf("gateway timeout = %v, want 2s", o.client.Timeout)
		}
		if o.client == shared {
			t.Fatal("gateway uses the caller's client without copying")
		}
	}
	if shared.Timeout != time.Minute {
		t.Fatalf("shared client timeout = %v, want 1m", shared.Timeout)
	}

	if o := buildGatewayOptions([]GatewayOption{WithHTTPClient(shared)}); o.client != shared {
		t.Fatal("client without a timeout override should be used as is")
	}
}

func TestHTTPErrorTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", maxErrorDetail-1) + "é" + "tail"
	msg := (&HTTPError{Status: http.StatusBadGateway, Body: body}).Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("message is not valid UTF-8: %q", msg[len(msg)-8:])
	}
	want := "request failed with status code 502: " + strings.Repeat("a", maxErrorDetail-1) + "..."
	if msg != want {
		t.Fatalf("got %q, want %q", msg, want)
	}

	short := (&HTTPError{Status: 404, Body: " Not Found "}).Error()
	if short != "request failed with status code 404: Not Found" {
		t.Fatalf("got %q", short)
	}
}
