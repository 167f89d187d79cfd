package xpipe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "xpipe-browser-test")
}

func TestAuthenticate_StoresToken(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/handshake" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body struct {
			Auth struct {
				Type string `json:"type"`
				Key  string `json:"key"`
			} `json:"auth"`
			Client struct {
				Type string `json:"type"`
				Name string `json:"name"`
			} `json:"client"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Auth.Type != "ApiKey" || body.Auth.Key != "k-123" {
			t.Errorf("unexpected auth payload: %+v", body.Auth)
		}
		if body.Client.Type != "Api" || body.Client.Name != "xpipe-browser-test" {
			t.Errorf("unexpected client payload: %+v", body.Client)
		}
		json.NewEncoder(w).Encode(map[string]string{"sessionToken": "tok-1"})
	})

	if err := c.Authenticate(context.Background(), "k-123"); err != nil {
		t.Fatal(err)
	}
	if !c.Authenticated() {
		t.Fatal("expected authenticated client")
	}
}

func TestAuthenticate_EmptyKey(t *testing.T) {
	c := New("http://localhost:0", "x")
	err := c.Authenticate(context.Background(), "  ")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})
	err := c.Authenticate(context.Background(), "k")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestQueryConnections_BearerAndDefaults(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/handshake":
			json.NewEncoder(w).Encode(map[string]string{"sessionToken": "tok-2"})
		case "/connection/query":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-2" {
				t.Errorf("unexpected auth header: %q", got)
			}
			var f Filter
			if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
				t.Fatal(err)
			}
			if f.Category != "*" || f.Connection != "*" || f.Type != "ssh" {
				t.Errorf("unexpected filter: %+v", f)
			}
			json.NewEncoder(w).Encode(map[string][]string{"found": {"a1", "a2"}})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	if err := c.Authenticate(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	ids, err := c.QueryConnections(context.Background(), Filter{Type: "ssh"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a1" || ids[1] != "a2" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestQueryConnections_Unauthenticated(t *testing.T) {
	c := New("http://localhost:0", "x")
	_, err := c.QueryConnections(context.Background(), Filter{})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestConnectionInfos_EmptyRequest(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"sessionToken": "t"})
	})
	if err := c.Authenticate(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	infos, err := c.ConnectionInfos(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if infos != nil {
		t.Fatalf("expected no infos without ids, got %v", infos)
	}
}

func TestConnectionInfos_DecodesRawData(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/handshake":
			json.NewEncoder(w).Encode(map[string]string{"sessionToken": "t"})
		case "/connection/info":
			var body struct {
				Connections []string `json:"connections"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if len(body.Connections) != 1 || body.Connections[0] != "a1" {
				t.Errorf("unexpected request ids: %v", body.Connections)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"infos": []map[string]any{
					{
						"connection": "a1",
						"name":       []string{"web1", "prod"},
						"rawData":    map[string]string{"containerName": "nginx"},
					},
				},
			})
		}
	})
	if err := c.Authenticate(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	infos, err := c.ConnectionInfos(context.Background(), []string{"a1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected one info, got %d", len(infos))
	}
	if infos[0].Name[0] != "web1" {
		t.Fatalf("unexpected name: %v", infos[0].Name)
	}
	if infos[0].RawData == nil || infos[0].RawData.ContainerName != "nginx" {
		t.Fatalf("unexpected raw data: %+v", infos[0].RawData)
	}
}

func TestOpenTerminal_Success(t *testing.T) {
	var gotDir string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/handshake":
			json.NewEncoder(w).Encode(map[string]string{"sessionToken": "t"})
		case "/connection/terminal":
			var body struct {
				Connection string `json:"connection"`
				Directory  string `json:"directory"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			gotDir = body.Directory
			w.WriteHeader(http.StatusOK)
		}
	})
	if err := c.Authenticate(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	if err := c.OpenTerminal(context.Background(), "a1", ""); err != nil {
		t.Fatal(err)
	}
	if gotDir != "/" {
		t.Fatalf("expected default directory /, got %q", gotDir)
	}
}

func TestOpenTerminal_SurfacesBodyVerbatim(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/handshake":
			json.NewEncoder(w).Encode(map[string]string{"sessionToken": "t"})
		case "/connection/terminal":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("connection refused"))
		}
	})
	if err := c.Authenticate(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	err := c.OpenTerminal(context.Background(), "a1", "/")
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if le.Body != "connection refused" {
		t.Fatalf("expected verbatim body, got %q", le.Body)
	}
	if le.Error() != "connection refused" {
		t.Fatalf("expected body as message, got %q", le.Error())
	}
}

func TestOpenTerminal_Unauthenticated(t *testing.T) {
	c := New("http://localhost:0", "x")
	err := c.OpenTerminal(context.Background(), "a1", "/")
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
}
