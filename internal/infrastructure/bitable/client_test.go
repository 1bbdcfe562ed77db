package bitable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopops/revsync/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{"valid config", &Config{AppID: "cli_a1", AppSecret: "secret"}, nil},
		{"missing app id", &Config{AppSecret: "secret"}, ErrConfigMissingAppID},
		{"missing app secret", &Config{AppID: "cli_a1"}, ErrConfigMissingAppSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, LarkSuiteAPIURL, tt.config.APIBaseURL)
			assert.Equal(t, 10, tt.config.TimeoutSeconds)
		})
	}
}

// ---------------------------------------------------------------------------
// Record Tests
// ---------------------------------------------------------------------------

var testTarget = integration.PivotTarget{AppToken: "bascnApp", TableID: "tblRevenue", KeyField: "商品名"}

func TestClient_SearchRecords(t *testing.T) {
	t.Run("match found", func(t *testing.T) {
		fake := newFakeLark(t)
		fake.handle("POST /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records/search", func(w http.ResponseWriter, r *http.Request) {
			var req SearchRecordsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "and", req.Filter.Conjunction)
			require.Len(t, req.Filter.Conditions, 1)
			assert.Equal(t, "商品名", req.Filter.Conditions[0].FieldName)
			assert.Equal(t, "is", req.Filter.Conditions[0].Operator)
			assert.Equal(t, []string{"PD50"}, req.Filter.Conditions[0].Value)

			w.Write([]byte(`{"code":0,"msg":"success","data":{"items":[{"record_id":"recA","fields":{"商品名":"PD50"}},{"record_id":"recB","fields":{}}],"total":2}}`))
		})
		defer fake.Close()

		handles, err := fake.client(t).SearchRecords(context.Background(), testTarget, "PD50")
		require.NoError(t, err)
		assert.Equal(t, []integration.PivotRecordHandle{"recA", "recB"}, handles)
		assert.Equal(t, "Bearer t-test-token", fake.lastAuth())
	})

	t.Run("no match", func(t *testing.T) {
		fake := newFakeLark(t)
		fake.handle("POST /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records/search", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":0,"msg":"success","data":{"items":[],"total":0}}`))
		})
		defer fake.Close()

		handles, err := fake.client(t).SearchRecords(context.Background(), testTarget, "PD50")
		require.NoError(t, err)
		assert.Empty(t, handles)
	})

	t.Run("envelope error is remote error", func(t *testing.T) {
		fake := newFakeLark(t)
		fake.handle("POST /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records/search", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":1254045,"msg":"FieldNameNotFound"}`))
		})
		defer fake.Close()

		_, err := fake.client(t).SearchRecords(context.Background(), testTarget, "PD50")
		assert.ErrorIs(t, err, integration.ErrRemoteAPIError)
		assert.False(t, integration.IsTransportFailure(err))
	})

	t.Run("server error is transport failure", func(t *testing.T) {
		fake := newFakeLark(t)
		fake.handle("POST /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records/search", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		defer fake.Close()

		_, err := fake.client(t).SearchRecords(context.Background(), testTarget, "PD50")
		assert.True(t, integration.IsTransportFailure(err))
	})

	t.Run("throttled is transport failure", func(t *testing.T) {
		fake := newFakeLark(t)
		fake.handle("POST /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records/search", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		defer fake.Close()

		_, err := fake.client(t).SearchRecords(context.Background(), testTarget, "PD50")
		assert.ErrorIs(t, err, integration.ErrPlatformRateLimited)
	})

	t.Run("bad request is hard failure", func(t *testing.T) {
		fake := newFakeLark(t)
		fake.handle("POST /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records/search", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":1254001,"msg":"WrongRequestBody"}`))
		})
		defer fake.Close()

		_, err := fake.client(t).SearchRecords(context.Background(), testTarget, "PD50")
		assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)
		assert.Contains(t, err.Error(), "1254001")
	})
}

func TestClient_CreateRecord(t *testing.T) {
	fake := newFakeLark(t)
	var body map[string]map[string]any
	fake.handle("POST /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"code":0,"msg":"success","data":{"record":{"record_id":"recNew","fields":{}}}}`))
	})
	defer fake.Close()

	handle, err := fake.client(t).CreateRecord(context.Background(), testTarget, integration.PivotFields{
		"商品名": "PD50",
		"15日": 59400.0,
	})
	require.NoError(t, err)
	assert.Equal(t, integration.PivotRecordHandle("recNew"), handle)
	assert.Equal(t, map[string]any{"商品名": "PD50", "15日": 59400.0}, body["fields"])
}

func TestClient_CreateRecordWithoutData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no data", `{"code":0,"msg":"success"}`},
		{"null data", `{"code":0,"msg":"success","data":null}`},
		{"empty record id", `{"code":0,"msg":"success","data":{"record":{"fields":{}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeLark(t)
			fake.handle("POST /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			defer fake.Close()

			handle, err := fake.client(t).CreateRecord(context.Background(), testTarget, integration.PivotFields{"商品名": "PD50"})
			assert.ErrorIs(t, err, integration.ErrPlatformInvalidResponse)
			assert.Empty(t, handle)
		})
	}
}

func TestClient_UpdateRecord(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := newFakeLark(t)
		var body map[string]map[string]any
		fake.handle("PUT /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records/recA", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Write([]byte(`{"code":0,"msg":"success","data":{"record":{"record_id":"recA","fields":{}}}}`))
		})
		defer fake.Close()

		err := fake.client(t).UpdateRecord(context.Background(), testTarget, "recA", integration.PivotFields{"商品名": "PD50", "16日": 100.0})
		require.NoError(t, err)
		assert.Len(t, body["fields"], 2)
		assert.Equal(t, 100.0, body["fields"]["16日"])
	})

	t.Run("non-zero code", func(t *testing.T) {
		fake := newFakeLark(t)
		fake.handle("PUT /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records/recA", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":1254043,"msg":"RecordIdNotFound"}`))
		})
		defer fake.Close()

		err := fake.client(t).UpdateRecord(context.Background(), testTarget, "recA", integration.PivotFields{"商品名": "PD50"})
		var remote *integration.RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, "1254043", remote.Code)
	})
}

func TestClient_ListFields(t *testing.T) {
	t.Run("fields of first record", func(t *testing.T) {
		fake := newFakeLark(t)
		fake.handle("GET /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("page_size"))
			w.Write([]byte(`{"code":0,"msg":"success","data":{"items":[{"record_id":"recA","fields":{"商品名":"PD50","1日":100,"15日":59400}}],"has_more":true}}`))
		})
		defer fake.Close()

		fields, err := fake.client(t).ListFields(context.Background(), testTarget)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"商品名", "1日", "15日"}, fields)
	})

	t.Run("empty table", func(t *testing.T) {
		fake := newFakeLark(t)
		fake.handle("GET /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":0,"msg":"success","data":{"items":[],"has_more":false}}`))
		})
		defer fake.Close()

		fields, err := fake.client(t).ListFields(context.Background(), testTarget)
		require.NoError(t, err)
		assert.NotNil(t, fields)
		assert.Empty(t, fields)
	})
}

func TestClient_TokenRejectedInvalidatesCache(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"code in 200 envelope", http.StatusOK, `{"code":99991663,"msg":"Invalid access token for authorization."}`, nil},
		{"code in 400 envelope", http.StatusBadRequest, `{"code":99991663,"msg":"Invalid access token for authorization."}`, integration.ErrPlatformRequestFailed},
		{"expired token in 400 envelope", http.StatusBadRequest, `{"code":99991677,"msg":"Authentication token expired."}`, integration.ErrPlatformRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeLark(t)
			calls := 0
			fake.handle("GET /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records", func(w http.ResponseWriter, r *http.Request) {
				calls++
				if calls == 1 {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
					return
				}
				w.Write([]byte(`{"code":0,"msg":"success","data":{"items":[]}}`))
			})
			defer fake.Close()

			client := fake.client(t)
			_, err := client.ListFields(context.Background(), testTarget)
			assert.ErrorIs(t, err, integration.ErrRemoteAPIError)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, 1, fake.tokenCalls())

			_, err = client.ListFields(context.Background(), testTarget)
			require.NoError(t, err)
			assert.Equal(t, 2, fake.tokenCalls())
		})
	}
}

func TestClient_StatusErrorKeepsRemoteCode(t *testing.T) {
	fake := newFakeLark(t)
	calls := 0
	fake.handle("PUT /open-apis/bitable/v1/apps/bascnApp/tables/tblRevenue/records/recA", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":1254045,"msg":"FieldNameNotFound"}`))
			return
		}
		w.Write([]byte(`{"code":0,"msg":"success","data":{"record":{"record_id":"recA","fields":{}}}}`))
	})
	defer fake.Close()

	client := fake.client(t)
	err := client.UpdateRecord(context.Background(), testTarget, "recA", integration.PivotFields{"商品名": "PD50"})
	assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)
	var remote *integration.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "1254045", remote.Code)
	assert.Equal(t, "FieldNameNotFound", remote.Message)

	// Not a token error, so the cached token survives
	require.NoError(t, client.UpdateRecord(context.Background(), testTarget, "recA", integration.PivotFields{"商品名": "PD50"}))
	assert.Equal(t, 1, fake.tokenCalls())
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// fakeLark serves the tenant token endpoint plus per-test handlers keyed by "METHOD path"
type fakeLark struct {
	*httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	tokens   int
	auth     string
}

func newFakeLark(t *testing.T) *fakeLark {
	f := &fakeLark{handlers: make(map[string]http.HandlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/open-apis/auth/v3/tenant_access_token/internal" {
			var req TenantTokenRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "cli_test", req.AppID)
			assert.Equal(t, "test_secret", req.AppSecret)
			f.mu.Lock()
			f.tokens++
			f.mu.Unlock()
			w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"t-test-token","expire":7200}`))
			return
		}

		f.mu.Lock()
		f.auth = r.Header.Get("Authorization")
		h, ok := f.handlers[r.Method+" "+r.URL.Path]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	return f
}

func (f *fakeLark) handle(route string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[route] = h
}

func (f *fakeLark) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeLark) tokenCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens
}

func (f *fakeLark) config() *Config {
	return &Config{
		AppID:          "cli_test",
		AppSecret:      "test_secret",
		APIBaseURL:     strings.TrimRight(f.URL, "/") + "/open-apis",
		TimeoutSeconds: 5,
	}
}

func (f *fakeLark) client(t *testing.T) *Client {
	client, err := NewClient(f.config(), nil)
	require.NoError(t, err)
	return client
}
