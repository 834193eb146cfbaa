package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/emily/internal/agent/model"
	"github.com/Chative-core-poc-v1/emily/internal/catalog"
	"github.com/Chative-core-poc-v1/emily/internal/vectorstore"
)

type fakeAssistant struct {
	got []model.ConversationInput
}

func (f *fakeAssistant) Respond(_ context.Context, in model.ConversationInput) *model.AssistantResponse {
	f.got = append(f.got, in)
	return model.NewAssistantResponse([]model.ReplyMessage{
		{Text: "Hi there, welcome!", FacialExpression: model.ExpressionSmile, Animation: model.AnimationTalkingOne},
	}, nil)
}

type fakeIndexer struct {
	docs []*schema.Document
	err  error
}

func (f *fakeIndexer) Store(_ context.Context, docs []*schema.Document, _ ...indexer.Option) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, docs...)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

type testEnv struct {
	handler   http.Handler
	assistant *fakeAssistant
	indexer   *fakeIndexer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := &testEnv{assistant: &fakeAssistant{}, indexer: &fakeIndexer{}}
	env.handler = NewRouter(Deps{
		Assistant:      env.assistant,
		Indexer:        env.indexer,
		Catalog:        catalog.NewService(vectorstore.NewRedisStore(client, "product-store")),
		AllowedOrigins: []string{"http://shop.example"},
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestRoot(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Emily AI Retail Assistant API", body["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRespond(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := env.do(t, http.MethodPost, "/api/llm/response",
			`{"query":"show me phones","history":[{"role":"user","content":"hi"}],"language":"thai"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["messages"], 1)
		assert.Equal(t, []any{}, body["products"])

		require.Len(t, env.assistant.got, 1)
		assert.Equal(t, "show me phones", env.assistant.got[0].Query.String())
		assert.Equal(t, "thai", env.assistant.got[0].Language)
	})

	t.Run("nested query object", func(t *testing.T) {
		env := newTestEnv(t)
		rec, _ := env.do(t, http.MethodPost, "/api/llm/response", `{"query":{"query":"laptops"}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "laptops", env.assistant.got[0].Query.String())
	})

	cases := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"query":`},
		{name: "wrong history type", body: `{"query":"hi","history":"yesterday"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec, body := env.do(t, http.MethodPost, "/api/llm/response", tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.NotEmpty(t, body["detail"])
			assert.Empty(t, env.assistant.got)
		})
	}

	for _, body := range []string{`{"query":"   "}`, `{}`} {
		t.Run("blank query reaches the assistant "+body, func(t *testing.T) {
			env := newTestEnv(t)
			rec, resp := env.do(t, http.MethodPost, "/api/llm/response", body)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.NotEmpty(t, resp["messages"])
			assert.Len(t, env.assistant.got, 1)
		})
	}

	t.Run("assistant missing", func(t *testing.T) {
		h := NewRouter(Deps{})
		req := httptest.NewRequest(http.MethodPost, "/api/llm/response", strings.NewReader(`{"query":"hi"}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "detail")
	})
}

func TestAddProduct(t *testing.T) {
	const item = `{"Product_ID":7,"Category":"Phone","Brand":"Acme","Model":"X1","Description":"A phone","MRP":999,"Discount":"10%","Stock":3,"Warranty":"1 year","Rating":4.5}`

	t.Run("indexed", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := env.do(t, http.MethodPost, "/api/llm/addproduct", item)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Product Acme X1 added successfully", body["message"])

		require.Len(t, env.indexer.docs, 1)
		doc := env.indexer.docs[0]
		assert.Equal(t, "product_7", doc.ID)
		assert.Equal(t, "/products/7.jpg", doc.MetaData["img"])
	})

	t.Run("invalid", func(t *testing.T) {
		env := newTestEnv(t)
		rec, _ := env.do(t, http.MethodPost, "/api/llm/addproduct", `{"Product_ID":7}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, env.indexer.docs)
	})

	t.Run("index failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.indexer.err = errors.New("embedding quota exceeded")
		rec, body := env.do(t, http.MethodPost, "/api/llm/addproduct", item)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to add product", body["detail"])
	})
}

func TestCatalogLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/products/",
		`{"brand":"Acme","category":"Phone","description":"Flagship","MRP":999,"stock":4,"warranty":"1 year"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Product added successfully", body["message"])
	id := body["data"].(map[string]any)["product_id"].(string)
	require.NotEmpty(t, id)

	_, body = env.do(t, http.MethodPost, "/products",
		`{"brand":"Zeta","category":"Laptop","description":"Thin","MRP":1500,"stock":2,"warranty":"2 years"}`)
	require.Equal(t, "success", body["status"])

	rec, body = env.do(t, http.MethodGet, "/products/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	product := body["data"].(map[string]any)["product"].(map[string]any)
	assert.Equal(t, "Acme", product["brand"])
	assert.EqualValues(t, 999, product["MRP"])

	rec, body = env.do(t, http.MethodGet, "/products?max_price=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1, data["count"])

	rec, body = env.do(t, http.MethodPut, "/products/"+id, `{"stock":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product updated successfully", body["message"])

	_, body = env.do(t, http.MethodGet, "/products/"+id+"/", "")
	product = body["data"].(map[string]any)["product"].(map[string]any)
	assert.EqualValues(t, 9, product["stock"])
	assert.Equal(t, "Flagship", product["description"])

	_, body = env.do(t, http.MethodGet, "/categories/", "")
	assert.Equal(t, []any{"Laptop", "Phone"}, body["data"].(map[string]any)["categories"])
	_, body = env.do(t, http.MethodGet, "/brands", "")
	assert.Equal(t, []any{"Acme", "Zeta"}, body["data"].(map[string]any)["brands"])

	rec, body = env.do(t, http.MethodDelete, "/products/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product deleted successfully", body["message"])

	rec, body = env.do(t, http.MethodGet, "/products/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", body["detail"])
}

func TestCatalogErrors(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "bad min price", method: http.MethodGet, path: "/products?min_price=cheap", status: http.StatusBadRequest},
		{name: "bad max price", method: http.MethodGet, path: "/products?max_price=1e", status: http.StatusBadRequest},
		{name: "create missing fields", method: http.MethodPost, path: "/products", body: `{"brand":"Acme"}`, status: http.StatusUnprocessableEntity},
		{name: "create malformed", method: http.MethodPost, path: "/products", body: `{"MRP":"lots"}`, status: http.StatusUnprocessableEntity},
		{name: "update missing", method: http.MethodPut, path: "/products/nope", body: `{"stock":1}`, status: http.StatusNotFound},
		{name: "delete missing", method: http.MethodDelete, path: "/products/nope", status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := env.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/llm/response", nil)
		req.Header.Set("Origin", "http://shop.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://elsewhere.example")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		h := NewRouter(Deps{AllowedOrigins: []string{"*"}})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://any.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "http://any.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestRequestIDPropagates(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
