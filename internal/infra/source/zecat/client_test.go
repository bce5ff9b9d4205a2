package zecat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"unified-catalog-service/internal/domain"
	"unified-catalog-service/internal/infra/fetch"
	"unified-catalog-service/internal/infra/source"
)

const (
	testBaseURL          = "https://zecat.example.com/v1"
	testProductsEndpoint = testBaseURL + "/generic_product"
	testFamiliesEndpoint = testBaseURL + "/family/"
)

func newTestClient() *Client {
	cfg := source.ClientConfig{
		BaseURL:   testBaseURL,
		AuthToken: "test-token",
		Timeout:   5 * time.Second,
		CB: source.CBConfig{
			MaxRequests:  5,
			Interval:     60 * time.Second,
			Timeout:      15 * time.Second,
			FailureRatio: 0.6,
		},
	}
	client := New(cfg, zap.NewNop())

	httpmock.ActivateNonDefault(client.client.GetClient())

	return client
}

func rawVariant(t *testing.T, stock int) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"sku": "SKU-1", "stock": stock, "color": "rojo"})
	require.NoError(t, err)

	return raw
}

func mockListingResponse(t *testing.T) Response {
	return Response{
		TotalPages: 1,
		Count:      2,
		GenericProducts: []GenericProduct{
			{
				ID:          "101",
				Name:        "Termo Acero",
				Description: "Termo de acero inoxidable",
				Price:       15.5,
				Currency:    "USD",
				Families:    []Family{{ID: "96", Title: "Drinkware"}},
				Images:      []Image{{ImageURL: "https://img.example.com/101-a.jpg"}, {ImageURL: "https://img.example.com/101-b.jpg"}},
				Products:    []json.RawMessage{rawVariant(t, 40), rawVariant(t, 2)},
			},
			{
				ID:       "102",
				Name:     "Remera Lisa",
				Families: []Family{{ID: "117", Description: "Remeras"}},
				Stock:    7,
			},
		},
	}
}

func TestZecat_ListProducts_Success(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testProductsEndpoint,
		httpmock.NewJsonResponderOrPanic(200, mockListingResponse(t)))

	client := newTestClient()
	page, err := client.ListProducts(context.Background(), domain.ListQuery{Page: 1, PageSize: 16})

	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)

	first := page.Products[0]
	assert.Equal(t, domain.SourceZecat, first.Source)
	assert.Equal(t, "101", first.ID)
	assert.Equal(t, "Termo Acero", first.Name)
	assert.Equal(t, []string{"https://img.example.com/101-a.jpg", "https://img.example.com/101-b.jpg"}, first.Images)
	require.Len(t, first.Categories, 1)
	assert.Equal(t, domain.Category{Source: domain.SourceZecat, ID: "96", Label: "Drinkware"}, first.Categories[0])
	assert.Equal(t, 42, first.StockTotal, "variant stocks are summed")
	assert.Len(t, first.Variants, 2, "variants retained verbatim")

	// Product-level stock is the fallback when variants carry none.
	assert.Equal(t, 7, page.Products[1].StockTotal)
	assert.Equal(t, "Remeras", page.Products[1].Categories[0].Label)
}

func TestZecat_ListProducts_QueryEncoding(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	var gotQuery string
	httpmock.RegisterResponder("GET", testProductsEndpoint,
		func(r *http.Request) (*http.Response, error) {
			gotQuery = r.URL.RawQuery

			return httpmock.NewJsonResponse(200, Response{})
		})

	client := newTestClient()
	_, err := client.ListProducts(context.Background(), domain.ListQuery{
		Page:        2,
		PageSize:    24,
		Search:      "termo",
		CategoryIDs: []string{"96", "156"},
	})

	require.NoError(t, err)
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "limit=24")
	assert.Contains(t, gotQuery, "name=termo")
	// families[] is a repeated parameter.
	assert.Contains(t, gotQuery, "families%5B%5D=96")
	assert.Contains(t, gotQuery, "families%5B%5D=156")
}

func TestZecat_ListProducts_HTTPError(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	for _, code := range []int{400, 404, 500, 503} {
		t.Run(fmt.Sprintf("status %d", code), func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder("GET", testProductsEndpoint,
				httpmock.NewStringResponder(code, "error"))

			client := newTestClient()
			page, err := client.ListProducts(context.Background(), domain.ListQuery{})

			require.Error(t, err)
			assert.Nil(t, page)

			var fe *fetch.Error
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, fetch.KindHTTPStatus, fe.Kind)
			assert.Equal(t, code, fe.Status)
		})
	}
}

func TestZecat_ListProducts_MalformedPayload(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testProductsEndpoint,
		httpmock.NewStringResponder(200, "<html>not json</html>"))

	client := newTestClient()
	_, err := client.ListProducts(context.Background(), domain.ListQuery{})

	require.Error(t, err)
	var fe *fetch.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fetch.KindMalformed, fe.Kind)
}

func TestZecat_GetProduct_Direct(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	product := mockListingResponse(t).GenericProducts[0]
	httpmock.RegisterResponder("GET", testProductsEndpoint+"/101",
		httpmock.NewJsonResponderOrPanic(200, product))

	client := newTestClient()
	got, err := client.GetProduct(context.Background(), "101")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "101", got.ID)
	assert.Equal(t, domain.SourceZecat, got.Source)
}

func TestZecat_GetProduct_EnvelopeResponse(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	product := mockListingResponse(t).GenericProducts[0]
	httpmock.RegisterResponder("GET", testProductsEndpoint+"/101",
		httpmock.NewJsonResponderOrPanic(200, map[string]any{"generic_product": product}))

	client := newTestClient()
	got, err := client.GetProduct(context.Background(), "101")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Termo Acero", got.Name)
}

func TestZecat_GetProduct_FallbackScan(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	// Direct endpoint rejects the id; the listing still contains it.
	httpmock.RegisterResponder("GET", testProductsEndpoint+"/102",
		httpmock.NewStringResponder(404, "not found"))
	httpmock.RegisterResponder("GET", testProductsEndpoint,
		httpmock.NewJsonResponderOrPanic(200, mockListingResponse(t)))

	client := newTestClient()
	got, err := client.GetProduct(context.Background(), "102")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Remera Lisa", got.Name)
}

func TestZecat_GetProduct_NotFound(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testProductsEndpoint+"/999",
		httpmock.NewStringResponder(404, "not found"))
	httpmock.RegisterResponder("GET", testProductsEndpoint,
		httpmock.NewJsonResponderOrPanic(200, mockListingResponse(t)))

	client := newTestClient()
	got, err := client.GetProduct(context.Background(), "999")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestZecat_ListCategories(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testFamiliesEndpoint,
		httpmock.NewJsonResponderOrPanic(200, FamiliesResponse{
			Families: []Family{
				{ID: "96", Title: "Drinkware"},
				{ID: "117", Description: "Remeras"},
			},
		}))

	client := newTestClient()
	categories, err := client.ListCategories(context.Background())

	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, domain.Category{Source: domain.SourceZecat, ID: "96", Label: "Drinkware"}, categories[0])
	assert.Equal(t, domain.Category{Source: domain.SourceZecat, ID: "117", Label: "Remeras"}, categories[1])
}

func TestZecat_CircuitBreaker_Opens(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testProductsEndpoint,
		httpmock.NewStringResponder(500, "Internal Server Error"))

	client := newTestClient()
	for i := 0; i < 5; i++ {
		_, err := client.ListProducts(context.Background(), domain.ListQuery{})
		require.Error(t, err)
	}

	start := time.Now()
	_, err := client.ListProducts(context.Background(), domain.ListQuery{})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Less(t, elapsed.Milliseconds(), int64(100))
}

func TestZecat_ContextCancellation(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testProductsEndpoint,
		func(_ *http.Request) (*http.Response, error) {
			time.Sleep(200 * time.Millisecond)

			return httpmock.NewJsonResponse(200, Response{})
		})

	client := newTestClient()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListProducts(ctx, domain.ListQuery{})
	require.Error(t, err)
}
