package erp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	erpdomain "github.com/citypaints/erp-sync/internal/domain/erp"
)

// newProductAPIServer serves a canned login plus the given product handlers.
func newProductAPIServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/authentication/login" {
			writeJSON(t, w, http.StatusOK, map[string]any{"AccessToken": "t", "ExpiresIn": 3600})
			return
		}
		if h, ok := handlers[r.URL.Path]; ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func TestProductAPI_ListPrices_WrapperObject(t *testing.T) {
	server := newProductAPIServer(t, map[string]http.HandlerFunc{
		"/products/prices/42": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"Id":  42,
				"SKU": "PNT-42",
				"Product_Prices": []map[string]any{
					{
						"Unit_Id": 7,
						"Prices": []map[string]any{
							{"IsCustomerPrice": true, "Selling_Price": 19.99},
						},
					},
				},
			})
		},
	})
	defer server.Close()

	api := NewProductAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

	prices, err := api.ListPrices(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, int64(7), prices[0].UnitID)
	require.Len(t, prices[0].Prices, 1)
	assert.Equal(t, 19.99, prices[0].Prices[0].SellingPrice)
	assert.True(t, prices[0].Prices[0].IsCustomerPrice)
}

func TestProductAPI_ListPrices_BareArray(t *testing.T) {
	server := newProductAPIServer(t, map[string]http.HandlerFunc{
		"/products/prices/42": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, []map[string]any{
				{"Unit_Id": 7, "Prices": []map[string]any{{"Selling_Price": 9.5}}},
				{"Unit_Id": 8, "Prices": []map[string]any{{"Selling_Price": 12.0}}},
			})
		},
	})
	defer server.Close()

	api := NewProductAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

	prices, err := api.ListPrices(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, int64(8), prices[1].UnitID)
}

func TestProductAPI_ListQuantities_WrapperWithoutKey(t *testing.T) {
	server := newProductAPIServer(t, map[string]http.HandlerFunc{
		"/products/quantities/9": func(w http.ResponseWriter, r *http.Request) {
			// A wrapper without the expected list degrades to empty, not error.
			writeJSON(t, w, http.StatusOK, map[string]any{"Id": 9, "SKU": "X"})
		},
	})
	defer server.Close()

	api := NewProductAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

	qtys, err := api.ListQuantities(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, qtys)
}

func TestProductAPI_ListImages_Wrapper(t *testing.T) {
	server := newProductAPIServer(t, map[string]http.HandlerFunc{
		"/products/images/5": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"Product_Images": []map[string]any{
					{
						"Unit_Id": 3,
						"Images":  []map[string]any{{"Path": "https://img.example.com/a.jpg"}},
					},
				},
			})
		},
	})
	defer server.Close()

	api := NewProductAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

	images, err := api.ListImages(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, int64(3), images[0].UnitID)
	require.Len(t, images[0].Images, 1)
	assert.Equal(t, "https://img.example.com/a.jpg", images[0].Images[0].Path)
}

func TestProductAPI_ListProducts(t *testing.T) {
	server := newProductAPIServer(t, map[string]http.HandlerFunc{
		"/products": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, []map[string]any{
				{
					"Id":   1,
					"SKU":  " PNT-1 ",
					"Name": "Wall Paint",
					"Product_Units": []map[string]any{
						{"Id": 10, "Short_Name": "1L"},
						{"Id": 11, "Short_Name": "5L"},
					},
					"Product_BarCodes": []map[string]any{
						{"Id": 10, "BarCode": "12345678"},
					},
				},
			})
		},
	})
	defer server.Close()

	api := NewProductAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

	products, err := api.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Len(t, products[0].ProductUnits, 2)
	assert.Len(t, products[0].ProductBarCodes, 1)
}

func TestProductAPI_GetBySKU(t *testing.T) {
	t.Run("object response", func(t *testing.T) {
		server := newProductAPIServer(t, map[string]http.HandlerFunc{
			"/products/sku/PNT-1": func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusOK, map[string]any{"Id": 1, "SKU": "PNT-1"})
			},
		})
		defer server.Close()

		api := NewProductAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

		product, err := api.GetBySKU(context.Background(), "PNT-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), product.ID)
	})

	t.Run("array response takes first", func(t *testing.T) {
		server := newProductAPIServer(t, map[string]http.HandlerFunc{
			"/products/sku/PNT-2": func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusOK, []map[string]any{
					{"Id": 2, "SKU": "PNT-2"},
					{"Id": 3, "SKU": "PNT-2"},
				})
			},
		})
		defer server.Close()

		api := NewProductAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

		product, err := api.GetBySKU(context.Background(), "PNT-2")
		require.NoError(t, err)
		assert.Equal(t, int64(2), product.ID)
	})

	t.Run("not found", func(t *testing.T) {
		server := newProductAPIServer(t, nil)
		defer server.Close()

		api := NewProductAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

		_, err := api.GetBySKU(context.Background(), "MISSING")
		assert.ErrorIs(t, err, erpdomain.ErrProductNotFound)
	})

	t.Run("empty array", func(t *testing.T) {
		server := newProductAPIServer(t, map[string]http.HandlerFunc{
			"/products/sku/EMPTY": func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusOK, []map[string]any{})
			},
		})
		defer server.Close()

		api := NewProductAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

		_, err := api.GetBySKU(context.Background(), "EMPTY")
		assert.ErrorIs(t, err, erpdomain.ErrProductNotFound)
	})
}

func TestOrderAPI_CreateOrder(t *testing.T) {
	server := newProductAPIServer(t, map[string]http.HandlerFunc{
		"/orders": func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			writeJSON(t, w, http.StatusOK, map[string]any{
				"Order": []map[string]any{
					{"Id": 1001, "ProfileDocumentReference": "SO-55"},
				},
			})
		},
	})
	defer server.Close()

	api := NewOrderAPI(newTestClient(t, server.URL, NewInMemoryTokenStore()))

	resp, err := api.CreateOrder(context.Background(), &erpdomain.OrderPayload{})
	require.NoError(t, err)

	result, ok := resp.First()
	require.True(t, ok)
	assert.Equal(t, int64(1001), result.ID)
	assert.Equal(t, "SO-55", result.ProfileDocumentReference)
	assert.Empty(t, result.ErrorMsg)
}
