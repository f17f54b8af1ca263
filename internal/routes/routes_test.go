package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/agrobazaar/internal/repository"
	"github.com/example/agrobazaar/internal/services"
	"github.com/example/agrobazaar/internal/utils"
)

type capturedSMS struct {
	codes map[string]string
}

func (c *capturedSMS) Send(_ context.Context, phone, message string) error {
	for i := 0; i+4 <= len(message); i++ {
		chunk := message[i : i+4]
		if isDigits(chunk) {
			c.codes[phone] = chunk
			break
		}
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type testServer struct {
	app *fiber.App
	sms *capturedSMS
	otp *services.OTPService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	codes := repository.NewMemoryOTPRepository()
	verified := repository.NewMemoryVerifiedPhoneStore()
	sellers := repository.NewMemorySellerRepository()
	products := repository.NewMemoryProductRepository()
	tokens := utils.NewTokenIssuer("test-secret", 720*time.Hour)
	sms := &capturedSMS{codes: map[string]string{}}

	otp := services.NewOTPService(codes, verified, sellers, sms, tokens, 30*time.Minute)

	app := NewApp("test", false)
	Register(app, Dependencies{
		OTP:      otp,
		Sellers:  services.NewSellerService(sellers, verified, tokens, nil),
		Products: services.NewProductService(products, nil),
		Storage:  services.NewStorageService(nil, "", "", time.Minute),
		Tokens:   tokens,
	})

	return &testServer{app: app, sms: sms, otp: otp}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(data)
		}
		reader = bytes.NewReader([]byte(raw))
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func sellerPayload(mobile string) map[string]any {
	return map[string]any{
		"name":         "A",
		"mobile":       mobile,
		"gender":       "Male",
		"storeDetails": map[string]any{"storeName": "A Agro"},
		"storeAddress": map[string]any{"village": "Wadgaon", "pincode": "413512"},
		"bankDetails":  map[string]any{"accountHolderName": "A", "ifscCode": "SBIN0000001"},
	}
}

// signUp runs the full OTP flow and returns the session token.
func (s *testServer) signUp(t *testing.T, mobile string) (string, map[string]any) {
	t.Helper()

	status, _ := s.do(t, http.MethodPost, "/api/seller/otp", "", map[string]any{"mobile": mobile})
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodPost, "/api/seller/verify", "", map[string]any{"mobile": mobile, "otp": s.sms.codes[mobile]})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, body["seller"])

	status, body = s.do(t, http.MethodPost, "/api/seller", "", sellerPayload(mobile))
	require.Equal(t, http.StatusCreated, status, body)

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	seller, _ := body["seller"].(map[string]any)
	return token, seller
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestWrongOTPIsRejected(t *testing.T) {
	s := newTestServer(t)
	s.otp.WithCodeGenerator(func() (string, error) { return "5678", nil })

	status, body := s.do(t, http.MethodPost, "/api/seller/otp", "", map[string]any{"mobile": "9876543210"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = s.do(t, http.MethodPost, "/api/seller/verify", "", map[string]any{"mobile": "9876543210", "otp": "1234"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid OTP.", body["error"])
}

func TestVerifyWithoutOTPIsNotFound(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/seller/verify", "", map[string]any{"mobile": "9876543210", "otp": 1234})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "OTP not found. Please request a new OTP.", body["error"])
}

func TestNumericOTPIsAccepted(t *testing.T) {
	s := newTestServer(t)
	s.otp.WithCodeGenerator(func() (string, error) { return "4821", nil })

	s.do(t, http.MethodPost, "/api/seller/otp", "", map[string]any{"mobile": "9876543210"})
	status, body := s.do(t, http.MethodPost, "/api/seller/verify", "", `{"mobile":"9876543210","otp":4821}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OTP verified successfully. Seller not found.", body["message"])
}

func TestSignUpThenFetchProfile(t *testing.T) {
	s := newTestServer(t)
	token, seller := s.signUp(t, "111")
	assert.NotEmpty(t, seller["_id"])

	status, body := s.do(t, http.MethodGet, "/api/seller", token, nil)
	require.Equal(t, http.StatusOK, status)
	profile := body["seller"].(map[string]any)
	assert.Equal(t, "111", profile["mobile"])
	assert.Equal(t, seller["_id"], profile["_id"])

	status, again := s.do(t, http.MethodGet, "/api/seller", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, body, again)
}

func TestCreateSellerWithoutVerification(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/seller", "", sellerPayload("222"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UNVERIFIED", body["code"])
}

func TestCreateSellerRejectsServerFields(t *testing.T) {
	s := newTestServer(t)
	payload := sellerPayload("222")
	payload["salesStatistics"] = map[string]any{"totalOrders": 99}

	status, body := s.do(t, http.MethodPost, "/api/seller", "", payload)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestDuplicateSignUpConflicts(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "111")

	status, body := s.do(t, http.MethodPost, "/api/seller", "", sellerPayload("111"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Seller with this mobile number already exists.", body["error"])
}

func TestLoginThroughOTP(t *testing.T) {
	s := newTestServer(t)
	_, seller := s.signUp(t, "111")

	s.do(t, http.MethodPost, "/api/seller/otp", "", map[string]any{"mobile": "111"})
	status, body := s.do(t, http.MethodPost, "/api/seller/verify", "", map[string]any{"mobile": "111", "otp": s.sms.codes["111"]})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, seller["_id"], body["seller"].(map[string]any)["_id"])
}

func TestSellerRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/seller", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized, no token provided", body["error"])

	status, body = s.do(t, http.MethodGet, "/api/products", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized, token failed", body["error"])
}

func TestSellerUpdateAndDelete(t *testing.T) {
	s := newTestServer(t)
	token, seller := s.signUp(t, "111")
	otherToken, other := s.signUp(t, "222")
	id := seller["_id"].(string)

	status, body := s.do(t, http.MethodPut, "/api/seller/"+id, token, map[string]any{"lang": "Marathi"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Seller updated successfully", body["message"])
	assert.Equal(t, "Marathi", body["seller"].(map[string]any)["lang"])

	status, _ = s.do(t, http.MethodPut, "/api/seller/"+id, otherToken, map[string]any{"lang": "Hindi"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodGet, "/api/seller/all", token, nil)
	require.Equal(t, http.StatusOK, status)
	listed := body["sellers"].([]any)
	require.Len(t, listed, 2)
	for _, entry := range listed {
		assert.NotContains(t, entry.(map[string]any), "bankDetails")
		assert.Contains(t, entry.(map[string]any), "storeDetails")
	}

	status, _ = s.do(t, http.MethodDelete, "/api/seller/"+id, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodDelete, "/api/seller/"+other["_id"].(string), otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Seller removed successfully", body["message"])

	status, _ = s.do(t, http.MethodGet, "/api/seller", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func productPayload(name string, selling float64) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "Quality agro input",
		"category":    "Seeds",
		"brand":       "Mahyco",
		"images":      []string{"https://cdn.example.com/seed.jpg"},
		"price":       map[string]any{"mrp": 500, "sellingPrice": selling},
		"stock":       map[string]any{"quantity": 25},
	}
}

func TestProductLifecycleAndIsolation(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.signUp(t, "111")
	intruder, _ := s.signUp(t, "222")

	status, body := s.do(t, http.MethodPost, "/api/products", owner, productPayload("Cotton Seeds", 400))
	require.Equal(t, http.StatusCreated, status, body)
	product := body["product"].(map[string]any)
	id := product["_id"].(string)
	assert.Equal(t, 20.0, product["price"].(map[string]any)["discountPercentage"])

	status, body = s.do(t, http.MethodGet, "/api/products/"+id, intruder, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Product not found or unauthorized", body["error"])

	status, _ = s.do(t, http.MethodPut, "/api/products/"+id, intruder, map[string]any{"name": "Mine now"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodDelete, "/api/products/"+id, intruder, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodGet, "/api/products", intruder, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["count"])

	status, body = s.do(t, http.MethodPut, "/api/products/"+id, owner, map[string]any{"price": map[string]any{"mrp": 1000, "sellingPrice": 750}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 25.0, body["product"].(map[string]any)["price"].(map[string]any)["discountPercentage"])

	status, _ = s.do(t, http.MethodDelete, "/api/products/"+id, owner, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/api/products/"+id, owner, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// The mobile client's add-product screen sends the derived discount along
// with every other product section.
const clientProductPayload = `{
	"name": "Hybrid Cotton Seeds",
	"description": "High yield BT cotton",
	"category": "Seeds",
	"subCategory": "",
	"brand": "Mahyco",
	"images": ["https://cdn.example.com/cotton.jpg"],
	"price": {"mrp": 500, "sellingPrice": 400, "discountPercentage": 20},
	"stock": {"quantity": 25, "lowStockThreshold": 5},
	"specifications": {
		"weight": "450g",
		"composition": "",
		"usageInstructions": "",
		"expiryDate": "2027-03-31T00:00:00.000Z",
		"cropSuitability": ["Cotton"],
		"soilType": ["Black"],
		"organic": false
	},
	"shipping": {"weight": 0.5, "dimensions": {"length": 20, "width": 12, "height": 3}, "deliveryTimeInDays": 3},
	"tags": ["cotton", "bt"],
	"returnPolicy": ""
}`

func TestCreateProductWithClientPayload(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.signUp(t, "111")

	status, body := s.do(t, http.MethodPost, "/api/products", owner, clientProductPayload)
	require.Equal(t, http.StatusCreated, status, body)

	product := body["product"].(map[string]any)
	price := product["price"].(map[string]any)
	assert.Equal(t, 20.0, price["discountPercentage"])
	assert.Equal(t, "2027-03-31T00:00:00Z", product["specifications"].(map[string]any)["expiryDate"])
	assert.Equal(t, "7-day return available", product["returnPolicy"])

	// A client-supplied discount never overrides the derived one.
	status, body = s.do(t, http.MethodPut, "/api/products/"+product["_id"].(string), owner,
		`{"price":{"mrp":1000,"sellingPrice":900,"discountPercentage":50}}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 10.0, body["product"].(map[string]any)["price"].(map[string]any)["discountPercentage"])
}

func TestCreateProductReportsNestedUnknownField(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.signUp(t, "111")

	payload := productPayload("Neem Oil", 200)
	payload["stock"] = map[string]any{"quantity": 5, "warehouse": "A"}

	status, body := s.do(t, http.MethodPost, "/api/products", owner, payload)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, `Unknown field "stock.warehouse".`, body["error"])
}

func TestProductListQuery(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.signUp(t, "111")

	for _, p := range []struct {
		name  string
		price float64
	}{{"Bajra", 120}, {"Cotton", 400}, {"Maize", 260}} {
		status, _ := s.do(t, http.MethodPost, "/api/products", owner, productPayload(p.name, p.price))
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := s.do(t, http.MethodGet, "/api/products?minPrice=200&sortBy=price.sellingPrice:desc&limit=1", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 1, body["count"])
	assert.EqualValues(t, 1, body["limit"])
	products := body["products"].([]any)
	assert.Equal(t, "Cotton", products[0].(map[string]any)["name"])

	status, body = s.do(t, http.MethodGet, "/api/products?sortBy=password:asc", owner, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	status, _ = s.do(t, http.MethodGet, "/api/products?minPrice=cheap", owner, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearchUnavailableWithoutIndex(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.signUp(t, "111")

	status, body := s.do(t, http.MethodGet, "/api/products/search?q=neem", owner, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "SERVICE_UNAVAILABLE", body["code"])
}

func TestImageUploadUnconfigured(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/image/upload", "", map[string]any{"key": "a.png", "contentType": "image/png"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, false, body["success"])
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/seller/otp", "", `{"mobile":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}
