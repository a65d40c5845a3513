package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/niksmo/kiksniks/internal/adapter/content"
	"github.com/niksmo/kiksniks/internal/adapter/httphandler"
	"github.com/niksmo/kiksniks/internal/adapter/storage"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/service"
	"github.com/niksmo/kiksniks/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProducts = []domain.Product{
	{
		ID: "P1", ProductID: "G1", Name: "Dunk Low", Brand: "Nike",
		Category: "Shoes", Gender: "Men", Price: 5495, Color: "Red",
		Sizes: []string{"8", "9"}, IsFeatured: true,
	},
	{
		ID: "P2", ProductID: "G1", Name: "Dunk Low", Brand: "Nike",
		Category: "Shoes", Gender: "Men", Price: 5495, Color: "Blue",
		Sizes: []string{"9", "10"},
	},
	{
		ID: "P3", ProductID: "G3", Name: "Ultraboost", Brand: "Adidas",
		Category: "Shoes", Gender: "Women", Price: 8995, Color: "White",
		Sizes: []string{"7", "8"},
	},
	{
		ID: "P4", ProductID: "G4", Name: "Trefoil Cap", Brand: "Adidas",
		Category: "Accessories", Gender: "Unisex", Price: 1295.5, Color: "Black",
	},
}

type fakeSource struct {
	feed domain.ProductFeed
}

func (s fakeSource) FetchProducts(context.Context) (domain.ProductFeed, error) {
	return s.feed, nil
}

type fakeSubmitter struct {
	mu        sync.Mutex
	err       error
	inquiries []domain.Inquiry
	contacts  []domain.ContactMessage
	signups   []domain.NewsletterSignup
}

func (f *fakeSubmitter) SubmitInquiry(_ context.Context, in domain.Inquiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inquiries = append(f.inquiries, in)
	return nil
}

func (f *fakeSubmitter) SubmitContact(_ context.Context, m domain.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.contacts = append(f.contacts, m)
	return nil
}

func (f *fakeSubmitter) SubmitNewsletter(_ context.Context, s domain.NewsletterSignup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.signups = append(f.signups, s)
	return nil
}

func (f *fakeSubmitter) Inquiries() []domain.Inquiry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inquiries
}

func (f *fakeSubmitter) Contacts() []domain.ContactMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contacts
}

func (f *fakeSubmitter) Signups() []domain.NewsletterSignup {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signups
}

func (f *fakeSubmitter) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type testEnv struct {
	srv       *httptest.Server
	cl        *http.Client
	sf        *service.Storefront
	submitter *fakeSubmitter
}

type envOpt func(*httphandler.Config, *domain.ProductFeed, *bool)

func withNotice(n domain.Toast) envOpt {
	return func(_ *httphandler.Config, feed *domain.ProductFeed, _ *bool) {
		feed.Notice = &n
	}
}

func withRate(limit float64, burst int) envOpt {
	return func(cfg *httphandler.Config, _ *domain.ProductFeed, _ *bool) {
		cfg.FormRate = limit
		cfg.FormBurst = burst
	}
}

func notLoaded() envOpt {
	return func(_ *httphandler.Config, _ *domain.ProductFeed, load *bool) {
		*load = false
	}
}

func newEnv(t *testing.T, opts ...envOpt) *testEnv {
	t.Helper()

	cfg := httphandler.Config{
		SessionSecret: "0123456789abcdef0123456789abcdef",
		FormRate:      1000,
		FormBurst:     1000,
	}
	feed := domain.ProductFeed{Products: testProducts}
	load := true
	for _, opt := range opts {
		opt(&cfg, &feed, &load)
	}

	sub := &fakeSubmitter{}
	sf := service.New(fakeSource{feed}, sub, storage.NewMemory(), nil, nil)
	if load {
		require.NoError(t, sf.Refresh(t.Context()))
	}
	pages, err := content.New(0)
	require.NoError(t, err)

	h, err := httphandler.New(cfg, sf, pages)
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	cl := srv.Client()
	cl.Jar = jar

	return &testEnv{srv: srv, cl: cl, sf: sf, submitter: sub}
}

// noFollow returns a client sharing the session that stops at redirects.
func (e *testEnv) noFollow() *http.Client {
	return &http.Client{
		Transport: e.cl.Transport,
		Jar:       e.cl.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func (e *testEnv) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := e.cl.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp.StatusCode, readBody(t, resp)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := e.cl.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	return resp.StatusCode, readBody(t, resp)
}

func (e *testEnv) cart(t *testing.T) view.CartView {
	t.Helper()
	status, body := e.get(t, "/v1/cart")
	require.Equal(t, http.StatusOK, status)
	var v view.CartView
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestHealth(t *testing.T) {
	t.Run("Loaded", func(t *testing.T) {
		e := newEnv(t)
		status, body := e.get(t, "/healthz")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body)
	})

	t.Run("NotLoaded", func(t *testing.T) {
		e := newEnv(t, notLoaded())
		status, _ := e.get(t, "/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, status)

		status, body := e.get(t, "/?page=products")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Please wait for products to load")
	})
}

func TestIndex(t *testing.T) {
	e := newEnv(t)

	t.Run("Home", func(t *testing.T) {
		for _, path := range []string{"/", "/?page=unknown"} {
			status, body := e.get(t, path)
			assert.Equal(t, http.StatusOK, status, path)
			assert.Contains(t, body, "Featured Products", path)
			assert.NotContains(t, body, "Continue browsing", path)
		}
	})

	t.Run("MensShoes", func(t *testing.T) {
		status, body := e.get(t, "/?page=products&gender=Men&category=Shoes")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Dunk Low")
		assert.NotContains(t, body, "Ultraboost")
		assert.NotContains(t, body, "Trefoil Cap")
		assert.Contains(t, body, "Showing 1-1 of 1 results")
	})

	t.Run("NoResults", func(t *testing.T) {
		_, body := e.get(t, "/?page=products&brand=Puma")
		assert.Contains(t, body, "No products found")
	})

	t.Run("ContinueBrowsing", func(t *testing.T) {
		_, _ = e.get(t, "/?page=products&brand=Adidas")
		_, body := e.get(t, "/")
		assert.Contains(t, body, "Continue browsing")
	})

	t.Run("Contact", func(t *testing.T) {
		status, body := e.get(t, "/?page=contact")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Contact Us")
	})
}

func TestProductDetail(t *testing.T) {
	e := newEnv(t)

	t.Run("Variant", func(t *testing.T) {
		status, body := e.get(t, "/products/G1?variant=P2")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `name="product_id" value="P2"`)
		assert.Contains(t, body, "Select size")
	})

	t.Run("NoMatchingVariant", func(t *testing.T) {
		status, body := e.get(t, "/products/G1?color=Green")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "No color variations match your current filters")
		assert.Contains(t, body, `name="product_id" value="P1"`)
	})

	t.Run("NotFound", func(t *testing.T) {
		status, body := e.get(t, "/products/missing")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Contains(t, body, "Product not found")
	})
}

func TestCart(t *testing.T) {
	e := newEnv(t)

	t.Run("AddTwice", func(t *testing.T) {
		form := url.Values{"product_id": {"P1"}, "size": {"9"}}
		_, _ = e.post(t, "/cart/add", form)
		status, body := e.post(t, "/cart/add", form)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Dunk Low (9) added")

		v := e.cart(t)
		assert.Equal(t, 2, v.Count)
		require.Len(t, v.Lines, 1)
		assert.Equal(t, "P1-9", v.Lines[0].ID)
	})

	t.Run("SizeRequired", func(t *testing.T) {
		_, body := e.post(t, "/cart/add", url.Values{"product_id": {"P3"}})
		assert.Contains(t, body, "Please select a size")
		assert.Equal(t, 2, e.cart(t).Count)
	})

	t.Run("NoSizes", func(t *testing.T) {
		_, body := e.post(t, "/cart/add", url.Values{"product_id": {"P4"}})
		assert.Contains(t, body, "Trefoil Cap added")
		assert.Equal(t, 3, e.cart(t).Count)
	})

	t.Run("Update", func(t *testing.T) {
		_, _ = e.post(t, "/cart/update", url.Values{"item_id": {"P1-9"}, "quantity": {"5"}})
		assert.Equal(t, 6, e.cart(t).Count)

		_, body := e.post(t, "/cart/update", url.Values{"item_id": {"P1-9"}, "quantity": {"x"}})
		assert.Contains(t, body, "Please enter a valid quantity")
	})

	t.Run("Remove", func(t *testing.T) {
		_, _ = e.post(t, "/cart/remove", url.Values{"item_id": {"P1-9"}})
		v := e.cart(t)
		require.Len(t, v.Lines, 1)
		assert.Equal(t, "P4-default", v.Lines[0].ID)
	})

	t.Run("AddSelected", func(t *testing.T) {
		_, body := e.post(t, "/cart/add-selected", url.Values{"product_id": {"P1", "P3", "P1"}})
		assert.Contains(t, body, "Added 2 items to bag")

		_, body = e.post(t, "/cart/add-selected", url.Values{})
		assert.Contains(t, body, "Please select products first")
	})

	t.Run("Clear", func(t *testing.T) {
		status, body := e.post(t, "/cart/clear", url.Values{})
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Your bag is empty.")
		assert.True(t, e.cart(t).Empty())
	})
}

func TestReturnPath(t *testing.T) {
	e := newEnv(t)
	cl := e.noFollow()

	tests := []struct {
		ret  string
		want string
	}{
		{"https://evil.example/", "/cart"},
		{"//evil.example/", "/cart"},
		{"/?page=products&brand=Nike", "/?page=products&brand=Nike"},
	}
	for _, tt := range tests {
		resp, err := cl.PostForm(e.srv.URL+"/cart/clear", url.Values{"return": {tt.ret}})
		require.NoError(t, err)
		_ = readBody(t, resp)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, tt.want, resp.Header.Get("Location"), tt.ret)
	}
}

var validCustomer = url.Values{
	"name":    {"Juan Dela Cruz"},
	"email":   {"juan@example.com"},
	"phone":   {"0917 123 4567"},
	"message": {"Is size 9 in stock?"},
}

func TestCheckout(t *testing.T) {
	t.Run("EmptyCart", func(t *testing.T) {
		e := newEnv(t)
		_, body := e.get(t, "/checkout")
		assert.Contains(t, body, "Your bag is empty")
	})

	t.Run("InvalidForm", func(t *testing.T) {
		e := newEnv(t)
		_, _ = e.post(t, "/cart/add", url.Values{"product_id": {"P1"}, "size": {"9"}})

		form := url.Values{"name": {"J"}, "email": {"juan"}, "phone": {"123"}}
		status, body := e.post(t, "/checkout", form)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, body, "Please correct the errors in the form")
		assert.Contains(t, body, "Please enter a valid email address")
		assert.Contains(t, body, `value="J"`)
		assert.Equal(t, 1, e.cart(t).Count)
		assert.Empty(t, e.submitter.Inquiries())
	})

	t.Run("SubmitFailed", func(t *testing.T) {
		e := newEnv(t)
		e.submitter.setErr(errors.New("boom"))
		_, _ = e.post(t, "/cart/add", url.Values{"product_id": {"P1"}, "size": {"9"}})

		status, body := e.post(t, "/checkout", validCustomer)
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Contains(t, body, "Failed to send inquiry")
		assert.Contains(t, body, `value="Juan Dela Cruz"`)
		assert.Equal(t, 1, e.cart(t).Count)
	})

	t.Run("Submitted", func(t *testing.T) {
		e := newEnv(t)
		_, _ = e.post(t, "/cart/add", url.Values{"product_id": {"P1"}, "size": {"9"}})
		_, _ = e.post(t, "/cart/add", url.Values{"product_id": {"P4"}})

		status, body := e.get(t, "/checkout")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Send Inquiry")

		status, body = e.post(t, "/checkout", validCustomer)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Inquiry sent successfully!")
		assert.True(t, e.cart(t).Empty())

		require.Len(t, e.submitter.Inquiries(), 1)
		in := e.submitter.Inquiries()[0]
		assert.Equal(t, "Juan Dela Cruz", in.Customer.Name)
		assert.Len(t, in.Items, 2)
		assert.InDelta(t, 6790.5, in.Total, 0.001)
	})
}

func TestContactAndNewsletter(t *testing.T) {
	e := newEnv(t)

	t.Run("ContactInvalid", func(t *testing.T) {
		status, body := e.post(t, "/contact", url.Values{"name": {"Juan"}})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, body, "Please correct the errors in the form")
		assert.Empty(t, e.submitter.Contacts())
	})

	t.Run("ContactSent", func(t *testing.T) {
		form := url.Values{
			"name":    {"Juan Dela Cruz"},
			"email":   {"juan@example.com"},
			"phone":   {"09171234567"},
			"subject": {"Restock"},
			"message": {"When will the Dunk Low restock?"},
		}
		status, body := e.post(t, "/contact", form)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Message sent successfully!")
		assert.Len(t, e.submitter.Contacts(), 1)
	})

	t.Run("NewsletterInvalid", func(t *testing.T) {
		_, body := e.post(t, "/newsletter", url.Values{"email": {"nope"}})
		assert.Contains(t, body, "Please enter a valid email address")
	})

	t.Run("NewsletterSubscribed", func(t *testing.T) {
		_, body := e.post(t, "/newsletter", url.Values{
			"email":  {"juan@example.com"},
			"return": {"/info/story"},
		})
		assert.Contains(t, body, "Thank you for subscribing!")
		assert.Contains(t, body, "Our Story")
		assert.Len(t, e.submitter.Signups(), 1)
	})
}

func TestFallbackNoticeOnce(t *testing.T) {
	notice := domain.NewToast(domain.ToastError,
		"Could not connect to Google Sheets. Using demo products.", "")
	e := newEnv(t, withNotice(notice))

	_, body := e.get(t, "/")
	assert.Equal(t, 1, strings.Count(body, notice.Message))

	_, body = e.get(t, "/?page=products")
	assert.NotContains(t, body, notice.Message)

	t.Run("AcrossRefreshes", func(t *testing.T) {
		e := newEnv(t, withNotice(notice))

		shown := 0
		for i := range 3 {
			if i > 0 {
				require.NoError(t, e.sf.Refresh(t.Context()))
			}
			_, body := e.get(t, "/")
			shown += strings.Count(body, notice.Message)
		}
		assert.Equal(t, 1, shown)
	})
}

func TestInfoPages(t *testing.T) {
	e := newEnv(t)

	status, body := e.get(t, "/info/faq?q=gcash")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "What payment methods do you accept?")
	assert.NotContains(t, body, "Sizing &amp; Fit")

	status, _ = e.get(t, "/info/story")
	assert.Equal(t, http.StatusOK, status)

	status, _ = e.get(t, "/info/missing")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = e.get(t, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI(t *testing.T) {
	e := newEnv(t)

	postJSON := func(t *testing.T, contentType, body string) (int, string) {
		t.Helper()
		resp, err := e.cl.Post(e.srv.URL+"/v1/cart/items", contentType, strings.NewReader(body))
		require.NoError(t, err)
		return resp.StatusCode, readBody(t, resp)
	}

	t.Run("Products", func(t *testing.T) {
		status, body := e.get(t, "/v1/products?brand=Nike")
		assert.Equal(t, http.StatusOK, status)
		var l view.Listing
		require.NoError(t, json.Unmarshal([]byte(body), &l))
		assert.Equal(t, 1, l.TotalItems)
		require.Len(t, l.Cards, 1)
		assert.Equal(t, "G1", l.Cards[0].GroupKey)
	})

	t.Run("MediaType", func(t *testing.T) {
		status, _ := postJSON(t, "text/plain", `{"productId":"P3","size":"8"}`)
		assert.Equal(t, http.StatusUnsupportedMediaType, status)
	})

	t.Run("BadJSON", func(t *testing.T) {
		status, _ := postJSON(t, "application/json", `{"productId":`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("SizeRequired", func(t *testing.T) {
		status, _ := postJSON(t, "application/json", `{"productId":"P3"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("NotFound", func(t *testing.T) {
		status, _ := postJSON(t, "application/json", `{"productId":"nope","size":"8"}`)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("Created", func(t *testing.T) {
		status, body := postJSON(t, "application/json; charset=utf-8", `{"productId":"P3","size":"8"}`)
		assert.Equal(t, http.StatusCreated, status)
		var v view.CartView
		require.NoError(t, json.Unmarshal([]byte(body), &v))
		assert.Equal(t, 1, v.Count)
		assert.Equal(t, "P3-8", v.Lines[0].ID)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("CartNotLimited", func(t *testing.T) {
		e := newEnv(t, withRate(1, 5))
		cl := e.noFollow()

		form := url.Values{"product_id": {"P1"}, "size": {"9"}}
		var codes []int
		for range 8 {
			resp, err := cl.PostForm(e.srv.URL+"/cart/add", form)
			require.NoError(t, err)
			_ = readBody(t, resp)
			codes = append(codes, resp.StatusCode)
		}
		for _, code := range codes {
			assert.Equal(t, http.StatusSeeOther, code)
		}

		v := e.cart(t)
		require.Len(t, v.Lines, 1)
		assert.Equal(t, 8, v.Lines[0].Quantity)
	})

	t.Run("Submissions", func(t *testing.T) {
		e := newEnv(t, withRate(0.001, 1))
		cl := e.noFollow()

		form := url.Values{"email": {"juan@example.com"}, "return": {"/info/story"}}
		resp, err := cl.PostForm(e.srv.URL+"/newsletter", form)
		require.NoError(t, err)
		_ = readBody(t, resp)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		_, body := e.get(t, "/info/story")
		assert.Contains(t, body, "Thank you for subscribing!")

		resp, err = cl.PostForm(e.srv.URL+"/newsletter", form)
		require.NoError(t, err)
		_ = readBody(t, resp)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/info/story", resp.Header.Get("Location"))
		_, body = e.get(t, "/info/story")
		assert.Contains(t, body, "Too many requests")
		assert.Len(t, e.submitter.Signups(), 1)

		apiResp, err := e.cl.Post(e.srv.URL+"/v1/cart/items", "application/json",
			strings.NewReader(`{"productId":"P1","size":"9"}`))
		require.NoError(t, err)
		apiBody := readBody(t, apiResp)
		assert.Equal(t, http.StatusTooManyRequests, apiResp.StatusCode)
		assert.Contains(t, apiBody, `"error"`)

		status, _ := e.get(t, "/cart")
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestNewRequiresSecret(t *testing.T) {
	sf := service.New(fakeSource{}, &fakeSubmitter{}, storage.NewMemory(), nil, nil)
	pages, err := content.New(0)
	require.NoError(t, err)
	_, err = httphandler.New(httphandler.Config{}, sf, pages)
	assert.Error(t, err)
}
