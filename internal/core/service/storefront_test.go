package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/niksmo/kiksniks/internal/adapter/storage"
	"github.com/niksmo/kiksniks/internal/core/catalog"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/service"
	"github.com/niksmo/kiksniks/internal/core/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type MockProductSource struct {
	mock.Mock
}

func (m *MockProductSource) FetchProducts(
	ctx context.Context,
) (domain.ProductFeed, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ProductFeed), args.Error(1)
}

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) SubmitInquiry(ctx context.Context, in domain.Inquiry) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockSubmitter) SubmitContact(ctx context.Context, c domain.ContactMessage) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockSubmitter) SubmitNewsletter(ctx context.Context, s domain.NewsletterSignup) error {
	return m.Called(ctx, s).Error(0)
}

type MockEventProducer struct {
	mock.Mock
}

func (m *MockEventProducer) ProduceEvent(ctx context.Context, e domain.Event) error {
	return m.Called(ctx, e).Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendInquiryConfirmation(ctx context.Context, in domain.Inquiry) error {
	return m.Called(ctx, in).Error(0)
}

const sessionID = "session-1"

var (
	now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	dunkRed = domain.Product{
		ID: "NK-001-red", ProductID: "NK-001", Name: "Dunk Low", Brand: "Nike",
		Category: "Shoes", Gender: "Men", Price: 5495, Color: "Red",
		Sizes: []string{"8", "9"}, IsFeatured: true,
	}
	dunkBlue = domain.Product{
		ID: "NK-001-blue", ProductID: "NK-001", Name: "Dunk Low", Brand: "Nike",
		Category: "Shoes", Gender: "Men", Price: 5495, Color: "Blue",
		Sizes: []string{"9", "10"},
	}
	trefoil = domain.Product{
		ID: "AD-002-black", ProductID: "AD-002", Name: "Trefoil Cap", Brand: "Adidas",
		Category: "Accessories", Gender: "Unisex", Price: 1200, Color: "Black",
	}

	realFeed = domain.ProductFeed{
		Products: []domain.Product{dunkRed, dunkBlue, trefoil},
	}
)

type fixture struct {
	source    *MockProductSource
	submitter *MockSubmitter
	events    *MockEventProducer
	mailer    *MockMailer
	sessions  *storage.Memory
	svc       *service.Storefront
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source:    new(MockProductSource),
		submitter: new(MockSubmitter),
		events:    new(MockEventProducer),
		mailer:    new(MockMailer),
		sessions:  storage.NewMemory(),
	}
	f.svc = service.New(
		f.source, f.submitter, f.sessions, f.events, f.mailer,
		service.WithClock(func() time.Time { return now }),
		service.WithPageSize(2),
	)
	return f
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	f.source.On("FetchProducts", mock.Anything).Return(realFeed, nil).Once()
	require.NoError(t, f.svc.Refresh(t.Context()))
}

func TestStorefrontRefresh(t *testing.T) {
	t.Run("NotLoaded", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Snapshot()
		assert.ErrorIs(t, err, service.ErrNotLoaded)
	})

	t.Run("Publish", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		snap, err := f.svc.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), snap.Generation)
		assert.Equal(t, 2, snap.Groups.Len())
		assert.Equal(t, catalog.Stats{Products: 2, Brands: 2}, snap.Stats)
		assert.Nil(t, snap.Notice)
	})

	t.Run("SourceError", func(t *testing.T) {
		f := newFixture(t)
		errSource := errors.New("unreachable")
		f.source.On("FetchProducts", mock.Anything).
			Return(domain.ProductFeed{}, errSource)

		err := f.svc.Refresh(t.Context())
		require.ErrorIs(t, err, errSource)
		_, err = f.svc.Snapshot()
		assert.ErrorIs(t, err, service.ErrNotLoaded)
	})

	t.Run("FallbackKeepsRealProducts", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		notice := domain.NewToast(domain.ToastWarning, "demo", "")
		f.source.On("FetchProducts", mock.Anything).Return(domain.ProductFeed{
			Products: []domain.Product{trefoil},
			Notice:   &notice,
		}, nil).Once()
		require.NoError(t, f.svc.Refresh(t.Context()))

		snap, err := f.svc.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), snap.Generation)
		assert.Len(t, snap.Products, 3)
	})

	t.Run("FallbackFirstLoad", func(t *testing.T) {
		f := newFixture(t)
		notice := domain.NewToast(domain.ToastWarning, "demo", "")
		f.source.On("FetchProducts", mock.Anything).Return(domain.ProductFeed{
			Products: []domain.Product{trefoil},
			Notice:   &notice,
		}, nil).Once()
		require.NoError(t, f.svc.Refresh(t.Context()))

		snap, err := f.svc.Snapshot()
		require.NoError(t, err)
		require.NotNil(t, snap.Notice)
		assert.Equal(t, "demo", snap.Notice.Message)
		assert.Equal(t, snap.Generation, snap.NoticeID)
	})

	t.Run("FallbackKeepsNoticeID", func(t *testing.T) {
		f := newFixture(t)
		notice := domain.NewToast(domain.ToastWarning, "demo", "")
		f.source.On("FetchProducts", mock.Anything).Return(domain.ProductFeed{
			Products: []domain.Product{trefoil},
			Notice:   &notice,
		}, nil).Times(3)

		for range 3 {
			require.NoError(t, f.svc.Refresh(t.Context()))
		}

		snap, err := f.svc.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), snap.Generation)
		assert.Equal(t, uint64(1), snap.NoticeID)
		f.source.AssertExpectations(t)
	})

	t.Run("RealDataClearsNotice", func(t *testing.T) {
		f := newFixture(t)
		notice := domain.NewToast(domain.ToastWarning, "demo", "")
		f.source.On("FetchProducts", mock.Anything).Return(domain.ProductFeed{
			Products: []domain.Product{trefoil},
			Notice:   &notice,
		}, nil).Once()
		require.NoError(t, f.svc.Refresh(t.Context()))
		f.load(t)

		snap, err := f.svc.Snapshot()
		require.NoError(t, err)
		assert.Nil(t, snap.Notice)
		assert.Zero(t, snap.NoticeID)
	})
}

type blockingSource struct {
	calls   atomic.Int32
	release chan struct{}
	entered chan struct{}
}

func (s *blockingSource) FetchProducts(
	ctx context.Context,
) (domain.ProductFeed, error) {
	if s.calls.Add(1) == 1 {
		close(s.entered)
	}
	select {
	case <-s.release:
		return realFeed, nil
	case <-ctx.Done():
		return domain.ProductFeed{}, ctx.Err()
	}
}

func TestStorefrontRefreshCoalesced(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &blockingSource{
		release: make(chan struct{}),
		entered: make(chan struct{}),
	}
	svc := service.New(src, new(MockSubmitter), storage.NewMemory(), nil, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- svc.Refresh(context.Background())
	}()
	<-src.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- svc.Refresh(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestStorefrontCatalog(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	filter := domain.NewFilterState().With(domain.DimColor, []string{"Red", "Blue"})
	view, err := f.svc.Catalog(t.Context(), sessionID, filter, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, 1, view.TotalPages)
	assert.Len(t, view.Items, 2)

	last, ok, err := f.svc.LastFilters(t.Context(), sessionID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, filter, last)

	_, ok, err = f.svc.LastFilters(t.Context(), "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorefrontProduct(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	g, err := f.svc.Product("NK-001", domain.NewFilterState())
	require.NoError(t, err)
	assert.Len(t, g.Variants, 2)

	_, err = f.svc.Product("missing", domain.NewFilterState())
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestStorefrontCart(t *testing.T) {
	t.Run("AddTwice", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		_, err := f.svc.AddToCart(t.Context(), sessionID, dunkRed.ID, "9")
		require.NoError(t, err)
		_, err = f.svc.AddToCart(t.Context(), sessionID, dunkRed.ID, "9")
		require.NoError(t, err)

		c, err := f.svc.Cart(t.Context(), sessionID)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, 2, c.Count())
	})

	t.Run("SizeRequired", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		_, err := f.svc.AddToCart(t.Context(), sessionID, dunkRed.ID, "")
		assert.ErrorIs(t, err, service.ErrSizeRequired)
		_, err = f.svc.AddToCart(t.Context(), sessionID, dunkRed.ID, "10")
		assert.ErrorIs(t, err, service.ErrSizeRequired)
	})

	t.Run("NoSizes", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		item, err := f.svc.AddToCart(t.Context(), sessionID, trefoil.ID, "L")
		require.NoError(t, err)
		assert.Equal(t, "AD-002-black-default", item.ID)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		_, err := f.svc.AddToCart(t.Context(), sessionID, "nope", "9")
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})

	t.Run("AddSelected", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		n, err := f.svc.AddSelected(t.Context(), sessionID,
			[]string{dunkBlue.ID, trefoil.ID, dunkBlue.ID, "nope"},
		)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		c, err := f.svc.Cart(t.Context(), sessionID)
		require.NoError(t, err)
		lines := c.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, "NK-001-blue-9", lines[0].ID)
		assert.Equal(t, "AD-002-black-default", lines[1].ID)

		_, err = f.svc.AddSelected(t.Context(), sessionID, nil)
		assert.ErrorIs(t, err, service.ErrNoSelection)
	})

	t.Run("UpdateRemoveClear", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)
		ctx := t.Context()

		item, err := f.svc.AddToCart(ctx, sessionID, dunkRed.ID, "8")
		require.NoError(t, err)
		_, err = f.svc.AddToCart(ctx, sessionID, trefoil.ID, "")
		require.NoError(t, err)

		c, err := f.svc.UpdateQuantity(ctx, sessionID, item.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, c.Count())

		c, err = f.svc.RemoveFromCart(ctx, sessionID, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Count())

		require.NoError(t, f.svc.ClearCart(ctx, sessionID))
		c, err = f.svc.Cart(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
	})

	t.Run("ConcurrentAdds", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		const n = 40
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.AddToCart(context.Background(), sessionID, dunkRed.ID, "9")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		c, err := f.svc.Cart(t.Context(), sessionID)
		require.NoError(t, err)
		assert.Equal(t, n, c.Count())
	})
}

func TestStorefrontSubmitInquiry(t *testing.T) {
	customer := domain.Customer{
		Name: " Juan ", Email: "juan@example.ph", Phone: "0917 555 0123",
	}

	t.Run("EmptyCart", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		_, err := f.svc.SubmitInquiry(t.Context(), sessionID, customer)
		assert.ErrorIs(t, err, service.ErrEmptyCart)
		f.submitter.AssertNotCalled(t, "SubmitInquiry", mock.Anything, mock.Anything)
	})

	t.Run("Invalid", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		_, err := f.svc.SubmitInquiry(t.Context(), sessionID, domain.Customer{Name: "J"})
		require.ErrorIs(t, err, validate.ErrInvalid)
		assert.Contains(t, validate.Fields(err), "email")
	})

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)
		ctx := t.Context()

		_, err := f.svc.AddToCart(ctx, sessionID, dunkRed.ID, "9")
		require.NoError(t, err)
		_, err = f.svc.AddToCart(ctx, sessionID, dunkRed.ID, "9")
		require.NoError(t, err)

		f.submitter.On("SubmitInquiry", mock.Anything, mock.MatchedBy(
			func(in domain.Inquiry) bool {
				return in.Customer.Name == "Juan" &&
					in.Total == 10990 &&
					len(in.Items) == 1 &&
					in.Items[0].Quantity == 2
			},
		)).Return(nil).Once()
		f.events.On("ProduceEvent", mock.Anything, mock.MatchedBy(
			func(e domain.Event) bool { return e.Kind == domain.EventInquiry },
		)).Return(nil).Once()
		f.mailer.On("SendInquiryConfirmation", mock.Anything, mock.Anything).
			Return(nil).Once()

		in, err := f.svc.SubmitInquiry(ctx, sessionID, customer)
		require.NoError(t, err)
		assert.NotEmpty(t, in.ID)
		assert.Equal(t, now, in.CreatedAt)

		c, err := f.svc.Cart(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())

		f.submitter.AssertExpectations(t)
		f.events.AssertExpectations(t)
		f.mailer.AssertExpectations(t)
	})

	t.Run("SubmitFailureKeepsCart", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)
		ctx := t.Context()

		_, err := f.svc.AddToCart(ctx, sessionID, dunkRed.ID, "9")
		require.NoError(t, err)

		errRemote := errors.New("remote down")
		f.submitter.On("SubmitInquiry", mock.Anything, mock.Anything).
			Return(errRemote).Once()

		_, err = f.svc.SubmitInquiry(ctx, sessionID, customer)
		require.ErrorIs(t, err, errRemote)

		c, err := f.svc.Cart(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Count())
		f.events.AssertNotCalled(t, "ProduceEvent", mock.Anything, mock.Anything)
	})

	t.Run("ClientGoneAfterSubmit", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)

		_, err := f.svc.AddToCart(t.Context(), sessionID, dunkRed.ID, "9")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		live := mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		})

		f.submitter.On("SubmitInquiry", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return(nil).Once()
		f.events.On("ProduceEvent", live, mock.Anything).Return(nil).Once()
		f.mailer.On("SendInquiryConfirmation", live, mock.Anything).
			Return(nil).Once()

		_, err = f.svc.SubmitInquiry(ctx, sessionID, customer)
		require.NoError(t, err)

		c, err := f.svc.Cart(t.Context(), sessionID)
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
		f.events.AssertExpectations(t)
		f.mailer.AssertExpectations(t)
	})

	t.Run("EventFailureIgnored", func(t *testing.T) {
		f := newFixture(t)
		f.load(t)
		ctx := t.Context()

		_, err := f.svc.AddToCart(ctx, sessionID, trefoil.ID, "")
		require.NoError(t, err)

		f.submitter.On("SubmitInquiry", mock.Anything, mock.Anything).Return(nil)
		f.events.On("ProduceEvent", mock.Anything, mock.Anything).
			Return(errors.New("broker down"))
		f.mailer.On("SendInquiryConfirmation", mock.Anything, mock.Anything).
			Return(errors.New("smtp down"))

		_, err = f.svc.SubmitInquiry(ctx, sessionID, customer)
		require.NoError(t, err)
	})
}

func TestStorefrontSubmitContact(t *testing.T) {
	f := newFixture(t)

	msg := domain.ContactMessage{
		Name: "Ana", Email: "ana@example.ph", Phone: "0917 555 0123",
		Subject: "Sizing", Message: "Do the Dunks run small?",
	}
	f.submitter.On("SubmitContact", mock.Anything, mock.Anything).Return(nil).Once()
	f.events.On("ProduceEvent", mock.Anything, mock.MatchedBy(
		func(e domain.Event) bool {
			return e.Kind == domain.EventContact && e.Subject == "Sizing"
		},
	)).Return(nil).Once()

	got, err := f.svc.SubmitContact(t.Context(), msg)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	f.submitter.AssertExpectations(t)
	f.events.AssertExpectations(t)

	_, err = f.svc.SubmitContact(t.Context(), domain.ContactMessage{})
	assert.ErrorIs(t, err, validate.ErrInvalid)
}

func TestStorefrontSubscribeNewsletter(t *testing.T) {
	f := newFixture(t)

	f.submitter.On("SubmitNewsletter", mock.Anything, mock.MatchedBy(
		func(s domain.NewsletterSignup) bool { return s.Email == "a@b.ph" },
	)).Return(nil).Once()
	f.events.On("ProduceEvent", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.svc.SubscribeNewsletter(t.Context(), " a@b.ph ")
	require.NoError(t, err)

	_, err = f.svc.SubscribeNewsletter(t.Context(), "nope")
	assert.ErrorIs(t, err, validate.ErrInvalid)
	f.submitter.AssertExpectations(t)
}
