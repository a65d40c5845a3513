package schema_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/kiksniks/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

func TestSerdeStorefrontEventV1(t *testing.T) {
	subject := "storefront-events-value"

	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeStorefrontEventV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeStorefrontEventV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("EmptySubject", func(t *testing.T) {
		_, err := schema.NewSerdeStorefrontEventV1(
			t.Context(),
			schema.SubjectOpt(""),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
	})

	t.Run("RegistryError", func(t *testing.T) {
		errRegistry := errors.New("registry unavailable")
		si := new(MockSchemaIdentifier)
		si.On(
			"DetermineID", t.Context(), subject, schema.StorefrontEventSchemaTextV1,
		).Return(0, errRegistry)

		_, err := schema.NewSerdeStorefrontEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(si),
		)
		assert.ErrorIs(t, err, errRegistry)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		si := new(MockSchemaIdentifier)
		si.On(
			"DetermineID", t.Context(), subject, schema.StorefrontEventSchemaTextV1,
		).Return(3, nil)

		serde, err := schema.NewSerdeStorefrontEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(si),
		)
		require.NoError(t, err)
		si.AssertExpectations(t)

		v1 := schema.StorefrontEventV1{
			EventID: "e-1",
			Kind:    "contact",
			Name:    "Ana",
			Email:   "ana@example.com",
			Subject: "Sizes",
			Message: "Do you have size 13?",
			Items:   []schema.InquiryItemV1{},
			CreatedAt: time.Date(
				2025, 6, 1, 9, 0, 0, 0, time.UTC,
			),
		}

		data, err := serde.Encode(v1)
		require.NoError(t, err)
		// magic byte and big-endian schema id
		require.Greater(t, len(data), 5)
		assert.Equal(t, []byte{0, 0, 0, 0, 3}, data[:5])

		var v2 schema.StorefrontEventV1
		require.NoError(t, serde.Decode(data, &v2))
		assert.Equal(t, v1.EventID, v2.EventID)
		assert.Equal(t, v1.Kind, v2.Kind)
		assert.Equal(t, v1.Subject, v2.Subject)
		assert.Equal(t, v1.Message, v2.Message)
		assert.True(t, v1.CreatedAt.Equal(v2.CreatedAt))
	})
}
