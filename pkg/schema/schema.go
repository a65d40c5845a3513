package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const StorefrontEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "kiksniks",
	"name": "storefront_event",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "kind", "type": {
			"type": "enum",
			"name": "event_kind",
			"symbols": ["inquiry", "contact", "newsletter"]
		}},
		{"name": "name", "type": "string"},
		{"name": "email", "type": "string"},
		{"name": "phone", "type": "string"},
		{"name": "subject", "type": "string"},
		{"name": "message", "type": "string"},
		{"name": "items", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "inquiry_item",
				"fields": [
					{"name": "name", "type": "string"},
					{"name": "color", "type": "string"},
					{"name": "size", "type": "string"},
					{"name": "quantity", "type": "int"},
					{"name": "price", "type": "double"}
				]
			}
		}},
		{"name": "total", "type": "double"},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type (
	StorefrontEventV1 struct {
		EventID   string          `avro:"event_id"`
		Kind      string          `avro:"kind"`
		Name      string          `avro:"name"`
		Email     string          `avro:"email"`
		Phone     string          `avro:"phone"`
		Subject   string          `avro:"subject"`
		Message   string          `avro:"message"`
		Items     []InquiryItemV1 `avro:"items"`
		Total     float64         `avro:"total"`
		CreatedAt time.Time       `avro:"created_at"`
	}

	InquiryItemV1 struct {
		Name     string  `avro:"name"`
		Color    string  `avro:"color"`
		Size     string  `avro:"size"`
		Quantity int     `avro:"quantity"`
		Price    float64 `avro:"price"`
	}
)

// StorefrontEventV1Avro panics when the schema text is broken.
func StorefrontEventV1Avro() avro.Schema {
	return avro.MustParse(StorefrontEventSchemaTextV1)
}
