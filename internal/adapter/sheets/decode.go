package sheets

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	excelize "github.com/360EntSecGroup-Skylar/excelize"
	"github.com/araddon/dateparse"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gocarina/gocsv"
	"github.com/niksmo/kiksniks/internal/core/domain"
)

const xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// row mirrors one spreadsheet row. Column names match case-insensitively.
type row struct {
	ID            string    `mapstructure:"id"`
	ProductID     string    `mapstructure:"productId"`
	Name          string    `mapstructure:"name"`
	Brand         string    `mapstructure:"brand"`
	Category      string    `mapstructure:"category"`
	Subcategory   string    `mapstructure:"subcategory"`
	Gender        string    `mapstructure:"gender"`
	Price         float64   `mapstructure:"price"`
	OriginalPrice float64   `mapstructure:"originalPrice"`
	Discount      float64   `mapstructure:"discount"`
	Color         string    `mapstructure:"color"`
	Sizes         []string  `mapstructure:"sizes"`
	Image         string    `mapstructure:"image"`
	Images        []string  `mapstructure:"images"`
	ColourShown   string    `mapstructure:"colourShown"`
	Style         string    `mapstructure:"style"`
	Origin        string    `mapstructure:"origin"`
	Description   string    `mapstructure:"description"`
	IsNew         bool      `mapstructure:"isNew"`
	IsFeatured    bool      `mapstructure:"isFeatured"`
	IsBestSeller  bool      `mapstructure:"isBestSeller"`
	DateAdded     time.Time `mapstructure:"dateAdded"`
	Stock         int       `mapstructure:"stock"`
}

func (r row) product() domain.Product {
	return domain.Product{
		ID:            strings.TrimSpace(r.ID),
		ProductID:     strings.TrimSpace(r.ProductID),
		Name:          strings.TrimSpace(r.Name),
		Brand:         strings.TrimSpace(r.Brand),
		Category:      strings.TrimSpace(r.Category),
		Subcategory:   strings.TrimSpace(r.Subcategory),
		Gender:        strings.TrimSpace(r.Gender),
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Discount:      r.Discount,
		Color:         strings.TrimSpace(r.Color),
		Sizes:         r.Sizes,
		Image:         strings.TrimSpace(r.Image),
		Images:        r.Images,
		ColourShown:   r.ColourShown,
		Style:         r.Style,
		Origin:        r.Origin,
		Description:   r.Description,
		IsNew:         r.IsNew,
		IsFeatured:    r.IsFeatured,
		IsBestSeller:  r.IsBestSeller,
		DateAdded:     r.DateAdded,
		Stock:         r.Stock,
	}
}

// DecodeProducts converts loosely typed rows into products. Numbers may be
// strings, flags may be "TRUE", lists may be comma separated and dates may
// use any common layout. Rows without an id or with values of the wrong
// type are skipped.
func DecodeProducts(rows []map[string]any) ([]domain.Product, error) {
	const op = "DecodeProducts"

	ps := make([]domain.Product, 0, len(rows))
	skipped := 0
	for i, raw := range rows {
		var r row
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &r,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				splitListHook,
				dateHook,
			),
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := dec.Decode(raw); err != nil {
			slog.Warn("malformed row skipped", "op", op, "row", i+1, "err", err)
			skipped++
			continue
		}
		p := r.product()
		if p.ID == "" {
			skipped++
			continue
		}
		ps = append(ps, p)
	}
	if skipped > 0 {
		slog.Warn("rows skipped", "op", op, "count", skipped)
	}
	return ps, nil
}

var (
	stringSliceType = reflect.TypeOf([]string(nil))
	timeType        = reflect.TypeOf(time.Time{})
)

// splitListHook turns "7, 8, 9" into []string{"7", "8", "9"}.
func splitListHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != stringSliceType {
		return data, nil
	}
	var out []string
	for _, part := range strings.Split(data.(string), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

// dateHook parses dates in any common layout. Unparseable dates become
// the zero time, which sorts last among the newest products.
func dateHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from == timeType {
		return data, nil
	}
	if from.Kind() != reflect.String {
		return time.Time{}, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		slog.Debug("unparseable date", "op", "dateHook", "value", s)
		return time.Time{}, nil
	}
	return t, nil
}

func csvRows(r io.Reader) ([]map[string]any, error) {
	const op = "csvRows"

	records, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return toAnyRows(records), nil
}

// xlsxRows reads the first worksheet. The first row holds the column names.
func xlsxRows(r io.Reader) ([]map[string]any, error) {
	const op = "xlsxRows"

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sheet := f.GetSheetName(1)
	if sheet == "" {
		return nil, fmt.Errorf("%s: workbook has no sheets", op)
	}
	grid := f.GetRows(sheet)
	if len(grid) == 0 {
		return nil, nil
	}

	header := grid[0]
	records := make([]map[string]string, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		rec := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" || i >= len(cells) {
				continue
			}
			rec[name] = cells[i]
		}
		records = append(records, rec)
	}
	return toAnyRows(records), nil
}

func toAnyRows(records []map[string]string) []map[string]any {
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		m := make(map[string]any, len(rec))
		for k, v := range rec {
			m[strings.TrimSpace(k)] = v
		}
		rows[i] = m
	}
	return rows
}
