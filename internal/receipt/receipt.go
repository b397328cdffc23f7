package receipt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	appconfig "github.com/smallbiznis/shoecare/internal/config"
	orderdomain "github.com/smallbiznis/shoecare/internal/order/domain"
	"go.uber.org/zap"
)

const dateLayout = "02 Jan 2006 15:04"

var ErrEmptyOrder = errors.New("empty_order")

// Shop is printed in the receipt header.
type Shop struct {
	Name    string
	Address string
	Phone   string
}

type Generator struct {
	shop Shop
	loc  *time.Location
	log  *zap.Logger
}

func New(cfg appconfig.Config, log *zap.Logger) *Generator {
	return &Generator{
		shop: Shop{Name: cfg.ShopName, Address: cfg.ShopAddress, Phone: cfg.ShopPhone},
		loc:  cfg.Location(),
		log:  log.Named("receipt.generator"),
	}
}

// Generate renders a PDF receipt for the order.
func (g *Generator) Generate(ctx context.Context, detail *orderdomain.OrderDetail) ([]byte, error) {
	if detail == nil || len(detail.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(8, g.shop.Name, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Receipt", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)
	m.AddRow(12,
		col.New(8).Add(
			text.New(g.shop.Address, props.Text{Size: 9}),
			text.New(g.shop.Phone, props.Text{Size: 9, Top: 4}),
		),
		col.New(4),
	)
	m.AddRow(4, line.NewCol(12))

	completed := "-"
	if detail.CompletedAt != nil {
		completed = detail.CompletedAt.In(g.loc).Format(dateLayout)
	}
	m.AddRow(24,
		col.New(6).Add(
			text.New("Order: "+detail.ID.String(), props.Text{Size: 9}),
			text.New("Received: "+detail.EnteredAt.In(g.loc).Format(dateLayout), props.Text{Size: 9, Top: 5}),
			text.New("Completed: "+completed, props.Text{Size: 9, Top: 10}),
			text.New("Status: "+string(detail.Status), props.Text{Size: 9, Top: 15}),
		),
		col.New(6).Add(
			text.New("Customer", props.Text{Size: 9, Style: fontstyle.Bold}),
			text.New(detail.CustomerName, props.Text{Size: 9, Top: 5}),
			text.New(detail.CustomerWhatsApp, props.Text{Size: 9, Top: 10}),
		),
	)

	m.AddRow(10,
		text.NewCol(5, "Service", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Shoe", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range detail.Items {
		m.AddRow(8,
			text.NewCol(5, item.ServiceName, props.Text{Size: 9}),
			text.NewCol(4, shoeLabel(item.Brand, item.Color), props.Text{Size: 9}),
			text.NewCol(3, FormatRupiah(item.Price), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(4, line.NewCol(12))

	m.AddRow(8,
		col.New(6),
		text.NewCol(3, "Total", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(3, FormatRupiah(detail.Total), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(6),
		text.NewCol(3, "Payment", props.Text{Size: 9}),
		text.NewCol(3, string(detail.PaymentMethod), props.Text{Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	g.log.Debug("receipt generated", zap.String("order_id", detail.ID.String()), zap.Int("items", len(detail.Items)))
	return doc.GetBytes(), nil
}

func shoeLabel(brand, color string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{brand, color} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " / ")
}

// FormatRupiah renders whole units with dot thousand separators, e.g. "Rp 50.000".
func FormatRupiah(amount decimal.Decimal) string {
	value := amount.IntPart()
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	digits := strconv.FormatInt(value, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp " + b.String()
}
