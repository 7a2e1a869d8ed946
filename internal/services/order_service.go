package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"soukly/internal/domain"
	"soukly/internal/repos"
)

type Contact struct {
	Name  string
	Email string
}

type OrderService struct {
	Carts  *repos.CartRepo
	Prods  *repos.ProductRepo
	Orders *repos.OrderRepo
	Writer *kafka.Writer // nil disables event publishing
	Log    zerolog.Logger
}

func NewOrderService(carts *repos.CartRepo, prods *repos.ProductRepo, orders *repos.OrderRepo, writer *kafka.Writer, log zerolog.Logger) *OrderService {
	return &OrderService{Carts: carts, Prods: prods, Orders: orders, Writer: writer, Log: log}
}

// Place turns the session cart into an order: stock pre-check,
// decrement, order rows, cart clear, order event.
func (s *OrderService) Place(ctx context.Context, sessionID string, contact Contact) (string, float64, error) {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return "", 0, err
	}

	items, err := s.Carts.Items(cartID)
	if err != nil {
		return "", 0, err
	}
	if len(items) == 0 {
		return "", 0, errors.New("cart empty")
	}

	// pre-check stock
	for _, it := range items {
		p, err := s.Prods.Get(ctx, it.ProductID)
		if err != nil {
			return "", 0, err
		}
		have := p.Stock
		if it.VariantID != nil {
			have = 0
			for i := range p.Variants {
				if p.Variants[i].ID == *it.VariantID {
					have = p.Variants[i].Stock
					break
				}
			}
		}
		if have < it.Qty {
			return "", 0, fmt.Errorf("insufficient stock for %s (need %d, have %d)", it.ProductID, it.Qty, have)
		}
	}

	// decrement
	for _, it := range items {
		if it.VariantID != nil {
			err = s.Prods.DecrementVariantStock(it.ProductID, *it.VariantID, it.Qty)
		} else {
			err = s.Prods.DecrementStock(it.ProductID, it.Qty)
		}
		if err != nil {
			return "", 0, err
		}
	}

	total := 0.0
	for _, it := range items {
		total += it.Price * float64(it.Qty)
	}

	orderID := uuid.NewString()
	if err := s.Orders.Create(orderID, sessionID, contact.Name, contact.Email, total); err != nil {
		return "", 0, err
	}
	productIDs := make([]string, 0, len(items))
	for _, it := range items {
		if err := s.Orders.InsertItem(orderID, it.ProductID, it.VariantID, it.Qty, it.Price); err != nil {
			return "", 0, err
		}
		productIDs = append(productIDs, it.ProductID)
	}
	_ = s.Carts.Clear(cartID)

	s.publishEvent(ctx, orderID, "created", productIDs)
	return orderID, total, nil
}

// UpdateStatus applies an admin status change and republishes the
// order event so sale-status transitions reprice the products promptly.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) error {
	if err := s.Orders.UpdateStatus(orderID, status); err != nil {
		return err
	}
	productIDs, err := s.Orders.ProductIDs(ctx, orderID)
	if err != nil {
		s.Log.Error().Err(err).Str("order_id", orderID).Msg("listing order products failed")
		return nil
	}
	s.publishEvent(ctx, orderID, strings.ToLower(status), productIDs)
	return nil
}

func (s *OrderService) publishEvent(ctx context.Context, orderID, kind string, productIDs []string) {
	if s.Writer == nil {
		return
	}
	payload, err := json.Marshal(domain.OrderEvent{
		OrderID:    orderID,
		Status:     kind,
		ProductIDs: productIDs,
	})
	if err != nil {
		s.Log.Error().Err(err).Str("order_id", orderID).Msg("marshalling order event failed")
		return
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order.%s.%s", kind, orderID)),
		Value: payload,
	}
	if err := s.Writer.WriteMessages(ctx, msg); err != nil {
		// Event loss is acceptable: the hourly batch will catch up.
		s.Log.Error().Err(err).Str("order_id", orderID).Msg("publishing order event failed")
	}
}
