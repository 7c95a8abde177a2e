package wizard

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"evento-companion/internal/models"
)

// BasicInfoInput is the form of the first step.
type BasicInfoInput struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Visibility  string    `json:"visibility" validate:"required"`
	StartAt     time.Time `json:"startAt" validate:"required"`
	EndAt       time.Time `json:"endAt" validate:"required"`
}

// TicketInput is the raw ticket form of the tickets step.
type TicketInput struct {
	Name         string     `json:"name" validate:"required"`
	Description  string     `json:"description"`
	Price        string     `json:"price" validate:"required"`
	Quantity     string     `json:"quantity" validate:"required"`
	SaleDeadline *time.Time `json:"saleDeadline"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

const msgRequiredFields = "fill in all required fields"

func (in BasicInfoInput) toBasicInfo() (models.BasicInfo, error) {
	if err := validate.Struct(in); err != nil {
		return models.BasicInfo{}, requiredError(err)
	}
	if !in.StartAt.Before(in.EndAt) {
		return models.BasicInfo{}, invalid("endAt", "the start must be before the end")
	}
	return models.BasicInfo{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Visibility:  in.Visibility,
		StartAt:     in.StartAt.UTC(),
		EndAt:       in.EndAt.UTC(),
	}, nil
}

func (in TicketInput) toTicket() (models.Ticket, error) {
	if err := validate.Struct(in); err != nil {
		return models.Ticket{}, requiredError(err)
	}

	price, err := ParsePrice(in.Price)
	if err != nil {
		return models.Ticket{}, err
	}
	quantity, err := ParseQuantity(in.Quantity)
	if err != nil {
		return models.Ticket{}, err
	}

	ticket := models.Ticket{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       price,
		Quantity:    quantity,
	}
	if in.SaleDeadline != nil {
		deadline := in.SaleDeadline.UTC()
		ticket.SaleDeadline = &deadline
	}
	return ticket, nil
}

// ParsePrice reads a non-negative decimal. A comma decimal separator is accepted.
func ParsePrice(raw string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	price, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, invalid("price", "price must be a number")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, invalid("price", "price cannot be negative")
	}
	return price, nil
}

// ParseQuantity reads a positive integer.
func ParseQuantity(raw string) (int, error) {
	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalid("quantity", "quantity must be a whole number")
	}
	if quantity <= 0 {
		return 0, invalid("quantity", "quantity must be greater than zero")
	}
	return quantity, nil
}

func requiredError(err error) *ValidationError {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return invalid(lowerFirst(errs[0].Field()), msgRequiredFields)
	}
	return invalid("", msgRequiredFields)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
