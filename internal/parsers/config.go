package parsers

import (
	"fmt"
	"strings"
)

// Logical field names the parser extracts from a ledger row. Provider
// exports name columns differently between the Russian and English export
// variants, so every logical field resolves through an alias table.
const (
	FieldUID           = "uid"
	FieldOrderID       = "order_id"
	FieldTrackingID    = "tracking_id"
	FieldStatus        = "status"
	FieldType          = "type"
	FieldMessage       = "message"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldFee           = "fee"
	FieldTransferred   = "transferred"
	FieldEmail         = "email"
	FieldEmailAlt      = "email_alt"
	FieldPhone         = "phone"
	FieldPhoneAlt      = "phone_alt"
	FieldCardHolder    = "card_holder"
	FieldCard          = "card"
	FieldCardBrand     = "card_brand"
	FieldTelegram      = "telegram"
	FieldAddress       = "address"
	FieldDescription   = "description"
	FieldPaymentMethod = "payment_method"
	FieldERIP          = "erip"
)

// LedgerParserConfig configures parsing of a payment provider export
type LedgerParserConfig struct {
	// Provider tags every parsed transaction (e.g. "bepaid")
	Provider string

	// Aliases maps a logical field to the header names it may appear
	// under, in both export languages. Matching is case-insensitive.
	Aliases map[string][]string

	HasHeader bool
	Delimiter rune

	// ChunkSize controls how often row progress is reported
	ChunkSize int
}

// DefaultLedgerParserConfig returns the configuration for the bePaid
// transaction export with its bilingual header vocabulary.
func DefaultLedgerParserConfig() *LedgerParserConfig {
	return &LedgerParserConfig{
		Provider:  "bepaid",
		HasHeader: true,
		Delimiter: ',',
		ChunkSize: 50,
		Aliases: map[string][]string{
			FieldUID:           {"UID", "uid", "Transaction UID"},
			FieldOrderID:       {"Номер заказа", "Order number", "Order ID"},
			FieldTrackingID:    {"Tracking ID", "tracking_id"},
			FieldStatus:        {"Статус", "Status"},
			FieldType:          {"Тип", "Type", "Тип транзакции", "Transaction type"},
			FieldMessage:       {"Сообщение", "Message"},
			FieldAmount:        {"Сумма", "Amount"},
			FieldCurrency:      {"Валюта", "Currency"},
			FieldFee:           {"Комиссия", "Fee", "Commission"},
			FieldTransferred:   {"Сумма перечисления", "Transferred amount", "Transfer amount"},
			FieldEmail:         {"Email", "E-mail", "Почта", "Электронная почта"},
			FieldEmailAlt:      {"Дополнительный email", "Additional email", "Email 2"},
			FieldPhone:         {"Телефон", "Phone", "Phone number"},
			FieldPhoneAlt:      {"Дополнительный телефон", "Additional phone", "Phone 2"},
			FieldCardHolder:    {"Владелец карты", "Card holder", "Cardholder name"},
			FieldCard:          {"Карта", "Card", "Card number", "Номер карты"},
			FieldCardBrand:     {"Платежная система", "Card brand", "Payment system"},
			FieldTelegram:      {"Telegram", "Телеграм", "Telegram username"},
			FieldAddress:       {"Адрес", "Address", "Billing address"},
			FieldDescription:   {"Описание", "Description", "Product description"},
			FieldPaymentMethod: {"Способ оплаты", "Payment method"},
			FieldERIP:          {"ЕРИП", "ERIP", "ERIP number"},
		},
	}
}

// Validate validates the parser configuration
func (c *LedgerParserConfig) Validate() error {
	if strings.TrimSpace(c.Provider) == "" {
		return fmt.Errorf("provider cannot be empty")
	}
	if len(c.Aliases) == 0 {
		return fmt.Errorf("header alias table cannot be empty")
	}
	if len(c.Aliases[FieldUID]) == 0 {
		return fmt.Errorf("alias table must cover the %s field", FieldUID)
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk size cannot be negative, got %d", c.ChunkSize)
	}
	return nil
}

// Clone returns a deep copy of the configuration
func (c *LedgerParserConfig) Clone() *LedgerParserConfig {
	aliases := make(map[string][]string, len(c.Aliases))
	for field, names := range c.Aliases {
		aliases[field] = append([]string(nil), names...)
	}
	clone := *c
	clone.Aliases = aliases
	return &clone
}
