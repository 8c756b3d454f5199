package amqp

import (
	"encoding/json"
	"time"
)

// Reasons carried by LedgerChangedMessage.
const (
	ReasonExpense      = "expense"
	ReasonIncome       = "income"
	ReasonPurchase     = "purchase"
	ReasonRecurring    = "recurring"
	ReasonCreditCard   = "credit_card"
	ReasonInvestment   = "investment"
	ReasonCategory     = "category"
	ReasonMaterialized = "materialized"
)

// LedgerChangedMessage tells consumers that a user's month changed.
// It carries no amounts; consumers re-read the dashboard.
type LedgerChangedMessage struct {
	UserID    string    `json:"userId"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(userID string, year, month int, reason string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		UserID:    userID,
		Year:      year,
		Month:     month,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
