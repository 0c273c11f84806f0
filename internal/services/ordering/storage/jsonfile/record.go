package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/restobot/internal/services/ordering/order"
)

// naiveLayouts are accepted for documents written without a zone offset.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

type itemRecord struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
}

type orderRecord struct {
	UserID       customerID   `json:"user_id"`
	CustomerName string       `json:"customer_name"`
	Phone        string       `json:"phone"`
	Address      string       `json:"address"`
	Items        []itemRecord `json:"items"`
	Total        int64        `json:"total"`
	Status       string       `json:"status"`
	Timestamp    string       `json:"timestamp"`
}

// customerID accepts both numeric and string identifiers on decode and
// always writes a string.
type customerID string

func (c *customerID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*c = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*c = customerID(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	*c = customerID(number.String())
	return nil
}

func toRecord(o order.Order) orderRecord {
	items := make([]itemRecord, len(o.Items))
	for i, line := range o.Items {
		items[i] = itemRecord{
			ID:          line.ItemID,
			Name:        line.Name,
			Price:       line.Price,
			Description: line.Description,
		}
	}
	return orderRecord{
		UserID:       customerID(o.CustomerID),
		CustomerName: o.CustomerName,
		Phone:        o.Phone,
		Address:      o.Address,
		Items:        items,
		Total:        o.Total,
		Status:       o.Status.WireLabel(),
		Timestamp:    o.CreatedAt.Format(time.RFC3339Nano),
	}
}

func fromRecord(id string, rec orderRecord, loc *time.Location) (order.Order, error) {
	status, ok := order.ParseStatus(rec.Status)
	if !ok {
		return order.Order{}, fmt.Errorf("order %s: unknown status %q", id, rec.Status)
	}
	createdAt, err := parseTimestamp(id, rec.Timestamp, loc)
	if err != nil {
		return order.Order{}, err
	}
	lines := make([]order.CartLine, len(rec.Items))
	for i, item := range rec.Items {
		lines[i] = order.CartLine{
			ItemID:      item.ID,
			Name:        item.Name,
			Price:       item.Price,
			Description: item.Description,
		}
	}
	return order.Order{
		ID:           id,
		CustomerID:   string(rec.UserID),
		CustomerName: rec.CustomerName,
		Phone:        rec.Phone,
		Address:      rec.Address,
		Items:        lines,
		Total:        rec.Total,
		Status:       status,
		CreatedAt:    createdAt,
	}, nil
}

// parseTimestamp accepts RFC 3339 and zone-less ISO 8601 values. A missing
// timestamp falls back to the second embedded in the order id.
func parseTimestamp(id, value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if stamp, ok := order.IDTime(id, loc); ok {
			return stamp, nil
		}
		return time.Time{}, fmt.Errorf("order %s: timestamp is required", id)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed, nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(seconds, 0).In(loc), nil
	}
	return time.Time{}, fmt.Errorf("order %s: invalid timestamp %q", id, value)
}
