package runfile

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// amount accepts a JSON number, a JSON string or a YAML scalar.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return a.parse(s)
}

func (a *amount) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.Wrapf(err, "parse amount %q", s)
	}
	a.Decimal = d
	return nil
}

// timestamp is an RFC 3339 time in either encoding.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return t.parse(s)
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	return t.parse(strings.Trim(string(b), `"`))
}

func (t *timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return errors.Wrapf(err, "parse time %q", s)
	}
	t.Time = ts.UTC()
	return nil
}

type runDocument struct {
	RunID              string               `json:"run_id" yaml:"run_id"`
	SettlementCurrency string               `json:"settlement_currency" yaml:"settlement_currency"`
	StartingBalance    amount               `json:"starting_balance" yaml:"starting_balance"`
	FinalBalance       amount               `json:"final_balance" yaml:"final_balance"`
	ClosePositions     *bool                `json:"close_positions" yaml:"close_positions"`
	MarkPrices         map[string]amount    `json:"mark_prices" yaml:"mark_prices"`
	Reported           *reportedDocument    `json:"reported" yaml:"reported"`
	Fills              []fillDocument       `json:"fills" yaml:"fills"`
	OrderEvents        []orderEventDocument `json:"order_events" yaml:"order_events"`
	EquityCurve        []equityDocument     `json:"equity_curve" yaml:"equity_curve"`
}

type reportedDocument struct {
	Realized   amount `json:"realized" yaml:"realized"`
	Unrealized amount `json:"unrealized" yaml:"unrealized"`
}

type fillDocument struct {
	OrderID            string    `json:"order_id" yaml:"order_id"`
	InstrumentID       string    `json:"instrument_id" yaml:"instrument_id"`
	Side               string    `json:"side" yaml:"side"`
	Price              amount    `json:"price" yaml:"price"`
	Quantity           amount    `json:"quantity" yaml:"quantity"`
	Time               timestamp `json:"time" yaml:"time"`
	Commission         amount    `json:"commission" yaml:"commission"`
	CommissionCurrency string    `json:"commission_currency" yaml:"commission_currency"`
}

type orderEventDocument struct {
	OrderID      string    `json:"order_id" yaml:"order_id"`
	InstrumentID string    `json:"instrument_id" yaml:"instrument_id"`
	Side         string    `json:"side" yaml:"side"`
	Status       string    `json:"status" yaml:"status"`
	Price        amount    `json:"price" yaml:"price"`
	AvgPrice     amount    `json:"avg_price" yaml:"avg_price"`
	Quantity     amount    `json:"quantity" yaml:"quantity"`
	FilledQty    amount    `json:"filled_qty" yaml:"filled_qty"`
	Reason       string    `json:"reason" yaml:"reason"`
	Time         timestamp `json:"time" yaml:"time"`
}

type equityDocument struct {
	Time   timestamp `json:"time" yaml:"time"`
	Equity amount    `json:"equity" yaml:"equity"`
}
