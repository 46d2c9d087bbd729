package runfile

import (
	"os"
	"path/filepath"
	"perfledger/types"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown run file format")

// Defaults fill in what a run file leaves out.
type Defaults struct {
	SettlementCurrency string
	ClosePositions     bool
}

// FormatOf picks the decoder from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%s", path)
}

// IsRunFile reports whether path has an extension Load understands.
func IsRunFile(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

func Load(path string, defaults Defaults) (types.RunInput, error) {
	format, err := FormatOf(path)
	if err != nil {
		return types.RunInput{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RunInput{}, errors.Wrap(err, "read run file")
	}
	in, err := Decode(data, format, defaults)
	if err != nil {
		return types.RunInput{}, errors.Wrapf(err, "decode %s", path)
	}
	return in, nil
}

func Decode(data []byte, format Format, defaults Defaults) (types.RunInput, error) {
	var doc runDocument
	switch format {
	case FormatJSON:
		if err := sonic.Unmarshal(data, &doc); err != nil {
			return types.RunInput{}, errors.Wrap(err, "unmarshal json")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return types.RunInput{}, errors.Wrap(err, "unmarshal yaml")
		}
	default:
		return types.RunInput{}, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	return doc.runInput(defaults), nil
}

func (d runDocument) runInput(defaults Defaults) types.RunInput {
	in := types.RunInput{
		RunID:              d.RunID,
		SettlementCurrency: strings.ToUpper(d.SettlementCurrency),
		StartingBalance:    d.StartingBalance.Decimal,
		FinalBalance:       d.FinalBalance.Decimal,
		ClosePositions:     defaults.ClosePositions,
		Fills:              make([]types.Fill, 0, len(d.Fills)),
		OrderEvents:        make([]types.OrderEvent, 0, len(d.OrderEvents)),
	}
	if in.SettlementCurrency == "" {
		in.SettlementCurrency = strings.ToUpper(defaults.SettlementCurrency)
	}
	if d.ClosePositions != nil {
		in.ClosePositions = *d.ClosePositions
	}
	if len(d.MarkPrices) > 0 {
		in.MarkPrices = make(map[string]decimal.Decimal, len(d.MarkPrices))
		for id, p := range d.MarkPrices {
			in.MarkPrices[id] = p.Decimal
		}
	}
	if d.Reported != nil {
		in.Reported = &types.ReportedPnL{
			Realized:   d.Reported.Realized.Decimal,
			Unrealized: d.Reported.Unrealized.Decimal,
		}
	}

	for _, f := range d.Fills {
		fill := types.NewFill(f.OrderID, f.InstrumentID, parseSide(f.Side), f.Price.Decimal, f.Quantity.Decimal, f.Time.Time)
		in.Fills = append(in.Fills, fill.WithCommission(f.Commission.Decimal, strings.ToUpper(f.CommissionCurrency)))
	}
	for _, e := range d.OrderEvents {
		status, ok := types.ParseOrderStatus(e.Status)
		if !ok {
			status = types.OrderStatus(strings.ToUpper(e.Status))
		}
		in.OrderEvents = append(in.OrderEvents, types.OrderEvent{
			OrderID:      e.OrderID,
			InstrumentID: e.InstrumentID,
			Side:         parseSide(e.Side),
			Status:       status,
			Price:        e.Price.Decimal,
			AvgPrice:     e.AvgPrice.Decimal,
			Quantity:     e.Quantity.Decimal,
			FilledQty:    e.FilledQty.Decimal,
			Reason:       e.Reason,
			Time:         e.Time.Time,
		})
	}
	for _, p := range d.EquityCurve {
		in.EquityCurve = append(in.EquityCurve, types.EquityPoint{Time: p.Time.Time, Equity: p.Equity.Decimal})
	}
	return in
}

// parseSide keeps unrecognised sides verbatim so the normalizer can drop and count them.
func parseSide(s string) types.Side {
	if side, ok := types.ParseSide(s); ok {
		return side
	}
	return types.Side(strings.ToUpper(s))
}
