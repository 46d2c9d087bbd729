package runfile

import (
	"io"
	"perfledger/internal/engine"
	"perfledger/types"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputCSV  = "csv"
)

var ErrUnknownOutput = errors.New("unknown output format")

// MarshalSummary encodes a summary as indented JSON. Struct field order is fixed, so equal
// summaries encode to identical bytes.
func MarshalSummary(s types.RunSummary) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal summary")
	}
	return data, nil
}

func UnmarshalSummary(data []byte) (types.RunSummary, error) {
	var s types.RunSummary
	if err := sonic.Unmarshal(data, &s); err != nil {
		return types.RunSummary{}, errors.Wrap(err, "unmarshal summary")
	}
	return s, nil
}

// WriteSummary renders s as a text report, JSON document or cycle CSV.
func WriteSummary(w io.Writer, s types.RunSummary, output string) error {
	switch output {
	case OutputText, "":
		return engine.WriteReport(w, s)
	case OutputJSON:
		data, err := MarshalSummary(s)
		if err != nil {
			return err
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return errors.Wrap(err, "write summary")
	case OutputCSV:
		return engine.WriteCyclesCSV(w, s.Cycles)
	}
	return errors.Wrapf(ErrUnknownOutput, "%q", output)
}
