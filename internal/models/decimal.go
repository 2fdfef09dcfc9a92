package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Decimal принимает и число, и строку: API отдает decimal-поля строками ("49.99").
type Decimal float64

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		*d = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*d = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid decimal %q: %w", s, err)
		}
		*d = Decimal(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid decimal %s: %w", string(data), err)
	}
	*d = Decimal(f)
	return nil
}

func (d Decimal) Float() float64 {
	return float64(d)
}

func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', 2, 64)
}
