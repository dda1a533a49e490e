package remote

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
)

// MaxObjectSize caps the size of a record object.
const MaxObjectSize = 1 << 20

// Validate checks the fields every stored record must carry.
func Validate(m models.Measurement) error {
	if m.ClientID == "" {
		return fmt.Errorf("%w: clientId is required", common.ErrorValidation)
	}
	if strings.ContainsAny(m.ClientID, `/\`) || strings.HasPrefix(m.ClientID, ".") {
		return fmt.Errorf("%w: bad clientId %q", common.ErrorValidation, m.ClientID)
	}
	switch m.Formula {
	case models.FormulaNavy, models.FormulaBMI:
	default:
		return fmt.Errorf("%w: unknown formula %q", common.ErrorValidation, m.Formula)
	}
	if m.MeasuredAt.IsZero() {
		return fmt.Errorf("%w: measuredAt is required", common.ErrorValidation)
	}
	return nil
}

// EncodeMeasurement renders m as the remote JSON object. SyncedAt is local
// bookkeeping and is never written.
func EncodeMeasurement(m models.Measurement) ([]byte, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	c := m.Clone()
	c.SyncedAt = nil

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.ClientID, err)
	}
	return data, nil
}

// DecodeMeasurement parses a remote object. When name is not empty the
// decoded clientId must match the one encoded in the object name.
func DecodeMeasurement(name string, data []byte) (models.Measurement, error) {
	if len(data) > MaxObjectSize {
		return models.Measurement{}, fmt.Errorf("%w: %s is %d bytes", ErrObjectTooLarge, name, len(data))
	}

	var m models.Measurement
	if err := json.Unmarshal(data, &m); err != nil {
		return models.Measurement{}, fmt.Errorf("decode %s: %w", name, err)
	}
	m.SyncedAt = nil

	if err := Validate(m); err != nil {
		return models.Measurement{}, fmt.Errorf("decode %s: %w", name, err)
	}
	if name != "" {
		if id, ok := ClientIDFromName(name); !ok || id != m.ClientID {
			return models.Measurement{}, fmt.Errorf("decode %s: %w: clientId %q does not match object name",
				name, common.ErrorValidation, m.ClientID)
		}
	}
	return m, nil
}
