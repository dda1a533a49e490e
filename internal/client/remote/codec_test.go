package remote

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sample() models.Measurement {
	at := time.Date(2026, 2, 14, 7, 30, 0, 0, time.UTC)
	return models.Measurement{
		ClientID:       "5f0c1a1e-8a0e-4a8e-9d0f-0d1e2f3a4b5c",
		Formula:        models.FormulaNavy,
		Gender:         models.GenderFemale,
		System:         models.SystemImperial,
		Inputs:         map[string]float64{"waist": 30, "neck": 13, "hip": 38, "height": 65},
		Results:        models.Results{BodyFatPercentage: 26.4, FatMass: 36.9, LeanMass: 103.1},
		Classification: "average",
		MeasuredAt:     at,
		Version:        at,
		SyncedAt:       models.TimePtr(at.Add(time.Hour)),
		HasPhoto:       true,
		PhotoURI:       "/home/u/.bodykeeper/photos/5f0c1a1e-8a0e-4a8e-9d0f-0d1e2f3a4b5c.jpg",
	}
}

func TestEncodeDecode(t *testing.T) {
	m := sample()

	data, err := EncodeMeasurement(m)
	require.NoError(t, err)
	require.Contains(t, string(data), `"clientId": "5f0c1a1e-8a0e-4a8e-9d0f-0d1e2f3a4b5c"`)
	require.Contains(t, string(data), `"syncedAt": null`)
	require.NotNil(t, m.SyncedAt, "input is not modified")

	got, err := DecodeMeasurement(m.ClientID+".json", data)
	require.NoError(t, err)

	want := m.Clone()
	want.SyncedAt = nil
	require.Empty(t, cmp.Diff(want, got))
}

func TestDecode_DropsRemoteSyncedAt(t *testing.T) {
	data := []byte(`{"clientId":"a","formula":"bmi","measuredAt":"2026-01-01T00:00:00Z","syncedAt":"2026-01-02T00:00:00Z"}`)
	got, err := DecodeMeasurement("a.json", data)
	require.NoError(t, err)
	require.Nil(t, got.SyncedAt)
}

func TestDecode_Rejects(t *testing.T) {
	valid := `{"clientId":"a","formula":"bmi","measuredAt":"2026-01-01T00:00:00Z"}`

	tests := []struct {
		name    string
		file    string
		data    string
		wantErr error
	}{
		{"not json", "a.json", "{", nil},
		{"missing id", "a.json", `{"formula":"bmi","measuredAt":"2026-01-01T00:00:00Z"}`, common.ErrorValidation},
		{"unknown formula", "a.json", `{"clientId":"a","formula":"x","measuredAt":"2026-01-01T00:00:00Z"}`, common.ErrorValidation},
		{"zero measuredAt", "a.json", `{"clientId":"a","formula":"bmi"}`, common.ErrorValidation},
		{"path in id", "a.json", `{"clientId":"../a","formula":"bmi","measuredAt":"2026-01-01T00:00:00Z"}`, common.ErrorValidation},
		{"name mismatch", "b.json", valid, common.ErrorValidation},
		{"too large", "a.json", valid + strings.Repeat(" ", MaxObjectSize), ErrObjectTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMeasurement(tt.file, []byte(tt.data))
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDecode_WithoutName(t *testing.T) {
	_, err := DecodeMeasurement("", []byte(`{"clientId":"a","formula":"navy","measuredAt":"2026-01-01T00:00:00Z"}`))
	require.NoError(t, err)
}

func TestEncode_Invalid(t *testing.T) {
	m := sample()
	m.Formula = ""
	_, err := EncodeMeasurement(m)
	require.ErrorIs(t, err, common.ErrorValidation)
}
