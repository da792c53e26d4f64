package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

func TestExtendSeriesRequestValidation(t *testing.T) {
	v := validator.New()
	start, end := "15:00", "16:00"
	bad := "25:99"

	cases := []struct {
		name  string
		req   ExtendSeriesRequest
		valid bool
	}{
		{name: "minimal", req: ExtendSeriesRequest{HorizonMonths: 1}, valid: true},
		{name: "zero horizon", req: ExtendSeriesRequest{HorizonMonths: 0}},
		{name: "horizon too large", req: ExtendSeriesRequest{HorizonMonths: 13}},
		{name: "skip override", req: ExtendSeriesRequest{HorizonMonths: 2, Overrides: []DateOverride{
			{Date: "2026-01-05", Action: models.OverrideSkip},
		}}, valid: true},
		{name: "alternative with times", req: ExtendSeriesRequest{HorizonMonths: 2, Overrides: []DateOverride{
			{Date: "2026-01-05", Action: models.OverrideUseAlternative, AlternativeStart: &start, AlternativeEnd: &end},
		}}, valid: true},
		{name: "bad clock", req: ExtendSeriesRequest{HorizonMonths: 2, Overrides: []DateOverride{
			{Date: "2026-01-05", Action: models.OverrideUseAlternative, AlternativeStart: &bad, AlternativeEnd: &end},
		}}},
		{name: "bad date", req: ExtendSeriesRequest{HorizonMonths: 2, Overrides: []DateOverride{
			{Date: "05/01/2026", Action: models.OverrideSkip},
		}}},
		{name: "unknown action", req: ExtendSeriesRequest{HorizonMonths: 2, Overrides: []DateOverride{
			{Date: "2026-01-05", Action: "MOVE"},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.req)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
