package worker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripstats/core/model"
)

func TestDecodeRequest(t *testing.T) {
	data := []byte(`{
		"id": "r1",
		"key": "car",
		"locale": "en-US",
		"trips": [{"trip": 12.5, "electricity": 2}, "bad", null, {"trip": "x"}],
		"charges": [{"kwhCharged": 20, "date": "2025-01-02"}, 3],
		"settings": {"electricStrategy": "average", "batterySize": 60}
	}`)
	req, err := DecodeRequest(data)
	require.NoError(t, err)
	assert.Equal(t, "r1", req.ID)
	assert.Equal(t, "car", req.Key)
	assert.Equal(t, "en-US", req.Locale)
	require.Len(t, req.Trips, 4)
	assert.Equal(t, 12.5, req.Trips[0].Km())
	assert.Nil(t, req.Trips[1])
	assert.Nil(t, req.Trips[2])
	assert.Nil(t, req.Trips[3])
	require.Len(t, req.Charges, 1)
	assert.Equal(t, model.StrategyAverage, req.Settings.ElectricMode())
	assert.Equal(t, 60.0, req.Settings.BatterySize)
}

func TestDecodeRequestErrors(t *testing.T) {
	_, err := DecodeRequest([]byte(`[]`))
	assert.Error(t, err)
	_, err = DecodeRequest([]byte(`{"trips": {}}`))
	assert.Error(t, err)
	_, err = DecodeRequest([]byte(`{"settings": {"batterySize": "big"}}`))
	assert.Error(t, err)

	req, err := DecodeRequest([]byte(`{"trips": null}`))
	require.NoError(t, err)
	assert.Nil(t, req.Trips)
}

func TestDeepCopy(t *testing.T) {
	in := Request{Trips: []*model.Trip{{Distance: model.Float(3)}}}
	out, err := deepCopy(in)
	require.NoError(t, err)
	*out.Trips[0].Distance = 9
	assert.Equal(t, 3.0, in.Trips[0].Km())

	_, err = deepCopy(Request{Trips: []*model.Trip{{Distance: model.Float(math.NaN())}}})
	assert.Error(t, err)
}
