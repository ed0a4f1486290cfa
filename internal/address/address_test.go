package address

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(t *testing.T, s string) *Address {
	t.Helper()
	return Normalize(json.RawMessage(s))
}

func TestNormalize_TupleAndObjectAgree(t *testing.T) {
	a := norm(t, `{"location":[23.5,58.4],"address":"X"}`)
	b := norm(t, `{"location":{"latitude":23.5,"longitude":58.4},"address":"X"}`)
	require.NotNil(t, a)
	assert.Equal(t, a, b)
	assert.Equal(t, Location{Latitude: 23.5, Longitude: 58.4}, a.Location)
}

func TestNormalize_NoLocationIsNil(t *testing.T) {
	assert.Nil(t, norm(t, `{"address":"X"}`))
	assert.Nil(t, norm(t, `{"address":"X","location":[23.5]}`))
	assert.Nil(t, norm(t, `{"address":"X","location":{"latitude":"north"}}`))
	assert.Nil(t, norm(t, `"just a string"`))
	assert.Nil(t, norm(t, `null`))
}

func TestNormalize_NestedAddressAndStrings(t *testing.T) {
	a := norm(t, `{
		"id": "14",
		"title": "Home",
		"active": 1,
		"address": {"address": "Al Khuwair 33", "house": "12", "floor": 2},
		"location": {"lat": "23.58", "lng": "58.38"}
	}`)
	require.NotNil(t, a)
	assert.Equal(t, int64(14), a.ID)
	assert.Equal(t, "Home", a.Title)
	assert.True(t, a.Active)
	assert.Equal(t, "Al Khuwair 33", a.Address)
	assert.Equal(t, "12", a.House)
	assert.Equal(t, "2", a.Floor)
	assert.Equal(t, 23.58, a.Location.Latitude)
}

func TestNormalize_MissingOptionalFields(t *testing.T) {
	a := norm(t, `{"location":["1.5","2.5"]}`)
	require.NotNil(t, a)
	assert.Equal(t, "", a.Address)
	assert.False(t, a.Active)
	assert.Zero(t, a.ID)
}

func TestNormalize_NonFiniteLocationIsNil(t *testing.T) {
	assert.Nil(t, norm(t, `{"address":"X","location":["NaN","58.4"]}`))
	assert.Nil(t, norm(t, `{"address":"X","location":{"latitude":"23.5","longitude":"Inf"}}`))
	assert.Nil(t, norm(t, `{"address":"X","location":{"lat":"-Infinity","lng":"1"}}`))

	a := norm(t, `{"address":"X","location":["23.5","58.4"]}`)
	require.NotNil(t, a)
	_, err := json.Marshal(a)
	assert.NoError(t, err)
}
