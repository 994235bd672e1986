package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSysConfigTypedValue(t *testing.T) {
	testCases := []struct {
		name      string
		valueType string
		raw       string
		expected  interface{}
		expectErr bool
	}{
		{name: "string passthrough", valueType: ConfigTypeString, raw: "hello", expected: "hello"},
		{name: "int", valueType: ConfigTypeInt, raw: " 42 ", expected: 42},
		{name: "int garbage", valueType: ConfigTypeInt, raw: "forty-two", expectErr: true},
		{name: "bool true", valueType: ConfigTypeBool, raw: "True", expected: true},
		{name: "bool yes", valueType: ConfigTypeBool, raw: "yes", expected: true},
		{name: "bool anything else", valueType: ConfigTypeBool, raw: "nope", expected: false},
		{name: "json object", valueType: ConfigTypeJSON, raw: `{"limit":5}`, expected: map[string]interface{}{"limit": float64(5)}},
		{name: "json garbage", valueType: ConfigTypeJSON, raw: `{"limit":`, expectErr: true},
		{name: "unknown type falls back to string", valueType: "duration", raw: "5m", expected: "5m"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &SysConfig{ConfigKey: "k", ConfigValue: tc.raw, ValueType: tc.valueType}
			v, err := cfg.TypedValue()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestEncodeConfigValueRoundTrip(t *testing.T) {
	raw, err := EncodeConfigValue(42, ConfigTypeInt)
	require.NoError(t, err)
	assert.Equal(t, "42", raw)

	// JSON numbers decode as float64; the int encoder accepts them back.
	raw, err = EncodeConfigValue(float64(7), ConfigTypeInt)
	require.NoError(t, err)
	assert.Equal(t, "7", raw)

	raw, err = EncodeConfigValue(true, ConfigTypeBool)
	require.NoError(t, err)
	assert.Equal(t, "true", raw)

	raw, err = EncodeConfigValue(map[string]interface{}{"a": 1}, ConfigTypeJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, raw)

	_, err = EncodeConfigValue("yes", ConfigTypeBool)
	assert.Error(t, err)

	_, err = EncodeConfigValue("1", ConfigTypeInt)
	assert.Error(t, err)
}
