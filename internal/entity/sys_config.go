package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config value types for the config_value/value_type discriminator.
const (
	ConfigTypeString = "string"
	ConfigTypeInt    = "int"
	ConfigTypeBool   = "bool"
	ConfigTypeJSON   = "json"
)

// SysConfig is a typed runtime configuration row, cached per group in Redis
// under sys_config:group:<group>.
type SysConfig struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ConfigGroup string    `gorm:"type:varchar(64);index;not null" json:"config_group"`
	ConfigKey   string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"config_key"`
	ConfigValue string    `gorm:"type:text" json:"config_value"`
	ValueType   string    `gorm:"type:varchar(16);default:string" json:"value_type"`
	Remark      string    `gorm:"type:varchar(255)" json:"remark"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SysConfig) TableName() string {
	return TablePrefix + "sys_configs"
}

// TypedValue decodes ConfigValue according to ValueType. Bool accepts
// "true"/"1"/"yes" (case-insensitive); everything else is false.
func (c *SysConfig) TypedValue() (interface{}, error) {
	switch c.ValueType {
	case ConfigTypeInt:
		v, err := strconv.Atoi(strings.TrimSpace(c.ConfigValue))
		if err != nil {
			return nil, fmt.Errorf("config %s is not an int: %w", c.ConfigKey, err)
		}
		return v, nil
	case ConfigTypeBool:
		switch strings.ToLower(strings.TrimSpace(c.ConfigValue)) {
		case "true", "1", "yes":
			return true, nil
		default:
			return false, nil
		}
	case ConfigTypeJSON:
		var v interface{}
		if err := json.Unmarshal([]byte(c.ConfigValue), &v); err != nil {
			return nil, fmt.Errorf("config %s is not valid json: %w", c.ConfigKey, err)
		}
		return v, nil
	default:
		return c.ConfigValue, nil
	}
}

// EncodeConfigValue is the inverse of TypedValue for a given value type.
func EncodeConfigValue(v interface{}, valueType string) (string, error) {
	switch valueType {
	case ConfigTypeInt:
		switch n := v.(type) {
		case int:
			return strconv.Itoa(n), nil
		case int64:
			return strconv.FormatInt(n, 10), nil
		case float64:
			return strconv.Itoa(int(n)), nil
		default:
			return "", fmt.Errorf("cannot encode %T as int", v)
		}
	case ConfigTypeBool:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b), nil
		}
		return "", fmt.Errorf("cannot encode %T as bool", v)
	case ConfigTypeJSON:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}
