package config

import (
	"github.com/mitin111/stock-dashboard-sub000/internal/models"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// LoadTRMSettings reads the strategy knobs from the dashboard's JSON file.
// A missing path falls back to defaults; a corrupt file is a ConfigError.
func LoadTRMSettings(path string) (models.TRMSettings, error) {
	if path == "" {
		return models.DefaultTRMSettings(), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return models.TRMSettings{}, errors.Wrap(err, "read trm settings")
	}
	var s models.TRMSettings
	if err := v.Unmarshal(&s); err != nil {
		return models.TRMSettings{}, errors.Wrap(err, "decode trm settings")
	}
	return s.Normalize(), nil
}

// LoadQuantityMap reads the price band to lot size map.
func LoadQuantityMap(path string) (models.QuantityMap, error) {
	if path == "" {
		return models.QuantityMap{}, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return models.QuantityMap{}, errors.Wrap(err, "read quantity map")
	}
	var bands []models.QuantityBand
	if err := v.UnmarshalKey("bands", &bands); err != nil {
		return models.QuantityMap{}, errors.Wrap(err, "decode quantity map")
	}
	return models.NewQuantityMap(bands), nil
}
