package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const dateFormat = "2006-01-02"

// ReadConfigFromFile will take a config from a path
func ReadConfigFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", errFileNotFound, path)
	}
	fileData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadConfig(fileData)
}

// LoadConfig unmarshalls byte data into a config struct
func LoadConfig(data []byte) (resp *Config, err error) {
	err = json.Unmarshal(data, &resp)
	return resp, err
}

// Validate checks all config settings
func (c *Config) Validate() error {
	if err := c.validateDates(); err != nil {
		return err
	}
	if !c.InitialCash.IsPositive() {
		return fmt.Errorf("%w, received %v", errBadInitialCash, c.InitialCash)
	}
	if c.FeeRate.IsNegative() {
		return fmt.Errorf("%w, received %v", errBadFeeRate, c.FeeRate)
	}
	if c.Slippage.IsNegative() {
		return fmt.Errorf("%w, received %v", errBadSlippage, c.Slippage)
	}
	if c.PreheatDays < 0 {
		return fmt.Errorf("%w, received %v", errBadPreheat, c.PreheatDays)
	}
	if c.DataPath == "" {
		return errNoDataPath
	}
	if c.DataGateway == "" {
		return errNoDataGateway
	}
	return nil
}

func (c *Config) validateDates() error {
	start, err := time.Parse(dateFormat, c.Start)
	if err != nil {
		return fmt.Errorf("start %w: %q", errBadDate, c.Start)
	}
	end, err := time.Parse(dateFormat, c.End)
	if err != nil {
		return fmt.Errorf("end %w: %q", errBadDate, c.End)
	}
	if start.After(end) {
		return fmt.Errorf("%w: %s > %s", errStartAfterEnd, c.Start, c.End)
	}
	return nil
}

// StartTime returns the start date at midnight UTC
func (c *Config) StartTime() time.Time {
	t, _ := time.Parse(dateFormat, c.Start)
	return t
}

// EndTime returns the end date at midnight UTC
func (c *Config) EndTime() time.Time {
	t, _ := time.Parse(dateFormat, c.End)
	return t
}
