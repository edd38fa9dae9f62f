// Copyright 2025 - See NOTICE file for copyright holders.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const (
	// Datadir is the directory used by the persistent channel store.
	Datadir = "DATADIR"
	// LogLevel maps to logrus levels, 4 = info.
	LogLevel = "LOG_LEVEL"
	// StoreType selects the channel ledger backend.
	StoreType = "STORE_TYPE"
	// Admin is the hex address of the engine administrator.
	Admin = "ADMIN"
	// ChannelFee is charged into the treasury at every open.
	ChannelFee = "CHANNEL_FEE"
	// RelayerFee is paid from the treasury at every successful relay.
	RelayerFee = "RELAYER_FEE"
	// MinTimeout and MaxTimeout bound the per-channel timeout at open.
	MinTimeout = "MIN_TIMEOUT"
	MaxTimeout = "MAX_TIMEOUT"
	// DisputeWindow is the countdown started by a dispute.
	DisputeWindow = "DISPUTE_WINDOW"
)

var (
	defaultLogLevel      = 4
	defaultStoreType     = "inmemory"
	defaultChannelFee    = int64(100)
	defaultRelayerFee    = int64(10)
	defaultMinTimeout    = time.Hour
	defaultMaxTimeout    = 30 * 24 * time.Hour
	defaultDisputeWindow = 24 * time.Hour

	supportedStores = map[string]struct{}{
		"inmemory": {},
		"badger":   {},
	}
)

// Config carries the engine parameters. Fee parameters and the dispute
// window are engine-wide; the per-channel timeout is only bounded here.
type Config struct {
	Datadir       string
	LogLevel      int
	StoreType     string
	Admin         common.Address
	ChannelFee    *big.Int
	RelayerFee    *big.Int
	MinTimeout    time.Duration
	MaxTimeout    time.Duration
	DisputeWindow time.Duration
}

// LoadConfig reads the configuration from the environment, prefixed with
// PAYCHAN_, applying defaults for everything unset.
func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("PAYCHAN")
	viper.AutomaticEnv()

	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(StoreType, defaultStoreType)
	viper.SetDefault(ChannelFee, defaultChannelFee)
	viper.SetDefault(RelayerFee, defaultRelayerFee)
	viper.SetDefault(MinTimeout, defaultMinTimeout)
	viper.SetDefault(MaxTimeout, defaultMaxTimeout)
	viper.SetDefault(DisputeWindow, defaultDisputeWindow)

	cfg := &Config{
		Datadir:       viper.GetString(Datadir),
		LogLevel:      viper.GetInt(LogLevel),
		StoreType:     viper.GetString(StoreType),
		ChannelFee:    big.NewInt(viper.GetInt64(ChannelFee)),
		RelayerFee:    big.NewInt(viper.GetInt64(RelayerFee)),
		MinTimeout:    viper.GetDuration(MinTimeout),
		MaxTimeout:    viper.GetDuration(MaxTimeout),
		DisputeWindow: viper.GetDuration(DisputeWindow),
	}

	admin := viper.GetString(Admin)
	if len(admin) > 0 {
		if !common.IsHexAddress(admin) {
			return nil, fmt.Errorf("invalid admin address: %s", admin)
		}
		cfg.Admin = common.HexToAddress(admin)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, ok := supportedStores[c.StoreType]; !ok {
		return fmt.Errorf("store type %s is not supported", c.StoreType)
	}
	if c.StoreType == "badger" && len(c.Datadir) == 0 {
		return fmt.Errorf("badger store requires a datadir")
	}
	if c.ChannelFee.Sign() < 0 || c.RelayerFee.Sign() < 0 {
		return fmt.Errorf("fees must be non-negative")
	}
	if c.MinTimeout <= 0 || c.MaxTimeout < c.MinTimeout {
		return fmt.Errorf("invalid timeout bounds [%s, %s]", c.MinTimeout, c.MaxTimeout)
	}
	if c.DisputeWindow <= 0 {
		return fmt.Errorf("dispute window must be positive")
	}
	return nil
}
