package config

import (
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/ton"
)

const (
	MainNetwork = "mainnet"
	TestNetwork = "testnet"
)

var (
	ErrorInvalidNetwork = fmt.Errorf("network must be equal to 'mainnet' or 'testnet' only")

	ErrorInvalidBridgeUrl    = fmt.Errorf("invalid bridge url")
	ErrorInvalidEmulationUrl = fmt.Errorf("invalid emulation url")

	ErrorInvalidMessageTtl     = fmt.Errorf("invalid message time-to-live")
	ErrorInvalidPoolsInterval  = fmt.Errorf("invalid time interval for pools refresh")
	ErrorInvalidReconnectDelay = fmt.Errorf("invalid reconnect delay bounds")
	ErrorInvalidBatteryCeiling = fmt.Errorf("invalid battery max input amount")
	ErrorInvalidPoolEntry      = fmt.Errorf("invalid staking pool entry")
)

var (
	TrailingSlashRE = regexp.MustCompile("/+$")
)

var (
	dbUri   string
	network string

	bridgeUrl    string
	emulationUrl string

	messageTtl        time.Duration
	poolsInterval     time.Duration
	reconnectMinDelay time.Duration
	reconnectMaxDelay time.Duration

	metricsAddress string

	batteryMaxInputAmount *big.Int
	batteryBootstrapMin   *big.Int

	stakingPools []PoolEntry
)

// PoolEntry is one configured staking pool: "kind:address" or
// "kind:address:apy" with apy in percent.
type PoolEntry struct {
	Kind    string
	Address tongo.AccountID
	Apy     decimal.Decimal
}

func ReadConfig(filePath string) {
	viper.SetConfigFile(filePath)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("⚠️ Failed reading config file: %v\n", err.Error())
	}

	err := initializeVariables()
	if err != nil {
		log.Fatalf("Configuration error - %v\n", err.Error())
	}
}

// This method processes the configuration parameters and keeps the processed
// values in some variables for later accesses rapidly.
func initializeVariables() error {
	var err error

	// Database stuff
	dbUri = TrailingSlashRE.ReplaceAllString(viper.GetString("service_db_uri"), "")

	// Network stuff
	network = strings.TrimSpace(strings.ToLower(viper.GetString("network")))
	if strings.Compare(network, MainNetwork) != 0 && strings.Compare(network, TestNetwork) != 0 {
		return ErrorInvalidNetwork
	}

	// Bridge stuff
	bridgeUrl = TrailingSlashRE.ReplaceAllString(strings.TrimSpace(viper.GetString("bridge_url")), "")
	if bridgeUrl == "" {
		return ErrorInvalidBridgeUrl
	}

	emulationUrl = TrailingSlashRE.ReplaceAllString(strings.TrimSpace(viper.GetString("emulation_url")), "")
	if emulationUrl == "" {
		return ErrorInvalidEmulationUrl
	}

	//---------------------------------------------------------------
	// message ttl
	strValue := viper.GetString("message_ttl")
	messageTtl, err = time.ParseDuration(strValue)
	if err != nil || messageTtl <= 0 {
		return ErrorInvalidMessageTtl
	}

	//---------------------------------------------------------------
	// pools refresh interval
	strValue = viper.GetString("pools_interval")
	poolsInterval, err = time.ParseDuration(strValue)
	if err != nil {
		return ErrorInvalidPoolsInterval
	}

	//---------------------------------------------------------------
	// reconnect backoff bounds
	reconnectMinDelay, err = time.ParseDuration(viper.GetString("reconnect_min_delay"))
	if err != nil {
		return ErrorInvalidReconnectDelay
	}
	reconnectMaxDelay, err = time.ParseDuration(viper.GetString("reconnect_max_delay"))
	if err != nil || reconnectMaxDelay < reconnectMinDelay {
		return ErrorInvalidReconnectDelay
	}

	metricsAddress = strings.TrimSpace(viper.GetString("metrics_address"))
	if metricsAddress == "" {
		metricsAddress = ":2112"
	}

	//---------------------------------------------------------------
	// battery (sponsored recharge) stuff
	var ok bool
	batteryMaxInputAmount, ok = new(big.Int).SetString(viper.GetString("battery_max_input_amount"), 10)
	if !ok || batteryMaxInputAmount.Sign() <= 0 {
		return ErrorInvalidBatteryCeiling
	}

	batteryBootstrapMin, ok = new(big.Int).SetString(viper.GetString("battery_bootstrap_min"), 10)
	if !ok {
		batteryBootstrapMin = big.NewInt(0)
	}

	//---------------------------------------------------------------
	// staking pools
	stakingPools = nil
	for _, entry := range viper.GetStringSlice("staking_pools") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 {
			return ErrorInvalidPoolEntry
		}

		address, err := ton.AccountIDFromBase64Url(parts[1])
		if err != nil {
			return ErrorInvalidPoolEntry
		}

		pool := PoolEntry{Kind: strings.ToLower(parts[0]), Address: address}
		if len(parts) > 2 {
			pool.Apy, err = decimal.NewFromString(parts[2])
			if err != nil {
				return ErrorInvalidPoolEntry
			}
		}
		stakingPools = append(stakingPools, pool)
	}

	return nil
}

//-------------------------------------------------------------------
// Normal configuration values

func GetDbUri() string {
	return dbUri
}

func GetNetwork() string {
	return network
}

func GetBridgeUrl() string {
	return bridgeUrl
}

func GetEmulationUrl() string {
	return emulationUrl
}

func GetMessageTtl() time.Duration {
	return messageTtl
}

func GetPoolsInterval() time.Duration {
	return poolsInterval
}

func GetReconnectMinDelay() time.Duration {
	return reconnectMinDelay
}

func GetReconnectMaxDelay() time.Duration {
	return reconnectMaxDelay
}

func GetMetricsAddress() string {
	return metricsAddress
}

func GetBatteryMaxInputAmount() *big.Int {
	return batteryMaxInputAmount
}

func GetBatteryBootstrapMin() *big.Int {
	return batteryBootstrapMin
}

func GetStakingPools() []PoolEntry {
	return stakingPools
}

// -------------------------------------------------------------------
// Evaluating values

func IsTestNet() bool {
	return strings.Compare(network, TestNetwork) == 0
}
