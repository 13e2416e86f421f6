package cmd

import (
	"database/sql"
	"log"
	"time"

	"bridge/domain"
	"bridge/domain/config"
	"bridge/infrastructure/dbhandler"
	"bridge/interface/relay"
	"bridge/interface/repository"
	"bridge/usecase"

	"github.com/tonkeeper/tongo/liteapi"
)

func defaultDependencyInject() {
	var err error
	dbURI := config.GetDbUri()
	dbPool, err = sql.Open("postgres", dbURI)
	if err != nil {
		log.Fatal(err)
	}
	dbPool.SetMaxOpenConns(20)
	dbPool.SetMaxIdleConns(5)
	dbPool.SetConnMaxIdleTime(1 * time.Minute)
	dbPool.SetConnMaxLifetime(4 * time.Hour)

	dbHandler := dbhandler.DBHandler{DB: dbPool}

	if config.IsTestNet() {
		tongoClient, err = liteapi.NewClientWithDefaultTestnet()
	} else {
		tongoClient, err = liteapi.NewClientWithDefaultMainnet()
	}
	if err != nil {
		log.Fatal("Unable to create tongo client: ", err)
	}

	relayClient = relay.NewClient(config.GetBridgeUrl())
	apiClient = relay.NewApiClient(config.GetEmulationUrl())

	appRepository := repository.NewConnectedAppRepository(dbHandler)
	memoRepository := repository.NewMemoRepository(dbHandler)

	memoInteractor = usecase.NewMemoInteractor(memoRepository)
	registryInteractor = usecase.NewRegistryInteractor(appRepository)
	bridgeInteractor = usecase.NewBridgeInteractor(relayClient, registryInteractor, memoInteractor,
		config.GetReconnectMinDelay(), config.GetReconnectMaxDelay())
	negotiatorInteractor = usecase.NewNegotiatorInteractor(registryInteractor, relayClient,
		deviceInfo(), config.GetMessageTtl(), config.GetNetwork())
	builderInteractor = usecase.NewBuilderInteractor(config.GetBatteryMaxInputAmount(), config.GetBatteryBootstrapMin())
	signInteractor = usecase.NewSignInteractor(builderInteractor, tongoClient, apiClient, config.GetMessageTtl())
	feeInteractor = usecase.NewFeeInteractor(signInteractor, apiClient)
	poolsInteractor = usecase.NewPoolsInteractor(tongoClient, configuredPools())
}

func configuredPools() []domain.StakingPool {
	pools := []domain.StakingPool{}
	for _, entry := range config.GetStakingPools() {
		if !domain.KnownPoolKind(entry.Kind) {
			log.Printf("⚠️ Skipping pool with unknown kind '%v'\n", entry.Kind)
			continue
		}
		pools = append(pools, domain.StakingPool{
			Address: entry.Address,
			Kind:    entry.Kind,
			Apy:     entry.Apy,
		})
	}
	return pools
}

func deviceInfo() domain.DeviceInfo {
	return domain.DeviceInfo{
		Platform:           "linux",
		AppName:            "bridge",
		AppVersion:         "1.0.0",
		MaxProtocolVersion: 2,
		Features: []any{
			"SendTransaction",
			map[string]any{
				"name":        "SendTransaction",
				"maxMessages": domain.MaxMessagesPerTransfer,
			},
		},
	}
}

var dbPool *sql.DB
var tongoClient *liteapi.Client
var relayClient *relay.Client
var apiClient *relay.ApiClient
var memoInteractor *usecase.MemoInteractor
var registryInteractor *usecase.RegistryInteractor
var bridgeInteractor *usecase.BridgeInteractor
var negotiatorInteractor *usecase.NegotiatorInteractor
var builderInteractor *usecase.BuilderInteractor
var signInteractor *usecase.SignInteractor
var feeInteractor *usecase.FeeInteractor
var poolsInteractor *usecase.PoolsInteractor
