package main

import (
	"flag"
	"glodipay/config"
	"glodipay/internal"
	"glodipay/services"
)

func main() {

	logger := internal.NewLogger("internal", false, nil)

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	logger.Info("using config file: " + *configPath)
	conf, err := config.GetConfig(*configPath)
	if err != nil {
		logger.Error("boot", err)
		return
	}

	var mongo services.Database
	if conf.Mongo.Enabled {
		mongo, err = internal.NewMongoClient(conf)
		if err != nil {
			logger.Error("mongo client", err)
			return
		}
		logger.Info("mongo client initialized")
	}

	signer, err := internal.NewSigner(conf.Merchant.PrivateKey, conf.Merchant.PublicKey)
	if err != nil {
		logger.Error("merchant keys", err)
		return
	}

	payments := internal.NewPayments(conf, signer)
	payments.SetLogger(internal.NewLogger("payments", conf.IsDebug, mongo))
	payments.SetDatabase(mongo)

	reconciler := internal.NewReconciler(conf, payments, mongo)
	reconciler.SetLogger(internal.NewLogger("reconciler", conf.IsDebug, mongo))
	err = reconciler.Start()
	if err != nil {
		logger.Error("reconciler start", err)
		return
	}

	server := internal.NewServer(conf)
	server.SetLogger(internal.NewLogger("server", conf.IsDebug, mongo))
	server.SetPaymentsService(payments)

	err = server.Start()
	if err != nil {
		logger.Error("server start", err)
		return
	}

}
